package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"PosPrint/app/models"
)

// NewMenuCommand creates the menu command group.
func NewMenuCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Manage the menu used to name and price tickets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List menu items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			items, err := a.menu.GetAllItems(cmd.Context())
			if err != nil {
				return err
			}
			text := fmt.Sprintf("%d items", len(items))
			for _, item := range items {
				text += fmt.Sprintf("\n%6d  %-30s %10d  %s", item.ID, item.Name, item.Price, item.CategoryName())
			}
			return output(cmd, rootOpts, items, text)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.json>",
		Short: "Insert or update menu items from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readMenuFile(args[0])
			if err != nil {
				return err
			}

			a, err := bootstrap(rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.menu.UpsertItems(cmd.Context(), items...); err != nil {
				return err
			}
			return output(cmd, rootOpts, map[string]int{"imported": len(items)},
				fmt.Sprintf("Imported %d items", len(items)))
		},
	})

	return cmd
}

func readMenuFile(path string) ([]models.MenuItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []models.MenuItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i, item := range items {
		if item.ID <= 0 || item.Name == "" {
			return nil, fmt.Errorf("%s: item %d needs an id and a name", path, i)
		}
		if item.Price < 0 {
			return nil, fmt.Errorf("%s: item %d has a negative price", path, item.ID)
		}
	}
	return items, nil
}
