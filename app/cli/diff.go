package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"PosPrint/app/models"
	"PosPrint/app/services"
)

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	var cart, sent map[string]int

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show what the kitchen still needs to be told",
		Example: `  posprint diff --cart 1=2,3=1 --sent 1=1
  posprint diff --sent 5=2 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cartState, err := parseQuantities(cart)
			if err != nil {
				return fmt.Errorf("--cart: %w", err)
			}
			sentState, err := parseQuantities(sent)
			if err != nil {
				return fmt.Errorf("--sent: %w", err)
			}

			delta := services.DiffOrder(models.CartState(cartState), models.SentState(sentState))
			return output(cmd, rootOpts, delta, formatDelta(delta))
		},
	}

	cmd.Flags().StringToIntVar(&cart, "cart", nil, "wanted quantities as id=qty pairs")
	cmd.Flags().StringToIntVar(&sent, "sent", nil, "quantities already sent as id=qty pairs")
	return cmd
}

func parseQuantities(in map[string]int) (map[int64]int, error) {
	out := make(map[int64]int, len(in))
	for key, qty := range in {
		id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid item id %q", key)
		}
		if qty < 0 {
			return nil, fmt.Errorf("negative quantity for item %d", id)
		}
		if qty > 0 {
			out[id] = qty
		}
	}
	return out, nil
}

func formatDelta(delta models.OrderDelta) string {
	if delta.IsEmpty() {
		return "Nothing to send"
	}
	var b strings.Builder
	for _, id := range models.SortedItemIDs(delta.Additions) {
		fmt.Fprintf(&b, "+ item %d x%d\n", id, delta.Additions[id])
	}
	for _, id := range models.SortedItemIDs(delta.Cancellations) {
		fmt.Fprintf(&b, "- item %d x%d\n", id, delta.Cancellations[id])
	}
	return strings.TrimSuffix(b.String(), "\n")
}
