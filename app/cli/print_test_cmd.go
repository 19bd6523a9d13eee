package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"PosPrint/app/models"
	"PosPrint/app/services"
)

// NewPrintTestCommand creates the print-test command.
func NewPrintTestCommand(rootOpts *RootOptions) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "print-test",
		Short: "Print a test ticket on the kitchen or payment printer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := models.PrinterRole(role)
			if !r.Valid() {
				return fmt.Errorf("invalid role %q: must be kitchen or payment", role)
			}

			a, err := bootstrap(rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.printerService(services.NoopPublisher{}).TestPrinter(cmd.Context(), r)
			if err != nil {
				return err
			}
			return output(cmd, rootOpts, result, fmt.Sprintf("Test ticket sent (job %s)", result.JobID))
		},
	}

	cmd.Flags().StringVar(&role, "role", string(models.RoleKitchen), "printer role (kitchen|payment)")
	return cmd
}
