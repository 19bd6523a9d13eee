package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"PosPrint/app/models"
)

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the shop settings row",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current shop settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			settings, err := a.settings.Load(cmd.Context())
			if err != nil {
				return err
			}
			return output(cmd, rootOpts, settings, formatSettings(settings))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set key=value...",
		Short: "Update one or more settings fields",
		Example: `  posprint settings set printer1=192.168.1.200 kitchen_printer_id=printer1
  posprint settings set bank_id=VCB account_no=0123456789 vat_percent=10`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(rootOpts)
			if err != nil {
				return err
			}
			defer a.close()

			settings, err := a.settings.Load(cmd.Context())
			if err != nil {
				return err
			}
			for _, arg := range args {
				key, value, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("expected key=value, got %q", arg)
				}
				if err := applySetting(&settings, strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
					return err
				}
			}
			if err := a.settings.Save(cmd.Context(), settings); err != nil {
				return err
			}
			return output(cmd, rootOpts, settings, "Settings saved")
		},
	})

	return cmd
}

// applySetting sets one field by its JSON name
func applySetting(s *models.RestaurantSettings, key, value string) error {
	switch key {
	case "shop_name":
		s.ShopName = value
	case "address":
		s.Address = value
	case "phone":
		s.Phone = value
	case "thank_you_message":
		s.ThankYouMessage = value
	case "bank_id":
		s.BankID = strings.ToUpper(value)
	case "account_no":
		s.AccountNo = value
	case "is_vat_enabled":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("is_vat_enabled: %w", err)
		}
		s.IsVATEnabled = enabled
	case "vat_percent":
		percent, err := strconv.ParseFloat(value, 64)
		if err != nil || percent < 0 {
			return fmt.Errorf("vat_percent: invalid value %q", value)
		}
		s.VATPercent = percent
	case "printer1":
		s.Printer1 = value
	case "printer2":
		s.Printer2 = value
	case "kitchen_printer_id", "payment_printer_id":
		slot := models.PrinterSlot(value)
		if slot != models.SlotPrinter1 && slot != models.SlotPrinter2 && slot != "" {
			return fmt.Errorf("%s: must be printer1 or printer2", key)
		}
		if key == "kitchen_printer_id" {
			s.KitchenPrinterID = slot
		} else {
			s.PaymentPrinterID = slot
		}
	case "printer_port":
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("printer_port: invalid value %q", value)
		}
		s.PrinterPort = port
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

func formatSettings(s models.RestaurantSettings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shop:     %s\n", s.ShopName)
	fmt.Fprintf(&b, "Address:  %s\n", s.Address)
	fmt.Fprintf(&b, "Phone:    %s\n", s.Phone)
	fmt.Fprintf(&b, "Bank:     %s %s\n", s.BankID, s.AccountNo)
	fmt.Fprintf(&b, "VAT:      %v (%.4g%%)\n", s.IsVATEnabled, s.VATPercent)
	fmt.Fprintf(&b, "Kitchen:  %s (%s)\n", s.KitchenPrinterID, s.IPFor(models.RoleKitchen))
	fmt.Fprintf(&b, "Payment:  %s (%s)\n", s.PaymentPrinterID, s.IPFor(models.RolePayment))
	fmt.Fprintf(&b, "Port:     %d", s.PrinterPort)
	return b.String()
}
