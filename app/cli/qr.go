package cli

import (
	"fmt"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"PosPrint/app/vietqr"
)

type qrOptions struct {
	bank    string
	account string
	amount  int64
	note    string
	png     string
	size    int
}

// NewQRCommand creates the qr command.
func NewQRCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &qrOptions{}

	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Build a VietQR transfer payload",
		Long: `Build the EMV payload for a bank transfer QR. Without --amount the code is
static and can be printed once and reused.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQR(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.bank, "bank", "", "bank code, e.g. MB, VCB, TCB")
	cmd.Flags().StringVar(&opts.account, "account", "", "beneficiary account number")
	cmd.Flags().Int64Var(&opts.amount, "amount", 0, "amount in VND (0 for a static QR)")
	cmd.Flags().StringVar(&opts.note, "note", "", "transfer description")
	cmd.Flags().StringVar(&opts.png, "png", "", "also write the QR as a PNG file")
	cmd.Flags().IntVar(&opts.size, "size", 512, "PNG size in pixels")
	cmd.MarkFlagRequired("bank")
	cmd.MarkFlagRequired("account")

	return cmd
}

func runQR(cmd *cobra.Command, rootOpts *RootOptions, opts *qrOptions) error {
	if opts.amount < 0 {
		return fmt.Errorf("amount must not be negative")
	}

	payload, err := vietqr.Build(vietqr.Request{
		BankID:    opts.bank,
		AccountNo: opts.account,
		Amount:    opts.amount,
		Note:      opts.note,
	})
	if err != nil {
		return err
	}

	if opts.png != "" {
		if err := qrcode.WriteFile(payload, qrcode.Medium, opts.size, opts.png); err != nil {
			return fmt.Errorf("could not write %s: %w", opts.png, err)
		}
	}

	return output(cmd, rootOpts, map[string]interface{}{
		"payload": payload,
		"crc":     payload[len(payload)-4:],
		"png":     opts.png,
	}, payload)
}
