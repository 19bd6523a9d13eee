package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// output writes v as indented JSON, or text, depending on --format
func output(cmd *cobra.Command, opts *RootOptions, v interface{}, text string) error {
	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}
