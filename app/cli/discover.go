package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"PosPrint/app/printer"
)

// NewDiscoverCommand creates the discover command.
func NewDiscoverCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		subnets []string
		opts    printer.ScanOptions
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Scan the LAN for printers listening on port 9100",
		Long: `Scan one or more IPv4 subnets for hosts accepting connections on the raw
printer port. Without --subnet the /24 of every local interface is scanned.
Nothing is printed; each connection is closed straight away.`,
		Example: `  posprint discover
  posprint discover --subnet 192.168.1.0/24 --timeout 300ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(subnets) == 0 {
				local, err := printer.LocalSubnets()
				if err != nil {
					return fmt.Errorf("could not list network interfaces: %w", err)
				}
				if len(local) == 0 {
					return fmt.Errorf("no IPv4 network found, pass --subnet")
				}
				subnets = local
			}

			var hosts []string
			for _, subnet := range subnets {
				h, err := printer.SubnetHosts(subnet)
				if err != nil {
					return err
				}
				hosts = append(hosts, h...)
			}

			found := printer.Discover(cmd.Context(), nil, hosts, opts)
			return output(cmd, rootOpts, found, formatDetected(subnets, found))
		},
	}

	cmd.Flags().StringSliceVar(&subnets, "subnet", nil, "subnet to scan in CIDR form (repeatable)")
	cmd.Flags().IntVar(&opts.Port, "port", 9100, "printer port")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 500*time.Millisecond, "connect timeout per host")
	cmd.Flags().IntVar(&opts.Workers, "workers", 64, "concurrent probes")
	return cmd
}

func formatDetected(subnets []string, found []printer.DetectedPrinter) string {
	if len(found) == 0 {
		return fmt.Sprintf("No printers found on %s", strings.Join(subnets, ", "))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d printer(s) found", len(found))
	for _, p := range found {
		fmt.Fprintf(&b, "\n  %s:%d  %dms", p.Address, p.Port, p.LatencyMs)
	}
	return b.String()
}
