package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"PosPrint/app/services"
	"PosPrint/app/websocket"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the print API, websocket event stream and mDNS announcement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, addr string) error {
	a, err := bootstrap(opts)
	if err != nil {
		return err
	}
	defer a.close()

	if addr != "" {
		a.cfg.Server.Addr = addr
	}
	if err := a.logger.CleanOldLogs(a.cfg.Log.KeepDays); err != nil {
		a.logger.LogWarning("Could not clean old logs", err.Error())
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(a.logger)
	go hub.Run(ctx)

	publishers := services.MultiPublisher{hub}
	if url := a.cfg.Events.NATSURL; url != "" {
		natsPub, err := services.NewNATSPublisher(url)
		if err != nil {
			// Printing works without NATS
			a.logger.LogError("NATS unavailable, events go to websocket only", err, "url="+url)
		} else {
			defer natsPub.Close()
			publishers = append(publishers, natsPub)
			a.logger.LogInfo("Publishing print events to NATS", "subject="+a.cfg.Events.Subject)
		}
	}

	server := websocket.NewServer(a.cfg.Server, a.printerService(publishers), hub, a.transport, a.logger)

	errCh := make(chan error, 1)
	go func() {
		defer a.logger.RecoverPanic()
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.logger.LogInfo("Shutting down print server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Stop(shutdownCtx)
	}
}
