// Command ordersctl inspects and edits the order table by hand: list rows,
// requeue a customer, or apply structured changes to an order.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/log"

	"voice-order-confirm/order-confirmation/config"
	"voice-order-confirm/order-confirmation/store"
	"voice-order-confirm/order-confirmation/telemetry"
)

// app is the state shared by every subcommand
type app struct {
	cfg    *config.Config
	store  store.Store
	close  func() error
	logger log.Logger
	out    io.Writer

	// intentSource is set lazily by the intent command
	intentSource intentExtractor
}

func main() {
	a := &app{out: os.Stdout, logger: telemetry.NewLogger(os.Stderr, slog.LevelWarn)}
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "ordersctl",
		Short:         "Inspect and edit the order confirmation table",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.close != nil {
				return a.close()
			}
			return nil
		},
	}
	root.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newRequeueCmd(a),
		newApplyCmd(a),
		newIntentCmd(a),
		newImportCmd(a),
	)
	return root
}

// open loads configuration and the store unless a test already injected one
func (a *app) open(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	s, closeFn, err := cfg.OpenStore(ctx, a.logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.cfg, a.store, a.close = cfg, s, closeFn
	return nil
}
