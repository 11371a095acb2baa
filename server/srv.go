package server

import (
	"context"
	"fmt"
	"os"

	"github.com/inscription-c/insc-testbed/config"
	"github.com/inscription-c/insc-testbed/internal/log"
	"github.com/inscription-c/insc-testbed/internal/signal"
	"github.com/inscription-c/insc-testbed/server/handle"
	"github.com/inscription-c/insc-testbed/testbed"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var Cmd = &cobra.Command{
	Use:   "server",
	Short: "testbed http api over the node and the signer",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.FromCommand(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if err := Srv(cfg); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

// Srv initializes a session in the background and serves the HTTP API until
// an interrupt is received.
func Srv(cfg *config.Config) error {
	// Initialize log rotation.  After log rotation has been initialized, the
	// logger variables may be used.
	if err := log.Setup(cfg.LogFile(), cfg.Log.Level); err != nil {
		return err
	}
	signal.AddInterruptHandler(log.Close)

	tb, err := testbed.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	h, err := handle.New(
		handle.WithWorkflow(tb),
		handle.WithAddr(cfg.Server.Listen),
		handle.WithEnablePProf(cfg.Server.PProf),
		handle.WithPrometheus(cfg.Server.Prometheus),
	)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(signal.Context(context.Background()))
	g.Go(func() error {
		// a partial initialization leaves the api usable, POST /init retries
		if err := tb.Initialize(ctx); err != nil {
			log.Log.Warnf("partial initialization: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		return h.Run(ctx)
	})
	if err := g.Wait(); err != nil {
		signal.SimulateInterrupt()
		return err
	}
	<-signal.InterruptHandlersDone
	return nil
}
