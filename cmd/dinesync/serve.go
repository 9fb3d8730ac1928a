package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dinesync/dinesync/config"
	"github.com/dinesync/dinesync/internal/realtime"
	"github.com/dinesync/dinesync/internal/web"
	"github.com/dinesync/dinesync/pkg/logger"
	"github.com/dinesync/dinesync/pkg/notify"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := boot(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			notices := notify.NewCenter(a.Bus)
			defer notices.Close()

			channel := realtime.NewChannel(config.RealtimeURL(), a.Bus, notices)
			if err := channel.Connect(); err != nil {
				// The channel keeps retrying on its own; snapshots still work.
				logger.Warn("serve: realtime connect failed", "error", err)
			}
			defer channel.Close()

			stopWatch := a.Session.Watch(config.SessionCheckTick())
			defer stopWatch()

			srv := web.NewServer(a.API, a.Session, a.Bus, channel, notices)
			srv.Mount(ctx)
			defer srv.Close()

			if addr == "" {
				addr = ":" + config.AppPort()
			}
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to :$APP_PORT)")
	return cmd
}
