package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dinesync/dinesync/config"
	"github.com/dinesync/dinesync/internal/api"
	"github.com/dinesync/dinesync/internal/session"
	"github.com/dinesync/dinesync/pkg/cache"
	"github.com/dinesync/dinesync/pkg/event"
	"github.com/dinesync/dinesync/pkg/logger"
	"github.com/dinesync/dinesync/pkg/storage"
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "dinesync",
		Short:        "Restaurant ordering frontend",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), loginCmd(), logoutCmd(), whoamiCmd())
	return root
}

// app is the booted dependency graph shared by the commands.
type app struct {
	Bus     *event.Bus
	Session *session.Store
	API     *api.API

	mongoClose func()
}

// boot loads config, attaches the log sink, connects cache and storage, and
// wires the session-aware backend client. Optional backends degrade to
// no-ops rather than failing the boot.
func boot(ctx context.Context) (*app, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}

	a := &app{Bus: event.NewBus()}

	if uri := config.MongoLogURI(); uri != "" {
		mh, err := logger.NewMongoHandler(uri, config.MongoLogDB(), config.MongoLogColl())
		if err != nil {
			logger.Warn("boot: mongo log sink unavailable", "error", err)
		} else {
			logger.UseMongoSink(mh)
			a.mongoClose = mh.Close
		}
	}

	if err := cache.Connect(); err != nil {
		logger.Warn("boot: cache unavailable, catalog reads go straight through", "error", err)
	}
	storage.Connect()

	a.Session = session.NewStore(config.SessionFile(), a.Bus)
	a.API = api.New(config.APIBaseURL(), a.Session.Token)
	a.API.OnUnauthorized(func() {
		logger.Info("session rejected upstream, logging out")
		if err := a.Session.Logout(); err != nil {
			logger.Warn("logout persist", "error", err)
		}
	})

	return a, nil
}

func (a *app) close() {
	if a.mongoClose != nil {
		a.mongoClose()
	}
}
