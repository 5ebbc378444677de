package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-reportgen/internal/config"
	"github.com/goliatone/go-reportgen/internal/server"
	"github.com/goliatone/go-reportgen/pkg/catalog"
	"github.com/goliatone/go-reportgen/pkg/openapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report API over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(appOptions{store: true, pdf: true})
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.cfg
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		options := []server.Option{
			server.WithTemplates(a.templates()),
			server.WithAutosaveDelay(cfg.Autosave.Delay),
			server.WithOpenAPIOptions(openapi.WithServer("http://localhost" + listenPort(cfg.Server.Addr))),
			server.WithLogger(a.logger),
		}
		if a.store != nil {
			options = append(options, server.WithReportStore(a.store))
		}
		srv, err := server.New(a.pipeline, options...)
		if err != nil {
			return err
		}

		if a.config.File() != "" {
			a.config.OnChange(func(next config.Config) {
				a.logger.Info("configuration changed; restart to apply server settings",
					zap.String("file", a.config.File()),
					zap.String("log_level", next.Log.Level),
				)
			})
			a.config.Watch()
		}

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			return srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout)
		})
		if cfg.Templates.Watch && cfg.Templates.Dir != "" {
			g.Go(func() error {
				return a.catalog.Watch(ctx, cfg.Templates.Dir,
					catalog.WithWatchDelay(250*time.Millisecond),
					catalog.OnReload(func(ids []string, err error) {
						if err != nil {
							a.logger.Warn("template reload failed", zap.Error(err))
							return
						}
						a.logger.Info("templates reloaded", zap.Strings("ids", ids))
					}),
				)
			})
		}

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func listenPort(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[i:]
		}
	}
	return ""
}
