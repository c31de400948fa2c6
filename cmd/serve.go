package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"aeroqualify/internal/bootstrap"
	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/infrastructure/roster"
	"aeroqualify/internal/transport/httpapi"
	"aeroqualify/internal/usecase/capa"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API, live websocket feed and /metrics",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *capa.Service) error {
		cfg := app.Config.HTTP
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			return errs.Validation(errors.New("http.jwt_secret is required to serve"))
		}
		addr := cfg.Addr
		if override, _ := cmd.Flags().GetString("addr"); strings.TrimSpace(override) != "" {
			addr = override
		}

		tokens, err := httpapi.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
		if err != nil {
			return err
		}
		metrics := promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})
		server, err := httpapi.NewServer(svc, tokens, httpapi.NewHub(), metrics)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.Run(gctx, addr)
		})
		if path := strings.TrimSpace(app.Config.Roster.File); path != "" {
			apply := func(ctx context.Context, r qms.Roster) error {
				_, err := svc.ApplyRoster(ctx, capa.RosterActor, r)
				return err
			}
			if initial, err := roster.LoadFile(path); err != nil {
				logging.Warn(ctx, "initial roster load failed", slog.String("path", path), slog.Any("err", errs.Loggable(err)))
			} else if err := apply(ctx, initial); err != nil {
				logging.Warn(ctx, "initial roster apply failed", slog.String("path", path), slog.Any("err", errs.Loggable(err)))
			}
			g.Go(func() error {
				return roster.NewWatcher(path, apply).Run(gctx)
			})
		}

		if err := g.Wait(); err != nil {
			return errs.Wrap(err, "serve")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address, overrides http.addr")
}
