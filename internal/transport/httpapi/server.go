package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/usecase/capa"
)

const (
	maxBodyBytes    = 20 << 20
	shutdownTimeout = 10 * time.Second
)

// Server exposes the CAPA service over JSON/HTTP and pushes dashboard
// reloads to websocket clients.
type Server struct {
	svc     *capa.Service
	tokens  *Tokens
	hub     *Hub
	metrics http.Handler
}

// NewServer wires the API. metrics may be nil to disable /metrics.
func NewServer(svc *capa.Service, tokens *Tokens, hub *Hub, metrics http.Handler) (*Server, error) {
	if svc == nil {
		return nil, errors.New("capa service is required")
	}
	if tokens == nil {
		return nil, errors.New("tokens are required")
	}
	if hub == nil {
		hub = NewHub()
	}
	return &Server{svc: svc, tokens: tokens, hub: hub, metrics: metrics}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.tokens.authenticate)
		r.Handle("/ws", s.hub)
		r.Route("/api/v1", s.registerAPI)
	})
	return r
}

func (s *Server) registerAPI(r chi.Router) {
	r.Route("/cars", func(r chi.Router) {
		r.Get("/", s.listCARs)
		r.Post("/", s.raiseCAR)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getCAR)
			r.Patch("/", s.editCAR)
			r.Delete("/", s.deleteCAR)
			r.Post("/cap", s.submitCAP)
			r.Post("/cap/evidence", s.addEvidence)
			r.Delete("/cap/evidence/{index}", s.removeEvidence)
			r.Post("/verification", s.submitVerification)
		})
	})

	r.Get("/risks", s.listRisks)
	r.Post("/risks", s.saveRisk)
	r.Delete("/risks/{id}", s.deleteRisk)
	r.Get("/risk/rate", s.rateRisk)
	r.Get("/risk/matrix", s.riskMatrix)

	r.Post("/registers", s.saveRegisters)
	r.Get("/registers/{kind}", s.listRegister)
	r.Post("/registers/{kind}", s.saveRegisterRecord)
	r.Delete("/registers/{kind}/{id}", s.deleteRegisterRecord)

	r.Get("/managers", s.listManagers)
	r.Put("/managers", s.setManager)
	r.Delete("/managers/{id}", s.deleteManager)

	r.Get("/score", s.score)
	r.Get("/alerts", s.alerts)
	r.Get("/dashboard", s.dashboard)
	r.Get("/check", s.check)
	r.Get("/changes", s.changes)
}

// Run serves on addr until ctx is cancelled. Record changes observed on the
// change feed are pushed to websocket clients as reload messages.
func (s *Server) Run(ctx context.Context, addr string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "httpapi.server"))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return logCtx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info(logCtx, "http server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errs.Wrap(err, "listen and serve")
		}
		return nil
	})
	g.Go(func() error {
		err := s.svc.WatchChanges(gctx, func(report capa.DashboardReport) {
			s.hub.Broadcast(gctx, LiveMessage{Type: "reload", Payload: report})
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return errs.Wrap(err, "watch changes")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown http server")
		}
		logging.Info(logCtx, "http server stopped")
		return nil
	})
	return g.Wait()
}
