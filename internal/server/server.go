// Package server assembles the proxy pipeline, the reserved service
// endpoints, and the middleware chain into one HTTP server, and owns
// its lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wudi/apiproxy/internal/config"
	"github.com/wudi/apiproxy/internal/headers"
	"github.com/wudi/apiproxy/internal/logging"
	"github.com/wudi/apiproxy/internal/metrics"
	"github.com/wudi/apiproxy/internal/middleware"
	"github.com/wudi/apiproxy/internal/proxy"
	"github.com/wudi/apiproxy/internal/router"
	"github.com/wudi/apiproxy/internal/web"
)

const healthBody = `{"status": "healthy", "service": "api-proxy"}`

// Server is the assembled proxy service.
type Server struct {
	cfg        *config.Config
	handler    http.Handler
	httpServer *http.Server
}

// New wires the route table, outbound client, pipeline, and service
// endpoints from cfg.
func New(cfg *config.Config) (*Server, error) {
	table, err := router.NewTable(cfg.Routes)
	if err != nil {
		return nil, fmt.Errorf("build route table: %w", err)
	}

	index, err := web.NewIndex(table)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	client := proxy.NewClient(proxy.ClientConfigFrom(cfg.Proxy))
	p := proxy.New(proxy.Config{
		Table:     table,
		Allowed:   headers.NewAllowSet(cfg.AllowedHeaders),
		Forwarder: proxy.NewForwarder(client),
		Collector: collector,
	})

	s := &Server{cfg: cfg}
	s.handler = middleware.NewChain(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(cfg.Logging.AccessLog),
		middleware.MaxBody(cfg.Proxy.MaxBodyBytes()),
	).Then(s.dispatcher(p, index, registry))

	s.httpServer = &http.Server{
		Addr:         cfg.Listen.Address,
		Handler:      s.handler,
		ReadTimeout:  cfg.Listen.ReadTimeout,
		WriteTimeout: cfg.Listen.WriteTimeout,
		IdleTimeout:  cfg.Listen.IdleTimeout,
	}

	return s, nil
}

// dispatcher routes the reserved GET endpoints; everything else goes to
// the proxy pipeline. Reserved paths match exactly and only for GET, so
// a POST to /health still resolves against the route table.
func (s *Server) dispatcher(p *proxy.Proxy, index *web.Index, registry *prometheus.Registry) http.Handler {
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	metricsEnabled := s.cfg.Metrics.IsEnabled()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			switch r.URL.Path {
			case "/", "/index.html":
				index.ServeHTTP(w, r)
				return
			case "/robots.txt":
				web.Robots(w, r)
				return
			case "/health":
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(healthBody))
				return
			case "/metrics":
				if metricsEnabled {
					metricsHandler.ServeHTTP(w, r)
					return
				}
			}
		}
		p.ServeHTTP(w, r)
	})
}

// Handler returns the fully assembled handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests
// within the configured shutdown timeout.
func (s *Server) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logging.Info("Starting API proxy",
			zap.String("address", s.cfg.Listen.Address),
			zap.Int("routes", len(s.cfg.Routes)),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Shutting down gracefully...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.Listen.ShutdownTimeout)
		defer shutdownCancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logging.Info("Server shutdown complete")
	return nil
}
