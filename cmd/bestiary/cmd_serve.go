package main

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bestiary/internal/archive"
)

const (
	shutdownTimeout = 5 * time.Second
	maxRequestBytes = 64 << 10
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently archived sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := a.service.Archive()
			if store == nil {
				return errors.New("session archive disabled: set BESTIARY_ARCHIVE_DRIVER")
			}
			records, err := archive.Recent(cmd.Context(), store, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			out := cmd.OutOrStdout()
			for _, rec := range records {
				fmt.Fprintf(out, "%s  %s  %-8s  %s  passes=%d firings=%d\n",
					rec.ResolvedAt.UTC().Format(time.RFC3339),
					rec.SessionID,
					rec.Strategy,
					displayName(rec.Classification),
					rec.Passes,
					len(rec.Firings),
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of sessions to show, newest last")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the records as a JSON array")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve classification and metrics over HTTP",
		Long: `serve exposes POST /v1/classify, GET /v1/knowledge/{name}, Prometheus
metrics on /metrics and expvar counters on /debug/vars.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.MetricsAddr
			}
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			return a.serve(cmd.Context(), ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default BESTIARY_METRICS_ADDR)")
	return cmd
}

func (a *app) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	a.logger.Info("serving", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.logger.Info("server stopped")
	return nil
}

type classifyRequest struct {
	Features []string `json:"features"`
}

func (a *app) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	mux.Handle("GET /debug/vars", expvar.Handler())
	mux.HandleFunc("GET /v1/vocabulary", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, a.service.Vocabulary())
	})
	mux.HandleFunc("GET /v1/knowledge/{name}", func(w http.ResponseWriter, r *http.Request) {
		rec := a.service.Knowledge(r.PathValue("name"))
		respond(w, http.StatusOK, rec)
	})
	mux.HandleFunc("POST /v1/classify", func(w http.ResponseWriter, r *http.Request) {
		var req classifyRequest
		body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			status := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			respondError(w, status, fmt.Errorf("decode request: %w", err))
			return
		}
		observed, err := a.observations(req.Features, nil)
		if err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		report, err := a.service.Classify(r.Context(), observed)
		if err != nil {
			a.logger.Error("classify request failed", zap.Error(err))
			if report.SessionID == "" {
				respondError(w, http.StatusInternalServerError, err)
				return
			}
		}
		respond(w, http.StatusOK, report)
	})
	return mux
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respond(w, status, map[string]string{"error": err.Error()})
}
