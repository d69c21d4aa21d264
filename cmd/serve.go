package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/ingest"
	"github.com/seopulse/seopulse/internal/tiering"
)

// triggerHeader must accompany every trigger call alongside the bearer
// secret; scheduler misconfiguration then fails loudly instead of
// silently running pipelines.
const triggerHeader = "X-Seopulse-Trigger"

var servePort int

// ingestRunner and tierRunner are the slices of the pipeline the trigger
// server needs; tests substitute fakes.
type ingestRunner interface {
	Run(ctx context.Context, site, startDate, endDate, searchType string) (*ingest.Report, error)
}

type tierRunner interface {
	Run(ctx context.Context, site string) (*tiering.RunReport, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scheduler trigger server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		router := newRouter(env.Gateway, env.Tiering, cfg.Server.TriggerSecret)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the trigger routes. The health endpoint is open; the
// trigger endpoints require the trigger header plus the shared secret.
func newRouter(ing ingestRunner, tr tierRunner, secret string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type", triggerHeader},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(triggerAuth(secret))
		r.Post("/trigger/ingest", handleTriggerIngest(ing))
		r.Post("/trigger/tier", handleTriggerTier(tr))
	})

	return r
}

// triggerAuth rejects calls missing the trigger header (401) or carrying
// the wrong bearer secret (403).
func triggerAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "trigger secret not configured"})
				return
			}
			if r.Header.Get(triggerHeader) == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing trigger header"})
				return
			}
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
				return
			}
			if token != secret {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid trigger secret"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func handleTriggerIngest(ing ingestRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Site       string `json:"site"`
			StartDate  string `json:"start_date"`
			EndDate    string `json:"end_date"`
			SearchType string `json:"search_type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if req.Site == "" || req.StartDate == "" || req.EndDate == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "site, start_date, and end_date are required"})
			return
		}

		report, err := ing.Run(r.Context(), req.Site, req.StartDate, req.EndDate, req.SearchType)
		if err != nil {
			// Handled pipeline failure (e.g. quota exhausted after retries):
			// scheduled callers get a degraded payload, not a 500, so they
			// can tell "system down" from "run failed".
			zap.L().Error("trigger ingest failed", zap.String("site", req.Site), zap.Error(err))
			writeJSON(w, http.StatusOK, map[string]any{
				"status": "degraded",
				"site":   req.Site,
				"error":  err.Error(),
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"report": report,
		})
	}
}

func handleTriggerTier(tr tierRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Site string `json:"site"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if req.Site == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "site is required"})
			return
		}

		report, err := tr.Run(r.Context(), req.Site)
		if err != nil {
			zap.L().Error("trigger tier failed", zap.String("site", req.Site), zap.Error(err))
			writeJSON(w, http.StatusOK, map[string]any{
				"status": "degraded",
				"site":   req.Site,
				"error":  err.Error(),
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":          "ok",
			"report":          report,
			"recommendations": report.Recommendations(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
