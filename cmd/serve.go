package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/toofancoder/jobtrack/internal/model"
	"github.com/toofancoder/jobtrack/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for records and sync triggers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/records", func(w http.ResponseWriter, req *http.Request) {
			rows, err := env.Ledger.ReadAll(req.Context())
			if err != nil {
				zap.L().Error("records read failed", zap.Error(err))
				writeJSON(w, http.StatusBadGateway, map[string]string{"error": "ledger unavailable"})
				return
			}
			apps := make([]model.Application, len(rows))
			for i, row := range rows {
				apps[i] = row.Application()
			}
			writeJSON(w, http.StatusOK, apps)
		})

		r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
			runs, err := env.Store.ListRuns(req.Context(), store.RunFilter{
				Kind: req.URL.Query().Get("kind"),
			})
			if err != nil {
				zap.L().Error("runs list failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store unavailable"})
				return
			}
			writeJSON(w, http.StatusOK, runs)
		})

		r.Post("/sync", func(w http.ResponseWriter, req *http.Request) {
			// The scan runs against the server context, not the
			// request's, so it survives the client disconnecting.
			go func() {
				src, err := initMailbox(ctx)
				if err != nil {
					zap.L().Error("sync mailbox init failed", zap.Error(err))
					return
				}
				report, err := runScan(ctx, env, src, cfg.Gmail.Query, cfg.Gmail.MaxResults, false)
				if err != nil {
					zap.L().Error("sync failed", zap.Error(err))
					return
				}
				zap.L().Info("sync complete",
					zap.Int("scanned", report.Scanned),
					zap.Int("new", len(report.New)),
					zap.Int("updated", len(report.Updated)))
			}()
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			shutdownServer(srv)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

const shutdownTimeout = 10 * time.Second

// shutdownServer drains in-flight requests. The signal context is already
// canceled by the time shutdown starts, so draining needs its own deadline.
func shutdownServer(srv *http.Server) {
	zap.L().Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Warn("server shutdown incomplete", zap.Error(err))
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
