package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leads-cli/internal/export"
	"github.com/sells-group/leads-cli/internal/model"
	"github.com/sells-group/leads-cli/internal/rank"
	"github.com/sells-group/leads-cli/internal/session"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		// Initial load so the dashboard has rows before the first search.
		if err := env.orch.FetchSheet(ctx, ""); err != nil {
			zap.L().Warn("initial sheet load failed", zap.Error(err))
		}
		env.orch.StartAutoRefresh(ctx)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env.orch),
		}

		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func newRouter(o *session.Orchestrator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/login", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		u, err := o.Login(req.Context(), body.Email, body.Password)
		if err != nil {
			writeOperationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	})

	r.Post("/api/logout", func(w http.ResponseWriter, req *http.Request) {
		o.Logout(req.Context())
		writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
	})

	r.Post("/api/search", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		out, err := o.Search(req.Context(), body.Query)
		if err != nil {
			writeOperationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, searchResponse(out))
	})

	r.Get("/api/rows", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		rows := o.VisibleRows()
		columns := model.Columns(rows)

		rows = rank.Filter{
			Global:  q.Get("q"),
			Address: q.Get("address"),
			Keyword: q.Get("keyword"),
		}.Apply(rows, columns)

		rows = rank.Sort(rows, rank.SortSpec{
			Column:    q.Get("sort"),
			Direction: rank.Direction(q.Get("dir")),
		})

		page := atoiDefault(q.Get("page"), 0)
		perPage := atoiDefault(q.Get("per_page"), 100)

		writeJSON(w, http.StatusOK, map[string]any{
			"columns":    columns,
			"rows":       flattenRows(rank.Paginate(rows, page, perPage)),
			"total":      len(rows),
			"page":       page,
			"page_count": rank.PageCount(len(rows), perPage),
			"duplicates": o.DuplicateCount(),
		})
	})

	r.Post("/api/duplicates/remove", func(w http.ResponseWriter, req *http.Request) {
		out, err := o.RemoveDuplicates(req.Context())
		if err != nil {
			writeOperationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Post("/api/duplicates/toggle", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{
			"showDuplicates": o.ToggleDuplicatesVisible(),
		})
	})

	r.Get("/api/export", func(w http.ResponseWriter, req *http.Request) {
		rows := rank.Sort(o.VisibleRows(), rank.SortSpec{
			Column:    req.URL.Query().Get("sort"),
			Direction: rank.Direction(req.URL.Query().Get("dir")),
		})

		if req.URL.Query().Get("format") == "xlsx" {
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			w.Header().Set("Content-Disposition", `attachment; filename="sheet-data.xlsx"`)
			if err := export.WriteXLSX(w, rows); err != nil {
				zap.L().Error("xlsx export failed", zap.Error(err))
			}
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="sheet-data.csv"`)
		if err := export.WriteCSV(w, rows); err != nil {
			zap.L().Error("csv export failed", zap.Error(err))
		}
	})

	return r
}

// writeOperationError maps the session error taxonomy onto HTTP statuses.
func writeOperationError(w http.ResponseWriter, err error) {
	switch {
	case session.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case session.IsAuth(err):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, session.ErrSearchInFlight):
		writeError(w, http.StatusConflict, err.Error())
	case session.IsConnectivity(err):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func searchResponse(out *session.SearchOutcome) map[string]any {
	return map[string]any{
		"leads":            out.Leads,
		"rows":             flattenRows(out.Rows),
		"duplicates":       out.DuplicateCount,
		"remaining_access": out.RemainingAccess,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func flattenRows(rows []model.Lead) []map[string]string {
	flat := make([]map[string]string, len(rows))
	for i, r := range rows {
		flat[i] = r.AsRow()
	}
	return flat
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// requestLogger tags each request with an ID and logs its outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		zap.L().Debug("request",
			zap.String("id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
