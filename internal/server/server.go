// Package server exposes the workflows over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/TobiSchelling/welfarelens/internal/auth"
	"github.com/TobiSchelling/welfarelens/internal/collect"
	"github.com/TobiSchelling/welfarelens/internal/database"
	"github.com/TobiSchelling/welfarelens/internal/pipeline"
	"github.com/TobiSchelling/welfarelens/internal/sources"
)

// APIVersion is reported in every response envelope.
const APIVersion = "1.0"

// Sources is the aggregation surface the API exposes.
type Sources interface {
	GetData(ctx context.Context, names []string, params sources.FetchParams) *collect.Result
	AvailableSources(ctx context.Context) ([]database.DataSource, error)
	SourceMetadata(ctx context.Context, kind sources.Kind) (*database.DataSource, error)
	SourceIndicators(kind sources.Kind) (map[string][]string, bool)
	RefreshSources(ctx context.Context) (map[string]string, error)
}

// Server is the HTTP server for the analysis API.
type Server struct {
	sources  Sources
	pipeline *pipeline.Pipeline
	issuer   *auth.Issuer
	logger   *zap.Logger
	mux      *http.ServeMux
}

// New creates a Server.
func New(src Sources, p *pipeline.Pipeline, issuer *auth.Issuer, logger *zap.Logger) *Server {
	s := &Server{
		sources:  src,
		pipeline: p,
		issuer:   issuer,
		logger:   logger.Named("server"),
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.requestID(s.recoverer(s.logRequests(s.authenticate(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("GET /api/sources", s.requireUser(s.handleListSources))
	s.mux.HandleFunc("POST /api/sources/refresh", s.requireUser(s.handleRefreshSources))
	s.mux.HandleFunc("GET /api/sources/{source}", s.requireUser(s.handleSourceMetadata))
	s.mux.HandleFunc("GET /api/sources/{source}/indicators", s.requireUser(s.handleSourceIndicators))
	s.mux.HandleFunc("GET /api/sources/{source}/data", s.requireUser(s.handleSourceData))

	s.mux.HandleFunc("POST /api/analysis", s.handleRunAnalysis)
	s.mux.HandleFunc("GET /api/analysis/{id}", s.requireUser(s.handleGetAnalysis))
	s.mux.HandleFunc("DELETE /api/analysis/{id}", s.requireUser(s.handleDeleteAnalysis))
	s.mux.HandleFunc("GET /api/analysis/user/{userID}", s.requireUser(s.handleListAnalyses))

	s.mux.HandleFunc("POST /api/reports", s.requireUser(s.handleGenerateReport))
	s.mux.HandleFunc("GET /api/reports/{id}", s.requireUser(s.handleGetReport))
	s.mux.HandleFunc("PUT /api/reports/{id}", s.requireUser(s.handleUpdateReport))
	s.mux.HandleFunc("DELETE /api/reports/{id}", s.requireUser(s.handleDeleteReport))
	// "/api/reports/user/render" would match both "{id}/render" and
	// "user/{userID}", which ServeMux rejects, so one pattern dispatches.
	s.mux.HandleFunc("GET /api/reports/{first}/{second}", s.requireUser(s.handleReportSubpath))

	s.mux.HandleFunc("POST /api/briefs", s.requireUser(s.handleCreateBrief))
	s.mux.HandleFunc("GET /api/briefs/{id}", s.requireUser(s.handleGetBrief))
	s.mux.HandleFunc("PUT /api/briefs/{id}", s.requireUser(s.handleUpdateBrief))
	s.mux.HandleFunc("GET /api/briefs/report/{reportID}", s.requireUser(s.handleBriefForReport))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.ok(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Serve listens on addr until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", fmt.Sprintf("http://%s", addr)))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	s.logger.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
