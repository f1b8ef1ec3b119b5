package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/TobiSchelling/welfarelens/internal/apperrors"
	"github.com/TobiSchelling/welfarelens/internal/sources"
)

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	list, err := s.sources.AvailableSources(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, list)
}

func (s *Server) handleRefreshSources(w http.ResponseWriter, r *http.Request) {
	status, err := s.sources.RefreshSources(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, status)
}

func (s *Server) handleSourceMetadata(w http.ResponseWriter, r *http.Request) {
	kind, err := sourceKind(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	src, err := s.sources.SourceMetadata(r.Context(), kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if src == nil {
		s.writeError(w, r, apperrors.NotFound("SOURCE_NOT_FOUND", "Data source not found"))
		return
	}
	s.ok(w, r, http.StatusOK, src)
}

func (s *Server) handleSourceIndicators(w http.ResponseWriter, r *http.Request) {
	kind, err := sourceKind(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	indicators, ok := s.sources.SourceIndicators(kind)
	if !ok {
		s.writeError(w, r, apperrors.NotFound("SOURCE_NOT_FOUND", "Data source not found"))
		return
	}
	s.ok(w, r, http.StatusOK, indicators)
}

func (s *Server) handleSourceData(w http.ResponseWriter, r *http.Request) {
	kind, err := sourceKind(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, ok := s.sources.SourceIndicators(kind); !ok {
		s.writeError(w, r, apperrors.NotFound("SOURCE_NOT_FOUND", "Data source not found"))
		return
	}

	q := r.URL.Query()
	params := sources.FetchParams{
		Topics:     listParam(q["topics"]),
		Region:     strings.ToUpper(q.Get("region")),
		Indicators: listParam(q["indicators"]),
	}
	if params.StartDate, err = dateParam(q.Get("start_date")); err != nil {
		s.writeError(w, r, err)
		return
	}
	if params.EndDate, err = dateParam(q.Get("end_date")); err != nil {
		s.writeError(w, r, err)
		return
	}

	result := s.sources.GetData(r.Context(), []string{string(kind)}, params)
	data, _ := result.Get(kind.Key())
	s.ok(w, r, http.StatusOK, data)
}

func sourceKind(r *http.Request) (sources.Kind, error) {
	kind, ok := sources.ParseKind(r.PathValue("source"))
	if !ok {
		return "", apperrors.NotFound("SOURCE_NOT_FOUND", "Data source not found")
	}
	return kind, nil
}

// listParam accepts repeated query values, comma-separated values or both.
func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func dateParam(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, apperrors.Validation("Dates must use YYYY-MM-DD")
	}
	return t, nil
}
