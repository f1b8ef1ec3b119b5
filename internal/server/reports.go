package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/TobiSchelling/welfarelens/internal/apperrors"
	"github.com/TobiSchelling/welfarelens/internal/pipeline"
)

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := pipeline.ParseReportParams(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.pipeline.Reports.Generate(r.Context(), userID(r), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w, r, http.StatusCreated, report)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.pipeline.Reports.Get(r.Context(), userID(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, report)
}

func (s *Server) handleUpdateReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	upd, err := pipeline.ParseReportUpdate(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.pipeline.Reports.Update(r.Context(), userID(r), id, upd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, report)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.pipeline.Reports.Delete(r.Context(), userID(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.okMessage(w, r, "Report deleted successfully")
}

// handleReportSubpath serves /api/reports/user/{userID} and
// /api/reports/{id}/render.
func (s *Server) handleReportSubpath(w http.ResponseWriter, r *http.Request) {
	first, second := r.PathValue("first"), r.PathValue("second")
	switch {
	case first == "user":
		s.listReports(w, r, second)
	case second == "render":
		s.renderReport(w, r, first)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request, raw string) {
	owner, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || owner <= 0 {
		s.writeError(w, r, apperrors.Validation("Invalid userID"))
		return
	}
	list, err := s.pipeline.Reports.ListForUser(r.Context(), userID(r), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, list)
}

func (s *Server) renderReport(w http.ResponseWriter, r *http.Request, raw string) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, r, apperrors.Validation("Invalid id"))
		return
	}
	doc, err := s.pipeline.Reports.Render(r.Context(), userID(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}
