package server

import (
	"net/http"

	"github.com/TobiSchelling/welfarelens/internal/pipeline"
)

func (s *Server) handleCreateBrief(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := pipeline.ParseBriefParams(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	brief, err := s.pipeline.Briefs.Create(r.Context(), userID(r), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w, r, http.StatusCreated, brief)
}

func (s *Server) handleGetBrief(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	brief, err := s.pipeline.Briefs.Get(r.Context(), userID(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, brief)
}

func (s *Server) handleUpdateBrief(w http.ResponseWriter, r *http.Request) {
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
	upd, err := pipeline.ParseBriefUpdate(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	brief, err := s.pipeline.Briefs.Update(r.Context(), userID(r), id, upd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, brief)
}

func (s *Server) handleBriefForReport(w http.ResponseWriter, r *http.Request) {
	reportID, err := pathID(r, "reportID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	brief, err := s.pipeline.Briefs.GetForReport(r.Context(), userID(r), reportID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, brief)
}
