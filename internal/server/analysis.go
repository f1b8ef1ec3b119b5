package server

import (
	"net/http"

	"github.com/TobiSchelling/welfarelens/internal/auth"
	"github.com/TobiSchelling/welfarelens/internal/pipeline"
)

func (s *Server) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := pipeline.ParseAnalysisParams(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var requester *int64
	if id, ok := auth.UserIDFromContext(r.Context()); ok {
		requester = &id
	}
	a, err := s.pipeline.Analyses.Run(r.Context(), requester, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w, r, http.StatusCreated, a)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.pipeline.Analyses.Get(r.Context(), userID(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, a)
}

func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.pipeline.Analyses.Delete(r.Context(), userID(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.okMessage(w, r, "Analysis deleted successfully")
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	owner, err := pathID(r, "userID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.pipeline.Analyses.ListForUser(r.Context(), userID(r), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.ok(w, r, http.StatusOK, list)
}
