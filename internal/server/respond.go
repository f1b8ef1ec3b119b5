package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/TobiSchelling/welfarelens/internal/apperrors"
)

type envelope struct {
	Status   string     `json:"status"`
	Metadata meta       `json:"metadata"`
	Data     any        `json:"data,omitempty"`
	Message  string     `json:"message,omitempty"`
	Error    *errorBody `json:"error,omitempty"`
}

type meta struct {
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	RequestID string `json:"request_id"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func newMeta(r *http.Request) meta {
	return meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   APIVersion,
		RequestID: requestIDFrom(r.Context()),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encoding response", zap.Error(err))
	}
}

func (s *Server) ok(w http.ResponseWriter, r *http.Request, status int, data any) {
	s.writeJSON(w, status, envelope{Status: "success", Metadata: newMeta(r), Data: data})
}

func (s *Server) okMessage(w http.ResponseWriter, r *http.Request, message string) {
	s.writeJSON(w, http.StatusOK, envelope{Status: "success", Metadata: newMeta(r), Message: message})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	s.writeJSON(w, status, envelope{
		Status:   "error",
		Metadata: newMeta(r),
		Error:    &errorBody{Code: code, Message: message, Details: details},
	})
}

// writeError maps an error onto its HTTP status and envelope.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		s.logger.Error("unhandled error",
			zap.String("request_id", requestIDFrom(r.Context())), zap.Error(err))
		s.fail(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	var details any
	if appErr.Cause != nil {
		details = map[string]string{"error": appErr.Cause.Error()}
	}
	s.fail(w, r, statusFor(appErr.Kind), appErr.Code, appErr.Message, details)
}

func statusFor(kind error) int {
	switch kind {
	case apperrors.ErrValidation:
		return http.StatusBadRequest
	case apperrors.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrForbidden:
		return http.StatusForbidden
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrConflict:
		return http.StatusConflict
	case apperrors.ErrRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

const maxBodyBytes = 1 << 20

// decodeBody reads a JSON object body. An empty body yields an empty map so
// the parameter parsers can report it.
func decodeBody(r *http.Request) (map[string]any, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.Validation("Could not read request body")
	}
	params := map[string]any{}
	if len(data) == 0 {
		return params, nil
	}
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, apperrors.Validation("Request body must be a JSON object")
	}
	return params, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("Invalid " + name)
	}
	return id, nil
}
