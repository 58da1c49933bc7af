package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"ats/pipeline-service/internal/apperr"
	"ats/pipeline-service/internal/pipeline"
)

// Fallback codes for unclassified failures, one per operation.
const (
	codeInternal           = "INTERNAL_SERVER_ERROR"
	codeFetchCandidates    = "FAILED_TO_FETCH_CANDIDATES"
	codeUpdateStatus       = "FAILED_TO_UPDATE_STATUS"
	codeScheduleInterview  = "FAILED_TO_SCHEDULE_INTERVIEW"
	codeUpdateInterview    = "FAILED_TO_UPDATE_INTERVIEW"
	codeDeleteCandidate    = "FAILED_TO_DELETE_CANDIDATE"
	codeExportCandidates   = "FAILED_TO_EXPORT_CANDIDATES"
	codeInternalMessage    = "Internal server error"
	contentTypeJSON        = "application/json"
	contentTypeSpreadsheet = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonOK(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func jsonError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, envelope{Error: code, Message: msg})
}

// fail maps err to a status code and writes the error envelope.
// Unclassified errors are logged and reported under fallback with a
// generic message.
func (s *Server) fail(w http.ResponseWriter, err error, fallback string) {
	code, msg := apperr.CodeOf(err), apperr.MessageOf(err)
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		if code == pipeline.CodeRoundNotFound {
			jsonError(w, http.StatusBadRequest, code, msg)
			return
		}
		jsonError(w, http.StatusNotFound, code, msg)
	case apperr.Validation:
		jsonError(w, http.StatusBadRequest, code, msg)
	case apperr.Conflict:
		jsonError(w, http.StatusConflict, code, msg)
	case apperr.Unauthorized:
		jsonError(w, http.StatusUnauthorized, code, msg)
	case apperr.Forbidden:
		jsonError(w, http.StatusForbidden, code, msg)
	case apperr.Dependency:
		jsonError(w, http.StatusInternalServerError, code, msg)
	default:
		log.Printf("[ats] %s: %v", fallback, err)
		jsonError(w, http.StatusInternalServerError, fallback, codeInternalMessage)
	}
}

// decodeJSON reads a JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validationf("invalid JSON body")
	}
	return nil
}

// ParsePage reads a positive integer query value, returning fallback when
// it is absent, non-numeric or below 1.
func ParsePage(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
