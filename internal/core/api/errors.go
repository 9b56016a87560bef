package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/solatis/adjrules/internal/types"
)

// Error mapping:
//   malformed request body          -> 400
//   oversized request body          -> 413
//   bad filter expression           -> 400
//   validation, structure, schema   -> 422
//   nothing to export               -> 422
//   unknown export rule             -> 404
//   anything else                   -> 500

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Path  string `json:"path,omitempty"`
}

var (
	errBadRequest   = errors.New("malformed request body")
	errRuleNotFound = errors.New("rule not in export set")
)

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrValidation),
		errors.Is(err, types.ErrStructure),
		errors.Is(err, types.ErrSchema),
		errors.Is(err, types.ErrUnknownField),
		errors.Is(err, types.ErrNoRules):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errRuleNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var verr *types.ValidationError
	var serr *types.StructuralError
	switch {
	case errors.As(err, &verr):
		resp.Field = verr.Field
	case errors.As(err, &serr):
		resp.Path = serr.Path
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		resp.Error = http.StatusText(status)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}
