package response

import (
	"encoding/json"
	"net/http"
	"strings"

	"homestead/pkg/apperr"
	"homestead/pkg/logger"
)

type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
	}
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// Fail writes the envelope for err according to its apperr kind.
func Fail(w http.ResponseWriter, err error) {
	Error(w, apperr.KindOf(err).Status(), apperr.Message(err))
}

func MethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// AllowMethods writes a 405 and returns false when r's method is not in allowed.
func AllowMethods(w http.ResponseWriter, r *http.Request, allowed ...string) bool {
	for _, m := range allowed {
		if r.Method == m {
			return true
		}
	}
	MethodNotAllowed(w, allowed...)
	return false
}
