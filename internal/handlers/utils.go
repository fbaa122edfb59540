package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fitlog/apiserver/internal/services"
)

const maxMultipartMemory = 1 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

// writeServiceError maps a service error kind to a status code. Client
// mistakes all report 400; only store failures report 500.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if services.Kind(err) == services.ErrPersistence || services.Kind(err) == nil {
		status = http.StatusInternalServerError
	}

	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		writeError(w, status, svcErr.Message)
		return
	}
	writeError(w, status, http.StatusText(status))
}

// parseForm accepts both urlencoded and multipart bodies.
func parseForm(r *http.Request) error {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}
