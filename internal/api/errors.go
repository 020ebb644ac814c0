package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"trade-eda/internal/ingestion"
	"trade-eda/internal/storage"
)

// errBadParam marks an invalid query parameter.
var errBadParam = errors.New("invalid query parameter")

// ErrResponse is the JSON error body returned by every endpoint.
type ErrResponse struct {
	HTTPStatusCode int    `json:"-"`
	Message        string `json:"error"`
}

// Render sets the response status.
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadParam), errors.Is(err, ingestion.ErrInvalidTable):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ingestion.ErrNoData):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
