package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"pfm/internal/core"
	"pfm/internal/log"
)

// jsonResponse is a small fluent builder for API responses.
type jsonResponse struct {
	status  int
	headers map[string]string
	body    any
}

func newJSONResponse(body any) *jsonResponse {
	return &jsonResponse{status: http.StatusOK, headers: map[string]string{}, body: body}
}

func (b *jsonResponse) Status(code int) *jsonResponse {
	b.status = code
	return b
}

func (b *jsonResponse) Header(name, value string) *jsonResponse {
	b.headers[name] = value
	return b
}

func (b *jsonResponse) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.status)
	if b.body != nil {
		_ = json.NewEncoder(w).Encode(b.body)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	newJSONResponse(body).Status(status).Write(w)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeServiceError maps domain errors to status codes: rejected input is
// 422, a missing id 404, anything else 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: ve.Error(), Field: ve.Field})
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path, log.FieldError, err)
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrStoreUnavailable) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
	}
}
