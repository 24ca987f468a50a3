package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"rupaiya/internal/assistant"
	"rupaiya/internal/core"
	"rupaiya/internal/export"
	"rupaiya/internal/importer"
	"rupaiya/internal/ledger"
	"rupaiya/internal/log"
)

type errorBody struct {
	Error string `json:"error"`
}

// JSONResponse builds a JSON reply with optional extra headers.
type JSONResponse struct {
	statusCode int
	headers    map[string]string
	body       any
}

func NewJSONResponse(body any) *JSONResponse {
	return &JSONResponse{statusCode: http.StatusOK, headers: map[string]string{}, body: body}
}

func (b *JSONResponse) Status(code int) *JSONResponse {
	b.statusCode = code
	return b
}

func (b *JSONResponse) Header(name, value string) *JSONResponse {
	b.headers[name] = value
	return b
}

func (b *JSONResponse) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	writeJSON(w, b.statusCode, b.body)
}

// ErrorResponse is the standard {"error": "..."} body.
func ErrorResponse(statusCode int, message string) *JSONResponse {
	return NewJSONResponse(errorBody{Error: message}).Status(statusCode)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

var errBadRequest = errors.New("bad request")

var validationErrors = []error{
	ledger.ErrInvalid,
	core.ErrInvalidAmount,
	core.ErrInvalidDate,
	core.ErrInvalidDay,
	core.ErrInvalidMonth,
	core.ErrEmptyLabel,
	core.ErrInvalidExpenseType,
	core.ErrMonthMismatch,
	core.ErrDescriptionTooLong,
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, core.ErrInvalidKind):
		return http.StatusNotFound
	case errors.Is(err, importer.ErrInFlight):
		return http.StatusConflict
	case errors.Is(err, importer.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, assistant.ErrNotConfigured), errors.Is(err, errNoImportSource):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError replies with the mapped status. Server errors are logged and
// their details are not exposed.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway && status != http.StatusServiceUnavailable {
		msg = "internal server error"
	}
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, op,
			log.FieldError, err.Error(),
			log.FieldStatusCode, status)
	}
	ErrorResponse(status, msg).Write(w)
}
