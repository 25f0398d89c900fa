package httpx

import (
	"errors"
	"net/http"

	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

// RespondError maps taxonomy errors to HTTP status codes and the response
// envelope. Internal detail never leaves the process for dependency
// failures; business-rule messages are forwarded verbatim so clients can
// tell them apart from generic validation.
func RespondError(w http.ResponseWriter, err error) {
	var fields shared.FieldErrors
	switch {
	case errors.As(err, &fields):
		Fail(w, http.StatusBadRequest, "validation failed", fields)
	case errors.Is(err, shared.ErrValidation):
		Fail(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, shared.ErrNotFound):
		Fail(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, shared.ErrConflict):
		Fail(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, shared.ErrBusinessRule):
		Fail(w, http.StatusBadRequest, err.Error(), nil)
	default:
		Fail(w, http.StatusInternalServerError, "internal error", nil)
	}
}
