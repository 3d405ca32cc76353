package handler

import (
	"errors"
	"net/http"
)

// ErrNilResponse indicates a handler returned nil instead of a Response.
var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError carries a status code and a stable machine-readable key.
// Join it with the underlying error so both survive errors.Is/As:
//
//	return handler.JSONError(errors.Join(handler.ErrUnauthorized, err))
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string {
	return e.Key
}

// NewHTTPError creates an HTTPError.
func NewHTTPError(code int, key string) HTTPError {
	return HTTPError{Code: code, Key: key}
}

var (
	ErrBadRequest          = NewHTTPError(http.StatusBadRequest, "bad_request")
	ErrUnauthorized        = NewHTTPError(http.StatusUnauthorized, "unauthorized")
	ErrForbidden           = NewHTTPError(http.StatusForbidden, "forbidden")
	ErrNotFound            = NewHTTPError(http.StatusNotFound, "not_found")
	ErrConflict            = NewHTTPError(http.StatusConflict, "conflict")
	ErrRequestTooLarge     = NewHTTPError(http.StatusRequestEntityTooLarge, "request_too_large")
	ErrUnprocessable       = NewHTTPError(http.StatusUnprocessableEntity, "unprocessable_entity")
	ErrInternalServerError = NewHTTPError(http.StatusInternalServerError, "internal_error")
	ErrBadGateway          = NewHTTPError(http.StatusBadGateway, "bad_gateway")
	ErrServiceUnavailable  = NewHTTPError(http.StatusServiceUnavailable, "service_unavailable")
)

// StatusCode returns the status of the first HTTPError in err's tree, or 500.
func StatusCode(err error) int {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	return http.StatusInternalServerError
}
