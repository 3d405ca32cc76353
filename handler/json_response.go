package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type jsonResponse struct {
	status int
	body   any
	header http.Header
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	for k, vals := range j.header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

// WithJSONStatus sets custom HTTP status code
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// WithJSONHeader adds a response header.
func WithJSONHeader(key, value string) JSONOption {
	return func(r *jsonResponse) {
		if r.header == nil {
			r.header = make(http.Header)
		}
		r.header.Add(key, value)
	}
}

// JSON renders v as the response body with status 200.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: v}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError renders err as {"error": message, "code": key}.
// The status comes from the HTTPError in err's tree, 500 otherwise.
// Server errors never expose the underlying message.
func JSONError(err error, opts ...JSONOption) Response {
	status := StatusCode(err)
	body := ErrorBody{Error: http.StatusText(status), Code: ErrInternalServerError.Key}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		body.Code = httpErr.Key
		if status < http.StatusInternalServerError {
			body.Error = clientMessage(err, httpErr)
		}
	}

	r := &jsonResponse{status: status, body: body}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// clientMessage returns the first non-HTTPError line of a joined error, so
// the client sees the cause rather than the status key.
func clientMessage(err error, httpErr HTTPError) string {
	for line := range strings.SplitSeq(err.Error(), "\n") {
		if line != "" && line != httpErr.Key {
			return line
		}
	}
	return strings.ReplaceAll(httpErr.Key, "_", " ")
}
