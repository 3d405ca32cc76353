package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxBodyBytes caps JSON request bodies.
const DefaultMaxBodyBytes = 1 << 20

// JSON decodes an application/json body into v. Trailing data is rejected.
func JSON() func(r *http.Request, v any) error {
	return JSONWithLimit(DefaultMaxBodyBytes)
}

// JSONWithLimit is JSON with a custom body size cap.
func JSONWithLimit(maxBytes int64) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		ct := r.Header.Get("Content-Type")
		if ct == "" {
			return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
		}
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, ct)
		}

		dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBytes))

		if err := dec.Decode(v); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			switch {
			case isTooLarge(err):
				return ErrBodyTooLarge
			case errors.Is(err, io.EOF):
				return fmt.Errorf("%w: empty body", ErrInvalidJSON)
			case errors.Is(err, io.ErrUnexpectedEOF):
				return fmt.Errorf("%w: truncated body", ErrInvalidJSON)
			case errors.As(err, &syntaxErr):
				return fmt.Errorf("%w: syntax error at offset %d", ErrInvalidJSON, syntaxErr.Offset)
			case errors.As(err, &typeErr):
				return fmt.Errorf("%w: field %q must be %s", ErrInvalidJSON, typeErr.Field, typeErr.Type)
			default:
				return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
			}
		}
		var extra json.RawMessage
		switch err := dec.Decode(&extra); {
		case errors.Is(err, io.EOF):
			return nil
		case isTooLarge(err):
			return ErrBodyTooLarge
		default:
			return fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidJSON)
		}
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
