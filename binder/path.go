package binder

import (
	"encoding"
	"fmt"
	"net/http"
	"reflect"
)

// Path fills struct fields tagged `path:"name"` using extractor, typically
// chi.URLParam. Supported field kinds are string and encoding.TextUnmarshaler
// (uuid.UUID among them).
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: extractor function is nil", ErrInvalidPath)
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("%w: target must be a pointer to struct", ErrInvalidPath)
		}
		rv = rv.Elem()
		rt := rv.Type()

		for i := range rv.NumField() {
			sf := rt.Field(i)
			name, ok := sf.Tag.Lookup("path")
			if !ok || name == "" || name == "-" {
				continue
			}
			raw := extractor(r, name)
			if raw == "" {
				continue
			}

			field := rv.Field(i)
			if !field.CanSet() {
				continue
			}
			if tu, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
				if err := tu.UnmarshalText([]byte(raw)); err != nil {
					return fmt.Errorf("%w: %s: %v", ErrInvalidPath, name, err)
				}
				continue
			}
			if field.Kind() != reflect.String {
				return fmt.Errorf("%w: %s: unsupported field type %s", ErrInvalidPath, name, field.Type())
			}
			field.SetString(raw)
		}
		return nil
	}
}
