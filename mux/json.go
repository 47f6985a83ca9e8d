package mux

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// ErrTrailingData is returned by BindJSON when the body holds more than
// one JSON value.
var ErrTrailingData = errors.New("mux: unexpected trailing data after JSON value")

type bindOptions struct {
	allowUnknown bool
	useNumber    bool
}

// BindOption changes how BindJSON decodes.
type BindOption func(*bindOptions)

// AllowUnknownFields accepts object members that map to no struct field.
func AllowUnknownFields() BindOption {
	return func(o *bindOptions) {
		o.allowUnknown = true
	}
}

// UseNumber decodes numbers held in interface values as json.Number.
func UseNumber() BindOption {
	return func(o *bindOptions) {
		o.useNumber = true
	}
}

// BindJSON decodes the request body as JSON into v. Unknown fields are
// rejected unless AllowUnknownFields is given. Exactly one JSON value
// must be present; anything after it yields ErrTrailingData.
func BindJSON(r *http.Request, v any, opts ...BindOption) error {
	var o bindOptions
	for _, opt := range opts {
		opt(&o)
	}

	dec := json.NewDecoder(r.Body)
	if !o.allowUnknown {
		dec.DisallowUnknownFields()
	}
	if o.useNumber {
		dec.UseNumber()
	}

	if err := dec.Decode(v); err != nil {
		return err
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}

	return nil
}

// ResponseJSON encodes v as JSON and writes it with the given status code
// and an "application/json" Content-Type. HTML characters are written
// as-is, so patterns inside schemas stay readable. If encoding fails, a
// 500 Internal Server Error is written instead.
func ResponseJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
