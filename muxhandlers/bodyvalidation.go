package muxhandlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/vitalvas/oaspec/logging"
	"github.com/vitalvas/oaspec/mux"
	"github.com/vitalvas/oaspec/openapi"
)

// ErrNoMetadataReader is returned when RequestBodyValidationConfig.Metadata
// is nil.
var ErrNoMetadataReader = errors.New("request body validation: a metadata reader is required")

// DefaultMaxBodyBytes is the default request body limit.
const DefaultMaxBodyBytes int64 = 10 << 20

// RequestBodyValidationConfig configures the request body validation
// middleware.
type RequestBodyValidationConfig struct {
	// Metadata reads the operation metadata of route handlers. Required.
	Metadata openapi.MetadataReader

	// Cache stores built schemas per handler and media type.
	Cache openapi.SchemaCache

	// UseCache creates a private MemorySchemaCache when Cache is nil.
	UseCache bool

	// Validator checks payloads. Defaults to a GoJSONSchemaValidator.
	Validator Validator

	// Decoder turns a non-empty raw body into a payload for object and
	// array schemas. Defaults to DecodeBody.
	Decoder func(mediaType string, body []byte) (any, error)

	// MaxBodyBytes limits the body read for validation. Defaults to
	// DefaultMaxBodyBytes; a negative value disables the limit.
	MaxBodyBytes int64

	// ErrorHandler writes the response of a rejected request. Defaults
	// to WriteFailure.
	ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

	// Logger receives rejections. Defaults to a no-op logger.
	Logger logging.Logger
}

// RequestBodyValidationMiddleware returns a middleware that validates the
// request body against the schema declared for the matched route handler.
//
// For every request with a matched route exactly one of the following
// happens:
//
//   - the request is passed on, when the handler declares no request body,
//     no schema for the media type, or the body is valid
//   - 415, when the handler declares a request body without the media type
//   - 400, when the body violates the schema
//
// Misconfigured metadata yields 500. The media type is the Content-Type
// header up to the first ";". The body is restored before the next handler
// runs.
//
// It returns ErrNoMetadataReader if Metadata is nil.
func RequestBodyValidationMiddleware(cfg RequestBodyValidationConfig) (mux.MiddlewareFunc, error) {
	if cfg.Metadata == nil {
		return nil, ErrNoMetadataReader
	}

	logger := logging.OrNoOp(cfg.Logger)

	cache := cfg.Cache
	if cache == nil && cfg.UseCache {
		cache = openapi.NewMemorySchemaCache()
	}

	builderOpts := []openapi.SchemaBuilderOption{openapi.WithBuilderLogger(logger)}
	if cache != nil {
		builderOpts = append(builderOpts, openapi.WithSchemaCache(cache))
	}
	builder := openapi.NewSchemaBuilder(cfg.Metadata, builderOpts...)

	validator := cfg.Validator
	if validator == nil {
		validator = NewGoJSONSchemaValidator()
	}

	decode := cfg.Decoder
	if decode == nil {
		decode = DecodeBody
	}

	maxBytes := cfg.MaxBodyBytes
	if maxBytes == 0 {
		maxBytes = DefaultMaxBodyBytes
	}

	onError := cfg.ErrorHandler
	if onError == nil {
		onError = WriteFailure
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := mux.CurrentRoute(r)
			if route == nil || route.GetHandler() == nil {
				next.ServeHTTP(w, r)
				return
			}

			mediaType := MediaTypeOf(r.Header.Get("Content-Type"))

			reject := func(err error) {
				status, _ := FailureFor(err)
				log := logger.WithContext(r.Context())
				args := []any{
					"route", route.GetName(),
					"media_type", mediaType,
					"status", status,
					"request_id", RequestIDFromContext(r.Context()),
					"error", err.Error(),
				}
				if status >= http.StatusInternalServerError {
					log.Error("request body validation failed", args...)
				} else {
					log.Info("request body rejected", args...)
				}
				onError(w, r, err)
			}

			schema, err := builder.ForRequestBody(route.GetHandler(), mediaType)
			if err != nil {
				reject(err)
				return
			}

			rootType := schema.Type()
			if rootType == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := readBody(w, r, maxBytes)
			if err != nil {
				reject(err)
				return
			}

			payload, err := coercePayload(rootType, mediaType, body, decode)
			if err != nil {
				reject(&BadRequestBodyError{
					Schema: schema,
					Violations: []Violation{{
						Message:    "The request body could not be decoded: " + err.Error(),
						Constraint: "syntax",
					}},
				})
				return
			}

			violations, err := validator.Validate(schema, payload)
			if err != nil {
				reject(err)
				return
			}
			if len(violations) > 0 {
				reject(&BadRequestBodyError{Schema: schema, Violations: violations})
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

// MediaTypeOf returns the Content-Type value up to the first ";",
// trimmed.
func MediaTypeOf(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(mediaType)
}

// readBody reads the whole body and puts an identical reader back.
func readBody(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	reader := r.Body
	if maxBytes > 0 {
		reader = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	body, err := io.ReadAll(reader)
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	return body, nil
}

// coercePayload shapes the raw body for validation against a schema with
// the given root type. Empty bodies become an empty array or object;
// roots other than array, object and string get a nil payload.
func coercePayload(rootType, mediaType string, body []byte, decode func(string, []byte) (any, error)) (any, error) {
	empty := len(bytes.TrimSpace(body)) == 0

	switch rootType {
	case openapi.TypeArray:
		if empty {
			return []any{}, nil
		}
		return decode(mediaType, body)
	case openapi.TypeObject:
		if empty {
			return map[string]any{}, nil
		}
		return decode(mediaType, body)
	case openapi.TypeString:
		return string(body), nil
	}

	return nil, nil
}

// DecodeBody decodes form encoded bodies into an object of strings (or
// lists of strings for repeated keys) and everything else as JSON with
// numbers kept as json.Number.
func DecodeBody(mediaType string, body []byte) (any, error) {
	if strings.EqualFold(mediaType, "application/x-www-form-urlencoded") {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(values))
		for k, v := range values {
			if len(v) == 1 {
				out[k] = v[0]
				continue
			}
			list := make([]any, len(v))
			for i := range v {
				list[i] = v[i]
			}
			out[k] = list
		}
		return out, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after the JSON value")
	}
	return payload, nil
}
