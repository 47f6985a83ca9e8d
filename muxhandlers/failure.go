package muxhandlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vitalvas/oaspec/mux"
	"github.com/vitalvas/oaspec/openapi"
)

// BadRequestBodyMessage is the message of a 400 failure.
const BadRequestBodyMessage = "The request body is not valid for this resource."

// BadRequestBodyError is returned when a request body does not satisfy
// its schema.
type BadRequestBodyError struct {
	Schema     *openapi.JSONSchema
	Violations []Violation
}

func (e *BadRequestBodyError) Error() string {
	return fmt.Sprintf("request body is not valid: %d violation(s)", len(e.Violations))
}

// Failure is the JSON payload of a rejected request.
type Failure struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context"`
}

// FailureFor maps err to a status code and payload:
//
//	*openapi.UnsupportedMediaTypeError  415  context: type, supported
//	*BadRequestBodyError                400  context: jsonSchema, violations
//	*http.MaxBytesError                 413
//	anything else                       500
func FailureFor(err error) (int, Failure) {
	var (
		unsupported *openapi.UnsupportedMediaTypeError
		badBody     *BadRequestBodyError
		tooLarge    *http.MaxBytesError
	)

	switch {
	case errors.As(err, &unsupported):
		supported := unsupported.Supported
		if supported == nil {
			supported = []string{}
		}
		return http.StatusUnsupportedMediaType, Failure{
			Message: unsupported.Error(),
			Context: map[string]any{
				"type":      unsupported.Type,
				"supported": supported,
			},
		}
	case errors.As(err, &badBody):
		violations := badBody.Violations
		if violations == nil {
			violations = []Violation{}
		}
		return http.StatusBadRequest, Failure{
			Message: BadRequestBodyMessage,
			Context: map[string]any{
				"jsonSchema": badBody.Schema,
				"violations": violations,
			},
		}
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, Failure{
			Message: "The request body is too large.",
			Context: map[string]any{
				"limit": tooLarge.Limit,
			},
		}
	}

	return http.StatusInternalServerError, Failure{
		Message: http.StatusText(http.StatusInternalServerError),
		Context: map[string]any{},
	}
}

// WriteFailure writes the payload FailureFor derives from err.
func WriteFailure(w http.ResponseWriter, _ *http.Request, err error) {
	status, failure := FailureFor(err)
	mux.ResponseJSON(w, status, failure)
}
