// Package muxhandlers provides HTTP middleware handlers for the mux router.
//
// # Request Body Validation Middleware
//
// RequestBodyValidationMiddleware validates request bodies against the
// JSON Schema built from the operation metadata of the matched route
// handler. Requests whose handler declares no request body pass through.
// A media type the handler does not accept yields 415, a body violating
// the schema yields 400 with the violations and the schema in the
// response context.
//
//	reg := openapi.NewRegistry()
//	reg.Describe(createPet).Request(Pet{})
//
//	mw, err := muxhandlers.RequestBodyValidationMiddleware(muxhandlers.RequestBodyValidationConfig{
//	    Metadata: reg,
//	    UseCache: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r.Use(mw)
//
// Two validators are available: GoJSONSchemaValidator (the default) and
// JSONSchemaValidator. Both report violations with a JSON pointer and a
// dotted property path.
//
// # Request ID Middleware
//
// RequestIDMiddleware assigns every request an identifier, stores it in
// the request context and echoes it in the X-Request-ID response header.
// Rejections logged by the other middlewares carry it as request_id.
//
//	r.Use(muxhandlers.RequestIDMiddleware(muxhandlers.RequestIDConfig{
//	    TrustIncoming: true,
//	}))
//
// # Recovery Middleware
//
// RecoveryMiddleware turns handler panics into a logged 500 response.
//
//	r.Use(muxhandlers.RecoveryMiddleware(muxhandlers.RecoveryConfig{
//	    Logger: logger,
//	}))
package muxhandlers
