// Package errors provides structured error handling with error codes for the
// profile property node and its host runtime.
//
// # Overview
//
// The errors package provides:
//   - Structured Error type with error codes
//   - Error wrapping with context
//   - HTTP status code mapping for the tree evaluation API
//   - Error inspection utilities
//
// # Basic Usage
//
//	import "github.com/tendant/profile-property-node/pkg/errors"
//
//	// Wrap an identity store failure
//	err := errors.IdentityBackend(dbErr)
//
//	// Wrap a shared state write failure for one key
//	err := errors.StateWriteFailed("email", sinkErr)
//
//	// Check codes
//	if errors.IsCode(err, errors.ErrCodeStateWriteFailed) {
//		// keep going with the remaining keys
//	}
//
// # Error Codes
//
// Identity lookup:
//   - ErrCodePrincipalNotFound
//   - ErrCodeIdentityBackend
//
// Shared state:
//   - ErrCodeStateWriteFailed
//   - ErrCodeMissingInput
//
// Configuration:
//   - ErrCodeInvalidConfiguration
//   - ErrCodeWiringInvalid
//
// None of these abort an authentication tree run when raised inside the
// profile property node: the node logs them and proceeds. They surface to
// callers only from configuration loading and from the HTTP API.
//
// # HTTP Status Code Mapping
//
//	var structuredErr *errors.Error
//	if stderrors.As(err, &structuredErr) {
//		http.Error(w, structuredErr.Message, structuredErr.HTTPStatusCode())
//	}
//
// Error code to HTTP status mapping:
//   - ErrCodeInvalidInput, ErrCodeMissingInput, ErrCodeInvalidConfiguration → 400
//   - ErrCodeUnauthorized → 401
//   - ErrCodeNotFound, ErrCodePrincipalNotFound → 404
//   - ErrCodeIdentityBackend, ErrCodeTimeout → 503
//   - everything else → 500
package errors
