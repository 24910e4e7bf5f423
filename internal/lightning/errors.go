package lightning

import "errors"

// Error taxonomy for upstream invoice operations. Callers branch with
// errors.Is; the concrete wrapped errors carry payload context for logs.
var (
	// ErrUpstream covers transport failures, non-success HTTP statuses and
	// GraphQL-level error arrays from the provider
	ErrUpstream = errors.New("upstream provider error")

	// ErrMalformedResponse means a success payload was missing expected fields
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrNotFound means the provider has no record for the identifier
	ErrNotFound = errors.New("invoice not found")
)
