package llm

import "errors"

// Failure classes shared by every provider adapter. Adapters wrap these
// with %w so callers can classify with errors.Is without knowing which
// provider was active.
var (
	// ErrNotConfigured: no credential for the requested capability.
	// Surfaced before any network attempt, never retried.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrUnauthorized: missing or rejected credential.
	ErrUnauthorized = errors.New("provider rejected credentials")

	// ErrUnavailable: the provider signaled it is warming up or overloaded.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrTimeout: the call did not complete within the deadline.
	ErrTimeout = errors.New("provider request timed out")

	// ErrMalformedResponse: a 2xx reply whose body matches no known shape.
	ErrMalformedResponse = errors.New("unrecognized provider response shape")

	// ErrUpstream: any other non-2xx provider reply.
	ErrUpstream = errors.New("provider error")
)
