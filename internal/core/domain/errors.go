package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found.
	// Tenant-scope violations surface as ErrNotFound as well, so callers
	// cannot probe for the existence of other users' documents.
	ErrNotFound = errors.New("not found")

	// ErrGroupNameTaken indicates a group with the same name already exists for the user
	ErrGroupNameTaken = errors.New("group name already taken")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidPagination indicates a non-positive limit or negative offset
	ErrInvalidPagination = errors.New("invalid pagination")

	// ErrInvalidThreshold indicates a similarity threshold outside [0, 1]
	ErrInvalidThreshold = errors.New("invalid similarity threshold")

	// ErrEmbeddingUnavailable indicates the embedding gateway failed or timed out
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrRateLimited indicates the request was denied by the token bucket
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrRateStoreUnavailable indicates the bucket store could not be reached.
	// Admission fails open on this error; it exists for logging and counting.
	ErrRateStoreUnavailable = errors.New("rate limit store unavailable")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the user lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates the AI service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrUnsupportedExport indicates an export bundle with an unknown version
	ErrUnsupportedExport = errors.New("unsupported export version")
)
