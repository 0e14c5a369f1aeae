package domain

import "errors"

var (
	// ErrStoreUnavailable indicates the revocation store timed out or could not be reached.
	ErrStoreUnavailable = errors.New("revocation store unavailable")
	// ErrMalformedToken indicates the bearer string is empty or absent.
	ErrMalformedToken = errors.New("malformed bearer token")
	// ErrInvalidConfiguration indicates the bucket ring or retention window is misconfigured.
	ErrInvalidConfiguration = errors.New("invalid denylist configuration")
)
