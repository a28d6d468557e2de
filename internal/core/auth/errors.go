package auth

import "errors"

// Authentication failures. The interceptors report revoked keys as
// PermissionDenied, store failures as Unavailable and everything else as
// Unauthenticated, so a caller cannot probe which keys exist.
var (
	ErrMissingKey       = errors.New("API key required in x-api-key metadata")
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	ErrUnknownKey       = errors.New("unknown secret ID")
	ErrInvalidKey       = errors.New("invalid API key")
	ErrKeyRevoked       = errors.New("API key has been revoked")
	ErrKeyNotFound      = errors.New("API key not found")
	ErrStoreUnavailable = errors.New("API key store unavailable")
)
