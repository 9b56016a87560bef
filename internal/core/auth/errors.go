package auth

import "errors"

// Authentication errors. Missing, malformed and unknown keys all map to 401
// so a response never confirms that a key exists; revoked keys map to 403.
var (
	ErrMissingKey       = errors.New("API key required in x-api-key header")
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	ErrUnknownKey       = errors.New("unknown secret ID")
	ErrInvalidKey       = errors.New("invalid API key")
	ErrKeyRevoked       = errors.New("API key has been revoked")
	ErrStoreUnavailable = errors.New("API key store unavailable")
)
