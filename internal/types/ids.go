package types

import (
	"time"

	"github.com/google/uuid"
)

// PushID identifies one update request sent to the API.
// UUIDv7 so the push log sorts by send time.
type PushID string

// NewPushID generates a UUIDv7 push identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewPushID() PushID {
	return PushID(uuid.Must(uuid.NewV7()).String())
}

// ParsePushID validates and converts a string to PushID.
func ParsePushID(s string) (PushID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return PushID(s), nil
}

// PushIDTime extracts the timestamp embedded in a UUIDv7 ID.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func PushIDTime(id PushID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
