package types

import (
	"time"

	"github.com/google/uuid"
)

// ReportID identifies one validation run. Only used for log and response
// correlation; reports are never stored.
type ReportID string

// APIKeyID identifies a stored API key record.
type APIKeyID string

// NewReportID generates a UUIDv7 report identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewReportID() ReportID {
	return ReportID(uuid.Must(uuid.NewV7()).String())
}

// NewAPIKeyID generates a UUIDv7 API key identifier.
func NewAPIKeyID() APIKeyID {
	return APIKeyID(uuid.Must(uuid.NewV7()).String())
}

// ParseAPIKeyID validates and converts a string to APIKeyID.
func ParseAPIKeyID(s string) (APIKeyID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return APIKeyID(s), nil
}

// ReportIDTime extracts the timestamp embedded in a UUIDv7 report ID.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func ReportIDTime(id ReportID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
