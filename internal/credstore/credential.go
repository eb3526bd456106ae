package credstore

import (
	"time"

	"tracker-parent/internal/shared/timeutil"
)

// Credential is the bearer token issued by the identity service at login or
// registration.
type Credential struct {
	Token         string `json:"token"`
	ValidInMins   int    `json:"validInMins"`
	ValidUntilUTC string `json:"validUntilUTC"`
	UserRole      string `json:"userRole,omitempty"`
}

func (c Credential) ExpiresAt() (time.Time, bool) {
	return timeutil.ParseISO(c.ValidUntilUTC)
}

// Expired reports whether the credential is past its validity. A credential
// without a readable expiry is never considered expired locally; the server
// remains the authority.
func (c Credential) Expired(now time.Time) bool {
	until, ok := c.ExpiresAt()
	if !ok {
		return false
	}
	return !now.Before(until)
}
