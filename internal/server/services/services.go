// Package services contains server-side business logic. Each service owns
// one concern (sessions, presence, groups, messaging, attachments, sync)
// and talks to the store through a RepositoryManager.
package services

import (
	"time"

	"github.com/google/uuid"
)

// utcNow is the default clock. PostgreSQL keeps microseconds, so values are
// truncated to compare equal after a round trip.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// isGroupID reports whether id can name a stored group. Group ids are
// UUIDs in canonical form; anything else never matches a group and must
// not reach a query.
func isGroupID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
