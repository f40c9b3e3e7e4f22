package members

import (
	"context"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/server/models"
)

// Repository persists group memberships. An account has at most one.
type Repository interface {
	// Get returns the account's membership or common.ErrorNotFound.
	Get(ctx context.Context, accountID string) (*models.Membership, error)
	// Join makes groupID the account's only group. The join cursor is the
	// group's highest message id at that moment. Joining the current group
	// again keeps the existing membership unchanged.
	Join(ctx context.Context, accountID, groupID string, now time.Time) (*models.Membership, error)
	// Leave removes the membership if it is for groupID and reports whether
	// anything was removed.
	Leave(ctx context.Context, accountID, groupID string) (bool, error)
	ListMembers(ctx context.Context, groupID string) ([]*models.Member, error)
	// Status returns the account's current group, or an empty status.
	Status(ctx context.Context, accountID string) (models.GroupStatus, error)
}
