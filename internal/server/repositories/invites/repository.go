package invites

import (
	"context"

	"github.com/dmitrijs2005/safecircle/internal/server/models"
)

// Repository stores pending group invites, at most one per invitee and group.
type Repository interface {
	// Upsert creates the invite or refreshes the existing one for the same
	// invitee and group.
	Upsert(ctx context.Context, invite *models.Invite) (*models.Invite, error)
	ListFor(ctx context.Context, inviteeID string) ([]*models.Invite, error)
	// Delete removes invite id if it is addressed to inviteeID, and
	// returns common.ErrorNotFound otherwise.
	Delete(ctx context.Context, id int64, inviteeID string) error
	DeleteFor(ctx context.Context, inviteeID, groupID string) error
}
