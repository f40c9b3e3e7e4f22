package messages

import (
	"context"

	"github.com/dmitrijs2005/safecircle/internal/server/models"
)

// Repository is the append-only message log. Ids come from one sequence,
// so they are unique and increase in insertion order.
type Repository interface {
	// CreateGroupMessage stores msg if its sender is a member of msg.GroupID
	// and returns common.ErrNotMember otherwise.
	CreateGroupMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	CreatePrivateMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	// GroupSince returns up to limit messages of groupID with
	// id > max(afterID, caller's join cursor). Non-members get nothing.
	GroupSince(ctx context.Context, accountID, groupID string, afterID int64, limit int) ([]*models.Message, error)
	// PrivateSince returns private messages sent or received by accountID.
	PrivateSince(ctx context.Context, accountID string, afterID int64, limit int) ([]*models.Message, error)
}
