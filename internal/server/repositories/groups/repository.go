package groups

import (
	"context"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/server/models"
)

// Repository persists groups. Group names are unique.
type Repository interface {
	Create(ctx context.Context, group *models.Group) (*models.Group, error)
	GetByID(ctx context.Context, id string) (*models.Group, error)
	// DeleteIfEmpty removes the group when it has no members and was
	// created at or before createdBefore. It reports whether it did.
	DeleteIfEmpty(ctx context.Context, id string, createdBefore time.Time) (bool, error)
	// DeleteEmpty removes every such group and returns their ids.
	DeleteEmpty(ctx context.Context, createdBefore time.Time) ([]string, error)
	// ListPublicAnchored returns public groups that have a location, with
	// their current member counts. DistanceKm is left zero.
	ListPublicAnchored(ctx context.Context) ([]*models.GroupSummary, error)
}
