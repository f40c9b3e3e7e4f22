package sos

import (
	"context"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/server/models"
)

// Repository stores SOS alerts.
type Repository interface {
	Create(ctx context.Context, alert *models.SosAlert) (*models.SosAlert, error)
	// Since returns up to limit alerts created strictly after after,
	// ordered by creation time and then id.
	Since(ctx context.Context, after time.Time, limit int) ([]*models.SosAlert, error)
}
