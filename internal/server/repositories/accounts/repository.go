package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/server/models"
)

// Repository persists accounts, their single session and their ignore list.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByUserName(ctx context.Context, userName string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)

	// OpenSession records sessionID/deviceID on the account. With exclusive
	// set it only succeeds when no session is recorded or the recorded
	// device is deviceID. It reports whether the session was recorded.
	OpenSession(ctx context.Context, id, sessionID, deviceID string, exclusive bool, now time.Time) (bool, error)
	// CloseSession clears the session if it is still sessionID.
	CloseSession(ctx context.Context, id, sessionID string) (bool, error)
	// Touch sets last_seen for the account if sessionID (and, with
	// checkDevice, deviceID) is still its recorded session. It returns
	// common.ErrorNotFound otherwise.
	Touch(ctx context.Context, id, sessionID, deviceID string, checkDevice bool, now time.Time) (*models.Account, error)

	UpdatePosition(ctx context.Context, id string, lat, lon float64, now time.Time) error
	// ListActiveSince returns logged-in accounts seen at or after since,
	// excluding requesterID and the accounts it ignores.
	ListActiveSince(ctx context.Context, requesterID string, since time.Time) ([]*models.Account, error)

	Ignore(ctx context.Context, id, ignoredID string, now time.Time) error
	Unignore(ctx context.Context, id, ignoredID string) error
}
