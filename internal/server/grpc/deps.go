package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/geo"
	"github.com/dmitrijs2005/safecircle/internal/server/models"
)

// The handlers depend on these narrow views of the services package.

type SessionManager interface {
	Register(ctx context.Context, userName, password string) (*models.Account, error)
	Login(ctx context.Context, userName, password, deviceID string) (string, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token, deviceID string) (*models.Identity, error)
}

type PresenceDirectory interface {
	UpdatePosition(ctx context.Context, accountID string, lat, lon float64) error
	NearbyPeers(ctx context.Context, accountID string, radiusKm float64) ([]*models.PeerView, error)
	Ignore(ctx context.Context, accountID, targetName string) error
	Unignore(ctx context.Context, accountID, targetName string) error
}

type GroupEngine interface {
	Create(ctx context.Context, ownerID, name string, anchor *geo.Point, isPublic bool) (*models.Group, error)
	Join(ctx context.Context, accountID, groupID string) (*models.Membership, error)
	Leave(ctx context.Context, accountID, groupID string) error
	ListPublicNear(ctx context.Context, lat, lon, radiusKm float64) ([]*models.GroupSummary, error)
	Members(ctx context.Context, accountID, groupID string) ([]*models.Member, error)
}

type MessageStore interface {
	PostGroupMessage(ctx context.Context, senderID, groupID, text, audioKey, photoKey string) (*models.Message, error)
	PostPrivateMessage(ctx context.Context, senderID, receiverName, text, audioKey, photoKey string) (*models.Message, error)
	PostSos(ctx context.Context, senderID string, lat, lon float64, comment, photoKey string) (*models.SosAlert, error)
	SendInvite(ctx context.Context, inviterID, inviteeName, groupID string) (*models.Invite, error)
	RejectInvite(ctx context.Context, inviteeID string, inviteID int64) error
	GroupMessagesSince(ctx context.Context, accountID, groupID string, afterID int64) ([]*models.Message, error)
	PrivateMessagesSince(ctx context.Context, accountID string, afterID int64) ([]*models.Message, error)
}

type SyncCoordinator interface {
	Sync(ctx context.Context, id *models.Identity, req *models.SyncRequest) (*models.SyncResult, error)
}

type AttachmentSigner interface {
	PresignUpload(ctx context.Context, accountID, kind string) (*models.UploadTicket, error)
	PresignDownload(ctx context.Context, key string) (string, error)
}

// Services bundles what GRPCServer serves.
type Services struct {
	Sessions    SessionManager
	Presence    PresenceDirectory
	Groups      GroupEngine
	Messages    MessageStore
	Sync        SyncCoordinator
	Attachments AttachmentSigner
}

// Options tune request handling.
type Options struct {
	// StoreTimeout bounds every request; zero disables the limit.
	StoreTimeout time.Duration
}
