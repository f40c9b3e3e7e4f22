package grpc

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/api"
	"github.com/dmitrijs2005/safecircle/internal/common"
	"github.com/dmitrijs2005/safecircle/internal/geo"
	"github.com/dmitrijs2005/safecircle/internal/logging"
	"github.com/dmitrijs2005/safecircle/internal/server/models"
	"github.com/dmitrijs2005/safecircle/internal/server/observability"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// fakeSessions issues "tok-<user>" tokens bound to the login device and
// allows one live session per user.
type fakeSessions struct {
	mu       sync.Mutex
	devices  map[string]string
	loggedIn map[string]string
	authErr  error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{devices: map[string]string{}, loggedIn: map[string]string{}}
}

func (f *fakeSessions) Register(ctx context.Context, userName, password string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.devices[userName]; ok {
		return nil, common.ErrAlreadyExists
	}
	f.devices[userName] = ""
	return &models.Account{ID: "acc-" + userName, UserName: userName}, nil
}

func (f *fakeSessions) Login(ctx context.Context, userName, password, deviceID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.devices[userName]; !ok || password != "secret1" {
		return "", common.ErrorUnauthorized
	}
	if d := f.loggedIn[userName]; d != "" && d != deviceID {
		return "", common.ErrSessionConflict
	}
	f.loggedIn[userName] = deviceID
	return "tok-" + userName, nil
}

func (f *fakeSessions) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.loggedIn, strings.TrimPrefix(token, "tok-"))
	return nil
}

func (f *fakeSessions) Authenticate(ctx context.Context, token, deviceID string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.authErr != nil {
		return nil, f.authErr
	}
	user := strings.TrimPrefix(token, "tok-")
	if d, ok := f.loggedIn[user]; !ok || d != deviceID {
		return nil, common.ErrorUnauthorized
	}
	return &models.Identity{AccountID: "acc-" + user, UserName: user, DeviceID: deviceID}, nil
}

type fakePresence struct {
	lastLat, lastLon float64
	peers            []*models.PeerView
}

func (f *fakePresence) UpdatePosition(ctx context.Context, accountID string, lat, lon float64) error {
	f.lastLat, f.lastLon = lat, lon
	return nil
}

func (f *fakePresence) NearbyPeers(ctx context.Context, accountID string, radiusKm float64) ([]*models.PeerView, error) {
	return f.peers, nil
}

func (f *fakePresence) Ignore(ctx context.Context, accountID, targetName string) error {
	if targetName == "nobody" {
		return common.ErrorNotFound
	}
	return nil
}

func (f *fakePresence) Unignore(ctx context.Context, accountID, targetName string) error {
	return nil
}

type fakeGroups struct{}

func (fakeGroups) Create(ctx context.Context, ownerID, name string, anchor *geo.Point, isPublic bool) (*models.Group, error) {
	if name == "taken" {
		return nil, common.ErrNameConflict
	}
	g := &models.Group{ID: "grp-1", Name: name, IsPublic: isPublic, OwnerID: ownerID}
	if anchor != nil {
		g.Lat, g.Lon = &anchor.Lat, &anchor.Lon
	}
	return g, nil
}

func (fakeGroups) Join(ctx context.Context, accountID, groupID string) (*models.Membership, error) {
	if groupID != "grp-1" {
		return nil, common.ErrorNotFound
	}
	return &models.Membership{AccountID: accountID, GroupID: groupID, JoinedCursor: 41}, nil
}

func (fakeGroups) Leave(ctx context.Context, accountID, groupID string) error {
	return nil
}

func (fakeGroups) ListPublicNear(ctx context.Context, lat, lon, radiusKm float64) ([]*models.GroupSummary, error) {
	return []*models.GroupSummary{{ID: "grp-1", Name: "hikers", DistanceKm: 0.5}}, nil
}

func (fakeGroups) Members(ctx context.Context, accountID, groupID string) ([]*models.Member, error) {
	return []*models.Member{{UserName: "alice"}}, nil
}

type fakeMessages struct {
	nextID int64
}

func (f *fakeMessages) PostGroupMessage(ctx context.Context, senderID, groupID, text, audioKey, photoKey string) (*models.Message, error) {
	if groupID != "grp-1" {
		return nil, common.ErrNotMember
	}
	f.nextID++
	return &models.Message{ID: f.nextID, GroupID: groupID, Text: text}, nil
}

func (f *fakeMessages) PostPrivateMessage(ctx context.Context, senderID, receiverName, text, audioKey, photoKey string) (*models.Message, error) {
	f.nextID++
	return &models.Message{ID: f.nextID, ReceiverName: receiverName, Text: text}, nil
}

func (f *fakeMessages) PostSos(ctx context.Context, senderID string, lat, lon float64, comment, photoKey string) (*models.SosAlert, error) {
	return &models.SosAlert{ID: 7, Comment: comment, CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeMessages) SendInvite(ctx context.Context, inviterID, inviteeName, groupID string) (*models.Invite, error) {
	return &models.Invite{ID: 3, GroupID: groupID, GroupName: "hikers"}, nil
}

func (f *fakeMessages) RejectInvite(ctx context.Context, inviteeID string, inviteID int64) error {
	if inviteID != 3 {
		return common.ErrorNotFound
	}
	return nil
}

func (f *fakeMessages) GroupMessagesSince(ctx context.Context, accountID, groupID string, afterID int64) ([]*models.Message, error) {
	return []*models.Message{{ID: afterID + 1, GroupID: groupID, Text: "group"}}, nil
}

func (f *fakeMessages) PrivateMessagesSince(ctx context.Context, accountID string, afterID int64) ([]*models.Message, error) {
	return []*models.Message{{ID: afterID + 1, ReceiverName: "bob", Text: "private"}}, nil
}

type fakeSync struct {
	got *models.SyncRequest
	err error
}

func (f *fakeSync) Sync(ctx context.Context, id *models.Identity, req *models.SyncRequest) (*models.SyncResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.got = req
	return &models.SyncResult{
		Peers:   []*models.PeerView{{UserName: "bob", DistanceKm: 0.13}},
		Group:   models.GroupStatus{GroupID: req.GroupID},
		Cursors: models.SyncCursors{LastGroupMessageID: req.LastGroupMessageID + 2},
	}, nil
}

type fakeAttachments struct{}

func (fakeAttachments) PresignUpload(ctx context.Context, accountID, kind string) (*models.UploadTicket, error) {
	return &models.UploadTicket{Key: "attachments/" + kind + "/k", URL: "https://put/k"}, nil
}

func (fakeAttachments) PresignDownload(ctx context.Context, key string) (string, error) {
	return "https://get/" + key, nil
}

type testEnv struct {
	sessions *fakeSessions
	presence *fakePresence
	sync     *fakeSync
	metrics  *observability.Metrics
	server   *GRPCServer
	client   *api.SafeCircleClient
}

func newTestServer(sessions *fakeSessions, m *observability.Metrics) *GRPCServer {
	return NewGRPCServer("bufnet", nopLogger{}, Services{
		Sessions:    sessions,
		Presence:    &fakePresence{},
		Groups:      fakeGroups{},
		Messages:    &fakeMessages{},
		Sync:        &fakeSync{},
		Attachments: fakeAttachments{},
	}, m, Options{StoreTimeout: time.Second})
}

// newTestEnv serves the API over an in-memory listener and returns a client
// connected to it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		sessions: newFakeSessions(),
		presence: &fakePresence{},
		sync:     &fakeSync{},
		metrics:  observability.NewMetrics(),
	}
	env.server = NewGRPCServer("bufnet", nopLogger{}, Services{
		Sessions:    env.sessions,
		Presence:    env.presence,
		Groups:      fakeGroups{},
		Messages:    &fakeMessages{},
		Sync:        env.sync,
		Attachments: fakeAttachments{},
	}, env.metrics, Options{StoreTimeout: time.Second})

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		<-done
	})

	env.client = api.NewSafeCircleClient(conn)
	return env
}

// login registers and logs userName in from device, returning a context
// carrying the session metadata.
func (e *testEnv) login(t *testing.T, userName, device string) context.Context {
	t.Helper()
	ctx := context.Background()

	_, err := e.client.Register(ctx, &api.RegisterRequest{Username: userName, Password: "secret1"})
	require.NoError(t, err)
	resp, err := e.client.Login(ctx, &api.LoginRequest{Username: userName, Password: "secret1", DeviceID: device})
	require.NoError(t, err)

	return metadata.AppendToOutgoingContext(ctx,
		common.AccessTokenHeaderName, resp.AccessToken,
		common.DeviceIDHeaderName, device,
	)
}
