package cli

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/api"
	"github.com/dmitrijs2005/safecircle/internal/client/client"
	"github.com/dmitrijs2005/safecircle/internal/client/config"
	"github.com/dmitrijs2005/safecircle/internal/logging"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// fakeAPI mimics client.GRPCClient closely enough for the CLI: login
// sets the user, group calls move the local group.
type fakeAPI struct {
	mu sync.Mutex

	user     string
	group    string
	lat, lon float64

	calls []string

	loginErr  error
	syncResp  *api.SyncResponse
	syncErr   error
	pingErr   error
	pings     int
	peers     []*api.Peer
	groups    []*api.GroupSummary
	lastText  string
	lastTo    string
	lastAtt   client.Attachments
	storeURL  string
	rejected  int64
	updatedTo [2]float64
}

func (f *fakeAPI) call(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeAPI) Close() error { return nil }
func (f *fakeAPI) UserName() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}
func (f *fakeAPI) LoggedIn() bool { return f.UserName() != "" }
func (f *fakeAPI) GroupID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.group
}
func (f *fakeAPI) SetPosition(lat, lon float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lat, f.lon = lat, lon
}
func (f *fakeAPI) Position() (float64, float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lat, f.lon
}

func (f *fakeAPI) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeAPI) Register(ctx context.Context, userName, password string) error {
	f.call("register " + userName + " " + password)
	return nil
}

func (f *fakeAPI) Login(ctx context.Context, userName, password string) error {
	f.call("login " + userName + " " + password)
	if f.loginErr != nil {
		return f.loginErr
	}
	f.mu.Lock()
	f.user = userName
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	f.call("logout")
	f.mu.Lock()
	f.user, f.group = "", ""
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) Sync(ctx context.Context) (*api.SyncResponse, error) {
	f.call("sync")
	if f.syncErr != nil {
		return nil, f.syncErr
	}
	if f.syncResp == nil {
		return &api.SyncResponse{}, nil
	}
	return f.syncResp, nil
}

func (f *fakeAPI) UpdateLocation(ctx context.Context, lat, lon float64) error {
	f.call("update_location")
	f.mu.Lock()
	f.updatedTo = [2]float64{lat, lon}
	f.mu.Unlock()
	f.SetPosition(lat, lon)
	return nil
}

func (f *fakeAPI) NearbyUsers(ctx context.Context, radiusKm float64) ([]*api.Peer, error) {
	f.call("nearby")
	return f.peers, nil
}

func (f *fakeAPI) CreateGroup(ctx context.Context, name string, public bool) (*api.Group, error) {
	if public {
		f.call("create public " + name)
	} else {
		f.call("create " + name)
	}
	f.mu.Lock()
	f.group = "grp-" + name
	f.mu.Unlock()
	return &api.Group{ID: "grp-" + name, Name: name, IsPublic: public}, nil
}

func (f *fakeAPI) JoinGroup(ctx context.Context, groupID string) (*api.JoinGroupResponse, error) {
	f.call("join " + groupID)
	f.mu.Lock()
	f.group = groupID
	f.mu.Unlock()
	return &api.JoinGroupResponse{GroupID: groupID, JoinedCursor: 3}, nil
}

func (f *fakeAPI) LeaveGroup(ctx context.Context) error {
	f.call("leave")
	f.mu.Lock()
	f.group = ""
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) ListPublicGroups(ctx context.Context, radiusKm float64) ([]*api.GroupSummary, error) {
	f.call("groups")
	return f.groups, nil
}

func (f *fakeAPI) GroupMembers(ctx context.Context) ([]*api.Member, error) {
	f.call("members")
	return []*api.Member{{UserName: "alice", Lat: 1, Lon: 2, JoinedAt: time.Now()}}, nil
}

func (f *fakeAPI) SayToGroup(ctx context.Context, text string, att client.Attachments) (int64, error) {
	f.call("say")
	f.mu.Lock()
	f.lastText, f.lastAtt = text, att
	f.mu.Unlock()
	return 1, nil
}

func (f *fakeAPI) SendPrivate(ctx context.Context, receiver, text string, att client.Attachments) (int64, error) {
	f.call("pm")
	f.mu.Lock()
	f.lastTo, f.lastText, f.lastAtt = receiver, text, att
	f.mu.Unlock()
	return 2, nil
}

func (f *fakeAPI) SendSos(ctx context.Context, comment, photoKey string) (*api.SendSosResponse, error) {
	f.call("sos")
	f.mu.Lock()
	f.lastText, f.lastAtt = comment, client.Attachments{PhotoKey: photoKey}
	f.mu.Unlock()
	return &api.SendSosResponse{ID: 9, CreatedAt: time.Now()}, nil
}

func (f *fakeAPI) Invite(ctx context.Context, userName string) (*api.Invite, error) {
	f.call("invite " + userName)
	return &api.Invite{ID: 5}, nil
}

func (f *fakeAPI) RejectInvite(ctx context.Context, inviteID int64) error {
	f.call("reject")
	f.mu.Lock()
	f.rejected = inviteID
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) Ignore(ctx context.Context, userName string) error {
	f.call("ignore " + userName)
	return nil
}

func (f *fakeAPI) Unignore(ctx context.Context, userName string) error {
	f.call("unignore " + userName)
	return nil
}

func (f *fakeAPI) RequestUpload(ctx context.Context, kind string) (*api.UploadTicket, error) {
	f.call("upload " + kind)
	return &api.UploadTicket{
		Key:     "attachments/" + kind + "/k1",
		URL:     f.storeURL + "/put",
		Headers: map[string]string{"X-Amz-Meta-Account": "acc-1"},
	}, nil
}

func (f *fakeAPI) AttachmentURL(ctx context.Context, key string) (string, error) {
	f.call("url " + key)
	return f.storeURL + "/get/" + key, nil
}

func (f *fakeAPI) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// syncBuffer is a bytes.Buffer safe for the poller goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestApp(f *fakeAPI, input string) (*App, *syncBuffer) {
	out := &syncBuffer{}
	cfg := &config.Config{PollInterval: 10 * time.Millisecond}
	return newApp(cfg, f, nopLogger{}, bytesReader(input), out), out
}

func bytesReader(s string) *bytes.Reader { return bytes.NewReader([]byte(s)) }
