package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/api"
	"github.com/dmitrijs2005/safecircle/internal/client/client"
	"github.com/dmitrijs2005/safecircle/internal/client/config"
	"github.com/dmitrijs2005/safecircle/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// apiClient is the part of client.GRPCClient the CLI uses.
type apiClient interface {
	Close() error
	UserName() string
	LoggedIn() bool
	GroupID() string
	SetPosition(lat, lon float64)
	Position() (float64, float64)

	Ping(ctx context.Context) error
	Register(ctx context.Context, userName, password string) error
	Login(ctx context.Context, userName, password string) error
	Logout(ctx context.Context) error
	Sync(ctx context.Context) (*api.SyncResponse, error)
	UpdateLocation(ctx context.Context, lat, lon float64) error
	NearbyUsers(ctx context.Context, radiusKm float64) ([]*api.Peer, error)
	CreateGroup(ctx context.Context, name string, public bool) (*api.Group, error)
	JoinGroup(ctx context.Context, groupID string) (*api.JoinGroupResponse, error)
	LeaveGroup(ctx context.Context) error
	ListPublicGroups(ctx context.Context, radiusKm float64) ([]*api.GroupSummary, error)
	GroupMembers(ctx context.Context) ([]*api.Member, error)
	SayToGroup(ctx context.Context, text string, att client.Attachments) (int64, error)
	SendPrivate(ctx context.Context, receiver, text string, att client.Attachments) (int64, error)
	SendSos(ctx context.Context, comment, photoKey string) (*api.SendSosResponse, error)
	Invite(ctx context.Context, userName string) (*api.Invite, error)
	RejectInvite(ctx context.Context, inviteID int64) error
	Ignore(ctx context.Context, userName string) error
	Unignore(ctx context.Context, userName string) error
	RequestUpload(ctx context.Context, kind string) (*api.UploadTicket, error)
	AttachmentURL(ctx context.Context, key string) (string, error)
}

type App struct {
	config *config.Config
	api    apiClient
	logger logging.Logger
	reader *bufio.Reader

	outMu sync.Mutex
	out   io.Writer

	mu          sync.Mutex
	Mode        Mode
	groupID     string
	groupName   string
	seenInvites map[int64]struct{}
	pending     client.Attachments
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	apiClient, err := client.NewSafeCircleClientService(c.ServerEndpointAddr, c.DeviceID, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	return newApp(c, apiClient, logger, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, api apiClient, logger logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		config:      c,
		api:         api,
		logger:      logger,
		reader:      bufio.NewReader(in),
		out:         out,
		seenInvites: map[int64]struct{}{},
	}
}

// printf writes one line of user-facing output. The poller and the REPL
// share the writer.
func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()

	if changed {
		a.printf("Switched to %s mode", mode)
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

// Run starts the background poller and blocks in the REPL until the user
// exits or ctx is cancelled. An open session is closed on the way out.
func (a *App) Run(ctx context.Context) {
	defer a.api.Close()

	a.printf("Welcome to SafeCircle CLI (type 'help' for commands)")

	pollCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.StartSyncPoller(pollCtx, a.config.PollInterval)
	}()

	scanner := bufio.NewScanner(a.reader)
	runREPL(ctx, a, a.getStatus, scanner)

	cancel()
	wg.Wait()

	if a.isLoggedIn() {
		logoutCtx, cancelLogout := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancelLogout()
		if err := a.api.Logout(logoutCtx); err != nil {
			a.logger.Warn(ctx, "logout on exit failed", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.api.LoggedIn()
}

func (a *App) getStatus() string {
	s := ""
	if name := a.api.UserName(); name != "" {
		s = name + " "
	}
	if m := a.mode(); m != "" {
		s = s + string(m)
	}
	a.mu.Lock()
	if a.groupName != "" {
		s = s + " @" + a.groupName
	}
	a.mu.Unlock()
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// StartSyncPoller polls the server every interval while a session is open
// and prints what is new. When logged out it only pings, to keep the mode
// indicator current.
func (a *App) StartSyncPoller(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			callCtx, cancel := context.WithTimeout(ctx, interval)
			var err error
			if a.isLoggedIn() {
				err = a.pollOnce(callCtx)
			} else {
				err = a.api.Ping(callCtx)
			}
			cancel()
			a.afterCall(ctx, err)

		case <-ctx.Done():
			return
		}
	}
}

// afterCall tracks connectivity from the outcome of a server call.
func (a *App) afterCall(ctx context.Context, err error) {
	switch {
	case err == nil:
		a.setMode(ModeOnline)
	case errors.Is(err, client.ErrUnavailable):
		a.setMode(ModeOffline)
	case errors.Is(err, client.ErrUnauthorized):
		a.printf("Session is no longer valid, please log in again")
		_ = a.api.Logout(ctx)
		a.resetSessionView()
	default:
		a.logger.Warn(ctx, "poll failed", "error", err)
	}
}

func (a *App) resetSessionView() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.groupID, a.groupName = "", ""
	a.seenInvites = map[int64]struct{}{}
	a.pending = client.Attachments{}
}

func (a *App) setGroup(id, name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.groupID, a.groupName = id, name
}

// pollOnce runs one Sync and prints its news.
func (a *App) pollOnce(ctx context.Context) error {
	resp, err := a.api.Sync(ctx)
	if err != nil {
		return err
	}
	a.render(resp)
	return nil
}
