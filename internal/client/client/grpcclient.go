package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/api"
	"github.com/dmitrijs2005/safecircle/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// GRPCClient talks to the SafeCircle backend. It owns the session token
// and the sync state (position, current group and cursors), so callers
// only decide when to poll. It is safe for concurrent use.
type GRPCClient struct {
	endpointURL string
	deviceID    string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      *api.SafeCircleClient

	mu          sync.Mutex
	accessToken string
	userName    string
	lat, lon    float64
	groupID     string
	cursors     api.Cursors
	epoch       uint64
}

func withSession(ctx context.Context, token, deviceID string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.DeviceIDHeaderName, deviceID)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	} else {
		md.Delete(common.AccessTokenHeaderName)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) sessionInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	s.mu.Lock()
	token := s.accessToken
	s.mu.Unlock()

	ctx = withSession(ctx, token, s.deviceID)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewSafeCircleClientService dials endpointURL without transport security.
// Extra dial options are appended after the defaults.
func NewSafeCircleClientService(endpointURL, deviceID string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, deviceID: deviceID, timeout: timeout}
	err := c.InitGRPCClient(opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.sessionInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, dialOpts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = api.NewSafeCircleClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

// UserName returns the account the client is logged in as, or "".
func (s *GRPCClient) UserName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userName
}

func (s *GRPCClient) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken != ""
}

// GroupID returns the group seen in the last sync or join, or "".
func (s *GRPCClient) GroupID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groupID
}

func (s *GRPCClient) Cursors() api.Cursors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors
}

// SetPosition sets the location reported by the next Sync.
func (s *GRPCClient) SetPosition(lat, lon float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lat, s.lon = lat, lon
}

func (s *GRPCClient) Position() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lat, s.lon
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &api.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) Register(ctx context.Context, userName, password string) error {
	_, err := s.client.Register(ctx, &api.RegisterRequest{Username: userName, Password: password})
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

// Login opens a session bound to the client's device. Sync state from a
// previous session is discarded.
func (s *GRPCClient) Login(ctx context.Context, userName, password string) error {
	req := &api.LoginRequest{Username: userName, Password: password, DeviceID: s.deviceID}

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return s.mapError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = resp.AccessToken
	s.userName = userName
	s.groupID = ""
	s.cursors = api.Cursors{}
	s.epoch++

	return nil
}

// Logout ends the session on the server and forgets the token locally even
// when the server call fails.
func (s *GRPCClient) Logout(ctx context.Context) error {
	_, err := s.client.Logout(ctx, &api.LogoutRequest{})

	s.mu.Lock()
	s.accessToken = ""
	s.userName = ""
	s.groupID = ""
	s.cursors = api.Cursors{}
	s.epoch++
	s.mu.Unlock()

	if err != nil {
		return s.mapError(err)
	}
	return nil
}

// Sync reports the current position and fetches everything newer than the
// stored cursors. Cursors only advance when the call succeeds, so a failed
// poll is simply repeated. When the server reports a different group than
// the one polled, the group cursor restarts at that group's join cursor.
// A response that raced with a login, logout, join or leave does not touch
// the state those calls set.
func (s *GRPCClient) Sync(ctx context.Context) (*api.SyncResponse, error) {
	s.mu.Lock()
	epoch := s.epoch
	req := &api.SyncRequest{
		Lat:                  s.lat,
		Lon:                  s.lon,
		GroupID:              s.groupID,
		LastGroupMessageID:   s.cursors.LastGroupMessageID,
		LastPrivateMessageID: s.cursors.LastPrivateMessageID,
		LastSosTime:          s.cursors.LastSosTime,
	}
	s.mu.Unlock()

	resp, err := s.client.Sync(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return resp, nil
	}

	s.cursors.LastPrivateMessageID = resp.Cursors.LastPrivateMessageID
	s.cursors.LastSosTime = resp.Cursors.LastSosTime
	switch {
	case s.groupID != req.GroupID:
		// joined or left while the poll was in flight
	case resp.Group.GroupID != req.GroupID:
		s.groupID = resp.Group.GroupID
		s.cursors.LastGroupMessageID = resp.Group.JoinedCursor
	default:
		s.cursors.LastGroupMessageID = resp.Cursors.LastGroupMessageID
	}

	return resp, nil
}

func (s *GRPCClient) UpdateLocation(ctx context.Context, lat, lon float64) error {
	_, err := s.client.UpdateLocation(ctx, &api.UpdateLocationRequest{Lat: lat, Lon: lon})
	if err != nil {
		return s.mapError(err)
	}
	s.SetPosition(lat, lon)
	return nil
}

func (s *GRPCClient) NearbyUsers(ctx context.Context, radiusKm float64) ([]*api.Peer, error) {
	resp, err := s.client.NearbyUsers(ctx, &api.NearbyUsersRequest{RadiusKm: radiusKm})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Peers, nil
}

// CreateGroup creates a group anchored at the current position when public
// and moves the caller into it.
func (s *GRPCClient) CreateGroup(ctx context.Context, name string, public bool) (*api.Group, error) {
	req := &api.CreateGroupRequest{Name: name, IsPublic: public}
	if public {
		lat, lon := s.Position()
		req.Anchor = &api.Point{Lat: lat, Lon: lon}
	}

	g, err := s.client.CreateGroup(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	s.enterGroup(g.ID, 0)
	return g, nil
}

func (s *GRPCClient) JoinGroup(ctx context.Context, groupID string) (*api.JoinGroupResponse, error) {
	resp, err := s.client.JoinGroup(ctx, &api.GroupRequest{GroupID: groupID})
	if err != nil {
		return nil, s.mapError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.groupID != resp.GroupID {
		s.groupID = resp.GroupID
		s.cursors.LastGroupMessageID = resp.JoinedCursor
	}
	return resp, nil
}

func (s *GRPCClient) LeaveGroup(ctx context.Context) error {
	groupID := s.GroupID()
	if groupID == "" {
		return ErrNotMember
	}

	_, err := s.client.LeaveGroup(ctx, &api.GroupRequest{GroupID: groupID})
	if err != nil {
		return s.mapError(err)
	}

	s.enterGroup("", 0)
	return nil
}

func (s *GRPCClient) enterGroup(groupID string, cursor int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupID = groupID
	s.cursors.LastGroupMessageID = cursor
}

func (s *GRPCClient) ListPublicGroups(ctx context.Context, radiusKm float64) ([]*api.GroupSummary, error) {
	lat, lon := s.Position()
	resp, err := s.client.ListPublicGroups(ctx, &api.ListPublicGroupsRequest{Lat: lat, Lon: lon, RadiusKm: radiusKm})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Groups, nil
}

func (s *GRPCClient) GroupMembers(ctx context.Context) ([]*api.Member, error) {
	groupID := s.GroupID()
	if groupID == "" {
		return nil, ErrNotMember
	}

	resp, err := s.client.GroupMembers(ctx, &api.GroupRequest{GroupID: groupID})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Members, nil
}

// Attachments references uploaded objects by the keys RequestUpload
// returned.
type Attachments struct {
	PhotoKey string
	AudioKey string
}

// SayToGroup posts text to the current group.
func (s *GRPCClient) SayToGroup(ctx context.Context, text string, att Attachments) (int64, error) {
	groupID := s.GroupID()
	if groupID == "" {
		return 0, ErrNotMember
	}
	return s.sendMessage(ctx, &api.SendMessageRequest{
		GroupID: groupID, Text: text, PhotoKey: att.PhotoKey, AudioKey: att.AudioKey,
	})
}

func (s *GRPCClient) SendPrivate(ctx context.Context, receiver, text string, att Attachments) (int64, error) {
	return s.sendMessage(ctx, &api.SendMessageRequest{
		Receiver: receiver, Text: text, PhotoKey: att.PhotoKey, AudioKey: att.AudioKey,
	})
}

func (s *GRPCClient) sendMessage(ctx context.Context, req *api.SendMessageRequest) (int64, error) {
	resp, err := s.client.SendMessage(ctx, req)
	if err != nil {
		return 0, s.mapError(err)
	}
	return resp.ID, nil
}

// SendSos raises an alert at the current position.
func (s *GRPCClient) SendSos(ctx context.Context, comment, photoKey string) (*api.SendSosResponse, error) {
	lat, lon := s.Position()
	resp, err := s.client.SendSos(ctx, &api.SendSosRequest{Lat: lat, Lon: lon, Comment: comment, PhotoKey: photoKey})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

// Invite invites userName into the current group.
func (s *GRPCClient) Invite(ctx context.Context, userName string) (*api.Invite, error) {
	groupID := s.GroupID()
	if groupID == "" {
		return nil, ErrNotMember
	}

	inv, err := s.client.SendInvite(ctx, &api.SendInviteRequest{Username: userName, GroupID: groupID})
	if err != nil {
		return nil, s.mapError(err)
	}
	return inv, nil
}

func (s *GRPCClient) RejectInvite(ctx context.Context, inviteID int64) error {
	_, err := s.client.RejectInvite(ctx, &api.RejectInviteRequest{InviteID: inviteID})
	return s.mapError(err)
}

func (s *GRPCClient) Ignore(ctx context.Context, userName string) error {
	_, err := s.client.IgnoreUser(ctx, &api.UserRequest{Username: userName})
	return s.mapError(err)
}

func (s *GRPCClient) Unignore(ctx context.Context, userName string) error {
	_, err := s.client.UnignoreUser(ctx, &api.UserRequest{Username: userName})
	return s.mapError(err)
}

// RequestUpload returns a storage key and a presigned PUT URL for a photo
// or audio attachment.
func (s *GRPCClient) RequestUpload(ctx context.Context, kind string) (*api.UploadTicket, error) {
	t, err := s.client.RequestUpload(ctx, &api.RequestUploadRequest{Kind: kind})
	if err != nil {
		return nil, s.mapError(err)
	}
	return t, nil
}

func (s *GRPCClient) AttachmentURL(ctx context.Context, key string) (string, error) {
	resp, err := s.client.AttachmentURL(ctx, &api.AttachmentURLRequest{Key: key})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.URL, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		if !s.LoggedIn() {
			return ErrNotLoggedIn
		}
		return ErrUnauthorized
	case codes.PermissionDenied:
		return ErrNotMember
	case codes.FailedPrecondition:
		return ErrSessionConflict
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
