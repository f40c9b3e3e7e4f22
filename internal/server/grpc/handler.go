package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/safecircle/internal/api"
	"github.com/dmitrijs2005/safecircle/internal/common"
	"github.com/dmitrijs2005/safecircle/internal/geo"
	"github.com/dmitrijs2005/safecircle/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// caller returns the authenticated identity or an Unauthenticated status.
func caller(ctx context.Context) (*models.Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, common.ErrorUnauthorized.Error())
	}
	return id, nil
}

// prepare validates req and resolves the caller for authenticated methods.
func (s *GRPCServer) prepare(ctx context.Context, method string, req any) (*models.Identity, error) {
	if err := api.Validate(req); err != nil {
		return nil, s.toStatus(ctx, method, err)
	}
	return caller(ctx)
}

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {

	return &api.PingResponse{Status: "OK"}, nil

}

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {

	if err := api.Validate(req); err != nil {
		return nil, s.toStatus(ctx, api.MethodRegister, err)
	}

	s.logger.Info(ctx, "Registration request", "username", req.Username)

	acc, err := s.svc.Sessions.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodRegister, err)
	}

	s.logger.Info(ctx, "Registered", "username", req.Username, "id", acc.ID)
	return &api.RegisterResponse{ID: acc.ID}, nil

}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {

	if err := api.Validate(req); err != nil {
		return nil, s.toStatus(ctx, api.MethodLogin, err)
	}

	token, err := s.svc.Sessions.Login(ctx, req.Username, req.Password, req.DeviceID)
	if err != nil {
		if errors.Is(err, common.ErrSessionConflict) {
			s.metrics.LoginsRejectedTotal.Inc()
			s.logger.Info(ctx, "Login rejected, session active elsewhere", "username", req.Username)
		}
		return nil, s.toStatus(ctx, api.MethodLogin, err)
	}

	return &api.LoginResponse{AccessToken: token}, nil

}

func (s *GRPCServer) Logout(ctx context.Context, req *api.LogoutRequest) (*api.Ack, error) {

	token := metadataValue(ctx, common.AccessTokenHeaderName)
	if token == "" {
		return &api.Ack{}, nil
	}

	if err := s.svc.Sessions.Logout(ctx, token); err != nil {
		return nil, s.toStatus(ctx, api.MethodLogout, err)
	}

	return &api.Ack{}, nil

}

func (s *GRPCServer) Sync(ctx context.Context, req *api.SyncRequest) (*api.SyncResponse, error) {

	id, err := s.prepare(ctx, api.MethodSync, req)
	if err != nil {
		return nil, err
	}

	res, err := s.svc.Sync.Sync(ctx, id, &models.SyncRequest{
		Lat:                  req.Lat,
		Lon:                  req.Lon,
		GroupID:              req.GroupID,
		LastGroupMessageID:   req.LastGroupMessageID,
		LastPrivateMessageID: req.LastPrivateMessageID,
		LastSosTime:          req.LastSosTime,
	})
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodSync, err)
	}

	return &api.SyncResponse{
		Peers:           res.Peers,
		GroupMessages:   res.GroupMessages,
		GroupMembers:    res.GroupMembers,
		PrivateMessages: res.PrivateMessages,
		SosAlerts:       res.SosAlerts,
		Invites:         res.Invites,
		Group:           res.Group,
		Cursors:         res.Cursors,
	}, nil

}

func (s *GRPCServer) UpdateLocation(ctx context.Context, req *api.UpdateLocationRequest) (*api.Ack, error) {

	id, err := s.prepare(ctx, api.MethodUpdateLocation, req)
	if err != nil {
		return nil, err
	}

	if err := s.svc.Presence.UpdatePosition(ctx, id.AccountID, req.Lat, req.Lon); err != nil {
		return nil, s.toStatus(ctx, api.MethodUpdateLocation, err)
	}

	return &api.Ack{}, nil

}

func (s *GRPCServer) NearbyUsers(ctx context.Context, req *api.NearbyUsersRequest) (*api.NearbyUsersResponse, error) {

	id, err := s.prepare(ctx, api.MethodNearbyUsers, req)
	if err != nil {
		return nil, err
	}

	peers, err := s.svc.Presence.NearbyPeers(ctx, id.AccountID, req.RadiusKm)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodNearbyUsers, err)
	}

	return &api.NearbyUsersResponse{Peers: peers}, nil

}

func (s *GRPCServer) CreateGroup(ctx context.Context, req *api.CreateGroupRequest) (*api.Group, error) {

	id, err := s.prepare(ctx, api.MethodCreateGroup, req)
	if err != nil {
		return nil, err
	}

	var anchor *geo.Point
	if req.Anchor != nil {
		anchor = &geo.Point{Lat: req.Anchor.Lat, Lon: req.Anchor.Lon}
	}

	g, err := s.svc.Groups.Create(ctx, id.AccountID, req.Name, anchor, req.IsPublic)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodCreateGroup, err)
	}

	s.logger.Info(ctx, "Group created", "group_id", g.ID, "owner", id.UserName)
	return &api.Group{
		ID:        g.ID,
		Name:      g.Name,
		Lat:       g.Lat,
		Lon:       g.Lon,
		IsPublic:  g.IsPublic,
		CreatedAt: g.CreatedAt,
	}, nil

}

func (s *GRPCServer) JoinGroup(ctx context.Context, req *api.GroupRequest) (*api.JoinGroupResponse, error) {

	id, err := s.prepare(ctx, api.MethodJoinGroup, req)
	if err != nil {
		return nil, err
	}

	m, err := s.svc.Groups.Join(ctx, id.AccountID, req.GroupID)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodJoinGroup, err)
	}

	return &api.JoinGroupResponse{GroupID: m.GroupID, JoinedCursor: m.JoinedCursor}, nil

}

func (s *GRPCServer) LeaveGroup(ctx context.Context, req *api.GroupRequest) (*api.Ack, error) {

	id, err := s.prepare(ctx, api.MethodLeaveGroup, req)
	if err != nil {
		return nil, err
	}

	if err := s.svc.Groups.Leave(ctx, id.AccountID, req.GroupID); err != nil {
		return nil, s.toStatus(ctx, api.MethodLeaveGroup, err)
	}

	return &api.Ack{}, nil

}

func (s *GRPCServer) ListPublicGroups(ctx context.Context, req *api.ListPublicGroupsRequest) (*api.ListPublicGroupsResponse, error) {

	if _, err := s.prepare(ctx, api.MethodListPublicGroups, req); err != nil {
		return nil, err
	}

	groups, err := s.svc.Groups.ListPublicNear(ctx, req.Lat, req.Lon, req.RadiusKm)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodListPublicGroups, err)
	}

	return &api.ListPublicGroupsResponse{Groups: groups}, nil

}

func (s *GRPCServer) GroupMembers(ctx context.Context, req *api.GroupRequest) (*api.GroupMembersResponse, error) {

	id, err := s.prepare(ctx, api.MethodGroupMembers, req)
	if err != nil {
		return nil, err
	}

	members, err := s.svc.Groups.Members(ctx, id.AccountID, req.GroupID)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodGroupMembers, err)
	}

	return &api.GroupMembersResponse{Members: members}, nil

}

func (s *GRPCServer) SendMessage(ctx context.Context, req *api.SendMessageRequest) (*api.SendMessageResponse, error) {

	id, err := s.prepare(ctx, api.MethodSendMessage, req)
	if err != nil {
		return nil, err
	}

	var (
		msg  *models.Message
		kind string
	)
	if req.GroupID != "" {
		kind = "group"
		msg, err = s.svc.Messages.PostGroupMessage(ctx, id.AccountID, req.GroupID, req.Text, req.AudioKey, req.PhotoKey)
	} else {
		kind = "private"
		msg, err = s.svc.Messages.PostPrivateMessage(ctx, id.AccountID, req.Receiver, req.Text, req.AudioKey, req.PhotoKey)
	}
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodSendMessage, err)
	}

	s.metrics.MessagesTotal.WithLabelValues(kind).Inc()
	return &api.SendMessageResponse{ID: msg.ID, CreatedAt: msg.CreatedAt}, nil

}

func (s *GRPCServer) GetMessages(ctx context.Context, req *api.GetMessagesRequest) (*api.GetMessagesResponse, error) {

	id, err := s.prepare(ctx, api.MethodGetMessages, req)
	if err != nil {
		return nil, err
	}

	var msgs []*models.Message
	if req.Private {
		msgs, err = s.svc.Messages.PrivateMessagesSince(ctx, id.AccountID, req.AfterID)
	} else {
		msgs, err = s.svc.Messages.GroupMessagesSince(ctx, id.AccountID, req.GroupID, req.AfterID)
	}
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodGetMessages, err)
	}

	return &api.GetMessagesResponse{Messages: msgs}, nil

}

func (s *GRPCServer) SendSos(ctx context.Context, req *api.SendSosRequest) (*api.SendSosResponse, error) {

	id, err := s.prepare(ctx, api.MethodSendSos, req)
	if err != nil {
		return nil, err
	}

	alert, err := s.svc.Messages.PostSos(ctx, id.AccountID, req.Lat, req.Lon, req.Comment, req.PhotoKey)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodSendSos, err)
	}

	s.metrics.SosAlertsTotal.Inc()
	s.logger.Warn(ctx, "SOS alert", "sender", id.UserName, "id", alert.ID)
	return &api.SendSosResponse{ID: alert.ID, CreatedAt: alert.CreatedAt}, nil

}

func (s *GRPCServer) SendInvite(ctx context.Context, req *api.SendInviteRequest) (*api.Invite, error) {

	id, err := s.prepare(ctx, api.MethodSendInvite, req)
	if err != nil {
		return nil, err
	}

	inv, err := s.svc.Messages.SendInvite(ctx, id.AccountID, req.Username, req.GroupID)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodSendInvite, err)
	}

	inv.InviterName = id.UserName
	return inv, nil

}

func (s *GRPCServer) RejectInvite(ctx context.Context, req *api.RejectInviteRequest) (*api.Ack, error) {

	id, err := s.prepare(ctx, api.MethodRejectInvite, req)
	if err != nil {
		return nil, err
	}

	if err := s.svc.Messages.RejectInvite(ctx, id.AccountID, req.InviteID); err != nil {
		return nil, s.toStatus(ctx, api.MethodRejectInvite, err)
	}

	return &api.Ack{}, nil

}

func (s *GRPCServer) IgnoreUser(ctx context.Context, req *api.UserRequest) (*api.Ack, error) {

	id, err := s.prepare(ctx, api.MethodIgnoreUser, req)
	if err != nil {
		return nil, err
	}

	if err := s.svc.Presence.Ignore(ctx, id.AccountID, req.Username); err != nil {
		return nil, s.toStatus(ctx, api.MethodIgnoreUser, err)
	}

	return &api.Ack{}, nil

}

func (s *GRPCServer) UnignoreUser(ctx context.Context, req *api.UserRequest) (*api.Ack, error) {

	id, err := s.prepare(ctx, api.MethodUnignoreUser, req)
	if err != nil {
		return nil, err
	}

	if err := s.svc.Presence.Unignore(ctx, id.AccountID, req.Username); err != nil {
		return nil, s.toStatus(ctx, api.MethodUnignoreUser, err)
	}

	return &api.Ack{}, nil

}

func (s *GRPCServer) RequestUpload(ctx context.Context, req *api.RequestUploadRequest) (*api.UploadTicket, error) {

	id, err := s.prepare(ctx, api.MethodRequestUpload, req)
	if err != nil {
		return nil, err
	}

	ticket, err := s.svc.Attachments.PresignUpload(ctx, id.AccountID, req.Kind)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodRequestUpload, err)
	}

	return ticket, nil

}

func (s *GRPCServer) AttachmentURL(ctx context.Context, req *api.AttachmentURLRequest) (*api.AttachmentURLResponse, error) {

	if _, err := s.prepare(ctx, api.MethodAttachmentURL, req); err != nil {
		return nil, err
	}

	url, err := s.svc.Attachments.PresignDownload(ctx, req.Key)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodAttachmentURL, err)
	}

	return &api.AttachmentURLResponse{URL: url}, nil

}
