package api

import (
	"context"

	"google.golang.org/grpc"
)

// SafeCircleClient is the client stub of the SafeCircle service. Every call
// is sent with the JSON content-subtype.
type SafeCircleClient struct {
	cc grpc.ClientConnInterface
}

func NewSafeCircleClient(cc grpc.ClientConnInterface) *SafeCircleClient {
	return &SafeCircleClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SafeCircleClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *SafeCircleClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *SafeCircleClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *SafeCircleClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*Ack, error) {
	return invoke[Ack](ctx, c.cc, MethodLogout, in, opts)
}

func (c *SafeCircleClient) Sync(ctx context.Context, in *SyncRequest, opts ...grpc.CallOption) (*SyncResponse, error) {
	return invoke[SyncResponse](ctx, c.cc, MethodSync, in, opts)
}

func (c *SafeCircleClient) UpdateLocation(ctx context.Context, in *UpdateLocationRequest, opts ...grpc.CallOption) (*Ack, error) {
	return invoke[Ack](ctx, c.cc, MethodUpdateLocation, in, opts)
}

func (c *SafeCircleClient) NearbyUsers(ctx context.Context, in *NearbyUsersRequest, opts ...grpc.CallOption) (*NearbyUsersResponse, error) {
	return invoke[NearbyUsersResponse](ctx, c.cc, MethodNearbyUsers, in, opts)
}

func (c *SafeCircleClient) CreateGroup(ctx context.Context, in *CreateGroupRequest, opts ...grpc.CallOption) (*Group, error) {
	return invoke[Group](ctx, c.cc, MethodCreateGroup, in, opts)
}

func (c *SafeCircleClient) JoinGroup(ctx context.Context, in *GroupRequest, opts ...grpc.CallOption) (*JoinGroupResponse, error) {
	return invoke[JoinGroupResponse](ctx, c.cc, MethodJoinGroup, in, opts)
}

func (c *SafeCircleClient) LeaveGroup(ctx context.Context, in *GroupRequest, opts ...grpc.CallOption) (*Ack, error) {
	return invoke[Ack](ctx, c.cc, MethodLeaveGroup, in, opts)
}

func (c *SafeCircleClient) ListPublicGroups(ctx context.Context, in *ListPublicGroupsRequest, opts ...grpc.CallOption) (*ListPublicGroupsResponse, error) {
	return invoke[ListPublicGroupsResponse](ctx, c.cc, MethodListPublicGroups, in, opts)
}

func (c *SafeCircleClient) GroupMembers(ctx context.Context, in *GroupRequest, opts ...grpc.CallOption) (*GroupMembersResponse, error) {
	return invoke[GroupMembersResponse](ctx, c.cc, MethodGroupMembers, in, opts)
}

func (c *SafeCircleClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	return invoke[SendMessageResponse](ctx, c.cc, MethodSendMessage, in, opts)
}

func (c *SafeCircleClient) GetMessages(ctx context.Context, in *GetMessagesRequest, opts ...grpc.CallOption) (*GetMessagesResponse, error) {
	return invoke[GetMessagesResponse](ctx, c.cc, MethodGetMessages, in, opts)
}

func (c *SafeCircleClient) SendSos(ctx context.Context, in *SendSosRequest, opts ...grpc.CallOption) (*SendSosResponse, error) {
	return invoke[SendSosResponse](ctx, c.cc, MethodSendSos, in, opts)
}

func (c *SafeCircleClient) SendInvite(ctx context.Context, in *SendInviteRequest, opts ...grpc.CallOption) (*Invite, error) {
	return invoke[Invite](ctx, c.cc, MethodSendInvite, in, opts)
}

func (c *SafeCircleClient) RejectInvite(ctx context.Context, in *RejectInviteRequest, opts ...grpc.CallOption) (*Ack, error) {
	return invoke[Ack](ctx, c.cc, MethodRejectInvite, in, opts)
}

func (c *SafeCircleClient) IgnoreUser(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*Ack, error) {
	return invoke[Ack](ctx, c.cc, MethodIgnoreUser, in, opts)
}

func (c *SafeCircleClient) UnignoreUser(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*Ack, error) {
	return invoke[Ack](ctx, c.cc, MethodUnignoreUser, in, opts)
}

func (c *SafeCircleClient) RequestUpload(ctx context.Context, in *RequestUploadRequest, opts ...grpc.CallOption) (*UploadTicket, error) {
	return invoke[UploadTicket](ctx, c.cc, MethodRequestUpload, in, opts)
}

func (c *SafeCircleClient) AttachmentURL(ctx context.Context, in *AttachmentURLRequest, opts ...grpc.CallOption) (*AttachmentURLResponse, error) {
	return invoke[AttachmentURLResponse](ctx, c.cc, MethodAttachmentURL, in, opts)
}
