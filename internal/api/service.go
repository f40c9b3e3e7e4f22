package api

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "safecircle.v1.SafeCircle"

// Method names of the SafeCircle service.
const (
	MethodPing             = "Ping"
	MethodRegister         = "Register"
	MethodLogin            = "Login"
	MethodLogout           = "Logout"
	MethodSync             = "Sync"
	MethodUpdateLocation   = "UpdateLocation"
	MethodNearbyUsers      = "NearbyUsers"
	MethodCreateGroup      = "CreateGroup"
	MethodJoinGroup        = "JoinGroup"
	MethodLeaveGroup       = "LeaveGroup"
	MethodListPublicGroups = "ListPublicGroups"
	MethodGroupMembers     = "GroupMembers"
	MethodSendMessage      = "SendMessage"
	MethodGetMessages      = "GetMessages"
	MethodSendSos          = "SendSos"
	MethodSendInvite       = "SendInvite"
	MethodRejectInvite     = "RejectInvite"
	MethodIgnoreUser       = "IgnoreUser"
	MethodUnignoreUser     = "UnignoreUser"
	MethodRequestUpload    = "RequestUpload"
	MethodAttachmentURL    = "AttachmentURL"
)

// FullMethod returns the "/service/method" path gRPC uses for method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// SafeCircleServer is implemented by the gRPC server.
type SafeCircleServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Logout(context.Context, *LogoutRequest) (*Ack, error)
	Sync(context.Context, *SyncRequest) (*SyncResponse, error)
	UpdateLocation(context.Context, *UpdateLocationRequest) (*Ack, error)
	NearbyUsers(context.Context, *NearbyUsersRequest) (*NearbyUsersResponse, error)
	CreateGroup(context.Context, *CreateGroupRequest) (*Group, error)
	JoinGroup(context.Context, *GroupRequest) (*JoinGroupResponse, error)
	LeaveGroup(context.Context, *GroupRequest) (*Ack, error)
	ListPublicGroups(context.Context, *ListPublicGroupsRequest) (*ListPublicGroupsResponse, error)
	GroupMembers(context.Context, *GroupRequest) (*GroupMembersResponse, error)
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	GetMessages(context.Context, *GetMessagesRequest) (*GetMessagesResponse, error)
	SendSos(context.Context, *SendSosRequest) (*SendSosResponse, error)
	SendInvite(context.Context, *SendInviteRequest) (*Invite, error)
	RejectInvite(context.Context, *RejectInviteRequest) (*Ack, error)
	IgnoreUser(context.Context, *UserRequest) (*Ack, error)
	UnignoreUser(context.Context, *UserRequest) (*Ack, error)
	RequestUpload(context.Context, *RequestUploadRequest) (*UploadTicket, error)
	AttachmentURL(context.Context, *AttachmentURLRequest) (*AttachmentURLResponse, error)
}

// ServiceDesc describes the SafeCircle service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SafeCircleServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPing, SafeCircleServer.Ping),
		unary(MethodRegister, SafeCircleServer.Register),
		unary(MethodLogin, SafeCircleServer.Login),
		unary(MethodLogout, SafeCircleServer.Logout),
		unary(MethodSync, SafeCircleServer.Sync),
		unary(MethodUpdateLocation, SafeCircleServer.UpdateLocation),
		unary(MethodNearbyUsers, SafeCircleServer.NearbyUsers),
		unary(MethodCreateGroup, SafeCircleServer.CreateGroup),
		unary(MethodJoinGroup, SafeCircleServer.JoinGroup),
		unary(MethodLeaveGroup, SafeCircleServer.LeaveGroup),
		unary(MethodListPublicGroups, SafeCircleServer.ListPublicGroups),
		unary(MethodGroupMembers, SafeCircleServer.GroupMembers),
		unary(MethodSendMessage, SafeCircleServer.SendMessage),
		unary(MethodGetMessages, SafeCircleServer.GetMessages),
		unary(MethodSendSos, SafeCircleServer.SendSos),
		unary(MethodSendInvite, SafeCircleServer.SendInvite),
		unary(MethodRejectInvite, SafeCircleServer.RejectInvite),
		unary(MethodIgnoreUser, SafeCircleServer.IgnoreUser),
		unary(MethodUnignoreUser, SafeCircleServer.UnignoreUser),
		unary(MethodRequestUpload, SafeCircleServer.RequestUpload),
		unary(MethodAttachmentURL, SafeCircleServer.AttachmentURL),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "safecircle/v1",
}

// RegisterSafeCircleServer attaches srv to s.
func RegisterSafeCircleServer(s grpc.ServiceRegistrar, srv SafeCircleServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary builds the method descriptor for one request/response call, the
// same shape protoc-gen-go-grpc generates.
func unary[Req, Resp any](method string, call func(SafeCircleServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SafeCircleServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SafeCircleServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
