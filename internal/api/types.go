package api

import (
	"time"

	"github.com/dmitrijs2005/safecircle/internal/server/models"
)

// Read views are shared with the server models, which already carry their
// wire names.
type (
	Peer         = models.PeerView
	Message      = models.Message
	Member       = models.Member
	SosAlert     = models.SosAlert
	Invite       = models.Invite
	GroupSummary = models.GroupSummary
	GroupStatus  = models.GroupStatus
	Cursors      = models.SyncCursors
	UploadTicket = models.UploadTicket
)

// Ack is the empty success response.
type Ack struct{}

type Point struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

type RegisterResponse struct {
	ID string `json:"id"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=32"`
	Password string `json:"password" validate:"required,maxbytes=72"`
	DeviceID string `json:"device_id" validate:"required,max=128"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

type LogoutRequest struct{}

type SyncRequest struct {
	Lat                  float64   `json:"lat" validate:"latitude"`
	Lon                  float64   `json:"lon" validate:"longitude"`
	GroupID              string    `json:"group_id,omitempty" validate:"max=64"`
	LastGroupMessageID   int64     `json:"last_group_message_id" validate:"gte=0"`
	LastPrivateMessageID int64     `json:"last_private_message_id" validate:"gte=0"`
	LastSosTime          time.Time `json:"last_sos_time"`
}

type SyncResponse struct {
	Peers           []*Peer     `json:"peers"`
	GroupMessages   []*Message  `json:"group_messages"`
	GroupMembers    []*Member   `json:"group_members"`
	PrivateMessages []*Message  `json:"private_messages"`
	SosAlerts       []*SosAlert `json:"sos_alerts"`
	Invites         []*Invite   `json:"invites"`
	Group           GroupStatus `json:"group"`
	Cursors         Cursors     `json:"cursors"`
}

type UpdateLocationRequest struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

// NearbyUsersRequest asks for visible peers; a zero radius means the
// server default.
type NearbyUsersRequest struct {
	RadiusKm float64 `json:"radius_km" validate:"gte=0,lte=100"`
}

type NearbyUsersResponse struct {
	Peers []*Peer `json:"peers"`
}

type CreateGroupRequest struct {
	Name     string `json:"name" validate:"required,max=64"`
	Anchor   *Point `json:"anchor,omitempty"`
	IsPublic bool   `json:"is_public"`
}

type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Lat       *float64  `json:"lat,omitempty"`
	Lon       *float64  `json:"lon,omitempty"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupRequest names a group for JoinGroup, LeaveGroup and GroupMembers.
type GroupRequest struct {
	GroupID string `json:"group_id" validate:"required,max=64"`
}

type JoinGroupResponse struct {
	GroupID      string `json:"group_id"`
	JoinedCursor int64  `json:"joined_cursor"`
}

type ListPublicGroupsRequest struct {
	Lat      float64 `json:"lat" validate:"latitude"`
	Lon      float64 `json:"lon" validate:"longitude"`
	RadiusKm float64 `json:"radius_km" validate:"gte=0,lte=100"`
}

type ListPublicGroupsResponse struct {
	Groups []*GroupSummary `json:"groups"`
}

type GroupMembersResponse struct {
	Members []*Member `json:"members"`
}

// SendMessageRequest targets exactly one of a group or a receiver.
type SendMessageRequest struct {
	GroupID  string `json:"group_id,omitempty" validate:"required_without=Receiver,excluded_with=Receiver,max=64"`
	Receiver string `json:"receiver,omitempty" validate:"max=32"`
	Text     string `json:"text" validate:"maxbytes=4096"`
	AudioKey string `json:"audio_key,omitempty" validate:"max=512"`
	PhotoKey string `json:"photo_key,omitempty" validate:"max=512"`
}

type SendMessageResponse struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// GetMessagesRequest reads the group stream of GroupID, or the caller's
// private messages when Private is set.
type GetMessagesRequest struct {
	GroupID string `json:"group_id,omitempty" validate:"required_unless=Private true,max=64"`
	Private bool   `json:"private,omitempty"`
	AfterID int64  `json:"after_id" validate:"gte=0"`
}

type GetMessagesResponse struct {
	Messages []*Message `json:"messages"`
}

type SendSosRequest struct {
	Lat      float64 `json:"lat" validate:"latitude"`
	Lon      float64 `json:"lon" validate:"longitude"`
	Comment  string  `json:"comment" validate:"maxbytes=1024"`
	PhotoKey string  `json:"photo_key,omitempty" validate:"max=512"`
}

type SendSosResponse struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type SendInviteRequest struct {
	Username string `json:"username" validate:"required,max=32"`
	GroupID  string `json:"group_id" validate:"required,max=64"`
}

type RejectInviteRequest struct {
	InviteID int64 `json:"invite_id" validate:"gt=0"`
}

// UserRequest names another account for IgnoreUser and UnignoreUser.
type UserRequest struct {
	Username string `json:"username" validate:"required,max=32"`
}

type RequestUploadRequest struct {
	Kind string `json:"kind" validate:"required,oneof=photo audio"`
}

type AttachmentURLRequest struct {
	Key string `json:"key" validate:"required,max=512"`
}

type AttachmentURLResponse struct {
	URL string `json:"url"`
}
