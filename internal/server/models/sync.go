package models

import "time"

// SyncRequest carries the client's position and the cursors of what it has
// already seen.
type SyncRequest struct {
	Lat                  float64
	Lon                  float64
	GroupID              string
	LastGroupMessageID   int64
	LastPrivateMessageID int64
	LastSosTime          time.Time
}

// SyncCursors are the values the client should send on its next sync.
type SyncCursors struct {
	LastGroupMessageID   int64     `json:"last_group_message_id"`
	LastPrivateMessageID int64     `json:"last_private_message_id"`
	LastSosTime          time.Time `json:"last_sos_time"`
}

// SyncResult is everything new for the caller in one round trip.
type SyncResult struct {
	Peers           []*PeerView
	GroupMessages   []*Message
	GroupMembers    []*Member
	PrivateMessages []*Message
	SosAlerts       []*SosAlert
	Invites         []*Invite
	Group           GroupStatus
	Cursors         SyncCursors
}
