package models

import "time"

// Message is either a group message (GroupID set) or a private message
// (ReceiverID set). Messages are append-only; ID order is the only order.
type Message struct {
	ID           int64     `json:"id"`
	SenderID     string    `json:"-"`
	SenderName   string    `json:"sender"`
	GroupID      string    `json:"group_id,omitempty"`
	ReceiverID   string    `json:"-"`
	ReceiverName string    `json:"receiver,omitempty"`
	Text         string    `json:"text"`
	AudioKey     string    `json:"audio_key,omitempty"`
	PhotoKey     string    `json:"photo_key,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsGroup reports whether the message belongs to a group stream.
func (m *Message) IsGroup() bool {
	return m.GroupID != ""
}

// SosAlert is an emergency broadcast.
type SosAlert struct {
	ID         int64     `json:"id"`
	SenderID   string    `json:"-"`
	SenderName string    `json:"sender"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Comment    string    `json:"comment"`
	PhotoKey   string    `json:"photo_key,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Invite asks an account to join a group. It is removed when the invitee
// joins that group or rejects it.
type Invite struct {
	ID          int64     `json:"id"`
	InviterID   string    `json:"-"`
	InviterName string    `json:"inviter"`
	InviteeID   string    `json:"-"`
	GroupID     string    `json:"group_id"`
	GroupName   string    `json:"group_name"`
	CreatedAt   time.Time `json:"created_at"`
}
