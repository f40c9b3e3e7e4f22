package models

import "time"

// Group is a chat group. Lat/Lon are set only for anchored groups.
type Group struct {
	ID        string
	Name      string
	Lat       *float64
	Lon       *float64
	IsPublic  bool
	OwnerID   string
	CreatedAt time.Time
}

// HasAnchor reports whether the group is pinned to a location.
func (g *Group) HasAnchor() bool {
	return g.Lat != nil && g.Lon != nil
}

// GroupSummary is a public group listed by proximity.
type GroupSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	MemberCount int       `json:"member_count"`
	DistanceKm  float64   `json:"distance_km"`
	CreatedAt   time.Time `json:"created_at"`
}

// Membership binds an account to its single group. JoinedCursor is the
// highest group message id that existed at join time; the member never
// sees messages at or below it.
type Membership struct {
	AccountID    string
	GroupID      string
	JoinedCursor int64
	JoinedAt     time.Time
}

// Member is a group member as shown to other members.
type Member struct {
	UserName string     `json:"username"`
	Lat      float64    `json:"lat"`
	Lon      float64    `json:"lon"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
	JoinedAt time.Time  `json:"joined_at"`
}

// GroupStatus describes the caller's current group, if any.
type GroupStatus struct {
	GroupID      string `json:"group_id,omitempty"`
	Name         string `json:"name,omitempty"`
	IsPublic     bool   `json:"is_public,omitempty"`
	JoinedCursor int64  `json:"joined_cursor,omitempty"`
}

// InGroup reports whether the status refers to a group.
func (s GroupStatus) InGroup() bool {
	return s.GroupID != ""
}
