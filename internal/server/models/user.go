// Package models defines server-side entities persisted in the database and
// the read views assembled from them.
package models

import "time"

// Account is a registered user. SessionID and DeviceID describe the single
// live session and are empty when nobody is logged in.
type Account struct {
	ID           string
	UserName     string
	PasswordHash []byte
	Lat          float64
	Lon          float64
	LastSeen     *time.Time
	SessionID    string
	DeviceID     string
	CreatedAt    time.Time
}

// Identity is the authenticated caller of a request.
type Identity struct {
	AccountID string
	UserName  string
	SessionID string
	DeviceID  string
}

// PeerView is what a requester sees about a nearby account.
type PeerView struct {
	UserName   string    `json:"username"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	LastSeen   time.Time `json:"last_seen"`
	DistanceKm float64   `json:"distance_km"`
}
