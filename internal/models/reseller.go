package models

import "time"

// Reseller is an operator account. The Netplay credentials are the ones
// used to act on the reseller's behalf against the vendor API.
type Reseller struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	NetplayUsername string `json:"netplay_username"`
	NetplayPassword string `json:"-"`
}

// ClientLink is a generated access link for one of a reseller's end
// customers, identified by an opaque URL-safe token.
type ClientLink struct {
	ClientUsername string     `json:"client_username"`
	LinkToken      string     `json:"link_token"`
	CreatedAt      time.Time  `json:"created_at"`
	LastAccessed   *time.Time `json:"last_accessed,omitempty"`
}

// ClientAccess is the joined view resolved from a link token: the client
// credentials plus the owning reseller's vendor credentials.
type ClientAccess struct {
	ClientUsername   string `json:"client_username"`
	ClientPassword   string `json:"client_password"`
	ResellerUsername string `json:"reseller_username"`
	NetplayUsername  string `json:"-"`
	NetplayPassword  string `json:"-"`
}

// ActivityEntry records one batch migration run for auditing.
type ActivityEntry struct {
	ID         int64     `json:"id"`
	ResellerID int64     `json:"reseller_id"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	CreatedAt  time.Time `json:"created_at"`
}
