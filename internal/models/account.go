// Package models holds the records exchanged over the command bridge. Field
// names serialise in camelCase, matching what the desktop shell expects.
package models

import "time"

// Account is one registered Bluesky identity.
type Account struct {
	ID          string    `json:"id"`
	DID         string    `json:"did"`
	Handle      string    `json:"handle"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	Avatar      string    `json:"avatar,omitempty"`
	ServerURL   string    `json:"serverUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	LastUsedAt  time.Time `json:"lastUsedAt"`
	IsActive    bool      `json:"isActive"`
}

// AuthToken is an AT Protocol session for one account.
type AuthToken struct {
	AccountID        string    `json:"accountId"`
	AccessJwt        string    `json:"accessJwt"`
	RefreshJwt       string    `json:"refreshJwt"`
	IssuedAt         time.Time `json:"issuedAt"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
	SessionString    string    `json:"sessionString,omitempty"`
}

// Redacted returns a copy without credential material; only the deadlines
// leave the backend through session_status.
func (t AuthToken) Redacted() AuthToken {
	t.AccessJwt = ""
	t.RefreshJwt = ""
	t.SessionString = ""
	return t
}

// AccessExpired reports whether the access token is past its deadline at now.
func (t AuthToken) AccessExpired(now time.Time) bool {
	return !now.Before(t.AccessExpiresAt)
}
