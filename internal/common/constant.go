// Package common contains shared constants, sentinel errors and small helpers
// used by both the backend daemon and the deck client.
package common

import "time"

// DefaultServerURL is the PDS used when an account does not name its own.
const DefaultServerURL = "https://bsky.social"

// Fallback token lifetimes when the access JWT carries no exp claim.
const (
	AccessTokenLifetime  = 90 * time.Minute
	RefreshTokenLifetime = 60 * 24 * time.Hour
)

// RefreshBuffer is how long before access-token expiry the client refreshes.
const RefreshBuffer = 5 * time.Minute
