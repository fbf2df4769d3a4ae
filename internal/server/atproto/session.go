package atproto

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/taurisky/taurisky/internal/common"
	"github.com/taurisky/taurisky/internal/models"
)

// Session is the body of createSession and refreshSession responses.
type Session struct {
	AccessJwt   string `json:"accessJwt"`
	RefreshJwt  string `json:"refreshJwt"`
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// Token builds the stored token for accountID. Deadlines come from the JWT
// exp claims when the PDS sets them, otherwise from the usual lifetimes
// (90 minutes access, 60 days refresh).
func (s *Session) Token(accountID string, now time.Time) models.AuthToken {
	return models.AuthToken{
		AccountID:        accountID,
		AccessJwt:        s.AccessJwt,
		RefreshJwt:       s.RefreshJwt,
		IssuedAt:         now,
		AccessExpiresAt:  expiry(s.AccessJwt, now, common.AccessTokenLifetime),
		RefreshExpiresAt: expiry(s.RefreshJwt, now, common.RefreshTokenLifetime),
	}
}

// expiry reads exp without verifying the signature: the PDS owns the key and
// the value only drives client-side scheduling.
func expiry(token string, issued time.Time, fallback time.Duration) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil {
		if claims.ExpiresAt != nil && claims.ExpiresAt.Time.After(issued) {
			return claims.ExpiresAt.Time.UTC()
		}
	}
	return issued.Add(fallback)
}
