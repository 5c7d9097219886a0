package gotrue

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is one authenticated login: a bearer credential, the refresh token
// used to mint its successor, and the user it belongs to. Sessions are
// replaced as a whole; sign-in and refresh install a brand-new value rather
// than mutating fields.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         User   `json:"user,omitempty"`
}

// markReceived anchors the relative expires_in the service returns to an
// absolute timestamp. Servers that already send expires_at win.
func (s *Session) markReceived(now time.Time) {
	if s == nil {
		return
	}
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
	}
}

// ExpiryTime returns the absolute expiry of the access token. When the
// service sent no expiry metadata we fall back to the exp claim of the token
// itself, without verifying the signature.
func (s *Session) ExpiryTime() time.Time {
	if s == nil {
		return time.Time{}
	}

	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(s.AccessToken, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}

	return claims.ExpiresAt.Time
}

// ExpiresWithin reports whether the session expires inside the given margin.
// Sessions without expiry metadata never report as expiring.
func (s *Session) ExpiresWithin(margin time.Duration) bool {
	expiry := s.ExpiryTime()
	if expiry.IsZero() {
		return false
	}
	return time.Until(expiry) <= margin
}

// Expired reports whether the access token is past its expiry.
func (s *Session) Expired() bool {
	return s.ExpiresWithin(0)
}

func (s Session) String() string {
	return fmt.Sprintf(
		"user=%s token=%s expires_at=%d",
		s.User.Email,
		tokenPreview(s.AccessToken),
		s.ExpiresAt,
	)
}

// tokenPreview keeps credentials out of logs.
func tokenPreview(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****"
}
