package gotrue

import (
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// VerifierConfig configures local access-token verification. JWKSetURL is
// the service's published JWK Set, typically {base_url}/.well-known/jwks.json.
type VerifierConfig struct {
	JWKSetURL string
	Issuer    string
	Audience  string

	RefreshInterval time.Duration
	Logger          Logger
}

// TokenVerifier validates access tokens against the service's JWK Set
// without a round trip per token. The key set is refreshed in the
// background until Close is called.
type TokenVerifier struct {
	jwks   *keyfunc.JWKS
	parser *jwt.Parser
}

// NewTokenVerifier fetches the JWK Set and returns a verifier.
func NewTokenVerifier(cfg VerifierConfig) (*TokenVerifier, error) {
	if cfg.JWKSetURL == "" {
		return nil, fmt.Errorf("token verifier: jwk set url is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = defLogger{}
	}

	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = time.Hour
	}

	jwks, err := keyfunc.Get(cfg.JWKSetURL, keyfunc.Options{
		RefreshInterval:   interval,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Warn("jwk set refresh error: %v", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("token verifier: failed to fetch jwk set: %w", err)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &TokenVerifier{
		jwks:   jwks,
		parser: jwt.NewParser(opts...),
	}, nil
}

// Verify parses and validates an access token, returning its claims.
func (v *TokenVerifier) Verify(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := v.parser.ParseWithClaims(raw, claims, v.jwks.Keyfunc)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// VerifySession validates the access token of a session.
func (v *TokenVerifier) VerifySession(session *Session) error {
	if session == nil {
		return ErrNotAuthenticated
	}
	_, err := v.Verify(session.AccessToken)
	return err
}

// Close stops the background JWK Set refresh.
func (v *TokenVerifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
