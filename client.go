package gotrue

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Client owns at most one authenticated session and decides which outgoing
// calls carry a bearer credential. Every operation delegates to the
// transport; on success the state-changing ones replace the session as an
// atomic unit, and any transport failure leaves it untouched.
//
// The session slot is guarded by a mutex so the optional auto-refresh task
// can rotate tokens safely. Beyond that the client makes no ordering
// guarantees for concurrent state-changing calls; the intended shape is one
// Client per logical user.
type Client struct {
	api    APIClient
	logger Logger
	store  SessionStore

	mu      sync.Mutex
	session *Session

	refresher *refresher
}

// NewClient returns a session manager in the anonymous state.
func NewClient(api APIClient) *Client {
	return &Client{
		api:    api,
		logger: defLogger{},
	}
}

func (c *Client) WithLogger(logger Logger) *Client {
	c.logger = logger
	return c
}

// WithSessionStore persists the current session through the given store.
// Writes are best-effort: a failing store is logged, never fatal.
func (c *Client) WithSessionStore(store SessionStore) *Client {
	c.store = store
	return c
}

// WithAutoRefresh starts a background task that rotates the session the
// given margin before the access token expires. Stop it with Close.
func (c *Client) WithAutoRefresh(margin time.Duration) *Client {
	if c.refresher == nil {
		c.refresher = newRefresher(c, margin)
		c.refresher.start()
	}
	return c
}

// Close tears down the auto-refresh task, if one was started.
func (c *Client) Close() {
	if c.refresher != nil {
		c.refresher.stop()
	}
}

// CurrentSession returns the session installed by the last successful
// sign-up, sign-in, refresh, or restore; nil when anonymous.
func (c *Client) CurrentSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Authenticated reports whether a current session exists.
func (c *Client) Authenticated() bool {
	return c.CurrentSession() != nil
}

// SignUp registers a new account and installs the returned session.
func (c *Client) SignUp(ctx context.Context, credential Credential, password string) (*Session, error) {
	if err := credential.Validate(); err != nil {
		return nil, invalidCredential(err)
	}

	session, err := c.api.SignUp(ctx, credential, password)
	if err != nil {
		return nil, err
	}

	c.installSession(ctx, session)
	return session, nil
}

// SignIn authenticates against the password grant and installs the returned
// session.
func (c *Client) SignIn(ctx context.Context, credential Credential, password string) (*Session, error) {
	if err := credential.Validate(); err != nil {
		return nil, invalidCredential(err)
	}

	session, err := c.api.SignIn(ctx, credential, password)
	if err != nil {
		return nil, err
	}

	c.installSession(ctx, session)
	return session, nil
}

// SendOTP is a stateless passthrough; it does not touch the current session.
func (c *Client) SendOTP(ctx context.Context, credential Credential, shouldCreateUser bool) error {
	if err := credential.Validate(); err != nil {
		return invalidCredential(err)
	}
	return c.api.SendOTP(ctx, credential, shouldCreateUser)
}

// VerifyOTP is a stateless passthrough; it does not touch the current
// session.
func (c *Client) VerifyOTP(ctx context.Context, params VerifyOTPParams) error {
	if err := params.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid otp params")
	}
	return c.api.VerifyOTP(ctx, params)
}

// SignOut revokes the current access token and clears the session. With no
// current session it is an idempotent no-op and the transport is never
// called.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return nil
	}

	if err := c.api.SignOut(ctx, session.AccessToken); err != nil {
		return err
	}

	c.clearSession(ctx, session)
	return nil
}

// ResetPasswordForEmail is a stateless passthrough.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) error {
	return c.api.ResetPasswordForEmail(ctx, email)
}

// UpdateUser changes profile attributes of the signed-in user. The session
// is kept as is; this call does not rotate tokens.
func (c *Client) UpdateUser(ctx context.Context, attributes UserAttributes) (*User, error) {
	token, err := c.accessToken()
	if err != nil {
		return nil, err
	}
	return c.api.UpdateUser(ctx, attributes, token)
}

// CurrentUser fetches the user record behind the current access token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	token, err := c.accessToken()
	if err != nil {
		return nil, err
	}
	return c.api.GetUser(ctx, token)
}

// RefreshSession mints a new session from the current refresh token and
// installs it atomically. On failure the current session stays in place. A
// refresh that completes after the session was signed out or replaced is
// discarded and reported as ErrNotAuthenticated.
func (c *Client) RefreshSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return nil, ErrNotAuthenticated
	}
	if session.RefreshToken == "" {
		return nil, ErrMissingRefreshToken
	}

	next, err := c.api.RefreshAccessToken(ctx, session.RefreshToken)
	if err != nil {
		return nil, refreshFailed(err)
	}

	if !c.swapSession(ctx, session, next) {
		return nil, ErrNotAuthenticated
	}
	return next, nil
}

// RestoreSession loads a previously persisted session from the configured
// store and installs it. ErrNotAuthenticated is returned when the store is
// empty.
func (c *Client) RestoreSession(ctx context.Context) (*Session, error) {
	if c.store == nil {
		return nil, goerrors.New("no session store configured", goerrors.CategoryOperation)
	}

	session, err := c.store.Load(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load persisted session")
	}
	if session == nil {
		return nil, ErrNotAuthenticated
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	if c.refresher != nil {
		c.refresher.notify()
	}

	return session, nil
}

// ProviderAuthorizeURL builds the external provider authorize URL.
func (c *Client) ProviderAuthorizeURL(provider string) string {
	return c.api.ProviderAuthorizeURL(provider)
}

// InviteUserByEmail sends an invitation through the admin surface.
func (c *Client) InviteUserByEmail(ctx context.Context, email string) (*User, error) {
	return c.api.InviteUserByEmail(ctx, email)
}

// ListUsers lists accounts through the admin surface.
func (c *Client) ListUsers(ctx context.Context, query string) (*UserList, error) {
	return c.api.ListUsers(ctx, query)
}

// GetUserByID fetches an account through the admin surface.
func (c *Client) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return c.api.GetUserByID(ctx, id)
}

// CreateUser creates an account through the admin surface.
func (c *Client) CreateUser(ctx context.Context, attributes AdminUserAttributes) (*User, error) {
	return c.api.CreateUser(ctx, attributes)
}

// UpdateUserByID updates an account through the admin surface.
func (c *Client) UpdateUserByID(ctx context.Context, id uuid.UUID, attributes AdminUserAttributes) (*User, error) {
	return c.api.UpdateUserByID(ctx, id, attributes)
}

// DeleteUser removes an account through the admin surface.
func (c *Client) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return c.api.DeleteUser(ctx, id)
}

func (c *Client) accessToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return "", ErrNotAuthenticated
	}
	return c.session.AccessToken, nil
}

// installSession replaces the slot unconditionally; a fresh authentication
// supersedes whatever was there.
func (c *Client) installSession(ctx context.Context, session *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = session
	c.persistLocked(ctx, session)

	if c.refresher != nil {
		c.refresher.notify()
	}
}

// swapSession installs next only while the slot still holds prev. A refresh
// that lands after a sign-out or a new sign-in is discarded instead of
// resurrecting the old authentication.
func (c *Client) swapSession(ctx context.Context, prev, next *Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != prev {
		return false
	}

	c.session = next
	c.persistLocked(ctx, next)

	if c.refresher != nil {
		c.refresher.notify()
	}
	return true
}

// clearSession empties the slot only while it still holds prev, so a session
// installed mid-flight survives the revocation of its predecessor.
func (c *Client) clearSession(ctx context.Context, prev *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != prev {
		return
	}

	c.session = nil
	c.persistLocked(ctx, nil)

	if c.refresher != nil {
		c.refresher.notify()
	}
}

// persistLocked mirrors the slot into the configured store. Callers hold the
// mutex, which keeps store writes in slot order. Failures are logged, never
// fatal.
func (c *Client) persistLocked(ctx context.Context, session *Session) {
	if c.store == nil {
		return
	}

	if session == nil {
		if err := c.store.Delete(ctx); err != nil {
			c.logger.Warn("session store delete error: %v", err)
		}
		return
	}

	if err := c.store.Save(ctx, session); err != nil {
		c.logger.Warn("session store save error: %v", err)
	}
}
