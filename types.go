package gotrue

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// APIClient is the transport contract: one call per remote endpoint. The
// transport is stateless and never reads session state; calls that need a
// bearer credential take the token from the caller.
type APIClient interface {
	SignUp(ctx context.Context, credential Credential, password string) (*Session, error)
	SignIn(ctx context.Context, credential Credential, password string) (*Session, error)
	SendOTP(ctx context.Context, credential Credential, shouldCreateUser bool) error
	VerifyOTP(ctx context.Context, params VerifyOTPParams) error
	SignOut(ctx context.Context, accessToken string) error
	ResetPasswordForEmail(ctx context.Context, email string) error
	ProviderAuthorizeURL(provider string) string
	RefreshAccessToken(ctx context.Context, refreshToken string) (*Session, error)
	GetUser(ctx context.Context, accessToken string) (*User, error)
	UpdateUser(ctx context.Context, attributes UserAttributes, accessToken string) (*User, error)
	InviteUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, query string) (*UserList, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	CreateUser(ctx context.Context, attributes AdminUserAttributes) (*User, error)
	UpdateUserByID(ctx context.Context, id uuid.UUID, attributes AdminUserAttributes) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// SessionStore persists the client's current session so it can survive a
// process restart. Implementations hold at most one session.
type SessionStore interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] GOTRUE "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] GOTRUE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] GOTRUE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] GOTRUE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
