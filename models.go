package gotrue

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity record the service returns from sign-up, sign-in,
// the current-user endpoints, and the admin endpoints. The shape is the same
// across all of them.
type User struct {
	ID                 uuid.UUID      `json:"id,omitempty"`
	Aud                string         `json:"aud,omitempty"`
	Role               string         `json:"role,omitempty"`
	Email              string         `json:"email,omitempty"`
	Phone              string         `json:"phone,omitempty"`
	ConfirmedAt        *time.Time     `json:"confirmed_at,omitempty"`
	EmailConfirmedAt   *time.Time     `json:"email_confirmed_at,omitempty"`
	PhoneConfirmedAt   *time.Time     `json:"phone_confirmed_at,omitempty"`
	ConfirmationSentAt *time.Time     `json:"confirmation_sent_at,omitempty"`
	RecoverySentAt     *time.Time     `json:"recovery_sent_at,omitempty"`
	InvitedAt          *time.Time     `json:"invited_at,omitempty"`
	LastSignInAt       *time.Time     `json:"last_sign_in_at,omitempty"`
	AppMetadata        map[string]any `json:"app_metadata,omitempty"`
	UserMetadata       map[string]any `json:"user_metadata,omitempty"`
	CreatedAt          *time.Time     `json:"created_at,omitempty"`
	UpdatedAt          *time.Time     `json:"updated_at,omitempty"`
}

// Confirmed reports whether at least one of the user's identifiers has been
// verified.
func (u *User) Confirmed() bool {
	if u == nil {
		return false
	}
	return u.ConfirmedAt != nil || u.EmailConfirmedAt != nil || u.PhoneConfirmedAt != nil
}

// AddUserMetadata appends a value to the free-form metadata attributes.
func (u *User) AddUserMetadata(key string, val any) *User {
	if u.UserMetadata == nil {
		u.UserMetadata = make(map[string]any)
	}
	u.UserMetadata[key] = val
	return u
}

// UserList is the payload of the admin list endpoint.
type UserList struct {
	Aud   string `json:"aud,omitempty"`
	Users []User `json:"users"`
}
