package gotrue

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// UserAttributes are the profile fields a signed-in user may change about
// themselves. Zero-valued fields are left untouched by the service.
type UserAttributes struct {
	Email    string         `json:"email,omitempty"`
	Phone    string         `json:"phone,omitempty"`
	Password string         `json:"password,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

func (a UserAttributes) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Email, is.Email),
		validation.Field(&a.Password, validation.Length(6, 100)),
	)
}

// AdminUserAttributes are the fields the admin endpoints accept when
// creating or updating an account on someone's behalf.
type AdminUserAttributes struct {
	Email          string         `json:"email,omitempty"`
	Phone          string         `json:"phone,omitempty"`
	Password       *string        `json:"password,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	EmailConfirmed *bool          `json:"email_confirmed,omitempty"`
	PhoneConfirmed *bool          `json:"phone_confirmed,omitempty"`
	Role           string         `json:"role,omitempty"`
}

func (a AdminUserAttributes) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Email, is.Email),
	)
}

// OTPType names the verification flow a one-time passcode belongs to.
type OTPType string

const (
	OTPTypeSignup      OTPType = "signup"
	OTPTypeSMS         OTPType = "sms"
	OTPTypeMagicLink   OTPType = "magiclink"
	OTPTypeRecovery    OTPType = "recovery"
	OTPTypeInvite      OTPType = "invite"
	OTPTypeEmailChange OTPType = "email_change"
	OTPTypePhoneChange OTPType = "phone_change"
)

// VerifyOTPParams is the payload of the verify endpoint: which flow, which
// account, which code.
type VerifyOTPParams struct {
	Type  OTPType `json:"type"`
	Email string  `json:"email,omitempty"`
	Phone string  `json:"phone,omitempty"`
	Token string  `json:"token"`
}

func (p VerifyOTPParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Type, validation.Required, validation.In(
			OTPTypeSignup,
			OTPTypeSMS,
			OTPTypeMagicLink,
			OTPTypeRecovery,
			OTPTypeInvite,
			OTPTypeEmailChange,
			OTPTypePhoneChange,
		)),
		validation.Field(&p.Token, validation.Required),
		validation.Field(&p.Email, is.Email),
	)
}
