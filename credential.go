package gotrue

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

type credentialKind int

const (
	credentialNone credentialKind = iota
	credentialEmail
	credentialPhone
)

// Credential selects exactly one account identifier: an email address or a
// phone number. The two are mutually exclusive by construction; the zero
// value selects nothing and fails validation.
type Credential struct {
	kind  credentialKind
	value string
}

// Email builds a credential selecting an account by email address.
func Email(address string) Credential {
	return Credential{kind: credentialEmail, value: address}
}

// Phone builds a credential selecting an account by phone number. Numbers
// are expected in E.164 format.
func Phone(number string) Credential {
	return Credential{kind: credentialPhone, value: number}
}

func (c Credential) IsEmail() bool {
	return c.kind == credentialEmail
}

func (c Credential) IsPhone() bool {
	return c.kind == credentialPhone
}

func (c Credential) IsZero() bool {
	return c.kind == credentialNone
}

// Value returns the raw identifier.
func (c Credential) Value() string {
	return c.value
}

func (c Credential) Validate() error {
	switch c.kind {
	case credentialEmail:
		return validation.Validate(c.value, validation.Required, is.Email)
	case credentialPhone:
		return validatePhone(c.value)
	}
	return ErrCredentialRequired
}

// apply writes the selected identifier into a request body under the field
// name the service expects.
func (c Credential) apply(body map[string]any) {
	switch c.kind {
	case credentialEmail:
		body["email"] = c.value
	case credentialPhone:
		body["phone"] = c.value
	}
}

func validatePhone(number string) error {
	if err := validation.Validate(number, validation.Required); err != nil {
		return err
	}

	parsed, err := phonenumbers.Parse(number, "")
	if err != nil {
		return ErrInvalidPhone
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return ErrInvalidPhone
	}

	return nil
}
