package gotrue

import "github.com/goliatone/go-errors"

const (
	TextCodeNotAuthenticated    = "gotrue_not_authenticated"
	TextCodeMissingRefreshToken = "gotrue_missing_refresh_token"
	TextCodeRefreshFailed       = "gotrue_refresh_failed"
	TextCodeRequestFailed       = "gotrue_request_failed"
	TextCodeInvalidCredential   = "gotrue_invalid_credential"
	TextCodeCredentialRequired  = "gotrue_credential_required"
	TextCodeInvalidPhone        = "gotrue_invalid_phone"
)

// ErrNotAuthenticated is returned when an authenticated operation runs with
// no current session.
var ErrNotAuthenticated = errors.New("not authenticated", errors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrMissingRefreshToken is returned when a refresh is attempted but the
// current session carries no refresh token.
var ErrMissingRefreshToken = errors.New("session has no refresh token", errors.CategoryAuth).
	WithTextCode(TextCodeMissingRefreshToken).
	WithCode(errors.CodeUnauthorized)

// ErrRefreshFailed is returned when the refresh call could not be turned into
// a new session; the current session is left untouched.
var ErrRefreshFailed = errors.New("unable to refresh session", errors.CategoryInternal).
	WithTextCode(TextCodeRefreshFailed).
	WithCode(errors.CodeInternal)

// ErrInvalidCredential is returned when a credential selector fails
// validation before any request is issued.
var ErrInvalidCredential = errors.New("invalid credential", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidCredential).
	WithCode(errors.CodeBadRequest)

// ErrCredentialRequired is returned when a zero credential selector reaches
// validation.
var ErrCredentialRequired = errors.New("an email or phone credential is required", errors.CategoryValidation).
	WithTextCode(TextCodeCredentialRequired).
	WithCode(errors.CodeBadRequest)

// ErrInvalidPhone is returned when a phone credential is not a valid E.164
// number.
var ErrInvalidPhone = errors.New("phone must be a valid E.164 number", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidPhone).
	WithCode(errors.CodeBadRequest)

func refreshFailed(err error) error {
	clone := ErrRefreshFailed.Clone()
	if clone == nil {
		return ErrRefreshFailed
	}
	if err != nil {
		clone.Source = err
	}
	return clone
}

func invalidCredential(err error) error {
	clone := ErrInvalidCredential.Clone()
	if clone == nil {
		return ErrInvalidCredential
	}
	if err != nil {
		clone.Source = err
		clone.WithMetadata(map[string]any{"error": err.Error()})
	}
	return clone
}
