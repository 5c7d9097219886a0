package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds the transport options. BaseURL is the root of the remote
// auth service; Headers are attached to every outgoing request, which is
// where API gateway keys and admin service-role keys belong.
type Config struct {
	BaseURL string
	Headers map[string]string

	HTTPClient *http.Client
	Logger     Logger
}

// API is the stateless binding from logical operations to HTTP requests.
// It never reads session state; authenticated calls take the bearer token
// from the caller. A single API value is safe for concurrent use.
type API struct {
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
	logger     Logger
}

var _ APIClient = (*API)(nil)

// NewAPI creates a transport against the given service.
func NewAPI(cfg Config) *API {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = defLogger{}
	}

	headers := make(map[string]string, len(cfg.Headers))
	for name, value := range cfg.Headers {
		headers[name] = value
	}

	return &API{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		headers:    headers,
		httpClient: client,
		logger:     logger,
	}
}

// WithHeader attaches a static header sent with every request.
func (a *API) WithHeader(name, value string) *API {
	a.headers[name] = value
	return a
}

// BaseURL returns the configured service root.
func (a *API) BaseURL() string {
	return a.baseURL
}

// SignUp registers a new account and returns the session the service opened
// for it.
func (a *API) SignUp(ctx context.Context, credential Credential, password string) (*Session, error) {
	body := map[string]any{"password": password}
	credential.apply(body)

	session := &Session{}
	if err := a.do(ctx, "sign_up", http.MethodPost, a.baseURL+"/signup", body, "", session); err != nil {
		return nil, err
	}

	session.markReceived(time.Now())
	return session, nil
}

// SignIn exchanges a credential and password for a session via the password
// grant.
func (a *API) SignIn(ctx context.Context, credential Credential, password string) (*Session, error) {
	body := map[string]any{"password": password}
	credential.apply(body)

	session := &Session{}
	if err := a.do(ctx, "sign_in", http.MethodPost, a.baseURL+"/token?grant_type=password", body, "", session); err != nil {
		return nil, err
	}

	session.markReceived(time.Now())
	return session, nil
}

// SendOTP asks the service to send a one-time passcode to the given email or
// phone. When shouldCreateUser is set the service registers unknown accounts
// on the fly.
func (a *API) SendOTP(ctx context.Context, credential Credential, shouldCreateUser bool) error {
	body := map[string]any{"should_create_user": shouldCreateUser}
	credential.apply(body)

	return a.do(ctx, "send_otp", http.MethodPost, a.baseURL+"/otp", body, "", nil)
}

// VerifyOTP submits a one-time passcode for verification.
func (a *API) VerifyOTP(ctx context.Context, params VerifyOTPParams) error {
	return a.do(ctx, "verify_otp", http.MethodPost, a.baseURL+"/verify", params, "", nil)
}

// SignOut revokes the given access token.
func (a *API) SignOut(ctx context.Context, accessToken string) error {
	return a.do(ctx, "sign_out", http.MethodPost, a.baseURL+"/logout", nil, accessToken, nil)
}

// ResetPasswordForEmail triggers a password recovery email.
func (a *API) ResetPasswordForEmail(ctx context.Context, email string) error {
	body := map[string]any{"email": email}
	return a.do(ctx, "reset_password", http.MethodPost, a.baseURL+"/recover", body, "", nil)
}

// ProviderAuthorizeURL builds the URL that starts an external provider flow.
// No request is issued; the caller redirects the user there.
func (a *API) ProviderAuthorizeURL(provider string) string {
	return fmt.Sprintf("%s/authorize?provider=%s", a.baseURL, url.QueryEscape(provider))
}

// RefreshAccessToken mints a new session from a refresh token. The refresh
// token travels in the body, not in an auth header.
func (a *API) RefreshAccessToken(ctx context.Context, refreshToken string) (*Session, error) {
	body := map[string]any{"refresh_token": refreshToken}

	session := &Session{}
	if err := a.do(ctx, "refresh_token", http.MethodPost, a.baseURL+"/token?grant_type=refresh_token", body, "", session); err != nil {
		return nil, err
	}

	session.markReceived(time.Now())
	return session, nil
}

// GetUser fetches the user the given access token belongs to.
func (a *API) GetUser(ctx context.Context, accessToken string) (*User, error) {
	user := &User{}
	if err := a.do(ctx, "get_user", http.MethodGet, a.baseURL+"/user", nil, accessToken, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser changes profile attributes of the user the access token belongs
// to. Tokens are not rotated by this call.
func (a *API) UpdateUser(ctx context.Context, attributes UserAttributes, accessToken string) (*User, error) {
	if err := attributes.Validate(); err != nil {
		return nil, apiError("update_user", 0, "invalid_attributes", err.Error(), err, nil)
	}

	user := &User{}
	if err := a.do(ctx, "update_user", http.MethodPut, a.baseURL+"/user", attributes, accessToken, user); err != nil {
		return nil, err
	}
	return user, nil
}

// InviteUserByEmail sends an invitation and returns the pre-created user.
func (a *API) InviteUserByEmail(ctx context.Context, email string) (*User, error) {
	body := map[string]any{"email": email}

	user := &User{}
	if err := a.do(ctx, "invite_user", http.MethodPost, a.baseURL+"/invite", body, "", user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns users from the admin endpoint. The query is appended
// verbatim when present, e.g. "?page=2"; an empty query lists everything.
// Admin calls authenticate through the static headers, typically a
// service-role key.
func (a *API) ListUsers(ctx context.Context, query string) (*UserList, error) {
	endpoint := a.baseURL + "/admin/users"
	if query != "" {
		endpoint += query
	}

	list := &UserList{}
	if err := a.do(ctx, "list_users", http.MethodGet, endpoint, nil, "", list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetUserByID fetches a single user through the admin endpoint.
func (a *API) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user := &User{}
	if err := a.do(ctx, "get_user_by_id", http.MethodGet, a.adminUserURL(id), nil, "", user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser creates an account through the admin endpoint.
func (a *API) CreateUser(ctx context.Context, attributes AdminUserAttributes) (*User, error) {
	if err := attributes.Validate(); err != nil {
		return nil, apiError("create_user", 0, "invalid_attributes", err.Error(), err, nil)
	}

	user := &User{}
	if err := a.do(ctx, "create_user", http.MethodPost, a.baseURL+"/admin/users", attributes, "", user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUserByID updates an account through the admin endpoint.
func (a *API) UpdateUserByID(ctx context.Context, id uuid.UUID, attributes AdminUserAttributes) (*User, error) {
	if err := attributes.Validate(); err != nil {
		return nil, apiError("update_user_by_id", 0, "invalid_attributes", err.Error(), err, nil)
	}

	user := &User{}
	if err := a.do(ctx, "update_user_by_id", http.MethodPut, a.adminUserURL(id), attributes, "", user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes an account through the admin endpoint.
func (a *API) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return a.do(ctx, "delete_user", http.MethodDelete, a.adminUserURL(id), nil, "", nil)
}

func (a *API) adminUserURL(id uuid.UUID) string {
	return fmt.Sprintf("%s/admin/users/%s", a.baseURL, id)
}

// do issues one request: static headers always, bearer header when a token
// is given, JSON body when one is given. Network failures and non-2xx
// statuses both come back as *APIError; no retries, no caching.
func (a *API) do(ctx context.Context, operation, method, endpoint string, body any, token string, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apiError(operation, 0, "invalid_request", "failed to encode request body", err, nil)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return apiError(operation, 0, "invalid_request", "failed to build request", err, nil)
	}

	for name, value := range a.headers {
		req.Header.Set(name, value)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Debug("request error op=%s: %v", operation, err)
		return apiError(operation, 0, "request_failed", "", err, nil)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiError(operation, resp.StatusCode, "invalid_response", "failed to read response", err, nil)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		code, description, meta := decodeFailure(raw)
		a.logger.Debug("request rejected op=%s status=%d code=%s", operation, resp.StatusCode, code)
		return apiError(operation, resp.StatusCode, code, description, nil, meta)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return apiError(operation, resp.StatusCode, "invalid_response", "failed to decode response", err, nil)
	}

	return nil
}

// serviceFailure is the shape of the service's error bodies. Older versions
// send code/msg, OAuth-style endpoints send error/error_description; neither
// is guaranteed, so everything stays optional.
type serviceFailure struct {
	Code      int    `json:"code"`
	Msg       string `json:"msg"`
	Error     string `json:"error"`
	ErrorDesc string `json:"error_description"`
}

func decodeFailure(raw []byte) (code, description string, meta map[string]any) {
	var failure serviceFailure
	if err := json.Unmarshal(raw, &failure); err == nil {
		meta = map[string]any{}
		if failure.Code != 0 {
			meta["code"] = failure.Code
		}
		if failure.Error != "" {
			code = failure.Error
			meta["error"] = failure.Error
		}
		switch {
		case failure.Msg != "":
			description = failure.Msg
		case failure.ErrorDesc != "":
			description = failure.ErrorDesc
		}
		if len(meta) == 0 {
			meta = nil
		}
		if code != "" || description != "" {
			return code, description, meta
		}

		// parsed, but nothing usable in the known fields
		return "", strings.TrimSpace(string(raw)), meta
	}

	description = strings.TrimSpace(string(raw))
	return "", description, nil
}

func apiError(operation string, status int, code, description string, err error, raw map[string]any) *APIError {
	return &APIError{
		Operation:   operation,
		Status:      status,
		Code:        code,
		Description: description,
		Err:         err,
		Raw:         raw,
	}
}
