package gotrue_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	gotrue "github.com/goliatone/go-gotrue"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   map[string]any
}

// recordingServer answers every request with the given payload and captures
// what the transport actually sent.
func recordingServer(t *testing.T, status int, payload any) (*httptest.Server, *[]recordedRequest) {
	t.Helper()

	requests := &[]recordedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
		}
		if r.Body != nil {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				rec.Body = body
			}
		}
		*requests = append(*requests, rec)

		if payload == nil {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, payload)
	}))

	return server, requests
}

func TestListUsersQueryHandling(t *testing.T) {
	server, requests := recordingServer(t, http.StatusOK, map[string]any{
		"aud":   "authenticated",
		"users": []map[string]any{{"id": testUserID, "email": "a@example.com"}},
	})
	defer server.Close()

	api := gotrue.NewAPI(gotrue.Config{BaseURL: server.URL})

	list, err := api.ListUsers(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, list.Users, 1)
	assert.Equal(t, "a@example.com", list.Users[0].Email)

	_, err = api.ListUsers(context.Background(), "?page=2")
	require.NoError(t, err)

	require.Len(t, *requests, 2)
	assert.Equal(t, "/admin/users", (*requests)[0].Path)
	assert.Equal(t, "", (*requests)[0].Query)
	assert.Equal(t, "/admin/users", (*requests)[1].Path)
	assert.Equal(t, "page=2", (*requests)[1].Query)
}

func TestStaticHeadersOnEveryRequest(t *testing.T) {
	server, requests := recordingServer(t, http.StatusOK, sessionPayload("tok1", "r1", "a@example.com", 3600))
	defer server.Close()

	api := gotrue.NewAPI(gotrue.Config{
		BaseURL: server.URL,
		Headers: map[string]string{"apikey": "super.secret.key"},
	}).WithHeader("X-Client-Info", "go-gotrue")

	_, err := api.SignIn(context.Background(), gotrue.Email("a@example.com"), "Abcd1234!")
	require.NoError(t, err)

	err = api.SignOut(context.Background(), "tok1")
	require.NoError(t, err)

	require.Len(t, *requests, 2)
	for _, rec := range *requests {
		assert.Equal(t, "super.secret.key", rec.Header.Get("apikey"))
		assert.Equal(t, "go-gotrue", rec.Header.Get("X-Client-Info"))
	}

	// bearer only on the authenticated call
	assert.Empty(t, (*requests)[0].Header.Get("Authorization"))
	assert.Equal(t, "Bearer tok1", (*requests)[1].Header.Get("Authorization"))
}

func TestCredentialSelectsExactlyOneField(t *testing.T) {
	server, requests := recordingServer(t, http.StatusOK, sessionPayload("tok1", "r1", "", 3600))
	defer server.Close()

	api := gotrue.NewAPI(gotrue.Config{BaseURL: server.URL})

	_, err := api.SignIn(context.Background(), gotrue.Email("a@example.com"), "pw")
	require.NoError(t, err)

	_, err = api.SignIn(context.Background(), gotrue.Phone("+14155552671"), "pw")
	require.NoError(t, err)

	require.Len(t, *requests, 2)

	emailBody := (*requests)[0].Body
	assert.Equal(t, "a@example.com", emailBody["email"])
	assert.NotContains(t, emailBody, "phone")

	phoneBody := (*requests)[1].Body
	assert.Equal(t, "+14155552671", phoneBody["phone"])
	assert.NotContains(t, phoneBody, "email")
}

func TestProviderAuthorizeURLBuildsWithoutRequest(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	api := gotrue.NewAPI(gotrue.Config{BaseURL: server.URL})

	authorizeURL := api.ProviderAuthorizeURL("github")
	assert.Equal(t, server.URL+"/authorize?provider=github", authorizeURL)
	assert.Equal(t, int64(0), hits.Load())
}

func TestAdminUserEndpoints(t *testing.T) {
	id := uuid.MustParse(testUserID)
	server, requests := recordingServer(t, http.StatusOK, map[string]any{
		"id":    testUserID,
		"email": "a@example.com",
	})
	defer server.Close()

	api := gotrue.NewAPI(gotrue.Config{BaseURL: server.URL})
	ctx := context.Background()

	user, err := api.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)

	password := "Abcd1234!"
	confirmed := true
	_, err = api.CreateUser(ctx, gotrue.AdminUserAttributes{
		Email:          "a@example.com",
		Password:       &password,
		EmailConfirmed: &confirmed,
	})
	require.NoError(t, err)

	_, err = api.UpdateUserByID(ctx, id, gotrue.AdminUserAttributes{Email: "b@example.com"})
	require.NoError(t, err)

	require.NoError(t, api.DeleteUser(ctx, id))

	_, err = api.InviteUserByEmail(ctx, "c@example.com")
	require.NoError(t, err)

	require.Len(t, *requests, 5)

	assert.Equal(t, http.MethodGet, (*requests)[0].Method)
	assert.Equal(t, "/admin/users/"+testUserID, (*requests)[0].Path)

	assert.Equal(t, http.MethodPost, (*requests)[1].Method)
	assert.Equal(t, "/admin/users", (*requests)[1].Path)
	assert.Equal(t, "Abcd1234!", (*requests)[1].Body["password"])
	assert.Equal(t, true, (*requests)[1].Body["email_confirmed"])

	assert.Equal(t, http.MethodPut, (*requests)[2].Method)
	assert.Equal(t, "/admin/users/"+testUserID, (*requests)[2].Path)

	assert.Equal(t, http.MethodDelete, (*requests)[3].Method)
	assert.Equal(t, "/admin/users/"+testUserID, (*requests)[3].Path)

	assert.Equal(t, http.MethodPost, (*requests)[4].Method)
	assert.Equal(t, "/invite", (*requests)[4].Path)
	assert.Equal(t, "c@example.com", (*requests)[4].Body["email"])
}

func TestResetPasswordForEmail(t *testing.T) {
	server, requests := recordingServer(t, http.StatusOK, nil)
	defer server.Close()

	api := gotrue.NewAPI(gotrue.Config{BaseURL: server.URL})

	require.NoError(t, api.ResetPasswordForEmail(context.Background(), "a@example.com"))

	require.Len(t, *requests, 1)
	assert.Equal(t, "/recover", (*requests)[0].Path)
	assert.Equal(t, "a@example.com", (*requests)[0].Body["email"])
}

func TestUpdateUserSendsBearerAndBody(t *testing.T) {
	server, requests := recordingServer(t, http.StatusOK, map[string]any{
		"id":    testUserID,
		"email": "b@example.com",
	})
	defer server.Close()

	api := gotrue.NewAPI(gotrue.Config{BaseURL: server.URL})

	user, err := api.UpdateUser(context.Background(), gotrue.UserAttributes{
		Email: "b@example.com",
		Data:  map[string]any{"theme": "dark"},
	}, "tok1")
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", user.Email)

	require.Len(t, *requests, 1)
	rec := (*requests)[0]
	assert.Equal(t, http.MethodPut, rec.Method)
	assert.Equal(t, "/user", rec.Path)
	assert.Equal(t, "Bearer tok1", rec.Header.Get("Authorization"))
	assert.Equal(t, "b@example.com", rec.Body["email"])
	assert.Equal(t, map[string]any{"theme": "dark"}, rec.Body["data"])
}

func TestNon2xxBecomesAPIError(t *testing.T) {
	server, _ := recordingServer(t, http.StatusUnprocessableEntity, map[string]any{
		"error":             "invalid_grant",
		"error_description": "refresh token revoked",
	})
	defer server.Close()

	api := gotrue.NewAPI(gotrue.Config{BaseURL: server.URL})

	_, err := api.RefreshAccessToken(context.Background(), "r1")
	require.Error(t, err)

	aerr, ok := gotrue.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "refresh_token", aerr.Operation)
	assert.Equal(t, http.StatusUnprocessableEntity, aerr.Status)
	assert.Equal(t, "invalid_grant", aerr.Code)
	assert.Equal(t, "refresh token revoked", aerr.Description)
}

func TestFailureBodyWithOnlyNumericCode(t *testing.T) {
	server, _ := recordingServer(t, http.StatusInternalServerError, map[string]any{"code": 500})
	defer server.Close()

	api := gotrue.NewAPI(gotrue.Config{BaseURL: server.URL})

	_, err := api.GetUser(context.Background(), "tok1")
	require.Error(t, err)

	aerr, ok := gotrue.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, aerr.Status)
	assert.Equal(t, `{"code":500}`, aerr.Description)
	assert.Equal(t, 500, aerr.Raw["code"])
}

func TestNetworkFailureBecomesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	api := gotrue.NewAPI(gotrue.Config{BaseURL: baseURL})

	_, err := api.GetUser(context.Background(), "tok1")
	require.Error(t, err)

	aerr, ok := gotrue.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 0, aerr.Status)
	assert.Error(t, aerr.Unwrap())
}

func TestMalformedSuccessBodyBecomesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	api := gotrue.NewAPI(gotrue.Config{BaseURL: server.URL})

	_, err := api.SignIn(context.Background(), gotrue.Email("a@example.com"), "pw")
	require.Error(t, err)

	aerr, ok := gotrue.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "invalid_response", aerr.Code)
}

func TestSessionExpiryAnchoredOnReceipt(t *testing.T) {
	server, _ := recordingServer(t, http.StatusOK, sessionPayload("tok1", "r1", "a@example.com", 3600))
	defer server.Close()

	api := gotrue.NewAPI(gotrue.Config{BaseURL: server.URL})

	session, err := api.SignIn(context.Background(), gotrue.Email("a@example.com"), "pw")
	require.NoError(t, err)

	require.NotZero(t, session.ExpiresAt)
	assert.False(t, session.Expired())
	assert.False(t, session.ExpiryTime().IsZero())
}
