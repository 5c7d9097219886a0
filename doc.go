// Package gotrue is a client for GoTrue-style authentication services:
// account creation, credential sign-in, one-time passcodes, password
// recovery, token refresh, and the admin user endpoints.
//
// Transport vs. session state:
//   - API is the stateless binding from logical operations to HTTP calls.
//     It attaches configured static headers to every request and a bearer
//     header only from tokens the caller hands it. Safe to share between
//     goroutines.
//   - Client owns at most one authenticated session. Sign-up, sign-in, and
//     refresh install the returned session as an atomic unit; sign-out
//     clears it; transport failures never leave partial state behind.
//
// Sessions and credentials:
//   - Credential selects an account by exactly one of email or phone.
//     Selection is a closed type, so mutual exclusivity holds by
//     construction.
//   - Session pairs the bearer access token with the refresh token used to
//     mint its successor, plus the embedded user record.
//
// Extras:
//   - WithAutoRefresh runs a background task that rotates the session ahead
//     of expiry; Close tears it down.
//   - SessionStore persists the current session (in memory or through Bun)
//     so RestoreSession can pick it up after a restart.
//   - TokenVerifier validates access tokens locally against the service's
//     published JWK Set.
package gotrue
