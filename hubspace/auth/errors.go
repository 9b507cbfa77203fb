package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrLoginFormNotFound means the authorization page did not contain the
	// Keycloak login form. Usually indicates the provider changed its markup.
	ErrLoginFormNotFound = errors.New("login form not found")

	// ErrMissingSessionParameters means the login form was found but one of
	// session_code, execution or tab_id could not be extracted.
	ErrMissingSessionParameters = errors.New("missing session parameters")

	// ErrAccountIDUnresolved means the user profile did not contain an
	// account id at accountAccess[0].account.accountId.
	ErrAccountIDUnresolved = errors.New("unable to resolve accountId")

	// ErrInvalidSession means a session record has no refresh token. Should
	// not happen for store-issued sessions.
	ErrInvalidSession = errors.New("invalid session")
)

// AuthorizationCodeError is returned when the credential submission response
// carries no authorization code in its Location header. This is the normal
// wrong-credentials outcome: Keycloak redirects back to the login page
// instead of answering 401, so the observed status is kept for diagnostics.
type AuthorizationCodeError struct {
	Status int
}

func (e *AuthorizationCodeError) Error() string {
	return fmt.Sprintf("no auth code in response; status %d", e.Status)
}

// TokenExchangeError is a non-success response from the token endpoint
// during the authorization_code grant.
type TokenExchangeError struct {
	Status int
	Body   string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed with status %d: %s", e.Status, e.Body)
}

// TokenRefreshError is a non-success response from the token endpoint during
// the refresh_token grant.
type TokenRefreshError struct {
	Status int
	Body   string
}

func (e *TokenRefreshError) Error() string {
	return fmt.Sprintf("token refresh failed with status %d: %s", e.Status, e.Body)
}
