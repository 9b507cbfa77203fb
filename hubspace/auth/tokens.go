package auth

import "time"

// expiryMargin is subtracted from expires_in so a token is never considered
// valid right up to the instant the provider invalidates it.
const expiryMargin = 5 * time.Second

// TokenSet is the result of a completed login or refresh. AccountID is only
// populated by a full login; refresh responses never carry it.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	AccountID    string
	Expiration   time.Time
}

// tokenResponse is the token endpoint's wire format for both grant types.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func expirationFrom(now time.Time, expiresIn int) time.Time {
	return now.Add(time.Duration(expiresIn)*time.Second - expiryMargin)
}
