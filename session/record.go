package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"hubbridge/hubspace/auth"
)

// refreshBuffer keeps a token from being used in the gap between the
// validity check and the downstream call it authorizes.
const refreshBuffer = 5 * time.Second

// Refresher mints a new token pair from a refresh token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenSet, error)
}

// Record is one authenticated user's credentials plus bookkeeping. The token
// triple (access, refresh, expiration) only changes as a unit, under the
// record's lock; AccountID is fixed at login. lastAccess is atomic so the
// store's sweeper never waits behind an in-flight refresh.
type Record struct {
	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiration   time.Time
	accountID    string

	lastAccess atomic.Int64 // unix nanos
}

// NewRecord builds a record from a completed login.
func NewRecord(tok *auth.TokenSet) *Record {
	r := &Record{
		accessToken:  tok.AccessToken,
		refreshToken: tok.RefreshToken,
		expiration:   tok.Expiration,
		accountID:    tok.AccountID,
	}
	r.touch()
	return r
}

func (r *Record) touch() {
	r.lastAccess.Store(time.Now().UnixNano())
}

// LastAccess returns the instant of most recent use.
func (r *Record) LastAccess() time.Time {
	return time.Unix(0, r.lastAccess.Load())
}

// AccountID returns the account resolved at login.
func (r *Record) AccountID() string {
	return r.accountID
}

// Tokens returns the current token pair.
func (r *Record) Tokens() (access, refresh string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accessToken, r.refreshToken
}

// Expiration returns the instant after which the access token is invalid.
func (r *Record) Expiration() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expiration
}

// EnsureValid returns an access token valid at call time, refreshing it
// through the given refresher when the expiration buffer has been reached.
// Every call counts as a use for idle-eviction purposes, whether or not a
// network refresh happens. Calls on the same record are serialized, so two
// concurrent requests racing past the buffer produce a single refresh.
func (r *Record) EnsureValid(ctx context.Context, refresher Refresher) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refreshToken == "" {
		return "", auth.ErrInvalidSession
	}

	r.touch()

	if time.Now().Before(r.expiration.Add(-refreshBuffer)) {
		return r.accessToken, nil
	}

	tok, err := refresher.Refresh(ctx, r.refreshToken)
	if err != nil {
		// Leave the record untouched; the next use retries.
		return "", err
	}

	r.accessToken = tok.AccessToken
	r.refreshToken = tok.RefreshToken
	r.expiration = tok.Expiration

	return r.accessToken, nil
}
