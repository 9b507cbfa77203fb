package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRefreshServer(t *testing.T, status int, body string) (*Client, *http.Request) {
	var captured http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		captured = *r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)

	client := NewClient(Opts{
		AuthBaseURL: ts.URL,
		APIBaseURL:  ts.URL,
		ClientID:    "hubspace_android",
		RedirectURI: "hubspace-app://loginredirect",
		UserAgent:   "Dart/3.1 (dart:io)",
	})
	return client, &captured
}

func TestRefresh(t *testing.T) {
	client, req := newRefreshServer(t, 200,
		`{"access_token":"at-2","refresh_token":"rt-2","expires_in":120}`)

	tok, err := client.Refresh(context.Background(), "rt-1")
	require.Nil(t, err)

	assert.Equal(t, "at-2", tok.AccessToken)
	assert.Equal(t, "rt-2", tok.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(115*time.Second), tok.Expiration, 2*time.Second)

	assert.Equal(t, "refresh_token", req.PostForm.Get("grant_type"))
	assert.Equal(t, "rt-1", req.PostForm.Get("refresh_token"))
	assert.Equal(t, "openid email offline_access profile", req.PostForm.Get("scope"))
	assert.Equal(t, "hubspace_android", req.PostForm.Get("client_id"))
}

func TestRefreshKeepsOldTokenWithoutRotation(t *testing.T) {
	// Some refresh responses omit a new refresh token.
	client, _ := newRefreshServer(t, 200, `{"access_token":"at-2","expires_in":120}`)

	tok, err := client.Refresh(context.Background(), "rt-1")
	require.Nil(t, err)
	assert.Equal(t, "rt-1", tok.RefreshToken)
}

func TestRefreshFailure(t *testing.T) {
	client, _ := newRefreshServer(t, 400, `{"error":"invalid_grant"}`)

	_, err := client.Refresh(context.Background(), "rt-1")

	var refErr *TokenRefreshError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, 400, refErr.Status)
	assert.Equal(t, `{"error":"invalid_grant"}`, refErr.Body)
}
