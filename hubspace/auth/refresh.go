package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// refreshScope matches what the Hubspace app requests when rotating tokens.
const refreshScope = "openid email offline_access profile"

// Refresh exchanges a refresh token for a new token pair. The returned set
// keeps the old refresh token when the provider does not rotate it; some
// refresh responses omit one.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("client_id", c.clientID)
	data.Set("refresh_token", refreshToken)
	data.Set("scope", refreshScope)

	req, err := http.NewRequestWithContext(ctx, "POST", c.authBaseURL+"/protocol/openid-connect/token", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TokenRefreshError{Status: resp.StatusCode, Body: string(body)}
	}

	var result tokenResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse refresh response: %w", err)
	}

	newRefresh := result.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}

	return &TokenSet{
		AccessToken:  result.AccessToken,
		RefreshToken: newRefresh,
		Expiration:   expirationFrom(time.Now(), result.ExpiresIn),
	}, nil
}
