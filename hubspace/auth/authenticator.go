package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const htmlAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

var authCodeRegex = regexp.MustCompile(`[?&]code=([^&]+)`)

// Opts configures a Client. AuthBaseURL and APIBaseURL exist mainly so tests
// can point the flow at a local server.
type Opts struct {
	// AuthBaseURL is the realm root, e.g.
	// https://accounts.hubspaceconnect.com/auth/realms/thd
	AuthBaseURL string
	// APIBaseURL is the device cloud API root, e.g. https://api2.afero.net
	APIBaseURL  string
	ClientID    string
	RedirectURI string
	UserAgent   string
	// Parser defaults to KeycloakFormParser.
	Parser FormParser
}

// Client drives the multi-step Keycloak login flow and the refresh_token
// grant. It never follows redirects: the authorization code only appears in
// a Location header that must be inspected, not chased.
type Client struct {
	httpClient  *http.Client
	authBaseURL string
	apiBaseURL  string
	clientID    string
	redirectURI string
	userAgent   string
	parser      FormParser
}

func NewClient(opts Opts) *Client {
	parser := opts.Parser
	if parser == nil {
		parser = KeycloakFormParser{}
	}
	return &Client{
		httpClient: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		authBaseURL: strings.TrimSuffix(opts.AuthBaseURL, "/"),
		apiBaseURL:  strings.TrimSuffix(opts.APIBaseURL, "/"),
		clientID:    opts.ClientID,
		redirectURI: opts.RedirectURI,
		userAgent:   opts.UserAgent,
		parser:      parser,
	}
}

// authPage is the outcome of fetching the authorization endpoint: the form's
// correlation parameters plus the cookies that must accompany the credential
// submission.
type authPage struct {
	form    LoginForm
	cookies string
	authURL string
}

// Login runs the full login sequence and returns a token set with the
// account id resolved. Each step's failure mode is distinguishable by error
// type so callers can tell bad credentials from upstream trouble.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenSet, error) {
	verifier, challenge := GeneratePKCE()

	page, err := c.fetchAuthPage(ctx, challenge)
	if err != nil {
		return nil, err
	}

	code, err := c.submitCredentials(ctx, page, username, password)
	if err != nil {
		return nil, err
	}

	tok, err := c.exchangeCode(ctx, code, verifier)
	if err != nil {
		return nil, err
	}

	accountID, err := c.resolveAccountID(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}
	tok.AccountID = accountID

	return tok, nil
}

func (c *Client) fetchAuthPage(ctx context.Context, challenge string) (authPage, error) {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", c.clientID)
	params.Set("redirect_uri", c.redirectURI)
	params.Set("scope", "openid offline_access")
	params.Set("code_challenge", challenge)
	params.Set("code_challenge_method", "S256")

	authURL := c.authBaseURL + "/protocol/openid-connect/auth"

	req, err := http.NewRequestWithContext(ctx, "GET", authURL+"?"+params.Encode(), nil)
	if err != nil {
		return authPage{}, fmt.Errorf("failed to create auth page request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", htmlAccept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return authPage{}, fmt.Errorf("auth page request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	form, err := c.parser.ParseLoginForm(body)
	if err != nil {
		return authPage{}, err
	}

	return authPage{
		form:    form,
		cookies: collapseSetCookie(resp),
		authURL: authURL,
	}, nil
}

// collapseSetCookie reduces Set-Cookie headers to name=value pairs joined by
// "; " for reuse as a Cookie header. Cookie attributes are dropped.
func collapseSetCookie(resp *http.Response) string {
	var pairs []string
	for _, c := range resp.Header.Values("Set-Cookie") {
		if nv, _, _ := strings.Cut(c, ";"); nv != "" {
			pairs = append(pairs, nv)
		}
	}
	return strings.Join(pairs, "; ")
}

func (c *Client) submitCredentials(ctx context.Context, page authPage, username, password string) (string, error) {
	params := url.Values{}
	params.Set("session_code", page.form.SessionCode)
	params.Set("execution", page.form.Execution)
	params.Set("client_id", c.clientID)
	params.Set("tab_id", page.form.TabID)

	data := url.Values{}
	data.Set("username", username)
	data.Set("password", password)
	data.Set("credentialId", "")

	endpoint := c.authBaseURL + "/login-actions/authenticate?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create authenticate request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", htmlAccept)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cookie", page.cookies)
	req.Header.Set("Referer", page.authURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("authenticate request failed: %w", err)
	}
	defer resp.Body.Close()

	// On success Keycloak redirects to the app's redirect URI with the code
	// in the query. On bad credentials it redirects back to the login page
	// instead, so a missing code is the expected wrong-password outcome.
	location := resp.Header.Get("Location")
	if m := authCodeRegex.FindStringSubmatch(location); len(m) > 1 {
		return m[1], nil
	}

	return "", &AuthorizationCodeError{Status: resp.StatusCode}
}

func (c *Client) exchangeCode(ctx context.Context, code, verifier string) (*TokenSet, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", c.clientID)
	data.Set("redirect_uri", c.redirectURI)
	data.Set("code", code)
	data.Set("code_verifier", verifier)

	req, err := http.NewRequestWithContext(ctx, "POST", c.authBaseURL+"/protocol/openid-connect/token", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TokenExchangeError{Status: resp.StatusCode, Body: string(body)}
	}

	var result tokenResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	return &TokenSet{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		Expiration:   expirationFrom(time.Now(), result.ExpiresIn),
	}, nil
}

func (c *Client) resolveAccountID(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.apiBaseURL+"/v1/users/me", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create profile request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	var profile struct {
		AccountAccess []struct {
			Account struct {
				AccountID string `json:"accountId"`
			} `json:"account"`
		} `json:"accountAccess"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", ErrAccountIDUnresolved
	}

	if len(profile.AccountAccess) == 0 || profile.AccountAccess[0].Account.AccountID == "" {
		return "", ErrAccountIDUnresolved
	}

	return profile.AccountAccess[0].Account.AccountID, nil
}
