package hubspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// ErrInvalidCommandPayload means a command's values field is not an array.
// Checked before any session or network work happens.
var ErrInvalidCommandPayload = errors.New("values array required")

// UpstreamError is a non-success response from the device cloud, surfaced
// with its body so callers can tell a device fault from transient trouble.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream request failed with status %d: %s", e.Status, e.Body)
}

type ClientOpts struct {
	BaseURL string
	// DataHost overrides the Host header on metadevice calls; the Hubspace
	// semantics service sits behind the API host and is selected this way.
	DataHost  string
	UserAgent string
}

// Client calls the device cloud's metadevice resources. The bearer token is
// supplied per call since every session holds its own.
type Client struct {
	httpClient *resty.Client
	dataHost   string
}

func NewClient(opts ClientOpts) *Client {
	c := Client{dataHost: opts.DataHost}
	c.httpClient = resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeaders(map[string]string{
			"Accept":     "application/json",
			"User-Agent": opts.UserAgent,
		})
	return &c
}

func (c *Client) req(ctx context.Context, token string) *resty.Request {
	request := c.httpClient.
		NewRequest().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token)

	if c.dataHost != "" {
		request.SetHeader("Host", c.dataHost)
	}

	return request
}

// ListMetadevices fetches the account's devices with state expansion and
// maps them to the minimal schema, preserving upstream order. A payload that
// is not an array yields an empty list.
func (c *Client) ListMetadevices(ctx context.Context, token, accountID string) ([]MinimalDevice, error) {
	res, err := handleError(c.req(ctx, token).
		SetPathParams(map[string]string{
			"accountId": accountID,
		}).
		SetQueryParam("expansions", "state").
		Get("/v1/accounts/{accountId}/metadevices"))
	if err != nil {
		return nil, err
	}

	var upstream []map[string]any
	if err := json.Unmarshal(res.Body(), &upstream); err != nil {
		return []MinimalDevice{}, nil
	}

	minimal := make([]MinimalDevice, 0, len(upstream))
	for _, d := range upstream {
		minimal = append(minimal, MinimalFromUpstream(d))
	}

	return minimal, nil
}

// GetState returns one device's state sub-resource verbatim.
func (c *Client) GetState(ctx context.Context, token, accountID, deviceID string) (json.RawMessage, error) {
	res, err := handleError(c.req(ctx, token).
		SetPathParams(map[string]string{
			"accountId": accountID,
			"deviceId":  deviceID,
		}).
		Get("/v1/accounts/{accountId}/metadevices/{deviceId}/state"))
	if err != nil {
		return nil, err
	}

	return json.RawMessage(res.Body()), nil
}

// SendCommand PUTs the given values to a device's state sub-resource. The
// caller is responsible for having validated values as an array already.
func (c *Client) SendCommand(ctx context.Context, token, accountID, deviceID string, values []any) error {
	_, err := handleError(c.req(ctx, token).
		SetPathParams(map[string]string{
			"accountId": accountID,
			"deviceId":  deviceID,
		}).
		SetHeader("Content-Type", "application/json; charset=utf-8").
		SetBody(map[string]any{
			"metadeviceId": deviceID,
			"values":       values,
		}).
		Put("/v1/accounts/{accountId}/metadevices/{deviceId}/state"))

	return err
}

// handleError turns failing responses (>399 status code) into an
// UpstreamError carrying the body. Without this, failing responses would
// have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, &UpstreamError{Status: res.StatusCode(), Body: string(res.Body())}
	}

	return res, nil
}
