package hubspace

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMetadevices(t *testing.T) {
	var req *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"dev-1","typeId":"metadevice.device","friendlyName":"Porch Light","state":[{"functionClass":"power","value":"on"}]},
			{"metadeviceId":"dev-2","friendly_name":"Fan"}
		]`))
	}))
	defer ts.Close()

	client := NewClient(ClientOpts{
		BaseURL:   ts.URL,
		DataHost:  "semantics2.afero.net",
		UserAgent: "Dart/3.1 (dart:io)",
	})
	devices, err := client.ListMetadevices(context.Background(), "at-1", "acct-42")
	require.Nil(t, err)

	assert.Equal(t, "/v1/accounts/acct-42/metadevices", req.URL.Path)
	assert.Equal(t, "state", req.URL.Query().Get("expansions"))
	assert.Equal(t, "Bearer at-1", req.Header.Get("Authorization"))
	assert.Equal(t, "semantics2.afero.net", req.Host)

	require.Len(t, devices, 2)
	assert.Equal(t, "dev-1", devices[0].ID)
	assert.Equal(t, "Porch Light", devices[0].FriendlyName)
	assert.Equal(t, "dev-2", devices[1].ID)
	assert.Equal(t, "Fan", devices[1].FriendlyName)
}

func TestListMetadevicesNonArrayPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":"unexpected"}`))
	}))
	defer ts.Close()

	client := NewClient(ClientOpts{BaseURL: ts.URL})
	devices, err := client.ListMetadevices(context.Background(), "at-1", "acct-42")
	require.Nil(t, err)
	assert.Empty(t, devices)
}

func TestGetStatePassthrough(t *testing.T) {
	upstream := `{"metadeviceId":"dev-1","values":[{"functionClass":"power","value":"on","lastUpdateTime":1700000000}]}`

	var req *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req = r
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, upstream)
	}))
	defer ts.Close()

	client := NewClient(ClientOpts{BaseURL: ts.URL})
	state, err := client.GetState(context.Background(), "at-1", "acct-42", "dev-1")
	require.Nil(t, err)

	assert.Equal(t, "/v1/accounts/acct-42/metadevices/dev-1/state", req.URL.Path)
	assert.Equal(t, upstream, string(state))
}

func TestSendCommand(t *testing.T) {
	var req *http.Request
	var body []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req = r
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(200)
	}))
	defer ts.Close()

	client := NewClient(ClientOpts{BaseURL: ts.URL})
	values := []any{map[string]any{"functionClass": "power", "value": "off"}}
	err := client.SendCommand(context.Background(), "at-1", "acct-42", "dev-1", values)
	require.Nil(t, err)

	assert.Equal(t, "PUT", req.Method)
	assert.Equal(t, "/v1/accounts/acct-42/metadevices/dev-1/state", req.URL.Path)

	var payload struct {
		MetadeviceID string `json:"metadeviceId"`
		Values       []any  `json:"values"`
	}
	require.Nil(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "dev-1", payload.MetadeviceID)
	assert.Len(t, payload.Values, 1)
}

func TestSendCommandUpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(422)
		io.WriteString(w, `{"error":"unknown functionClass"}`)
	}))
	defer ts.Close()

	client := NewClient(ClientOpts{BaseURL: ts.URL})
	err := client.SendCommand(context.Background(), "at-1", "acct-42", "dev-1", []any{})

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 422, ue.Status)
	assert.Equal(t, `{"error":"unknown functionClass"}`, ue.Body)
}
