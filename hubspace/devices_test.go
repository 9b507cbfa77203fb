package hubspace

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinimalFromUpstreamIDCandidates(t *testing.T) {
	for _, key := range []string{"id", "deviceId", "metadeviceId", "device_id"} {
		md := MinimalFromUpstream(map[string]any{key: "dev-1"})
		assert.Equal(t, "dev-1", md.ID, "key %s", key)
	}
}

func TestMinimalFromUpstreamNoIDKeys(t *testing.T) {
	md := MinimalFromUpstream(map[string]any{"friendlyName": "Porch Light"})
	assert.Equal(t, "", md.ID)
	assert.Equal(t, "Porch Light", md.FriendlyName)
}

func TestMinimalFromUpstreamNestedDescription(t *testing.T) {
	md := MinimalFromUpstream(map[string]any{
		"metadeviceId": "dev-1",
		"description": map[string]any{
			"device": map[string]any{
				"deviceClass":  "light",
				"friendlyName": "Porch Light",
			},
		},
	})
	assert.Equal(t, "light", md.DeviceClass)
	assert.Equal(t, "Porch Light", md.FriendlyName)
}

func TestMinimalFromUpstreamFlatDescriptionClass(t *testing.T) {
	md := MinimalFromUpstream(map[string]any{
		"id": "dev-1",
		"description": map[string]any{
			"deviceClass": "fan",
		},
		"default_name": "Ceiling Fan",
	})
	assert.Equal(t, "fan", md.DeviceClass)
	assert.Equal(t, "Ceiling Fan", md.FriendlyName)
}

func TestMinimalFromUpstreamChildrenDefault(t *testing.T) {
	md := MinimalFromUpstream(map[string]any{"id": "dev-1"})
	require.NotNil(t, md.Children)
	assert.Empty(t, md.Children)

	md = MinimalFromUpstream(map[string]any{
		"id":       "dev-1",
		"children": []any{map[string]any{"id": "child-1"}},
	})
	assert.Len(t, md.Children, 1)
}

func TestMinimalFromUpstreamStates(t *testing.T) {
	states := []any{map[string]any{"functionClass": "power", "value": "on"}}

	md := MinimalFromUpstream(map[string]any{"id": "dev-1", "state": states})
	assert.Equal(t, states, md.States)

	md = MinimalFromUpstream(map[string]any{"id": "dev-1", "states": states})
	assert.Equal(t, states, md.States)
}

func TestMinimalDeviceJSONShape(t *testing.T) {
	md := MinimalFromUpstream(map[string]any{"id": "dev-1", "typeId": "metadevice.device"})

	out, err := json.Marshal(md)
	require.Nil(t, err)
	assert.JSONEq(t, `{"id":"dev-1","typeId":"metadevice.device","children":[]}`, string(out))
}
