package hubspace

// MinimalDevice is the trimmed-down device shape the bridge exposes. It is
// derived per response and never stored.
type MinimalDevice struct {
	ID           string `json:"id"`
	DeviceID     string `json:"deviceId,omitempty"`
	TypeID       any    `json:"typeId,omitempty"`
	DeviceClass  string `json:"device_class,omitempty"`
	FriendlyName string `json:"friendlyName,omitempty"`
	Children     []any  `json:"children"`
	States       any    `json:"states,omitempty"`
}

// MinimalFromUpstream maps one upstream metadevice object to the minimal
// schema. The cloud has shipped several spellings for most fields, so each
// target takes the first non-empty candidate. A device missing every id
// candidate still maps, with an empty id.
func MinimalFromUpstream(d map[string]any) MinimalDevice {
	md := MinimalDevice{
		ID:       firstString(d, "id", "deviceId", "metadeviceId", "device_id"),
		DeviceID: firstString(d, "deviceId", "device_id"),
		TypeID:   firstValue(d, "typeId", "type"),
		States:   firstValue(d, "state", "states"),
		Children: []any{},
	}

	md.DeviceClass = firstString(d, "device_class")
	if md.DeviceClass == "" {
		md.DeviceClass = digString(d, "description", "device", "deviceClass")
	}
	if md.DeviceClass == "" {
		md.DeviceClass = digString(d, "description", "deviceClass")
	}

	md.FriendlyName = firstString(d, "friendlyName", "friendly_name")
	if md.FriendlyName == "" {
		md.FriendlyName = digString(d, "description", "device", "friendlyName")
	}
	if md.FriendlyName == "" {
		md.FriendlyName = firstString(d, "default_name")
	}

	if children, ok := d["children"].([]any); ok {
		md.Children = children
	}

	return md
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func digString(m map[string]any, path ...string) string {
	cur := any(m)
	for _, k := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = obj[k]
	}
	s, _ := cur.(string)
	return s
}
