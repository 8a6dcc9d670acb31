package devicecontrol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nsyszr/toybroker/pkg/model"
	"github.com/nsyszr/toybroker/pkg/proto"
)

const maxPort = 65535

// CallbackRequest is the document the companion app posts after a user
// scanned a pairing code or whenever the toy state changes.
type CallbackRequest struct {
	UID        proto.FlexString `json:"uid"`
	UToken     proto.FlexString `json:"utoken"`
	Domain     proto.FlexString `json:"domain"`
	HTTPSPort  proto.FlexInt    `json:"httpsPort"`
	HTTPPort   proto.FlexInt    `json:"httpPort"`
	WSPort     proto.FlexInt    `json:"wsPort"`
	WSSPort    proto.FlexInt    `json:"wssPort"`
	Platform   proto.FlexString `json:"platform"`
	AppVersion proto.FlexString `json:"appVersion"`
	Toys       json.RawMessage  `json:"toys"`
}

// CallbackToy is a single toy of a callback.
type CallbackToy struct {
	ID       proto.FlexString `json:"id"`
	Name     proto.FlexString `json:"name"`
	NickName proto.FlexString `json:"nickName"`
	Status   proto.FlexInt    `json:"status"`
	Battery  proto.FlexInt    `json:"battery"`
	Version  proto.FlexString `json:"version"`
}

// CallbackReply is the answer the companion app expects.
type CallbackReply struct {
	Result  bool   `json:"result"`
	Message string `json:"message"`
}

// ParseCallback decodes a callback body into a session. The uid falls back
// to defaultUID when absent or blank.
func ParseCallback(data []byte, defaultUID string, now time.Time) (*model.Session, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, proto.NewParseError("callback body is not a JSON object", string(data))
	}

	req := CallbackRequest{}
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, proto.NewParseError(err.Error(), string(data))
	}

	ports := []struct {
		name string
		port proto.FlexInt
	}{
		{"httpsPort", req.HTTPSPort},
		{"httpPort", req.HTTPPort},
		{"wsPort", req.WSPort},
		{"wssPort", req.WSSPort},
	}
	for _, p := range ports {
		if p.port < 0 || p.port > maxPort {
			return nil, proto.NewParseError(fmt.Sprintf("%s %d is not a valid port", p.name, p.port), string(data))
		}
	}

	uid := strings.TrimSpace(string(req.UID))
	if uid == "" {
		uid = defaultUID
	}

	return &model.Session{
		UID:         uid,
		UToken:      string(req.UToken),
		Domain:      strings.TrimSpace(string(req.Domain)),
		HTTPSPort:   int(req.HTTPSPort),
		HTTPPort:    int(req.HTTPPort),
		WSPort:      int(req.WSPort),
		WSSPort:     int(req.WSSPort),
		Platform:    string(req.Platform),
		AppVersion:  string(req.AppVersion),
		Toys:        parseToys(req.Toys),
		ConnectedAt: now.Round(time.Second).UTC(),
	}, nil
}

// parseToys accepts the toy list as object keyed by toy id, as array, or as
// a string containing either of them. Anything else yields no toys.
func parseToys(raw json.RawMessage) map[string]model.Toy {
	toys := make(map[string]model.Toy)

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return toys
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return toys
		}
		raw = bytes.TrimSpace([]byte(s))
		if len(raw) == 0 {
			return toys
		}
	}

	switch raw[0] {
	case '{':
		entries := map[string]json.RawMessage{}
		if err := json.Unmarshal(raw, &entries); err != nil {
			return toys
		}
		for id, entry := range entries {
			if t, ok := decodeToy(entry); ok {
				if t.ID == "" {
					t.ID = id
				}
				toys[id] = t
			}
		}
	case '[':
		entries := []json.RawMessage{}
		if err := json.Unmarshal(raw, &entries); err != nil {
			return toys
		}
		for i, entry := range entries {
			if t, ok := decodeToy(entry); ok {
				if t.ID == "" {
					t.ID = fmt.Sprintf("toy%d", i)
				}
				toys[t.ID] = t
			}
		}
	}

	return toys
}

func decodeToy(entry json.RawMessage) (model.Toy, bool) {
	entry = bytes.TrimSpace(entry)
	if len(entry) == 0 || entry[0] != '{' {
		return model.Toy{}, false
	}

	ct := CallbackToy{}
	if err := json.Unmarshal(entry, &ct); err != nil {
		return model.Toy{}, false
	}

	t := model.Toy{
		ID:       string(ct.ID),
		Name:     string(ct.Name),
		NickName: string(ct.NickName),
		Status:   model.ToyStatusDisconnected,
		Battery:  clampBattery(int(ct.Battery)),
		Version:  string(ct.Version),
	}
	if t.Name == "" {
		t.Name = "unknown"
	}
	if ct.Status == 1 {
		t.Status = model.ToyStatusConnected
	}
	return t, true
}

func clampBattery(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
