package proto

import "encoding/json"

// Command names of the vendor API
const (
	CommandFunction = "Function"
	CommandPattern  = "Pattern"
	CommandPreset   = "Preset"
)

// API versions expected by the vendor endpoints. The local Game Mode API
// takes version 1 for functions and presets, patterns and the cloud relay
// require version 2.
const (
	APIVersionLocal = 1
	APIVersionV2    = 2
)

// Command is the wire payload shared by the direct and the relay sender.
type Command struct {
	Command        string `json:"command"`
	Action         string `json:"action"`
	TimeSec        int    `json:"timeSec"`
	Toy            string `json:"toy,omitempty"`
	LoopRunningSec int    `json:"loopRunningSec,omitempty"`
	LoopPauseSec   int    `json:"loopPauseSec,omitempty"`
	Rule           string `json:"rule,omitempty"`
	Strength       string `json:"strength,omitempty"`
	APIVer         int    `json:"apiVer"`
}

// RelayCommandRequest is a command re-expressed for the cloud relay, which
// additionally identifies the developer and the target user.
type RelayCommandRequest struct {
	Token string `json:"token"`
	UID   string `json:"uid"`
	Command
}

// NewRelayCommandRequest copies the command and applies the relay API version.
func NewRelayCommandRequest(token, uid string, cmd *Command) *RelayCommandRequest {
	req := &RelayCommandRequest{
		Token:   token,
		UID:     uid,
		Command: *cmd,
	}
	req.APIVer = APIVersionV2
	return req
}

// Reply is the generic envelope of the vendor API. Depending on the endpoint
// either Result or Code is set, so both are pointers.
type Reply struct {
	Result  *bool           `json:"result,omitempty"`
	Code    *int            `json:"code,omitempty"`
	Type    string          `json:"type,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type TokenRequest struct {
	Token string `json:"token"`
	UID   string `json:"uid"`
	UName string `json:"uname"`
}

type TokenData struct {
	AuthToken string `json:"authToken"`
}

type QRCodeRequest struct {
	Token   string `json:"token"`
	UID     string `json:"uid"`
	UName   string `json:"uname"`
	Version int    `json:"v"`
}

type QRCodeData struct {
	QR   string `json:"qr"`
	Code string `json:"code"`
}
