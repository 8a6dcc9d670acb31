package authority

import (
	"fmt"
	"strings"
	"time"
)

// Scope decides how tokens are cached.
type Scope int

const (
	// ScopeProcess shares one token between all users of the process.
	ScopeProcess Scope = iota
	// ScopeUser caches one token per user id.
	ScopeUser
)

func (s Scope) String() string {
	if s == ScopeUser {
		return "user"
	}
	return "process"
}

// ParseScope converts a configuration value into a Scope. An empty value
// selects ScopeProcess.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "process":
		return ScopeProcess, nil
	case "user":
		return ScopeUser, nil
	}
	return ScopeProcess, fmt.Errorf("unknown token scope %q, use process or user", s)
}

// Token is an authorization token issued by the vendor.
type Token struct {
	Value    string    `json:"-"`
	UID      string    `json:"uid"`
	IssuedAt time.Time `json:"issued_at"`
}

// PairingCode is the QR code a user scans with the companion app to link
// their toys to this broker.
type PairingCode struct {
	UID         string    `json:"uid"`
	URL         string    `json:"qrcode_url"`
	Code        string    `json:"code,omitempty"`
	CallbackURL string    `json:"callback_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Config contains the vendor credentials and endpoints.
type Config struct {
	DeveloperToken string
	APIBaseURL     string
	CallbackURL    string
	Timeout        time.Duration
	Scope          Scope
}

const (
	tokenPath  = "/api/basicApi/getToken"
	qrCodePath = "/api/lan/getQrCode"

	qrCodeVersion = 2
)
