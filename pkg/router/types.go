package router

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nsyszr/toybroker/pkg/authority"
	"github.com/nsyszr/toybroker/pkg/model"
	"github.com/nsyszr/toybroker/pkg/proto"
)

// Mode selects the delivery strategy of the router.
type Mode int

const (
	// ModeHybrid tries the device directly and falls back to the relay.
	ModeHybrid Mode = iota
	// ModeRelay always sends through the vendor cloud.
	ModeRelay
	// ModeDirect always sends to one configured local address.
	ModeDirect
)

func (m Mode) String() string {
	switch m {
	case ModeRelay:
		return "relay"
	case ModeDirect:
		return "direct"
	}
	return "hybrid"
}

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hybrid":
		return ModeHybrid, nil
	case "relay", "cloud":
		return ModeRelay, nil
	case "direct", "local":
		return ModeDirect, nil
	}
	return ModeHybrid, fmt.Errorf("unknown router mode %q, use hybrid, relay or direct", s)
}

// Route names the path a command took.
type Route string

const (
	RouteDirect Route = "direct"
	RouteRelay  Route = "relay"
)

// Result is the outcome of a successful dispatch.
type Result struct {
	Route      Route        `json:"route"`
	StatusCode int          `json:"status_code"`
	Reply      *proto.Reply `json:"reply,omitempty"`
	FellBack   bool         `json:"fell_back,omitempty"`
}

// TokenSource hands out vendor tokens for the relay.
type TokenSource interface {
	GetToken(ctx context.Context, uid string) (*authority.Token, error)
	DeveloperToken() string
}

// Options configures the router.
type Options struct {
	Mode          Mode
	APIBaseURL    string
	LocalAddress  string
	LocalPort     int
	DirectTimeout time.Duration
	RelayTimeout  time.Duration
	StrictDirect  bool
}

const (
	defaultDirectTimeout = 5 * time.Second
	defaultRelayTimeout  = 10 * time.Second
	defaultLocalPort     = 30010

	relayCommandPath = "/api/lan/v2/command"
	commandPath      = "/command"
	localDomain      = ".lovense.club"
)

// SessionURL returns the command endpoint a session announced, or an empty
// string when the session carries no usable address. HTTPS is preferred.
func SessionURL(m *model.Session) string {
	if m == nil || m.Domain == "" {
		return ""
	}
	if m.HTTPSPort > 0 {
		return "https://" + m.Domain + ":" + strconv.Itoa(m.HTTPSPort) + commandPath
	}
	if m.HTTPPort > 0 {
		return "http://" + m.Domain + ":" + strconv.Itoa(m.HTTPPort) + commandPath
	}
	return ""
}

// LocalURL converts a LAN address into the vendor's certificate-backed host
// name, e.g. 192.168.1.44 becomes https://192-168-1-44.lovense.club:30010/command.
func LocalURL(address string, port int) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}
	if port <= 0 {
		port = defaultLocalPort
	}

	host := address
	if !strings.HasSuffix(address, localDomain) {
		host = strings.ReplaceAll(address, ".", "-") + localDomain
	}
	return "https://" + host + ":" + strconv.Itoa(port) + commandPath
}
