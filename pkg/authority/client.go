package authority

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nsyszr/toybroker/pkg/client"
	"github.com/nsyszr/toybroker/pkg/metrics"
	"github.com/nsyszr/toybroker/pkg/proto"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const defaultTimeout = 10 * time.Second

// Client obtains tokens and pairing codes from the vendor cloud. Tokens are
// cached until invalidated; the cache lock is never held while a request is
// in flight.
type Client struct {
	cfg Config
	hc  client.Interface

	mu     sync.Mutex
	tokens map[string]*Token
	latest *PairingCode

	group singleflight.Group
	now   func() time.Time
}

// NewClient returns a client for the vendor's authorization endpoints.
func NewClient(cfg Config, hc client.Interface) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	return &Client{
		cfg:    cfg,
		hc:     hc,
		tokens: make(map[string]*Token),
		now:    time.Now,
	}
}

// DeveloperToken returns the configured developer credential.
func (c *Client) DeveloperToken() string {
	return c.cfg.DeveloperToken
}

func (c *Client) cacheKey(uid string) string {
	if c.cfg.Scope == ScopeUser {
		return uid
	}
	return ""
}

// GetToken returns the cached token or requests a new one. Concurrent misses
// for the same cache key share a single vendor request, which is bounded by
// the configured timeout and not by the context of whichever caller started it.
func (c *Client) GetToken(ctx context.Context, uid string) (*Token, error) {
	if c.cfg.DeveloperToken == "" {
		return nil, proto.NewConfigurationMissingError("developer token not configured")
	}

	key := c.cacheKey(uid)

	c.mu.Lock()
	t, ok := c.tokens[key]
	c.mu.Unlock()
	if ok {
		return t, nil
	}

	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		t, err := c.requestToken(shared, uid)
		metrics.TokenRequestsTotal.WithLabelValues(metrics.Outcome(err)).Inc()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.tokens[key] = t
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Token), nil
}

// Invalidate drops the cached token for uid.
func (c *Client) Invalidate(uid string) {
	c.mu.Lock()
	delete(c.tokens, c.cacheKey(uid))
	c.mu.Unlock()
}

// Refresh discards the cached token and requests a new one.
func (c *Client) Refresh(ctx context.Context, uid string) (*Token, error) {
	c.Invalidate(uid)
	return c.GetToken(ctx, uid)
}

func (c *Client) requestToken(ctx context.Context, uid string) (*Token, error) {
	req := &proto.TokenRequest{
		Token: c.cfg.DeveloperToken,
		UID:   uid,
		UName: uid,
	}

	reply, err := c.post(ctx, tokenPath, req)
	if err != nil {
		log.WithFields(log.Fields{"uid": uid, "reason": proto.ReasonOf(err)}).
			Errorf("Token request failed: %s", proto.MessageOf(err))
		return nil, err
	}

	// Only code 0 counts here, the token endpoint does not send result.
	if reply.Code == nil || *reply.Code != 0 {
		msg := reply.FailureMessage("unknown error")
		log.WithFields(log.Fields{"uid": uid}).Errorf("Token request rejected: %s", msg)
		return nil, proto.NewVendorRejectionError(msg)
	}

	data := proto.TokenData{}
	if len(reply.Data) > 0 {
		if err := reply.UnmarshalData(&data); err != nil {
			return nil, proto.NewParseError("invalid token data: "+err.Error(), string(reply.Data))
		}
	}

	log.WithFields(log.Fields{"uid": uid}).Info("Got auth token")

	return &Token{
		Value:    data.AuthToken,
		UID:      uid,
		IssuedAt: c.now().UTC(),
	}, nil
}

// PairingCode requests a QR code for uid and remembers it as the latest one.
func (c *Client) PairingCode(ctx context.Context, uid string) (*PairingCode, error) {
	if _, err := c.GetToken(ctx, uid); err != nil {
		return nil, err
	}

	req := &proto.QRCodeRequest{
		Token:   c.cfg.DeveloperToken,
		UID:     uid,
		UName:   uid,
		Version: qrCodeVersion,
	}

	reply, err := c.post(ctx, qrCodePath, req)
	if err != nil {
		log.WithFields(log.Fields{"uid": uid, "reason": proto.ReasonOf(err)}).
			Errorf("QR code request failed: %s", proto.MessageOf(err))
		return nil, err
	}
	if !reply.Succeeded() {
		msg := reply.FailureMessage("unknown error")
		log.WithFields(log.Fields{"uid": uid}).Errorf("QR code request rejected: %s", msg)
		return nil, proto.NewVendorRejectionError(msg)
	}

	pc := &PairingCode{
		UID:         uid,
		CallbackURL: c.cfg.CallbackURL,
		CreatedAt:   c.now().UTC(),
	}

	data := proto.QRCodeData{}
	if len(reply.Data) > 0 && reply.UnmarshalData(&data) == nil {
		pc.URL = data.QR
		pc.Code = data.Code
	}
	if pc.URL == "" {
		pc.URL = reply.Message
	}
	if pc.URL == "" {
		return nil, proto.NewParseError("vendor reply contains no QR code", "")
	}

	c.mu.Lock()
	c.latest = pc
	c.mu.Unlock()

	log.WithFields(log.Fields{"uid": uid}).Info("Got QR code")

	return pc, nil
}

// LatestPairingCode returns the most recently issued pairing code.
func (c *Client) LatestPairingCode() (*PairingCode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.latest == nil {
		return nil, false
	}
	pc := *c.latest
	return &pc, true
}

func (c *Client) post(ctx context.Context, path string, in interface{}) (*proto.Reply, error) {
	resp, err := c.hc.PostJSON(ctx, c.cfg.APIBaseURL+path, c.cfg.Timeout, in)
	if err != nil {
		return nil, err
	}
	return resp.Reply()
}
