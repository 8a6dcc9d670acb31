package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/nsyszr/toybroker/pkg/client"
	"github.com/nsyszr/toybroker/pkg/proto"
	"github.com/pkg/errors"
)

const maxBodySize = 1 << 20

type httpClient struct {
	hc        *http.Client
	userAgent string
}

// Option configures the HTTP client.
type Option func(*httpClient)

// WithHTTPClient replaces the underlying *http.Client, e.g. with the one of
// an httptest TLS server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.hc = hc
	}
}

// WithUserAgent sets the User-Agent header of every request.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

// New returns a JSON-over-HTTP client. Timeouts are applied per request, so
// the default *http.Client carries none.
func New(opts ...Option) client.Interface {
	c := &httpClient{
		hc:        &http.Client{},
		userAgent: "toybroker",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) PostJSON(ctx context.Context, url string, timeout time.Duration, in interface{}) (*client.Response, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, proto.NewTransportError(fmt.Sprintf("invalid request: %s", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, transportError(ctx, err)
	}

	return &client.Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

func transportError(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return proto.NewTransportError(fmt.Sprintf("request timed out: %s", err))
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return proto.NewTransportError(fmt.Sprintf("request timed out: %s", err))
	}
	return proto.NewTransportError(err.Error())
}
