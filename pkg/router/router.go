package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nsyszr/toybroker/pkg/client"
	"github.com/nsyszr/toybroker/pkg/metrics"
	"github.com/nsyszr/toybroker/pkg/proto"
	"github.com/nsyszr/toybroker/pkg/storage"
	log "github.com/sirupsen/logrus"
)

// Router delivers encoded commands to a user's toys, either straight to the
// companion app on the user's network or through the vendor cloud.
type Router struct {
	opts     Options
	sessions storage.SessionStore
	tokens   TokenSource
	hc       client.Interface
	localURL string
}

// New creates a router. Direct mode without a local address cannot deliver
// anything and is rejected.
func New(opts Options, sessions storage.SessionStore, tokens TokenSource, hc client.Interface) (*Router, error) {
	if opts.DirectTimeout <= 0 {
		opts.DirectTimeout = defaultDirectTimeout
	}
	if opts.RelayTimeout <= 0 {
		opts.RelayTimeout = defaultRelayTimeout
	}
	opts.APIBaseURL = strings.TrimRight(opts.APIBaseURL, "/")

	r := &Router{
		opts:     opts,
		sessions: sessions,
		tokens:   tokens,
		hc:       hc,
	}

	if opts.Mode == ModeDirect {
		r.localURL = LocalURL(opts.LocalAddress, opts.LocalPort)
		if r.localURL == "" {
			return nil, fmt.Errorf("direct mode requires a local address")
		}
	}

	return r, nil
}

// Mode returns the configured delivery mode.
func (r *Router) Mode() Mode {
	return r.opts.Mode
}

// Dispatch sends cmd to the toys of uid. In hybrid mode a failed direct
// attempt is followed by exactly one relay attempt, whose outcome is returned.
func (r *Router) Dispatch(ctx context.Context, uid string, cmd *proto.Command) (*Result, error) {
	logger := log.WithFields(log.Fields{
		"uid":     uid,
		"mode":    r.opts.Mode.String(),
		"command": cmd.Command,
		"action":  cmd.Action,
	})

	switch r.opts.Mode {
	case ModeRelay:
		return r.relay(ctx, uid, cmd)
	case ModeDirect:
		return r.direct(ctx, r.localURL, cmd)
	}

	url := r.lookup(uid, logger)
	if url == "" {
		logger.Debug("No direct address known, using relay")
		return r.relay(ctx, uid, cmd)
	}

	res, err := r.direct(ctx, url, cmd)
	if err == nil {
		return res, nil
	}

	metrics.FallbackTotal.Inc()
	logger.WithFields(log.Fields{"reason": proto.ReasonOf(err), "url": url}).
		Warnf("Direct delivery failed, falling back to relay: %s", proto.MessageOf(err))

	res, err = r.relay(ctx, uid, cmd)
	if err != nil {
		return nil, err
	}
	res.FellBack = true
	return res, nil
}

// lookup reads the registry once and returns the announced command URL.
func (r *Router) lookup(uid string, logger *log.Entry) string {
	if r.sessions == nil {
		return ""
	}
	m, err := r.sessions.FindByUID(uid)
	if err != nil {
		if err != storage.ErrNotFound {
			logger.WithError(err).Warn("Session lookup failed")
		}
		return ""
	}
	return SessionURL(m)
}

func (r *Router) direct(ctx context.Context, url string, cmd *proto.Command) (res *Result, err error) {
	start := time.Now()
	defer func() {
		observe(RouteDirect, start, err)
	}()

	resp, err := r.hc.PostJSON(ctx, url, r.opts.DirectTimeout, cmd)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, proto.NewTransportError(fmt.Sprintf("direct endpoint answered with status %d", resp.StatusCode))
	}

	reply, err := proto.UnmarshalReply(resp.Body)
	if err != nil {
		return nil, err
	}
	if r.opts.StrictDirect && !reply.SucceededLocally() {
		return nil, proto.NewVendorRejectionError(reply.FailureMessage("command rejected by device"))
	}

	return &Result{
		Route:      RouteDirect,
		StatusCode: resp.StatusCode,
		Reply:      reply,
	}, nil
}

func (r *Router) relay(ctx context.Context, uid string, cmd *proto.Command) (res *Result, err error) {
	start := time.Now()
	defer func() {
		observe(RouteRelay, start, err)
	}()

	if r.tokens == nil {
		return nil, proto.NewConfigurationMissingError("relay is not configured")
	}
	if _, err = r.tokens.GetToken(ctx, uid); err != nil {
		return nil, err
	}

	req := proto.NewRelayCommandRequest(r.tokens.DeveloperToken(), uid, cmd)
	resp, err := r.hc.PostJSON(ctx, r.opts.APIBaseURL+relayCommandPath, r.opts.RelayTimeout, req)
	if err != nil {
		return nil, err
	}

	reply, err := resp.Reply()
	if err != nil {
		return nil, err
	}
	if !reply.Succeeded() {
		return nil, proto.NewVendorRejectionError(reply.FailureMessage("command failed"))
	}

	return &Result{
		Route:      RouteRelay,
		StatusCode: resp.StatusCode,
		Reply:      reply,
	}, nil
}

func observe(route Route, start time.Time, err error) {
	metrics.DispatchDuration.WithLabelValues(string(route)).Observe(time.Since(start).Seconds())
	metrics.DispatchTotal.WithLabelValues(string(route), metrics.Outcome(err)).Inc()
}
