package client

import (
	"context"
	"fmt"
	"time"

	"github.com/nsyszr/toybroker/pkg/proto"
)

// Interface sends a JSON document to a vendor endpoint and hands back the raw
// reply. Implementations report connection errors and timeouts as
// proto.ErrReasonTransportFailure; interpreting the body is left to callers.
type Interface interface {
	PostJSON(ctx context.Context, url string, timeout time.Duration, in interface{}) (*Response, error)
}

// Response is a completed HTTP exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the endpoint answered with HTTP 200.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode == 200
}

// Reply decodes the body as a vendor reply envelope. A body which cannot be
// decoded is a transport failure when the status already signalled an error,
// otherwise a parse failure.
func (r *Response) Reply() (*proto.Reply, error) {
	rep, err := proto.UnmarshalReply(r.Body)
	if err != nil {
		if !r.OK() {
			return nil, proto.NewTransportError(fmt.Sprintf("vendor answered with status %d", r.StatusCode))
		}
		return nil, err
	}
	return rep, nil
}
