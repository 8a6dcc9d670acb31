package controller

import (
	"context"

	"github.com/nsyszr/toybroker/pkg/authority"
	"github.com/nsyszr/toybroker/pkg/proto"
	"github.com/nsyszr/toybroker/pkg/router"
)

// Dispatcher delivers an encoded command to a user.
type Dispatcher interface {
	Dispatch(ctx context.Context, uid string, cmd *proto.Command) (*router.Result, error)
}

// PairingSource issues QR pairing codes.
type PairingSource interface {
	PairingCode(ctx context.Context, uid string) (*authority.PairingCode, error)
	LatestPairingCode() (*authority.PairingCode, bool)
}

// Result is returned by every command operation. Failures are reported in
// Reason and Error, never as a Go error.
type Result struct {
	Success   bool              `json:"success"`
	RequestID string            `json:"request_id"`
	UID       string            `json:"user_id"`
	Route     router.Route      `json:"route,omitempty"`
	FellBack  bool              `json:"fell_back,omitempty"`
	Result    *proto.Reply      `json:"result,omitempty"`
	Reason    proto.ErrorReason `json:"reason,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Err returns the failure of the result as a broker error, nil on success.
func (r *Result) Err() error {
	if r.Success {
		return nil
	}
	return &proto.Error{Reason: r.Reason, Message: r.Error}
}
