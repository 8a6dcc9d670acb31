package cli

import (
	"context"
	"testing"
	"time"

	"github.com/nsyszr/toybroker/pkg/api/resource"
	"github.com/nsyszr/toybroker/pkg/authority"
	"github.com/nsyszr/toybroker/pkg/controller"
	"github.com/nsyszr/toybroker/pkg/proto"
	"github.com/nsyszr/toybroker/pkg/router"
	"github.com/nsyszr/toybroker/pkg/storage/memory"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	cmds []*proto.Command
	err  error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, uid string, cmd *proto.Command) (*router.Result, error) {
	d.cmds = append(d.cmds, cmd)
	if d.err != nil {
		return nil, d.err
	}
	return &router.Result{Route: router.RouteRelay, StatusCode: 200}, nil
}

type staticPairing struct{}

func (staticPairing) PairingCode(ctx context.Context, uid string) (*authority.PairingCode, error) {
	return &authority.PairingCode{UID: uid, URL: "https://qr.example.com/x.png", CreatedAt: time.Now()}, nil
}

func (staticPairing) LatestPairingCode() (*authority.PairingCode, bool) {
	return nil, false
}

func newTestController(d *recordingDispatcher) *controller.Controller {
	return controller.New("default", d, memory.NewStore(nil).Sessions(), staticPairing{}, nil)
}

func TestSendFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "send"}
	RegisterSendFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--user", "alice", "--intensity", "7", "--loop-running", "3", "--sequence", "1;2"}))

	o := readSendOptions(cmd)
	assert.Equal(t, "alice", o.UID)
	assert.Equal(t, 7, o.Intensity)
	assert.Equal(t, 3, o.LoopRunning)
	assert.Equal(t, "1;2", o.Sequence)
	assert.Equal(t, 1000, o.IntervalMs)
	assert.Equal(t, "v", o.Features)
}

func TestExecuteOperations(t *testing.T) {
	d := &recordingDispatcher{}
	ctrl := newTestController(d)
	ctx := context.Background()

	_, err := execute(ctx, ctrl, "rotate", &sendOptions{Intensity: 5, Duration: 2})
	require.NoError(t, err)
	_, err = execute(ctx, ctrl, "multi", &sendOptions{Vibrate: 3, Pump: 1})
	require.NoError(t, err)
	_, err = execute(ctx, ctrl, "pattern", &sendOptions{Sequence: "5;10", IntervalMs: 200, Features: "v"})
	require.NoError(t, err)
	_, err = execute(ctx, ctrl, "preset", &sendOptions{Name: "pulse"})
	require.NoError(t, err)
	out, err := execute(ctx, ctrl, "stop", &sendOptions{})
	require.NoError(t, err)

	res := out.(*controller.Result)
	assert.True(t, res.Success)
	assert.Equal(t, "default", res.UID)

	require.Len(t, d.cmds, 5)
	assert.Equal(t, "Rotate:5", d.cmds[0].Action)
	assert.Equal(t, "Vibrate:3,Pump:1", d.cmds[1].Action)
	assert.Equal(t, "V:1;F:v;S:200#", d.cmds[2].Rule)
	assert.Equal(t, "pulse", d.cmds[3].Action)
	assert.Equal(t, "Stop", d.cmds[4].Action)
}

func TestExecuteFailures(t *testing.T) {
	d := &recordingDispatcher{}
	ctrl := newTestController(d)
	ctx := context.Background()

	out, err := execute(ctx, ctrl, "shake", &sendOptions{})
	require.Error(t, err)
	assert.Equal(t, proto.ErrReasonValidationFailure, out.(*resource.ErrorResource).Reason)

	_, err = execute(ctx, ctrl, "vibrate", &sendOptions{Intensity: 21})
	assert.True(t, proto.IsReason(err, proto.ErrReasonValidationFailure))
	assert.Empty(t, d.cmds)

	d.err = proto.NewTransportError("connection refused")
	out, err = execute(ctx, ctrl, "vibrate", &sendOptions{Intensity: 1})
	assert.True(t, proto.IsReason(err, proto.ErrReasonTransportFailure))
	assert.False(t, out.(*controller.Result).Success)
}

func TestExecutePairingCode(t *testing.T) {
	out, err := execute(context.Background(), newTestController(&recordingDispatcher{}), "qrcode", &sendOptions{UID: "bob"})
	require.NoError(t, err)

	code := out.(*resource.PairingCodeResource)
	assert.Equal(t, "bob", code.UID)
	assert.Equal(t, "https://qr.example.com/x.png", code.URL)
}

type closingBroker struct {
	ctrl   *controller.Controller
	closed int
}

func (b *closingBroker) Controller() *controller.Controller {
	return b.ctrl
}

func (b *closingBroker) Close() {
	b.closed++
}

func TestSendClosesBrokerOnFailure(t *testing.T) {
	d := &recordingDispatcher{err: proto.NewVendorRejectionError("User not online")}
	b := &closingBroker{ctrl: newTestController(d)}

	err := send(b, "stop", &sendOptions{})
	assert.True(t, proto.IsReason(err, proto.ErrReasonVendorRejection))
	assert.Equal(t, 1, b.closed)

	b.closed = 0
	require.NoError(t, send(&closingBroker{ctrl: newTestController(&recordingDispatcher{})}, "stop", &sendOptions{}))
	assert.Error(t, send(b, "shake", &sendOptions{}))
	assert.Equal(t, 1, b.closed)
}
