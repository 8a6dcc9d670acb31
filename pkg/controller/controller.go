package controller

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/nsyszr/toybroker/pkg/authority"
	"github.com/nsyszr/toybroker/pkg/events"
	"github.com/nsyszr/toybroker/pkg/intent"
	"github.com/nsyszr/toybroker/pkg/model"
	"github.com/nsyszr/toybroker/pkg/proto"
	"github.com/nsyszr/toybroker/pkg/storage"
	log "github.com/sirupsen/logrus"
)

// Controller exposes the broker operations to the gateway and the CLI.
type Controller struct {
	dispatcher Dispatcher
	sessions   storage.SessionStore
	pairing    PairingSource
	events     events.Publisher
	defaultUID string
	newID      func() string
}

// New creates a controller. A nil publisher disables events.
func New(defaultUID string, d Dispatcher, sessions storage.SessionStore, pairing PairingSource, pub events.Publisher) *Controller {
	if pub == nil {
		pub = events.Noop()
	}
	return &Controller{
		dispatcher: d,
		sessions:   sessions,
		pairing:    pairing,
		events:     pub,
		defaultUID: defaultUID,
		newID:      func() string { return uuid.New().String() },
	}
}

// UID returns uid, or the default identity when uid is blank.
func (ctrl *Controller) UID(uid string) string {
	if uid = strings.TrimSpace(uid); uid != "" {
		return uid
	}
	return ctrl.defaultUID
}

// Function drives a single axis.
func (ctrl *Controller) Function(ctx context.Context, uid string, axis intent.Axis, intensity int, t intent.Timing, toy string) *Result {
	cmd, err := intent.EncodeSingleAxis(axis, intensity, t, toy)
	return ctrl.send(ctx, uid, cmd, err)
}

func (ctrl *Controller) Vibrate(ctx context.Context, uid string, intensity int, t intent.Timing, toy string) *Result {
	return ctrl.Function(ctx, uid, intent.AxisVibrate, intensity, t, toy)
}

func (ctrl *Controller) Rotate(ctx context.Context, uid string, intensity int, t intent.Timing, toy string) *Result {
	return ctrl.Function(ctx, uid, intent.AxisRotate, intensity, t, toy)
}

func (ctrl *Controller) Pump(ctx context.Context, uid string, intensity int, t intent.Timing, toy string) *Result {
	return ctrl.Function(ctx, uid, intent.AxisPump, intensity, t, toy)
}

// MultiFunction drives several axes with one command.
func (ctrl *Controller) MultiFunction(ctx context.Context, uid string, vibrate, rotate, pump int, t intent.Timing, toy string) *Result {
	cmd, err := intent.EncodeMultiFunction(vibrate, rotate, pump, t, toy)
	return ctrl.send(ctx, uid, cmd, err)
}

// Pattern plays a custom strength sequence.
func (ctrl *Controller) Pattern(ctx context.Context, uid, sequence string, intervalMs, duration int, features, toy string) *Result {
	cmd, err := intent.EncodePattern(sequence, intervalMs, duration, features, toy)
	return ctrl.send(ctx, uid, cmd, err)
}

// Preset plays one of the vendor's built-in patterns.
func (ctrl *Controller) Preset(ctx context.Context, uid, name string, duration int, toy string) *Result {
	cmd, err := intent.EncodePreset(name, duration, toy)
	return ctrl.send(ctx, uid, cmd, err)
}

// Stop halts all functions.
func (ctrl *Controller) Stop(ctx context.Context, uid, toy string) *Result {
	return ctrl.send(ctx, uid, intent.EncodeStop(toy), nil)
}

// Send dispatches an already encoded command.
func (ctrl *Controller) Send(ctx context.Context, uid string, cmd *proto.Command) *Result {
	return ctrl.send(ctx, uid, cmd, nil)
}

func (ctrl *Controller) send(ctx context.Context, uid string, cmd *proto.Command, encodeErr error) *Result {
	uid = ctrl.UID(uid)
	res := &Result{
		RequestID: ctrl.newID(),
		UID:       uid,
	}

	logger := log.WithFields(log.Fields{"request_id": res.RequestID, "uid": uid})

	if encodeErr != nil {
		logger.Infof("Rejected command: %s", encodeErr)
		return res.fail(encodeErr)
	}

	out, err := ctrl.dispatcher.Dispatch(ctx, uid, cmd)
	if err != nil {
		logger.WithFields(log.Fields{"reason": proto.ReasonOf(err), "action": cmd.Action}).
			Errorf("Command failed: %s", proto.MessageOf(err))
		res.fail(err)
	} else {
		logger.WithFields(log.Fields{"route": out.Route, "action": cmd.Action}).Info("Command sent")
		res.Success = true
		res.Route = out.Route
		res.FellBack = out.FellBack
		res.Result = out.Reply
	}

	d := &events.CommandDetails{
		RequestID: res.RequestID,
		Command:   cmd.Command,
		Action:    cmd.Action,
		Toy:       cmd.Toy,
		Route:     string(res.Route),
		Success:   res.Success,
		Reason:    string(res.Reason),
	}
	if err := ctrl.events.PublishCommand(uid, d); err != nil {
		logger.WithError(err).Warn("Failed to publish command event")
	}

	return res
}

func (res *Result) fail(err error) *Result {
	res.Success = false
	res.Reason = proto.ReasonOf(err)
	res.Error = proto.MessageOf(err)
	return res
}

// Users returns all sessions currently known to the registry.
func (ctrl *Controller) Users() (map[string]model.Session, error) {
	return ctrl.sessions.FetchAll()
}

// Toys returns the session of uid including its toys.
func (ctrl *Controller) Toys(uid string) (*model.Session, error) {
	return ctrl.sessions.FindByUID(ctrl.UID(uid))
}

// PairingCode requests a new QR code for uid.
func (ctrl *Controller) PairingCode(ctx context.Context, uid string) (*authority.PairingCode, error) {
	if ctrl.pairing == nil {
		return nil, proto.NewConfigurationMissingError("pairing is not available")
	}
	return ctrl.pairing.PairingCode(ctx, ctrl.UID(uid))
}

// LatestPairingCode returns the last issued QR code.
func (ctrl *Controller) LatestPairingCode() (*authority.PairingCode, bool) {
	if ctrl.pairing == nil {
		return nil, false
	}
	return ctrl.pairing.LatestPairingCode()
}
