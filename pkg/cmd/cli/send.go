package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nsyszr/toybroker/config"
	"github.com/nsyszr/toybroker/pkg/api/resource"
	"github.com/nsyszr/toybroker/pkg/cmd/server"
	"github.com/nsyszr/toybroker/pkg/controller"
	"github.com/nsyszr/toybroker/pkg/intent"
	"github.com/nsyszr/toybroker/pkg/proto"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const sendTimeout = 30 * time.Second

// SendOperations lists the operations accepted by the send command.
var SendOperations = []string{"vibrate", "rotate", "pump", "multi", "pattern", "preset", "stop", "qrcode"}

type SendHandler struct {
	c *config.Config
}

func newSendHandler(c *config.Config) *SendHandler {
	return &SendHandler{c: c}
}

type sendOptions struct {
	UID         string
	Toy         string
	Intensity   int
	Duration    int
	LoopRunning int
	LoopPause   int
	Vibrate     int
	Rotate      int
	Pump        int
	Sequence    string
	IntervalMs  int
	Features    string
	Name        string
}

// RegisterSendFlags adds the flags read by Send to cmd.
func RegisterSendFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("user", "", "user id, defaults to DEFAULT_UID")
	f.String("toy", "", "toy id, all toys when empty")
	f.Int("intensity", 0, "intensity of vibrate, rotate or pump")
	f.Int("duration", 0, "run time in seconds, 0 runs until stopped")
	f.Int("loop-running", 0, "loop running seconds")
	f.Int("loop-pause", 0, "loop pause seconds")
	f.Int("vibrate", 0, "vibrate intensity for multi")
	f.Int("rotate", 0, "rotate intensity for multi")
	f.Int("pump", 0, "pump intensity for multi")
	f.String("sequence", "", "strength sequence for pattern, e.g. 20;10;5")
	f.Int("interval", resource.DefaultPatternIntervalMs, "pattern step interval in milliseconds")
	f.String("features", resource.DefaultPatternFeatures, "pattern features, e.g. vrp")
	f.String("name", "", "preset name")
}

func readSendOptions(cmd *cobra.Command) *sendOptions {
	f := cmd.Flags()
	o := &sendOptions{}
	o.UID, _ = f.GetString("user")
	o.Toy, _ = f.GetString("toy")
	o.Intensity, _ = f.GetInt("intensity")
	o.Duration, _ = f.GetInt("duration")
	o.LoopRunning, _ = f.GetInt("loop-running")
	o.LoopPause, _ = f.GetInt("loop-pause")
	o.Vibrate, _ = f.GetInt("vibrate")
	o.Rotate, _ = f.GetInt("rotate")
	o.Pump, _ = f.GetInt("pump")
	o.Sequence, _ = f.GetString("sequence")
	o.IntervalMs, _ = f.GetInt("interval")
	o.Features, _ = f.GetString("features")
	o.Name, _ = f.GetString("name")
	return o
}

func (o *sendOptions) timing() intent.Timing {
	return intent.Timing{Duration: o.Duration, LoopRunning: o.LoopRunning, LoopPause: o.LoopPause}
}

// Send performs one operation against the configured vendor endpoints and
// prints the result as JSON. The exit code is 1 when the operation failed.
func (h *SendHandler) Send(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		fmt.Println(cmd.UsageString())
		os.Exit(2)
	}

	b, err := server.NewBroker(h.c)
	if err != nil {
		log.Error("failed to configure broker: ", err)
		os.Exit(1)
	}

	if err := send(b, args[0], readSendOptions(cmd)); err != nil {
		os.Exit(1)
	}
}

type broker interface {
	Controller() *controller.Controller
	Close()
}

// send runs op and prints the result. The broker is closed before returning
// so callers may exit right away.
func send(b broker, op string, o *sendOptions) error {
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	out, err := execute(ctx, b.Controller(), op, o)

	data, jerr := json.MarshalIndent(out, "", "  ")
	if jerr != nil {
		log.Error(jerr)
		return jerr
	}
	fmt.Println(string(data))

	return err
}

// execute runs op and returns the value to print. The error is non-nil
// whenever the operation did not succeed.
func execute(ctx context.Context, ctrl *controller.Controller, op string, o *sendOptions) (interface{}, error) {
	var res *controller.Result

	switch op {
	case "vibrate", "rotate", "pump":
		axis, err := intent.ParseAxis(op)
		if err != nil {
			return resource.NewError(err), err
		}
		res = ctrl.Function(ctx, o.UID, axis, o.Intensity, o.timing(), o.Toy)
	case "multi":
		res = ctrl.MultiFunction(ctx, o.UID, o.Vibrate, o.Rotate, o.Pump, o.timing(), o.Toy)
	case "pattern":
		res = ctrl.Pattern(ctx, o.UID, o.Sequence, o.IntervalMs, o.Duration, o.Features, o.Toy)
	case "preset":
		res = ctrl.Preset(ctx, o.UID, o.Name, o.Duration, o.Toy)
	case "stop":
		res = ctrl.Stop(ctx, o.UID, o.Toy)
	case "qrcode":
		code, err := ctrl.PairingCode(ctx, o.UID)
		if err != nil {
			return resource.NewError(err), err
		}
		return resource.NewPairingCode(code), nil
	default:
		err := proto.NewValidationError("operation", fmt.Sprintf("unknown operation %q", op))
		return resource.NewError(err), err
	}

	return res, res.Err()
}
