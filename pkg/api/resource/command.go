package resource

import (
	"net/http"

	"github.com/nsyszr/toybroker/pkg/controller"
	"github.com/nsyszr/toybroker/pkg/intent"
	"github.com/nsyszr/toybroker/pkg/proto"
)

const (
	DefaultPatternIntervalMs = 1000
	DefaultPatternFeatures   = "v"
)

type FunctionRequest struct {
	UserID      string `json:"user_id"`
	Intensity   int    `json:"intensity"`
	Duration    int    `json:"duration"`
	LoopRunning int    `json:"loop_running"`
	LoopPause   int    `json:"loop_pause"`
	Toy         string `json:"toy"`
}

func (r *FunctionRequest) Timing() intent.Timing {
	return intent.Timing{Duration: r.Duration, LoopRunning: r.LoopRunning, LoopPause: r.LoopPause}
}

type MultiFunctionRequest struct {
	UserID      string `json:"user_id"`
	Vibrate     int    `json:"vibrate"`
	Rotate      int    `json:"rotate"`
	Pump        int    `json:"pump"`
	Duration    int    `json:"duration"`
	LoopRunning int    `json:"loop_running"`
	LoopPause   int    `json:"loop_pause"`
	Toy         string `json:"toy"`
}

func (r *MultiFunctionRequest) Timing() intent.Timing {
	return intent.Timing{Duration: r.Duration, LoopRunning: r.LoopRunning, LoopPause: r.LoopPause}
}

// PatternRequest carries a custom pattern. IntervalMs is a pointer so an
// explicit 0 is rejected instead of replaced by the default.
type PatternRequest struct {
	UserID           string `json:"user_id"`
	StrengthSequence string `json:"strength_sequence"`
	IntervalMs       *int   `json:"interval_ms"`
	Duration         int    `json:"duration"`
	Features         string `json:"features"`
	Toy              string `json:"toy"`
}

func (r *PatternRequest) Interval() int {
	if r.IntervalMs == nil {
		return DefaultPatternIntervalMs
	}
	return *r.IntervalMs
}

func (r *PatternRequest) FeatureSet() string {
	if r.Features == "" {
		return DefaultPatternFeatures
	}
	return r.Features
}

type PresetRequest struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"`
	Toy      string `json:"toy"`
}

type StopRequest struct {
	UserID string `json:"user_id"`
	Toy    string `json:"toy"`
}

type PairingCodeRequest struct {
	UserID string `json:"user_id"`
}

// ErrorResource is returned when a request fails before it reaches the
// controller.
type ErrorResource struct {
	Success bool              `json:"success"`
	Reason  proto.ErrorReason `json:"reason"`
	Error   string            `json:"error"`
}

func NewError(err error) *ErrorResource {
	return &ErrorResource{
		Success: false,
		Reason:  proto.ReasonOf(err),
		Error:   proto.MessageOf(err),
	}
}

// StatusCode maps a failure reason to the HTTP status of the gateway.
func StatusCode(reason proto.ErrorReason) int {
	switch reason {
	case proto.ErrReasonValidationFailure:
		return http.StatusBadRequest
	case proto.ErrReasonConfigurationMissing:
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

// CommandStatusCode returns the HTTP status for a command result.
func CommandStatusCode(res *controller.Result) int {
	if res.Success {
		return http.StatusOK
	}
	return StatusCode(res.Reason)
}
