// Package intent turns high-level toy intents into vendor command payloads.
// Every encoder is pure: it validates its input and either returns a command
// ready for dispatch or a validation failure naming the offending field.
package intent

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nsyszr/toybroker/pkg/proto"
)

// Axis is a single motor function of a toy.
type Axis int

const (
	AxisVibrate Axis = iota
	AxisRotate
	AxisPump
)

func (a Axis) String() string {
	names := []string{
		"Vibrate",
		"Rotate",
		"Pump"}

	if a < AxisVibrate || a > AxisPump {
		return "UNKNOWN"
	}

	return names[a]
}

// MaxIntensity returns the upper bound of the axis. Pump uses its own, much
// smaller domain.
func (a Axis) MaxIntensity() int {
	if a == AxisPump {
		return 3
	}
	return 20
}

// ParseAxis maps an axis name (case-insensitive) to the axis.
func ParseAxis(name string) (Axis, error) {
	switch strings.ToLower(name) {
	case "vibrate":
		return AxisVibrate, nil
	case "rotate":
		return AxisRotate, nil
	case "pump":
		return AxisPump, nil
	}
	return AxisVibrate, fmt.Errorf("unknown axis %q", name)
}

// Timing holds the optional run time and loop segment of a function command.
// LoopRunning and LoopPause are only transmitted when strictly positive.
type Timing struct {
	Duration    int
	LoopRunning int
	LoopPause   int
}

// Presets understood by the vendor API
var Presets = []string{"pulse", "wave", "fireworks", "earthquake"}

const (
	patternMinIntervalMs = 100
	patternMaxSteps      = 50
	patternMaxStrength   = 20
	patternVersion       = 1
)

// EncodeSingleAxis encodes a single function command, e.g. "Vibrate:10".
func EncodeSingleAxis(axis Axis, intensity int, t Timing, toy string) (*proto.Command, error) {
	if err := validateIntensity(axis, intensity); err != nil {
		return nil, err
	}
	if err := validateDuration(t.Duration); err != nil {
		return nil, err
	}

	return functionCommand(actionToken(axis, intensity), t, toy), nil
}

// EncodeMultiFunction encodes a combined function command. Only the non-zero
// axes are transmitted, always in the order Vibrate, Rotate, Pump.
func EncodeMultiFunction(vibrate, rotate, pump int, t Timing, toy string) (*proto.Command, error) {
	levels := []struct {
		axis      Axis
		intensity int
	}{
		{AxisVibrate, vibrate},
		{AxisRotate, rotate},
		{AxisPump, pump},
	}

	for _, l := range levels {
		if err := validateIntensity(l.axis, l.intensity); err != nil {
			return nil, err
		}
	}
	if vibrate <= 0 && rotate <= 0 && pump <= 0 {
		return nil, proto.NewValidationError("intensity", "at least one of vibrate, rotate or pump must be greater than 0")
	}
	if err := validateDuration(t.Duration); err != nil {
		return nil, err
	}

	tokens := make([]string, 0, len(levels))
	for _, l := range levels {
		if l.intensity > 0 {
			tokens = append(tokens, actionToken(l.axis, l.intensity))
		}
	}

	return functionCommand(strings.Join(tokens, ","), t, toy), nil
}

// EncodePattern encodes a custom strength pattern. The sequence is a
// semicolon separated list of strengths, features a combination of the
// letters v, r and p.
func EncodePattern(sequence string, intervalMs, duration int, features, toy string) (*proto.Command, error) {
	if intervalMs < patternMinIntervalMs {
		return nil, proto.NewValidationError("interval_ms",
			fmt.Sprintf("interval must be >= %dms", patternMinIntervalMs))
	}

	steps := strings.Split(sequence, ";")
	if len(steps) > patternMaxSteps {
		return nil, proto.NewValidationError("strength_sequence",
			fmt.Sprintf("max %d strength values allowed, got %d", patternMaxSteps, len(steps)))
	}

	for _, s := range steps {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, proto.NewValidationError("strength_sequence",
				fmt.Sprintf("invalid strength value %q", s))
		}
		if v < 0 || v > patternMaxStrength {
			return nil, proto.NewValidationError("strength_sequence",
				fmt.Sprintf("strength values must be 0-%d, got %d", patternMaxStrength, v))
		}
	}

	if err := validateFeatures(features); err != nil {
		return nil, err
	}
	if err := validateDuration(duration); err != nil {
		return nil, err
	}

	return &proto.Command{
		Command:  proto.CommandPattern,
		TimeSec:  duration,
		Toy:      toy,
		Rule:     fmt.Sprintf("V:%d;F:%s;S:%d#", patternVersion, features, intervalMs),
		Strength: sequence,
		APIVer:   proto.APIVersionV2,
	}, nil
}

// EncodePreset encodes one of the vendor's built-in patterns.
func EncodePreset(name string, duration int, toy string) (*proto.Command, error) {
	preset := strings.ToLower(strings.TrimSpace(name))

	valid := false
	for _, p := range Presets {
		if p == preset {
			valid = true
			break
		}
	}
	if !valid {
		return nil, proto.NewValidationError("name",
			fmt.Sprintf("invalid preset %q, choose from: %s", name, strings.Join(Presets, ", ")))
	}
	if err := validateDuration(duration); err != nil {
		return nil, err
	}

	return &proto.Command{
		Command: proto.CommandPreset,
		Action:  preset,
		TimeSec: duration,
		Toy:     toy,
		APIVer:  proto.APIVersionLocal,
	}, nil
}

// EncodeStop encodes the command that stops all functions of the targeted
// toys immediately.
func EncodeStop(toy string) *proto.Command {
	return &proto.Command{
		Command: proto.CommandFunction,
		Action:  "Stop",
		TimeSec: 0,
		Toy:     toy,
		APIVer:  proto.APIVersionLocal,
	}
}

func functionCommand(action string, t Timing, toy string) *proto.Command {
	cmd := &proto.Command{
		Command: proto.CommandFunction,
		Action:  action,
		TimeSec: t.Duration,
		Toy:     toy,
		APIVer:  proto.APIVersionLocal,
	}
	if t.LoopRunning > 0 {
		cmd.LoopRunningSec = t.LoopRunning
	}
	if t.LoopPause > 0 {
		cmd.LoopPauseSec = t.LoopPause
	}
	return cmd
}

func actionToken(axis Axis, intensity int) string {
	return fmt.Sprintf("%s:%d", axis, intensity)
}

func validateIntensity(axis Axis, intensity int) error {
	if intensity < 0 || intensity > axis.MaxIntensity() {
		return proto.NewValidationError(strings.ToLower(axis.String()),
			fmt.Sprintf("intensity must be 0-%d, got %d", axis.MaxIntensity(), intensity))
	}
	return nil
}

func validateDuration(d int) error {
	if d < 0 {
		return proto.NewValidationError("duration", "duration must not be negative")
	}
	return nil
}

func validateFeatures(features string) error {
	if features == "" {
		return proto.NewValidationError("features", "at least one feature of v, r or p is required")
	}
	for _, f := range features {
		if f != 'v' && f != 'r' && f != 'p' {
			return proto.NewValidationError("features",
				fmt.Sprintf("invalid feature %q, use a combination of v, r and p", string(f)))
		}
	}
	return nil
}
