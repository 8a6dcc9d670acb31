package api

import (
	"net/http"

	"github.com/labstack/echo"
	"github.com/nsyszr/toybroker/pkg/api/resource"
	"github.com/nsyszr/toybroker/pkg/intent"
	"github.com/nsyszr/toybroker/pkg/proto"
)

// bind decodes the request body into r. An empty body leaves the defaults.
func bind(c echo.Context, r interface{}) error {
	if c.Request().ContentLength == 0 {
		return nil
	}
	return c.Bind(r)
}

func bindError(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, resource.NewError(
		proto.NewParseError("invalid request body: "+err.Error(), "")))
}

func (h *Handler) handleFunction(axis intent.Axis) echo.HandlerFunc {
	return func(c echo.Context) error {
		r := &resource.FunctionRequest{}
		if err := bind(c, r); err != nil {
			return bindError(c, err)
		}

		res := h.ctrl.Function(c.Request().Context(), r.UserID, axis, r.Intensity, r.Timing(), r.Toy)
		return c.JSON(resource.CommandStatusCode(res), res)
	}
}

func (h *Handler) handleMultiFunction(c echo.Context) error {
	r := &resource.MultiFunctionRequest{}
	if err := bind(c, r); err != nil {
		return bindError(c, err)
	}

	res := h.ctrl.MultiFunction(c.Request().Context(), r.UserID, r.Vibrate, r.Rotate, r.Pump, r.Timing(), r.Toy)
	return c.JSON(resource.CommandStatusCode(res), res)
}

func (h *Handler) handlePattern(c echo.Context) error {
	r := &resource.PatternRequest{}
	if err := bind(c, r); err != nil {
		return bindError(c, err)
	}

	res := h.ctrl.Pattern(c.Request().Context(), r.UserID, r.StrengthSequence, r.Interval(), r.Duration, r.FeatureSet(), r.Toy)
	return c.JSON(resource.CommandStatusCode(res), res)
}

func (h *Handler) handlePreset(c echo.Context) error {
	r := &resource.PresetRequest{}
	if err := bind(c, r); err != nil {
		return bindError(c, err)
	}

	res := h.ctrl.Preset(c.Request().Context(), r.UserID, r.Name, r.Duration, r.Toy)
	return c.JSON(resource.CommandStatusCode(res), res)
}

func (h *Handler) handleStop(c echo.Context) error {
	r := &resource.StopRequest{}
	if err := bind(c, r); err != nil {
		return bindError(c, err)
	}

	res := h.ctrl.Stop(c.Request().Context(), r.UserID, r.Toy)
	return c.JSON(resource.CommandStatusCode(res), res)
}
