package api

import (
	"net/http"

	"github.com/labstack/echo"
	"github.com/nsyszr/toybroker/pkg/api/resource"
	"github.com/nsyszr/toybroker/pkg/proto"
)

func (h *Handler) handleCreatePairingCode(c echo.Context) error {
	r := &resource.PairingCodeRequest{}
	if err := bind(c, r); err != nil {
		return bindError(c, err)
	}

	pc, err := h.ctrl.PairingCode(c.Request().Context(), r.UserID)
	if err != nil {
		return c.JSON(resource.StatusCode(proto.ReasonOf(err)), resource.NewError(err))
	}

	return c.JSON(http.StatusOK, resource.NewPairingCode(pc))
}

func (h *Handler) handleGetPairingCode(c echo.Context) error {
	pc, ok := h.ctrl.LatestPairingCode()
	if !ok {
		return c.JSON(http.StatusNotFound, resource.NewError(
			proto.NewValidationError("qrcode", "no QR code generated yet")))
	}

	return c.JSON(http.StatusOK, resource.NewPairingCode(pc))
}
