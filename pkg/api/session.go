package api

import (
	"net/http"

	"github.com/labstack/echo"
	"github.com/nsyszr/toybroker/pkg/api/resource"
	"github.com/nsyszr/toybroker/pkg/proto"
	"github.com/nsyszr/toybroker/pkg/storage"
)

func (h *Handler) handleFetchUsers(c echo.Context) error {
	m, err := h.ctrl.Users()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, resource.NewError(err))
	}

	return c.JSON(http.StatusOK, resource.NewUserList(m))
}

func (h *Handler) handleFetchToys(c echo.Context) error {
	m, err := h.ctrl.Toys(c.Param("uid"))
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, resource.NewError(
			proto.NewValidationError("user_id", "user not connected, scan the QR code first")))
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, resource.NewError(err))
	}

	return c.JSON(http.StatusOK, resource.NewToyList(m))
}
