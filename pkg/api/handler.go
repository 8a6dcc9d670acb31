package api

import (
	"net/http"

	"github.com/labstack/echo"
	"github.com/nats-io/nats.go"
	"github.com/nsyszr/toybroker/pkg/controller"
	"github.com/nsyszr/toybroker/pkg/intent"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Handler contains all properties to serve the API
type Handler struct {
	nc   *nats.Conn
	ctrl *controller.Controller
}

// NewHandler create a new API handler. The realtime event stream is only
// served when nc is set.
func NewHandler(nc *nats.Conn, ctrl *controller.Controller) *Handler {
	return &Handler{
		nc:   nc,
		ctrl: ctrl,
	}
}

// RegisterRoutes attaches the handlers to the echo web server
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	log.Debug("Register API routes")
	api := e.Group("/api/v1")

	cmds := api.Group("/commands")
	cmds.POST("/vibrate", h.handleFunction(intent.AxisVibrate))
	cmds.POST("/rotate", h.handleFunction(intent.AxisRotate))
	cmds.POST("/pump", h.handleFunction(intent.AxisPump))
	cmds.POST("/multi", h.handleMultiFunction)
	cmds.POST("/pattern", h.handlePattern)
	cmds.POST("/preset", h.handlePreset)
	cmds.POST("/stop", h.handleStop)

	api.GET("/users", h.handleFetchUsers)
	api.GET("/users/:uid/toys", h.handleFetchToys)

	api.POST("/qrcode", h.handleCreatePairingCode)
	api.GET("/qrcode", h.handleGetPairingCode)

	api.Any("/realtime-events", h.realtimeEventsHandler())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", h.handleHealth)
}

func (h *Handler) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
