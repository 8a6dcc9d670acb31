package devicecontrol

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo"
	"github.com/nsyszr/toybroker/pkg/events"
	"github.com/nsyszr/toybroker/pkg/metrics"
	"github.com/nsyszr/toybroker/pkg/proto"
	"github.com/nsyszr/toybroker/pkg/storage"
	log "github.com/sirupsen/logrus"
)

const maxCallbackSize = 1 << 20

// Handler receives the vendor callbacks and keeps the session registry up
// to date.
type Handler struct {
	sessions   storage.SessionStore
	events     events.Publisher
	defaultUID string
	now        func() time.Time
}

// NewHandler create a new callback handler
func NewHandler(sessions storage.SessionStore, pub events.Publisher, defaultUID string) *Handler {
	if pub == nil {
		pub = events.Noop()
	}
	return &Handler{
		sessions:   sessions,
		events:     pub,
		defaultUID: defaultUID,
		now:        time.Now,
	}
}

// RegisterRoutes attaches the handlers to the echo web server
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	log.Debug("Register callback routes")
	g := e.Group("/lovense")
	g.POST("/callback", h.handleCallback)
}

func (h *Handler) handleCallback(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxCallbackSize))
	if err != nil {
		metrics.CallbacksTotal.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusBadRequest, &CallbackReply{Result: false, Message: err.Error()})
	}

	m, err := ParseCallback(body, h.defaultUID, h.now())
	if err != nil {
		metrics.CallbacksTotal.WithLabelValues("rejected").Inc()
		log.WithFields(log.Fields{"remote_ip": c.RealIP()}).Errorf("Callback rejected: %s", proto.MessageOf(err))
		return c.JSON(http.StatusBadRequest, &CallbackReply{Result: false, Message: proto.MessageOf(err)})
	}

	if err := h.sessions.Upsert(m); err != nil {
		metrics.CallbacksTotal.WithLabelValues("failed").Inc()
		log.WithFields(log.Fields{"uid": m.UID}).Errorf("Failed to store session: %s", err)
		return c.JSON(http.StatusInternalServerError, &CallbackReply{Result: false, Message: err.Error()})
	}

	metrics.CallbacksTotal.WithLabelValues("accepted").Inc()
	log.WithFields(log.Fields{
		"uid":      m.UID,
		"platform": m.Platform,
		"domain":   m.Domain,
		"toys":     len(m.Toys),
	}).Info("User connected")

	if err := h.events.PublishSession(m); err != nil {
		log.WithFields(log.Fields{"uid": m.UID}).Warnf("Failed to publish session event: %s", err)
	}

	return c.JSON(http.StatusOK, &CallbackReply{Result: true, Message: "OK"})
}
