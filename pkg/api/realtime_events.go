package api

import (
	"encoding/json"
	"net/http"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/labstack/echo"
	"github.com/nats-io/nats.go"
	"github.com/nsyszr/toybroker/pkg/api/resource"
	"github.com/nsyszr/toybroker/pkg/events"
	"github.com/nsyszr/toybroker/pkg/proto"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) realtimeEventsHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.nc == nil {
			return c.JSON(http.StatusServiceUnavailable, resource.NewError(
				proto.NewConfigurationMissingError("realtime events require NATS")))
		}

		conn, _, _, err := ws.UpgradeHTTP(c.Request(), c.Response())
		if err != nil {
			log.Error("api: failed to upgrade to websocket: ", err)
			return nil
		}
		defer conn.Close()

		msgs := make(chan *nats.Msg, 64)
		sub, err := h.nc.ChanSubscribe(events.SubjectAll, msgs)
		if err != nil {
			log.Error("api: failed to subscribe to events: ", err)
			return nil
		}
		defer sub.Unsubscribe()

		// The client never sends anything but control frames, reading only
		// detects the close.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := wsutil.ReadClientData(conn); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-closed:
				return nil
			case msg := <-msgs:
				em := events.Message{}
				if err := json.Unmarshal(msg.Data, &em); err != nil {
					continue
				}

				var data interface{}
				if len(em.Details) > 0 {
					_ = json.Unmarshal(em.Details, &data)
				}

				event := resource.NewRealtimeEvent(events.TopicOf(msg.Subject), em.SourceID, em.Timestamp, data)
				out, _ := json.Marshal(event)
				if err := wsutil.WriteServerMessage(conn, ws.OpText, out); err != nil {
					log.Error("api: failed to send realtime event: ", err)
					return nil
				}
			}
		}
	}
}
