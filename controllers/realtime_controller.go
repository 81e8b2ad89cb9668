package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"leadcatcher/middleware"
	"leadcatcher/realtime"
	"leadcatcher/utils"
)

type RealtimeController struct {
	Hub    *realtime.Hub
	Logger *logrus.Entry
}

func NewRealtimeController(hub *realtime.Hub, logger *logrus.Entry) *RealtimeController {
	return &RealtimeController{
		Hub:    hub,
		Logger: logger,
	}
}

// Upgrade only lets websocket handshakes through to Stream.
func (rc *RealtimeController) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return utils.ErrorResponse(c, &fiber.Error{Code: fiber.StatusUpgradeRequired, Message: "Websocket upgrade required"})
	}
	return c.Next()
}

// Stream pushes the agency's events to one dashboard client. Incoming
// messages are read only to notice the client going away.
func (rc *RealtimeController) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		defer conn.Close()

		actor, err := middleware.ActorFrom(conn.Locals(middleware.LocalActor))
		if err != nil {
			rc.Logger.WithError(err).Warn("Realtime connection without actor")
			return
		}

		sub := rc.Hub.Subscribe(actor.AgencyID)
		defer sub.Close()

		log := rc.Logger.WithFields(logrus.Fields{
			"user_id":   actor.UserID,
			"agency_id": actor.AgencyID,
		})
		log.Info("Realtime client connected")

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-closed:
				log.Info("Realtime client disconnected")
				return
			case frame, ok := <-sub.C:
				if !ok {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					log.WithError(err).Debug("Realtime write failed")
					return
				}
			}
		}
	})
}
