package controllers

import (
	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/gilanghuda/weekly-report-backend/pkg/utils"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

// NotificationController keeps one websocket per browser tab open so review
// outcomes can be pushed to the report owner.
type NotificationController struct {
	Notifier *utils.Notifier
	Log      *logrus.Logger
}

func (n *NotificationController) Handle(c *websocket.Conn) {
	identity, ok := c.Locals("identity").(models.Identity)
	if !ok || !identity.Authenticated {
		_ = c.WriteJSON(map[string]string{"error": "Missing or invalid token"})
		_ = c.Close()
		return
	}

	client := n.Notifier.Register(identity.UserID, c)
	defer n.Notifier.Unregister(identity.UserID, client)

	_ = client.WriteJSON(map[string]interface{}{"event": "connected", "user_id": identity.UserID})

	for {
		mt, msg, err := c.ReadMessage()
		if err != nil {
			n.Log.WithError(err).WithField("user", identity.UserID).Debug("websocket closed")
			return
		}
		if mt == websocket.TextMessage && string(msg) == "ping" {
			if err := client.WriteMessage(websocket.TextMessage, []byte("pong")); err != nil {
				return
			}
		}
	}
}
