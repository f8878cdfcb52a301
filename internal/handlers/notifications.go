package handlers

import (
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"

	"inkwell/internal/services"
)

// pingInterval keeps idle notification sockets alive through proxies
const pingInterval = 30 * time.Second

// NotificationHandler streams toast notifications over WebSocket
type NotificationHandler struct {
	notifier *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifier *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

// Handle serves one subscriber connection
// GET /ws/notifications
func (h *NotificationHandler) Handle(c *websocket.Conn) {
	id, ch := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(id)

	log.Printf("🔔 [NOTIFY-WS] Connection opened: %s", id)
	defer log.Printf("🔔 [NOTIFY-WS] Connection closed: %s", id)

	// Reader goroutine: we never expect client messages, but reading is
	// what surfaces the close frame
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("⚠️  [NOTIFY-WS] Read error on %s: %v", id, err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case n, ok := <-ch:
			if !ok {
				return
			}
			if err := c.WriteJSON(n); err != nil {
				log.Printf("⚠️  [NOTIFY-WS] Write failed on %s: %v", id, err)
				return
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
