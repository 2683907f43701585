package assistant

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Frame is the wire shape in both directions: clients send {message}, the
// hub broadcasts {user, message}.
type Frame struct {
	User    string `json:"user,omitempty"`
	Message string `json:"message"`
}

// TokenValidator resolves an access token to the identity it belongs to.
type TokenValidator func(ctx context.Context, token string) (userID, username string, err error)

func RegisterRoutes(r fiber.Router, hub *Hub, responder *Responder, validate TokenValidator) {
	r.Get("/chat/:userID/", func(c *fiber.Ctx) error {
		userID, username, err := validate(c.Context(), c.Query("token"))
		if err != nil || userID != c.Params("userID") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		c.Locals("user_id", userID)
		c.Locals("username", username)
		return c.Next()
	}, websocket.New(func(c *websocket.Conn) {
		userID := c.Locals("user_id").(string)
		username := c.Locals("username").(string)

		client := hub.Register(userID)
		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var in Frame
			if err := json.Unmarshal(raw, &in); err != nil || in.Message == "" {
				continue
			}

			echo, _ := json.Marshal(Frame{User: username, Message: in.Message})
			hub.Broadcast(userID, echo)

			go func(message string) {
				reply := responder.Reply(context.Background(), message)
				payload, _ := json.Marshal(Frame{User: AssistantSender, Message: reply})
				hub.Broadcast(userID, payload)
			}(in.Message)
		}

		// Closing Send lets the write pump drain and exit.
		hub.Unregister(client)
		<-done
	}))
}
