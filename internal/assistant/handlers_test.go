package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
)

func testValidator(userID, username string) TokenValidator {
	return func(_ context.Context, token string) (string, string, error) {
		if token != "good-token" {
			return "", "", errors.New("invalid token")
		}
		return userID, username, nil
	}
}

func TestChatRejectsBadToken(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/ws"), NewHub(nil), NewResponder(nil), testValidator("u1", "ana"))

	req := httptest.NewRequest(http.MethodGet, "/ws/chat/u1/?token=bad", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token")
	}
}

func TestChatRejectsMismatchedUser(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/ws"), NewHub(nil), NewResponder(nil), testValidator("u1", "ana"))

	req := httptest.NewRequest(http.MethodGet, "/ws/chat/someone-else/?token=good-token", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for mismatched user")
	}
}

func TestChatEchoAndAssistantReply(t *testing.T) {
	hub := NewHub(nil)
	app := fiber.New()
	RegisterRoutes(app.Group("/ws"), hub, NewResponder(nil), testValidator("u1", "ana"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	defer ln.Close()

	go func() {
		_ = app.Listener(ln)
	}()
	defer func() { _ = app.Shutdown() }()

	wsURL := "ws://" + ln.Addr().String() + "/ws/chat/u1/?token=good-token"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	out, _ := json.Marshal(Frame{Message: "olá"})
	if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
		t.Fatalf("write error: %v", err)
	}

	// Expect the user echo first, then the assistant reply.
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var echo Frame
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read echo: %v", err)
	}
	if err := json.Unmarshal(raw, &echo); err != nil || echo.User != "ana" || echo.Message != "olá" {
		t.Fatalf("unexpected echo frame: %s", raw)
	}

	var reply Frame
	_, raw, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if err := json.Unmarshal(raw, &reply); err != nil || reply.User != AssistantSender {
		t.Fatalf("unexpected assistant frame: %s", raw)
	}
	if reply.Message == "" {
		t.Fatalf("expected a reply body")
	}
}

func TestChatIgnoresMalformedFrames(t *testing.T) {
	hub := NewHub(nil)
	app := fiber.New()
	RegisterRoutes(app.Group("/ws"), hub, NewResponder(nil), testValidator("u1", "ana"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	defer ln.Close()

	go func() {
		_ = app.Listener(ln)
	}()
	defer func() { _ = app.Shutdown() }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/chat/u1/?token=good-token", nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not-json")); err != nil {
		t.Fatalf("write error: %v", err)
	}

	// A malformed frame produces no broadcast; a valid one still works after.
	out, _ := json.Marshal(Frame{Message: "oi"})
	if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
		t.Fatalf("write error: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Message != "oi" {
		t.Fatalf("expected echo of the valid frame, got %s", raw)
	}
}
