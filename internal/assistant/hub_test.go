package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("user-1")
	defer hub.Unregister(client)

	hub.Broadcast("user-1", []byte("hello"))

	select {
	case msg := <-client.Send:
		if string(msg) != "hello" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubBroadcastScopedToUser(t *testing.T) {
	hub := NewHub(nil)
	ana := hub.Register("user-ana")
	bruno := hub.Register("user-bruno")
	defer hub.Unregister(ana)
	defer hub.Unregister(bruno)

	hub.Broadcast("user-ana", []byte("private"))

	select {
	case <-ana.Send:
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}

	select {
	case <-bruno.Send:
		t.Fatalf("message leaked to another user")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch == "" {
		t.Fatalf("expected channel")
	}
	if userIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected user id")
	}
	if userIDFromChannel("bad") != "" {
		t.Fatalf("expected empty user id")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("user-2")
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisFanOutBetweenInstances(t *testing.T) {
	s := miniredis.RunT(t)
	clientA := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer clientA.Close()
	clientB := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer clientB.Close()

	hubA := NewHub(clientA)
	hubB := NewHub(clientB)

	local := hubA.Register("user-redis")
	defer hubA.Unregister(local)
	remote := hubB.Register("user-redis")
	defer hubB.Unregister(remote)

	// Let both pattern subscriptions settle before publishing.
	time.Sleep(50 * time.Millisecond)

	hubA.Broadcast("user-redis", []byte("ping"))

	select {
	case msg := <-remote.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message on other instance: %q", msg)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for cross-instance frame")
	}

	select {
	case msg := <-local.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected local message: %q", msg)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for local frame")
	}

	// The publishing instance must not see its own frame again.
	select {
	case msg := <-local.Send:
		t.Fatalf("frame delivered twice on publishing instance: %q", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubRedisIgnoresMalformedFanOut(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("user-redis")
	defer hub.Unregister(ws)

	time.Sleep(50 * time.Millisecond)
	if err := client.Publish(context.Background(), redisChannel("user-redis"), "not-json").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	select {
	case msg := <-ws.Send:
		t.Fatalf("malformed frame delivered: %q", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubRedisPublishError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	node := hub.Register("user-bad")
	defer hub.Unregister(node)

	hub.Broadcast("user-bad", []byte("ping"))
}
