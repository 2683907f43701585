package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aksaraymalaklisi/greentrail/internal/track"
)

type fakeFinder struct {
	tracks []track.Track
	err    error
}

func (f *fakeFinder) List(_ context.Context, _ string, _ bool) ([]track.Track, error) {
	return f.tracks, f.err
}

func TestResponderGreeting(t *testing.T) {
	r := NewResponder(nil)
	reply := r.Reply(context.Background(), "Olá!")
	if !strings.Contains(reply, "trilhas") {
		t.Fatalf("unexpected greeting reply: %s", reply)
	}
}

func TestResponderSingleTrackMatch(t *testing.T) {
	r := NewResponder(&fakeFinder{tracks: []track.Track{
		{Label: "Pedra do Elefante", Description: "vista para a lagoa", Distance: 4200, Duration: 150, Difficulty: "Moderado"},
		{Label: "Caminho da Cachoeira", Difficulty: "Fácil"},
	}})

	reply := r.Reply(context.Background(), "me fale sobre a pedra do elefante")
	if !strings.Contains(reply, "Pedra do Elefante") || !strings.Contains(reply, "4200") {
		t.Fatalf("unexpected reply: %s", reply)
	}
}

func TestResponderDifficultyMatchLists(t *testing.T) {
	r := NewResponder(&fakeFinder{tracks: []track.Track{
		{Label: "Trilha A", Difficulty: "Fácil"},
		{Label: "Trilha B", Difficulty: "Fácil"},
	}})

	reply := r.Reply(context.Background(), "quero uma trilha fácil")
	if !strings.Contains(reply, "Trilha A") || !strings.Contains(reply, "Trilha B") {
		t.Fatalf("expected both tracks listed: %s", reply)
	}
}

func TestResponderFallback(t *testing.T) {
	r := NewResponder(&fakeFinder{err: errors.New("db down")})
	reply := r.Reply(context.Background(), "qual a previsão do tempo?")
	if !strings.Contains(reply, "Green Trail") {
		t.Fatalf("expected fallback: %s", reply)
	}
}

func TestResponderEmptyMessage(t *testing.T) {
	r := NewResponder(nil)
	if reply := r.Reply(context.Background(), "   "); !strings.Contains(reply, "repetir") {
		t.Fatalf("unexpected reply: %s", reply)
	}
}
