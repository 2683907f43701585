package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/aksaraymalaklisi/greentrail/internal/track"
)

// AssistantSender is the reserved user tag marking assistant-originated
// frames. Clients filter on it.
const AssistantSender = "chatbot"

// TrackFinder gives the responder read access to the trail catalog.
type TrackFinder interface {
	List(ctx context.Context, viewerID string, favoritedOnly bool) ([]track.Track, error)
}

// Responder produces the assistant side of the conversation with simple
// keyword rules over the catalog.
type Responder struct {
	tracks TrackFinder
}

func NewResponder(tracks TrackFinder) *Responder {
	return &Responder{tracks: tracks}
}

func (r *Responder) Reply(ctx context.Context, message string) string {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return "Não entendi. Pode repetir?"
	}

	for _, greeting := range []string{"oi", "olá", "ola", "hello", "hi", "bom dia", "boa tarde", "boa noite"} {
		if strings.HasPrefix(text, greeting) {
			return "Olá! Posso ajudar você a encontrar trilhas. Pergunte por nome ou dificuldade."
		}
	}

	if r.tracks != nil {
		if reply, ok := r.catalogReply(ctx, text); ok {
			return reply
		}
	}

	return "Posso ajudar com as trilhas do Green Trail: tente perguntar por uma trilha pelo nome, ou por trilhas fáceis, moderadas ou difíceis."
}

func (r *Responder) catalogReply(ctx context.Context, text string) (string, bool) {
	tracks, err := r.tracks.List(ctx, "", false)
	if err != nil || len(tracks) == 0 {
		return "", false
	}

	var matches []track.Track
	for _, t := range tracks {
		if strings.Contains(strings.ToLower(t.Label), text) ||
			strings.Contains(text, strings.ToLower(t.Label)) ||
			(t.Difficulty != "" && strings.Contains(text, strings.ToLower(t.Difficulty))) {
			matches = append(matches, t)
		}
	}
	if len(matches) == 0 {
		return "", false
	}

	if len(matches) == 1 {
		t := matches[0]
		return fmt.Sprintf("**%s**: %s (%.0fm, ~%.0fmin, dificuldade %s)",
			t.Label, t.Description, t.Distance, t.Duration, orUnknown(t.Difficulty)), true
	}

	names := make([]string, 0, len(matches))
	for _, t := range matches {
		names = append(names, t.Label)
	}
	return "Encontrei estas trilhas: " + strings.Join(names, ", "), true
}

func orUnknown(s string) string {
	if s == "" {
		return "desconhecida"
	}
	return s
}
