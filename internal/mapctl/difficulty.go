package mapctl

import "strings"

// Tier is the visual classification of a trail's difficulty.
type Tier string

const (
	TierEasy     Tier = "easy"
	TierModerate Tier = "moderate"
	TierHard     Tier = "hard"
	TierUnknown  Tier = "unknown"
)

// ClassifyDifficulty maps free-text difficulty to a tier by
// case-insensitive substring matching. The catalog mixes English and
// Portuguese labels, so both vocabularies are recognized; anything
// else falls back to the default tier. Easier vocabularies win when a
// label mentions several, so "moderadamente difícil" stays moderate.
func ClassifyDifficulty(difficulty string) Tier {
	d := strings.ToLower(difficulty)
	switch {
	case containsAny(d, "easy", "fácil", "facil"):
		return TierEasy
	case containsAny(d, "moderate", "moderado", "moderada", "médio", "medio"):
		return TierModerate
	case containsAny(d, "hard", "difícil", "dificil"):
		return TierHard
	default:
		return TierUnknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
