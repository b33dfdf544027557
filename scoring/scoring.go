// Package scoring holds the lead-qualification heuristics. Everything here
// is pure string logic so handlers and tests can call it directly.
package scoring

import (
	"strings"
	"unicode/utf8"
)

// MaxScore caps the additive lead score.
const MaxScore = 100

var highIntentPhrases = []string{
	"buy now", "sign up", "contact sales", "schedule demo", "get started",
	"purchase", "order", "talk to sales", "interested in buying", "ready to buy",
}

// IsHighIntent reports whether the message contains any of the fixed
// purchase-readiness phrases, case-insensitively.
func IsHighIntent(message string) bool {
	m := strings.ToLower(message)
	for _, p := range highIntentPhrases {
		if strings.Contains(m, p) {
			return true
		}
	}
	return false
}

// ScoreLead computes the 0-100 sales-readiness score for a captured lead.
// Bonuses are additive and the total is capped at MaxScore.
func ScoreLead(message, name, email, phone string) int {
	m := strings.ToLower(message)
	score := 0
	// Length is measured in characters, not bytes, so multi-byte text
	// does not reach the bonus early.
	if utf8.RuneCountInString(message) > 30 {
		score += 15
	}
	if strings.Contains(m, "price") {
		score += 20
	}
	if strings.Contains(m, "buy") || strings.Contains(m, "purchase") {
		score += 30
	}
	if name != "" {
		score += 10
	}
	if email != "" {
		score += 15
	}
	if phone != "" {
		score += 20
	}
	if IsHighIntent(message) {
		score += 40
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
