package game

import (
	"math/rand"
	"strings"

	"turing-backend/internal/models"
)

// SelectRound draws the items for one round: filter by condition (empty
// means all topics), keep only eligible items, shuffle, truncate to count.
// A pool smaller than count yields a short round, not an error; a count of
// zero or less selects nothing.
//
// Pure over its inputs plus the rng; replays are not reproducible by design.
func SelectRound(pool []models.ContentItem, condition string, count int, rng *rand.Rand) []models.ContentItem {
	if count <= 0 {
		return nil
	}
	condition = strings.TrimSpace(condition)

	filtered := make([]models.ContentItem, 0, len(pool))
	for _, item := range pool {
		if !item.Eligible() {
			continue
		}
		if condition != "" && strings.TrimSpace(item.Condition) != condition {
			continue
		}
		filtered = append(filtered, item)
	}

	rng.Shuffle(len(filtered), func(i, j int) {
		filtered[i], filtered[j] = filtered[j], filtered[i]
	})

	if count < len(filtered) {
		filtered = filtered[:count]
	}
	return filtered
}

// Conditions returns the distinct playable topics in the pool, in first-seen
// order. Items missing a condition are grouped under "Uncategorized".
func Conditions(pool []models.ContentItem) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range pool {
		if !item.Eligible() {
			continue
		}
		cond := strings.TrimSpace(item.Condition)
		if cond == "" {
			cond = "Uncategorized"
		}
		if !seen[cond] {
			seen[cond] = true
			out = append(out, cond)
		}
	}
	return out
}
