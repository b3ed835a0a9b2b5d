package votes

import (
	"strings"

	"github.com/MrSnakeDoc/herald/internal/collection"
)

const (
	// Kind names the store in logs and metrics.
	Kind = "votes"

	keyPrefix = "herald.vote."

	Up   = "up"
	Down = "down"
)

// PropertyKey returns the container property holding the votes of voteID.
func PropertyKey(voteID string) string {
	return keyPrefix + collection.KeySegment(voteID)
}

// Property is the stored value: one direction per user key.
type Property struct {
	VoteID string            `json:"voteId"`
	Votes  map[string]string `json:"votes"`
}

type Summary struct {
	Up     int `json:"up"`
	Down   int `json:"down"`
	Voters int `json:"voters"`
	Score  int `json:"score"`
}

// Result is what callers see: their own direction, if any, and the totals.
type Result struct {
	Mine    *string `json:"mine"`
	Summary Summary `json:"summary"`
}

// UpsertRequest sets the caller's direction. A nil or blank Dir removes it.
type UpsertRequest struct {
	Dir *string `json:"dir"`
}

// ParseDirection normalises a direction. ok is false for unknown values.
func ParseDirection(raw string) (string, bool) {
	switch d := strings.ToLower(strings.TrimSpace(raw)); d {
	case Up, Down:
		return d, true
	default:
		return "", false
	}
}

func summarize(votes map[string]string) Summary {
	var s Summary
	for _, d := range votes {
		switch d {
		case Up:
			s.Up++
		case Down:
			s.Down++
		}
	}
	s.Voters = len(votes)
	s.Score = s.Up - s.Down
	return s
}

func result(votes map[string]string, userKey string) Result {
	r := Result{Summary: summarize(votes)}
	if d, ok := votes[userKey]; ok {
		r.Mine = &d
	}
	return r
}
