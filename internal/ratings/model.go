package ratings

import "github.com/MrSnakeDoc/herald/internal/collection"

const (
	// Kind names the store in logs and metrics.
	Kind = "ratings"

	keyPrefix = "herald.rating."
)

// PropertyKey returns the container property holding the ratings of ratingID.
func PropertyKey(ratingID string) string {
	return keyPrefix + collection.KeySegment(ratingID)
}

// Property is the stored value: user key → category → value.
type Property struct {
	RatingID string                    `json:"ratingId"`
	Votes    map[string]map[string]int `json:"votes"`
}

// Summary aggregates one category across users.
type Summary struct {
	Avg   float64 `json:"avg"`
	Count int     `json:"count"`
}

// Result carries the caller's own values and the per-category summaries.
type Result struct {
	Mine    map[string]int     `json:"mine"`
	Summary map[string]Summary `json:"summary"`
}

// UpsertRequest sets the caller's value for one category. A nil Value
// removes it.
type UpsertRequest struct {
	CatID string `json:"catId"`
	Value *int   `json:"value"`
}

func summarize(votes map[string]map[string]int) map[string]Summary {
	sums := map[string]int{}
	counts := map[string]int{}
	for _, cats := range votes {
		for cat, v := range cats {
			sums[cat] += v
			counts[cat]++
		}
	}
	out := make(map[string]Summary, len(sums))
	for cat, sum := range sums {
		c := counts[cat]
		out[cat] = Summary{Avg: float64(sum) / float64(c), Count: c}
	}
	return out
}

func result(votes map[string]map[string]int, userKey string) Result {
	mine := make(map[string]int, len(votes[userKey]))
	for cat, v := range votes[userKey] {
		mine[cat] = v
	}
	return Result{Mine: mine, Summary: summarize(votes)}
}
