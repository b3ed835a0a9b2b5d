package settings

import (
	"sort"
	"strings"

	"github.com/MrSnakeDoc/herald/internal/challenges"
	"github.com/MrSnakeDoc/herald/internal/feedback"
	"github.com/MrSnakeDoc/herald/internal/index"
)

// Defaults are the env-provided values the file overrides.
type Defaults struct {
	ChallengesContainer string
	FeedbackContainer   string
	Admins              []string
}

// Map merges the file over the defaults. Container ids set in the file win;
// admin lists are the union of both sources.
func Map(f File, d Defaults) index.Snapshot {
	s := index.Snapshot{
		Containers:      map[string]string{},
		Admins:          union(d.Admins, f.Admins),
		ContainerAdmins: map[string][]string{},
	}

	setContainer(s.Containers, challenges.Kind, d.ChallengesContainer, f.Containers.Challenges)
	setContainer(s.Containers, feedback.Kind, d.FeedbackContainer, f.Containers.Feedback)

	for id, keys := range f.ContainerAdmins {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if merged := union(s.ContainerAdmins[id], keys); len(merged) > 0 {
			s.ContainerAdmins[id] = merged
		}
	}
	return s
}

func setContainer(dst map[string]string, kind, def, override string) {
	if v := strings.TrimSpace(override); v != "" {
		dst[kind] = v
		return
	}
	if v := strings.TrimSpace(def); v != "" {
		dst[kind] = v
	}
}

func union(lists ...[]string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, l := range lists {
		for _, k := range l {
			k = strings.TrimSpace(k)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
