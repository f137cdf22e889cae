package roster

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/crewmanifest/crewmanifest/internal/host"
)

// DefaultSuggestLimit bounds Suggest results when limit is not positive.
const DefaultSuggestLimit = 3

type scored struct {
	name  string
	score float64
}

// Suggest ranks roster names that nearly match name, best first. Exact
// case-insensitive matches and prefixes rank above edit-distance matches;
// candidates further away than the length-scaled limit are skipped.
func Suggest(r host.Roster, name string, limit int) []string {
	if r == nil {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}
	token := strings.ToLower(strings.TrimSpace(name))
	if token == "" {
		return nil
	}

	results := make([]scored, 0)
	for _, member := range r.Crew() {
		candidate := strings.ToLower(member.Name)
		score := 0.0
		switch {
		case token == candidate:
			score = 1.0
		case strings.HasPrefix(candidate, token) && len(token) >= 2:
			score = 0.9
		default:
			dist := levenshtein.ComputeDistance(token, candidate)
			if dist > distanceLimit(len(candidate)) {
				continue
			}
			score = 0.72 - (0.08 * float64(dist))
		}
		results = append(results, scored{name: member.Name, score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score == results[j].score {
			return results[i].name < results[j].name
		}
		return results[i].score > results[j].score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	out := make([]string, 0, len(results))
	for _, result := range results {
		out = append(out, result.name)
	}
	return out
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
