package pills

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// MatchThreshold es la distancia normalizada máxima aceptada (0 = idéntico, 1 = nada en común).
const MatchThreshold = 0.3

type scored struct {
	pill  Pill
	tier  int // 0: subsecuencia, 1: distancia de edición
	score float64
}

// score evalúa query contra el nombre de la pill. ok=false si no alcanza el umbral.
func score(query string, p Pill) (scored, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	name := strings.ToLower(strings.TrimSpace(p.Name))
	if q == "" || name == "" {
		return scored{}, false
	}

	if rank := fuzzy.RankMatchNormalizedFold(q, name); rank >= 0 {
		return scored{pill: p, tier: 0, score: float64(rank) / float64(utf8.RuneCountInString(name))}, true
	}

	// Errores de tipeo: contra el nombre completo y contra cada palabra.
	best := normalizedDistance(q, name)
	for _, word := range strings.Fields(name) {
		if d := normalizedDistance(q, word); d < best {
			best = d
		}
	}
	if best <= MatchThreshold {
		return scored{pill: p, tier: 1, score: best}, true
	}
	return scored{}, false
}

func normalizedDistance(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	return float64(fuzzy.LevenshteinDistance(a, b)) / float64(longest)
}

// Rank filtra y ordena las pills por parecido con query, mejor primero.
func Rank(query string, items []Pill) []Pill {
	matches := make([]scored, 0)
	for _, p := range items {
		if s, ok := score(query, p); ok {
			matches = append(matches, s)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].tier != matches[j].tier {
			return matches[i].tier < matches[j].tier
		}
		if matches[i].score != matches[j].score {
			return matches[i].score < matches[j].score
		}
		return matches[i].pill.Name < matches[j].pill.Name
	})

	out := make([]Pill, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.pill)
	}
	return out
}
