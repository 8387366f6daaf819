// Package scoring turns filename and content evidence into folder confidence.
package scoring

import (
	"math"

	"github.com/Veraticus/stow/internal/model"
	"github.com/agnivade/levenshtein"
)

// Blend weights and floors used by Combine.
const (
	TokenWeight   = 0.4
	FuzzyWeight   = 0.3
	ContentWeight = 0.3

	// ObviousFuzzy and ObviousToken gate the near-identical name floor.
	ObviousFuzzy = 0.9
	ObviousToken = 0.5
	ObviousFloor = 0.75

	// FuzzyDamping discounts fuzzy evidence relative to exact token coverage.
	FuzzyDamping = 0.7
)

// Token scores token overlap between a and b. The result is the larger of the
// Jaccard index and the fraction of b's tokens present in a, so a folder name
// fully contained in a noisy filename still scores 1.
func Token(a, b string) float64 {
	as, bs := tokenSet(a), tokenSet(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}

	inter := 0
	for t := range bs {
		if _, ok := as[t]; ok {
			inter++
		}
	}
	union := len(as) + len(bs) - inter

	jaccard := float64(inter) / float64(union)
	coverage := float64(inter) / float64(len(bs))
	return math.Max(jaccard, coverage)
}

// Fuzzy is a partial-ratio similarity in [0,1]. The shorter string is slid
// across the longer one and the best normalized edit similarity wins. The same
// comparison over token-sorted forms makes reordered words match.
func Fuzzy(a, b string) float64 {
	direct := partialRatio(fold(a), fold(b))
	sorted := partialRatio(sortedTokens(a), sortedTokens(b))
	return math.Max(direct, sorted)
}

// Combined scores content-derived text against a folder name.
func Combined(text, folder string) float64 {
	return math.Max(Token(text, folder), Fuzzy(text, folder)*FuzzyDamping)
}

// Combine merges the evidence for one candidate into a confidence in [0,1].
// A positive memory score is authoritative and returned unchanged.
func Combine(s model.ScoreSet) float64 {
	if s.Memory > 0 {
		return s.Memory
	}

	combined := TokenWeight*s.Token + FuzzyWeight*s.Fuzzy + ContentWeight*s.Content

	if s.Fuzzy >= ObviousFuzzy && s.Token >= ObviousToken {
		combined = math.Max(combined, ObviousFloor)
	}

	weight := s.FileTypeWeight
	if weight <= 0 {
		weight = DefaultTypeWeight
	}
	typeFactor := 0.7 + 0.3*weight
	return math.Min(combined*typeFactor, 1.0)
}

func partialRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}

	s := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		r := ratio(s, string(long[i:i+len(short)]), len(short))
		if r > best {
			best = r
			if best == 1 {
				break
			}
		}
	}
	return best
}

func ratio(a, b string, n int) float64 {
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(n)
}
