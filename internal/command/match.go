package command

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const defaultThreshold = 0.82

// matcher scores an utterance against a command phrase. A phrase matches when
// it is phonetically related to the utterance (shared Double Metaphone codes)
// and the Jaro-Winkler similarity clears the threshold. Without any phonetic
// overlap the similarity alone must clear a stricter bar, guarding against
// coincidental near-spellings of unrelated words.
type matcher struct {
	threshold float64
}

func newMatcher() *matcher {
	return &matcher{threshold: defaultThreshold}
}

func (m *matcher) match(utterance, phrase string) (float64, bool) {
	uLower := strings.ToLower(strings.TrimSpace(utterance))
	pLower := strings.ToLower(strings.TrimSpace(phrase))
	if uLower == "" || pLower == "" {
		return 0, false
	}

	uTokens := strings.Fields(uLower)
	pTokens := strings.Fields(pLower)

	score := bestSimilarity(uTokens, pTokens, uLower, pLower)

	if codesOverlap(codesForTokens(uTokens), codesForTokens(pTokens)) {
		return score, score >= m.threshold
	}
	// No phonetic relation: demand near-identity.
	strict := m.threshold + (1-m.threshold)/2
	return score, score >= strict
}

// codesForTokens returns the union of all Double Metaphone codes for the
// given tokens. Empty codes (produced when a word is too short or has no
// consonants) are excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap returns true if the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestSimilarity computes the highest Jaro-Winkler similarity between the
// utterance and the phrase using three strategies:
//
//  1. Full-string comparison ("stop lissening" vs "stop listening").
//  2. Space-stripped comparison, which absorbs word-boundary errors the
//     recognizer introduces.
//  3. Mean pairwise alignment — each phrase token scored against its best
//     utterance token, so extra filler words cost little.
func bestSimilarity(uTokens, pTokens []string, uFull, pFull string) float64 {
	score := matchr.JaroWinkler(uFull, pFull, false)

	if len(uTokens) > 1 || len(pTokens) > 1 {
		concat1 := strings.Join(uTokens, "")
		concat2 := strings.Join(pTokens, "")
		if s := matchr.JaroWinkler(concat1, concat2, false); s > score {
			score = s
		}
	}

	if len(pTokens) > 0 {
		var sum float64
		for _, pt := range pTokens {
			var best float64
			for _, ut := range uTokens {
				if s := matchr.JaroWinkler(ut, pt, false); s > best {
					best = s
				}
			}
			sum += best
		}
		if s := sum / float64(len(pTokens)); s > score {
			score = s
		}
	}

	return score
}
