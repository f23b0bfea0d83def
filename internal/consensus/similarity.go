package consensus

import (
	"strings"
	"unicode"
)

// Similarity computes a case-insensitive sequence-similarity ratio in [0,1]
// between two strings. The base is the Ratcliff–Obershelp ratio (twice the
// total length of the longest common matching blocks over the combined
// length, as difflib.SequenceMatcher reports with no junk heuristic). The
// result is the larger of that and the containment score matched/min(len):
// a short canonical phrasing and its elaborated form ("Age >= 18 years" /
// "Age 18 years or older") are the same criterion and must deduplicate.
// Containment is skipped when exactly one side carries a negation marker:
// "No prior therapy" is a substring-shaped opposite of "Prior therapy with
// drug X", not a duplicate. Used for near-duplicate detection, not ranking.
func Similarity(a, b string) float64 {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	ar := []rune(la)
	br := []rune(lb)
	total := len(ar) + len(br)
	if total == 0 {
		return 1
	}
	if len(ar) == 0 || len(br) == 0 {
		return 0
	}
	matched := matchingTotal(ar, br, 0, len(ar), 0, len(br))
	ratio := 2 * float64(matched) / float64(total)
	if hasNegation(la) != hasNegation(lb) {
		return ratio
	}
	containment := float64(matched) / float64(min(len(ar), len(br)))
	return max(ratio, containment)
}

// negationMarkers are words that flip a criterion's sense.
var negationMarkers = map[string]struct{}{
	"no":      {},
	"not":     {},
	"non":     {},
	"without": {},
	"never":   {},
	"absence": {},
	"except":  {},
}

func hasNegation(lower string) bool {
	words := strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, w := range words {
		if _, ok := negationMarkers[w]; ok {
			return true
		}
	}
	return false
}

// matchingTotal sums the lengths of matching blocks by recursively splitting
// around the longest match in each region.
func matchingTotal(a, b []rune, alo, ahi, blo, bhi int) int {
	i, j, size := longestMatch(a, b, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}
	return size +
		matchingTotal(a, b, alo, i, blo, j) +
		matchingTotal(a, b, i+size, ahi, j+size, bhi)
}

// longestMatch finds the longest matching block of a[alo:ahi] in b[blo:bhi],
// preferring the earliest such block on ties.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo

	// j2len[j] = length of the longest match ending at a[i-1], b[j-1]
	j2len := make(map[int]int, bhi-blo)
	for i := alo; i < ahi; i++ {
		next := make(map[int]int, bhi-blo)
		for j := blo; j < bhi; j++ {
			if a[i] != b[j] {
				continue
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestsize
}
