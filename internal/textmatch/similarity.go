// Package textmatch provides the fuzzy string similarity used for TOC
// reconciliation and missing-chapter search: a longest-common-subsequence
// ratio over runes, normalized to [0,1]. The 0.6/0.8 thresholds used
// elsewhere in the pipeline are calibrated against this metric.
package textmatch

// Similarity returns 2*LCS(a,b) / (len(a)+len(b)) over runes.
// Two empty strings are considered identical.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	return 2.0 * float64(lcs(ra, rb)) / float64(len(ra)+len(rb))
}

// lcs computes the longest common subsequence length with a rolling row.
func lcs(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
