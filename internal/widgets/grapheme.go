package widgets

import "github.com/rivo/uniseg"

// truncateGraphemes shortens s to at most n grapheme clusters, replacing the
// last kept cluster with "…" when anything is cut. Combined emoji and
// combining marks are never split.
func truncateGraphemes(s string, n int) string {
	if n <= 0 || uniseg.GraphemeClusterCount(s) <= n {
		return s
	}

	end := 0
	state := -1
	rest := s
	for i := 0; i < n-1 && len(rest) > 0; i++ {
		var cluster string
		cluster, rest, _, state = uniseg.StepString(rest, state)
		end += len(cluster)
	}
	return s[:end] + "…"
}
