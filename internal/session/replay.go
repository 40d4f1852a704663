package session

import "strings"

// ReplayChunks splits text on single spaces into min(n, words) groups whose
// word counts differ by at most one, and returns the cumulative text after
// each group. Joining the words back with single spaces reproduces text, so
// the last element always equals text.
func ReplayChunks(text string, n int) []string {
	if n <= 0 {
		n = DefaultChunks
	}
	words := strings.Split(text, " ")
	groups := n
	if len(words) < groups {
		groups = len(words)
	}
	base, extra := len(words)/groups, len(words)%groups
	out := make([]string, 0, groups)
	end := 0
	for i := 0; i < groups; i++ {
		end += base
		if i < extra {
			end++
		}
		out = append(out, strings.Join(words[:end], " "))
	}
	return out
}
