// Package levenshtein computes edit distances and suggests the closest
// known word for a mistyped one.
package levenshtein

// Context reuses its row buffer across Distance calls. It is not safe for
// concurrent use.
type Context struct {
	row []int
}

// Distance returns the minimum number of single-rune insertions, deletions
// and substitutions that turn a into b.
func (ctx *Context) Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}

	if len(rb) == 0 {
		return len(ra)
	}

	if cap(ctx.row) < len(rb)+1 {
		ctx.row = make([]int, len(rb)+1)
	}

	row := ctx.row[:len(rb)+1]
	for idx := range row {
		row[idx] = idx
	}

	for i, ca := range ra {
		diag := row[0]
		row[0] = i + 1

		for j, cb := range rb {
			cost := 1
			if ca == cb {
				cost = 0
			}

			above := row[j+1]
			row[j+1] = min(above+1, row[j]+1, diag+cost)
			diag = above
		}
	}

	return row[len(rb)]
}

// Distance is a convenience wrapper around a fresh Context.
func Distance(a, b string) int {
	var ctx Context

	return ctx.Distance(a, b)
}

// Closest returns the candidate nearest to word, provided it is within
// maxDistance edits. Ties go to the earlier candidate. An exact match is
// never a suggestion.
func Closest(word string, candidates []string, maxDistance int) (string, bool) {
	var ctx Context

	best, bestDist := "", maxDistance+1

	for _, candidate := range candidates {
		if candidate == word {
			continue
		}

		dist := ctx.Distance(word, candidate)
		if dist < bestDist {
			best, bestDist = candidate, dist
		}
	}

	return best, best != ""
}

// Suggest formats a "did you mean" hint for word, or returns "" when no
// candidate is close enough. The threshold grows with the word length.
func Suggest(word string, candidates []string) string {
	limit := max(1, len(word)/3)

	closest, ok := Closest(word, candidates, limit)
	if !ok {
		return ""
	}

	return " (did you mean " + `"` + closest + `"` + "?)"
}
