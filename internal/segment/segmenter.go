// Package segment splits review text into independent opinion fragments.
package segment

import (
	"iter"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/miradorstack/review-intel/internal/models"
)

// MinFragmentLength is the shortest trimmed fragment, in characters, that is kept.
const MinFragmentLength = 4

// Contrastive markers always start a new opinion. "and" only does when it opens
// a new clause, i.e. is followed by a determiner or subject pronoun; "delicious
// and full of flavor" stays one opinion while "great and the staff" splits.
var boundaryPattern = regexp.MustCompile(
	`(?i)([.,;!?]+)` +
		`|\b(but|however|although|though|whereas|yet)\b` +
		`|\b(and)\s+(?:the|my|our|their|his|her|its|it|they|we|i|he|she|you|this|that|these|those|there|a|an)\b`,
)

// Segment returns the normalized fragments of text in order. Fragments are
// lowercased and trimmed; Start and End are byte offsets of the fragment in the
// original text. Fragments shorter than MinFragmentLength are dropped, so a
// review can yield nothing.
func Segment(reviewID, text string) iter.Seq[models.OpinionFragment] {
	return func(yield func(models.OpinionFragment) bool) {
		ordinal := 0
		emit := func(start, end int) bool {
			start, end = trimSpan(text, start, end)
			if utf8.RuneCountInString(text[start:end]) < MinFragmentLength {
				return true
			}
			frag := models.OpinionFragment{
				ReviewID: reviewID,
				Ordinal:  ordinal,
				Text:     strings.ToLower(text[start:end]),
				Start:    start,
				End:      end,
			}
			ordinal++
			return yield(frag)
		}

		cursor := 0
		for _, m := range boundaryPattern.FindAllStringSubmatchIndex(text, -1) {
			cutStart, cutEnd := boundarySpan(m)
			if !emit(cursor, cutStart) {
				return
			}
			cursor = cutEnd
		}
		emit(cursor, len(text))
	}
}

// Fragments collects Segment into a slice.
func Fragments(reviewID, text string) []models.OpinionFragment {
	return slices.Collect(Segment(reviewID, text))
}

// boundarySpan picks the removed span out of a match. For the clause-opening
// "and" only the conjunction is removed; the following word stays with the
// next fragment.
func boundarySpan(m []int) (int, int) {
	for group := 1; group*2+1 < len(m); group++ {
		if m[group*2] >= 0 {
			return m[group*2], m[group*2+1]
		}
	}
	return m[0], m[1]
}

func trimSpan(text string, start, end int) (int, int) {
	for start < end {
		r, size := utf8.DecodeRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	return start, end
}
