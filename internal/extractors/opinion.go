package extractors

import "strings"

// Evaluative predicates the lexicon leaves neutral but which describe an
// aspect rather than name it.
var predicates = map[string]struct{}{
	"full": {}, "high": {}, "low": {}, "long": {}, "short": {}, "big": {}, "small": {},
	"little": {}, "loud": {}, "quiet": {}, "salty": {}, "sweet": {}, "spicy": {}, "hot": {},
	"warm": {}, "ok": {}, "okay": {}, "fine": {}, "pricey": {}, "costly": {}, "decent": {},
}

// OpinionTokens returns the lowercased words of text that carry or modify
// sentiment: lexicon valences, boosters, negators, evaluative predicates and
// any word following "too".
func OpinionTokens(text string) map[string]struct{} {
	words := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := make(map[string]struct{})
	for i, w := range words {
		if isOpinionWord(w) || (i > 0 && words[i-1] == "too") {
			out[w] = struct{}{}
		}
	}
	return out
}

func isOpinionWord(w string) bool {
	if _, ok := valence[w]; ok {
		return true
	}
	if _, ok := boosters[w]; ok {
		return true
	}
	if _, ok := negators[w]; ok {
		return true
	}
	_, ok := predicates[w]
	return ok
}

// judges reports whether any word of phrase is an opinion word of its text.
func judges(phrase string, opinions map[string]struct{}) bool {
	for _, w := range strings.Fields(phrase) {
		if _, ok := opinions[strings.ToLower(w)]; ok {
			return true
		}
	}
	return false
}
