package extractors

import (
	"regexp"
	"strings"
)

// Words of two or more letters or digits.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokens lowercases text and returns its non-stop-word tokens in order.
func Tokens(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Candidates returns the distinct n-grams of 1..maxNgram tokens in first-seen
// order. Stop words are removed before n-grams are formed, so "prices were too
// high" yields "prices", "high" and "prices high".
func Candidates(text string, maxNgram int) []string {
	if maxNgram < 1 {
		maxNgram = 1
	}
	tokens := Tokens(text)
	seen := make(map[string]struct{}, len(tokens)*maxNgram)
	out := make([]string, 0, len(tokens)*maxNgram)
	for n := 1; n <= maxNgram; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			gram := strings.Join(tokens[i:i+n], " ")
			if _, dup := seen[gram]; dup {
				continue
			}
			seen[gram] = struct{}{}
			out = append(out, gram)
		}
	}
	return out
}
