package extractors

import (
	"context"
	"math"
	"regexp"
	"strings"
)

// Valences on a -4..4 scale, tuned for restaurant and retail reviews.
var valence = map[string]float64{
	// Positive
	"good": 1.9, "great": 3.1, "excellent": 3.2, "amazing": 2.8, "awesome": 3.1,
	"delicious": 2.7, "tasty": 2.2, "yummy": 2.4, "flavorful": 2.0, "fresh": 1.3,
	"friendly": 2.2, "polite": 1.9, "helpful": 1.9, "attentive": 1.8, "welcoming": 1.9,
	"cozy": 1.9, "clean": 1.7, "neat": 1.6, "lovely": 2.8, "nice": 1.8, "pleasant": 2.3,
	"perfect": 2.7, "fantastic": 2.6, "wonderful": 2.7, "best": 3.2, "love": 3.2,
	"loved": 2.9, "enjoyed": 2.3, "enjoy": 2.2, "recommend": 1.5, "happy": 2.7,
	"affordable": 1.2, "reasonable": 1.1, "value": 0.8, "quick": 1.0, "fast": 1.0,
	"huge": 0.8, "generous": 2.3, "special": 1.7, "beautiful": 2.9, "comfortable": 1.8,
	"impressive": 2.3, "satisfied": 1.9, "worth": 1.1, "outstanding": 3.0, "superb": 3.1,
	// Negative
	"bad": -2.5, "terrible": -2.9, "awful": -2.9, "horrible": -2.9, "worst": -3.1,
	"poor": -2.1, "rude": -2.0, "slow": -1.4, "cold": -1.0, "tasteless": -1.8,
	"bland": -1.5, "burnt": -1.6, "stale": -1.7, "soggy": -1.4, "greasy": -1.1,
	"cheap": -0.5, "dirty": -1.9, "unpleasant": -2.1, "noisy": -1.3, "cramped": -1.2,
	"overpriced": -1.9, "expensive": -0.9, "missing": -1.2, "messed": -1.4, "wrong": -2.1,
	"ignored": -1.3, "disappointing": -2.2, "disappointed": -2.1, "mediocre": -1.3,
	"average": -0.3, "hate": -2.7, "hated": -3.2, "waited": -0.6, "wait": -0.4,
	"smell": -0.6, "late": -1.0, "undercooked": -1.8, "overcooked": -1.6, "raw": -0.8,
	"unfriendly": -2.0, "lazy": -1.8, "filthy": -2.6, "broken": -1.7, "avoid": -1.7,
	"annoying": -1.9, "complaint": -1.6, "sick": -2.2, "worse": -2.1,
}

// Words that strengthen or soften the next word.
var boosters = map[string]float64{
	"absolutely": 0.293, "extremely": 0.293, "very": 0.293, "really": 0.293,
	"incredibly": 0.293, "super": 0.293, "so": 0.293, "totally": 0.293, "truly": 0.293,
	"slightly": -0.293, "somewhat": -0.293, "barely": -0.293, "marginally": -0.293,
	"fairly": -0.293, "quite": 0.15,
}

var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "none": {}, "nothing": {}, "nobody": {},
	"neither": {}, "nor": {}, "without": {}, "hardly": {}, "isnt": {}, "wasnt": {},
	"arent": {}, "werent": {}, "dont": {}, "doesnt": {}, "didnt": {}, "cant": {},
	"cannot": {}, "couldnt": {}, "wont": {}, "wouldnt": {}, "aint": {},
}

const (
	negationScalar = -0.74
	// "too" before a word marks excess: "too high", "too long", "too salty".
	excessValence = -1.5
	// Normalises the summed valence into (-1, 1).
	compoundAlpha = 15.0
)

var wordPattern = regexp.MustCompile(`[\p{L}']+`)

// LexiconScorer is an offline rule-based polarity scorer: word valences,
// boosters, negation within three preceding words and an excess rule for "too".
// It is safe for concurrent use.
type LexiconScorer struct{}

// NewLexiconScorer returns the built-in scorer.
func NewLexiconScorer() *LexiconScorer { return &LexiconScorer{} }

// Score returns the compound polarity of text.
func (s *LexiconScorer) Score(_ context.Context, text string) (float64, error) {
	return LexiconCompound(text), nil
}

// LexiconCompound is the pure scoring function behind LexiconScorer.
func LexiconCompound(text string) float64 {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	for i, w := range words {
		words[i] = strings.ReplaceAll(w, "'", "")
	}

	var sum float64
	for i, w := range words {
		v, known := valence[w]
		prev := ""
		if i > 0 {
			prev = words[i-1]
		}
		if prev == "too" && v < 2 {
			v = min(v, 0) + excessValence
			known = true
		}
		if !known || v == 0 {
			continue
		}
		if b, ok := boosters[prev]; ok {
			if v > 0 {
				v += b
			} else {
				v -= b
			}
		}
		if negated(words, i) {
			v *= negationScalar
		}
		sum += v
	}
	if sum == 0 {
		return 0
	}
	return sum / math.Sqrt(sum*sum+compoundAlpha)
}

func negated(words []string, i int) bool {
	for j := max(0, i-3); j < i; j++ {
		if _, ok := negators[words[j]]; ok {
			return true
		}
	}
	return false
}
