package models

// Phrase is a candidate key phrase with its relevance to the source text.
type Phrase struct {
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
}

// RankedLabel is one zero-shot classification result.
type RankedLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}
