package extractors

// stopwords holds English function words and fillers that never name an aspect.
var stopwords = map[string]struct{}{
	// Articles and determiners
	"a": {}, "an": {}, "the": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"some": {}, "any": {}, "each": {}, "every": {}, "all": {}, "both": {}, "few": {},
	"more": {}, "most": {}, "other": {}, "such": {}, "own": {}, "same": {}, "another": {},
	// Pronouns
	"i": {}, "me": {}, "my": {}, "mine": {}, "myself": {}, "we": {}, "us": {}, "our": {},
	"ours": {}, "ourselves": {}, "you": {}, "your": {}, "yours": {}, "yourself": {},
	"he": {}, "him": {}, "his": {}, "himself": {}, "she": {}, "her": {}, "hers": {},
	"herself": {}, "it": {}, "its": {}, "itself": {}, "they": {}, "them": {}, "their": {},
	"theirs": {}, "themselves": {}, "what": {}, "which": {}, "who": {}, "whom": {},
	"whose": {}, "one": {}, "everything": {}, "something": {}, "anything": {}, "nothing": {},
	// Auxiliaries and common verbs
	"am": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"have": {}, "has": {}, "had": {}, "having": {}, "do": {}, "does": {}, "did": {},
	"doing": {}, "will": {}, "would": {}, "shall": {}, "should": {}, "can": {}, "could": {},
	"may": {}, "might": {}, "must": {}, "get": {}, "got": {}, "felt": {}, "feel": {},
	"come": {}, "came": {}, "go": {}, "went": {}, "seemed": {}, "seems": {},
	// Prepositions
	"about": {}, "above": {}, "after": {}, "again": {}, "against": {}, "at": {},
	"before": {}, "below": {}, "between": {}, "by": {}, "down": {}, "during": {},
	"for": {}, "from": {}, "in": {}, "into": {}, "of": {}, "off": {}, "on": {}, "onto": {},
	"out": {}, "over": {}, "through": {}, "to": {}, "under": {}, "until": {}, "up": {},
	"upon": {}, "with": {}, "within": {}, "without": {}, "around": {}, "across": {},
	// Conjunctions
	"and": {}, "but": {}, "or": {}, "nor": {}, "so": {}, "yet": {}, "because": {},
	"although": {}, "though": {}, "however": {}, "whereas": {}, "while": {}, "if": {},
	"then": {}, "than": {}, "as": {}, "since": {}, "unless": {},
	// Adverbs and particles
	"not": {}, "no": {}, "very": {}, "too": {}, "just": {}, "only": {}, "also": {},
	"really": {}, "quite": {}, "here": {}, "there": {}, "when": {}, "where": {}, "why": {},
	"how": {}, "now": {}, "ever": {}, "never": {}, "always": {}, "often": {},
	"even": {}, "still": {}, "already": {}, "overall": {}, "absolutely": {}, "extremely": {},
	"half": {}, "much": {}, "many": {}, "lot": {}, "bit": {},
}
