package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashEmbedder is an offline embedder built from signed feature hashing of
// words and character trigrams. It needs no model server and is deterministic,
// which makes it the default for local runs and tests.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder returns an embedder producing vectors of dims components.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &HashEmbedder{dims: dims}
}

// Available always reports true.
func (e *HashEmbedder) Available() bool { return true }

// Embed returns the L2-normalised hashed feature vector of text.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	for _, w := range words {
		e.add(vec, "w:"+w, 1)
		padded := []rune("<" + w + ">")
		for i := 0; i+3 <= len(padded); i++ {
			e.add(vec, "g:"+string(padded[i:i+3]), 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

// EmbedBatch embeds each text in turn.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, _ := e.Embed(ctx, text)
		out[i] = vec
	}
	return out, nil
}

func (e *HashEmbedder) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dims))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}
