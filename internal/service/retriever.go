package service

import (
	"context"
	"math"
	"sort"

	"github.com/askadoc/askadoc/internal/domain"
)

// DefaultTopK is the default number of chunks selected as answer context.
const DefaultTopK = 3

// EmbeddingClient defines the interface for generating embeddings.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever ranks candidate chunks by cosine similarity to a question.
type Retriever struct {
	embedder EmbeddingClient
}

// NewRetriever creates a new Retriever instance.
func NewRetriever(embedder EmbeddingClient) *Retriever {
	return &Retriever{embedder: embedder}
}

// Retrieve embeds the question once and returns the k most similar candidate
// chunks in descending similarity order. The sort is stable: candidates with
// identical similarity keep their original order. An empty candidate set
// means no document is available for the requested scope.
func (r *Retriever) Retrieve(ctx context.Context, question string, candidates []domain.Chunk, k int) ([]domain.Chunk, error) {
	if len(candidates) == 0 {
		return nil, domain.ErrNoContext
	}
	if k <= 0 {
		k = DefaultTopK
	}

	questionEmb, err := r.embedder.GenerateEmbedding(ctx, question)
	if err != nil {
		return nil, err
	}

	type scored struct {
		chunk domain.Chunk
		score float64
	}

	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{chunk: c, score: CosineSimilarity(questionEmb, c.Embedding)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if k > len(ranked) {
		k = len(ranked)
	}

	top := make([]domain.Chunk, k)
	for i := 0; i < k; i++ {
		top[i] = ranked[i].chunk
	}
	return top, nil
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths are compared over the shorter prefix; a zero vector
// yields zero similarity.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
