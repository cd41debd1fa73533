package ops

import (
	"bufio"
	"bytes"
	"context"
	"math"
	"sort"
	"strings"

	"github.com/dohr-michael/tasker/internal/models"
	"github.com/dohr-michael/tasker/internal/tasks"
)

const (
	commentsInput  = "comments.txt"
	commentsOutput = "comments-similar.txt"
)

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// mostSimilarPair returns the indices i<j with the highest cosine similarity.
func mostSimilarPair(vectors [][]float64) (int, int) {
	bi, bj := 0, 1
	best := math.Inf(-1)
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			if s := cosineSimilarity(vectors[i], vectors[j]); s > best {
				best, bi, bj = s, i, j
			}
		}
	}
	return bi, bj
}

func readComments(data []byte) []string {
	var comments []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			comments = append(comments, line)
		}
	}
	return comments
}

// SimilarComments embeds every comment and writes the closest pair.
func (h *Handlers) SimilarComments(ctx context.Context) (*tasks.Result, error) {
	data, err := h.Root.ReadFile(commentsInput)
	if err != nil {
		return nil, err
	}
	comments := readComments(data)
	if len(comments) < 2 {
		return nil, tasks.Executionf("not enough comments to compare: found %d", len(comments))
	}

	if h.Embedder == nil {
		return nil, tasks.Executionf("no embedder configured")
	}
	embedder, err := h.Embedder(ctx)
	if err != nil {
		return nil, tasks.ExecutionError("embedder", err)
	}
	vectors, err := embedder.EmbedStrings(ctx, comments)
	if err != nil {
		return nil, tasks.ExecutionError("embed comments", models.HandleError(err))
	}
	if len(vectors) != len(comments) {
		return nil, tasks.Executionf("embedder returned %d vectors for %d comments", len(vectors), len(comments))
	}

	i, j := mostSimilarPair(vectors)
	pair := []string{comments[i], comments[j]}
	sort.Strings(pair)

	if err := h.Root.WriteFileAtomic(commentsOutput, []byte(strings.Join(pair, "\n")+"\n")); err != nil {
		return nil, err
	}
	return tasks.Success("Most similar comments saved to %s", h.Root.External(commentsOutput)).
		With("comments", pair), nil
}
