package graph

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/undermaind/memnet-go/pkg/storage"
)

// Suggestion proposes a new connection discovered through shared neighbors.
type Suggestion struct {
	// NodeID is the suggested experience to connect to.
	NodeID int64

	// Type is the inferred connection type: the most frequent type among
	// the two-hop paths that produced the suggestion.
	Type storage.ConnectionType

	// Score is the cosine similarity between the two experiences when both
	// carry an embedding, otherwise the mean strength of the connecting
	// two-hop edges.
	Score float64

	// PathCount is the number of distinct two-hop paths backing the
	// suggestion; more shared intermediates mean a stronger signal.
	PathCount int
}

// SuggestionEngine proposes new connections from shared-neighbor structure
// and, when embeddings are available, semantic similarity.
type SuggestionEngine struct {
	manager *Manager
}

// NewSuggestionEngine creates a suggestion engine over the given connection
// manager.
func NewSuggestionEngine(manager *Manager) *SuggestionEngine {
	return &SuggestionEngine{manager: manager}
}

// Suggest proposes up to maxSuggestions new connections for an experience.
//
// Candidates sit at exactly two hops: they are neighbors of the node's
// neighbors, excluding the node itself and everything already directly
// connected to it. Ranking is primarily by the number of distinct two-hop
// paths; when both endpoints carry an embedding, candidates below
// minSimilarity are dropped and the similarity breaks ranking ties.
//
// Returns ErrNotFound if the experience does not exist.
func (e *SuggestionEngine) Suggest(ctx context.Context, nodeID int64, minSimilarity float64, maxSuggestions int) ([]*Suggestion, error) {
	if maxSuggestions <= 0 {
		return nil, fmt.Errorf("Suggest: max suggestions %d: %w", maxSuggestions, ErrInvalidArgument)
	}

	node, err := e.manager.Node(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("Suggest: %w", err)
	}

	snapshot, err := e.manager.Snapshot(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("Suggest: %w", err)
	}

	// Everything already connected to the node, from either side.
	connected := map[int64]struct{}{nodeID: {}}
	var intermediates []int64
	for _, edge := range snapshot.Touching(nodeID) {
		neighbor := Other(edge, nodeID)
		if _, ok := connected[neighbor]; !ok {
			connected[neighbor] = struct{}{}
			intermediates = append(intermediates, neighbor)
		}
	}

	// Walk the second hop and tally candidates.
	type tally struct {
		paths       int
		strengthSum int
		typeCounts  map[storage.ConnectionType]int
	}
	tallies := make(map[int64]*tally)

	for _, intermediate := range intermediates {
		for _, edge := range snapshot.Touching(intermediate) {
			candidate := Other(edge, intermediate)
			if _, ok := connected[candidate]; ok {
				continue
			}

			entry := tallies[candidate]
			if entry == nil {
				entry = &tally{typeCounts: make(map[storage.ConnectionType]int)}
				tallies[candidate] = entry
			}
			entry.paths++
			entry.strengthSum += edge.Strength
			entry.typeCounts[edge.Type]++
		}
	}

	suggestions := make([]*Suggestion, 0, len(tallies))
	for candidateID, entry := range tallies {
		score := float64(entry.strengthSum) / float64(entry.paths)

		// Similarity gate only applies when both embeddings exist.
		if len(node.Embedding) > 0 {
			candidate, err := e.manager.Node(ctx, candidateID)
			if err != nil {
				return nil, fmt.Errorf("Suggest: %w", err)
			}
			if len(candidate.Embedding) > 0 {
				similarity := cosineSimilarity(node.Embedding, candidate.Embedding)
				if similarity < minSimilarity {
					continue
				}
				score = similarity
			}
		}

		suggestions = append(suggestions, &Suggestion{
			NodeID:    candidateID,
			Type:      dominantType(entry.typeCounts),
			Score:     score,
			PathCount: entry.paths,
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].PathCount != suggestions[j].PathCount {
			return suggestions[i].PathCount > suggestions[j].PathCount
		}
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].NodeID < suggestions[j].NodeID
	})

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	return suggestions, nil
}

// dominantType returns the most frequent connecting type, breaking ties by
// type name for determinism.
func dominantType(counts map[storage.ConnectionType]int) storage.ConnectionType {
	var best storage.ConnectionType
	bestCount := -1
	for typ, count := range counts {
		if count > bestCount || (count == bestCount && typ < best) {
			best = typ
			bestCount = count
		}
	}
	return best
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
