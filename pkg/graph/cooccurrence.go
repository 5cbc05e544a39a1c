package graph

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/undermaind/memnet-go/pkg/storage"
)

// cooccurrenceInitialStrength is the strength of a temporal connection
// created by the reinforcer. Such links start weak and unconscious; repeated
// co-occurrence strengthens them.
const cooccurrenceInitialStrength = 3

// Reinforcer strengthens or creates temporal connections between experiences
// that appeared close together in time within a shared context.
type Reinforcer struct {
	manager *Manager
}

// NewReinforcer creates a co-occurrence reinforcer over the given connection
// manager.
func NewReinforcer(manager *Manager) *Reinforcer {
	return &Reinforcer{manager: manager}
}

// StrengthenByCooccurrence processes every unordered pair (i < j by id) of
// experiences in the given context whose timestamps differ by less than
// window, and reinforces or creates the temporal connection between them.
//
// An existing connection is raised to
// min(10, strength + max(minIncrease, (10-strength)/2)), a diminishing-returns
// step that converges on 10 without overshoot. The write is skipped when the
// rounded result does not increase the stored strength. A missing connection
// is created bidirectional, unconscious, with strength 3.
//
// Pairs are committed one at a time through the manager's atomic path, so a
// fault partway through leaves already-processed pairs durable; re-running
// with the same input reinforces existing connections rather than
// duplicating them. Returns the number of connections created or
// strengthened.
func (r *Reinforcer) StrengthenByCooccurrence(ctx context.Context, contextID int64, window time.Duration, minIncrease float64) (int, error) {
	if window <= 0 {
		return 0, fmt.Errorf("StrengthenByCooccurrence: window %v: %w", window, ErrInvalidArgument)
	}

	nodes, err := r.manager.NodesByContext(ctx, contextID)
	if err != nil {
		return 0, fmt.Errorf("StrengthenByCooccurrence: %w", err)
	}

	updated := 0
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			first, second := nodes[i], nodes[j]
			if first.ID > second.ID {
				first, second = second, first
			}

			gap := first.CreatedAt.Sub(second.CreatedAt)
			if gap < 0 {
				gap = -gap
			}
			if gap >= window {
				continue
			}

			changed, err := r.reinforcePair(ctx, first.ID, second.ID, minIncrease)
			if err != nil {
				return updated, fmt.Errorf("StrengthenByCooccurrence: pair (%d,%d): %w", first.ID, second.ID, err)
			}
			if changed {
				updated++
			}
		}
	}

	return updated, nil
}

// reinforcePair strengthens or creates the temporal connection for one
// unordered pair. Reports whether a write happened.
func (r *Reinforcer) reinforcePair(ctx context.Context, sourceID, targetID int64, minIncrease float64) (bool, error) {
	edge, err := r.manager.FindEdge(ctx, sourceID, targetID, storage.TypeTemporal)
	if errors.Is(err, ErrNotFound) {
		now := time.Now()
		created := &storage.Edge{
			SourceID:        sourceID,
			TargetID:        targetID,
			Type:            storage.TypeTemporal,
			Strength:        cooccurrenceInitialStrength,
			Direction:       storage.DirectionBi,
			Conscious:       false,
			CreatedAt:       now,
			LastActivated:   now,
			ActivationCount: 1,
		}
		if err := r.manager.insertEdge(ctx, created); err != nil {
			if errors.Is(err, storage.ErrDuplicateEdge) {
				// A concurrent run created it; reinforce instead.
				return r.reinforcePair(ctx, sourceID, targetID, minIncrease)
			}
			return false, err
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	newStrength := reinforcedStrength(edge.Strength, minIncrease)
	if newStrength <= edge.Strength {
		return false, nil
	}

	if _, err := r.manager.SetStrength(ctx, edge.ID, newStrength); err != nil {
		return false, err
	}
	return true, nil
}

// reinforcedStrength applies the diminishing-returns formula
// min(10, s + max(minIncrease, (10-s)/2)) on integer strengths.
func reinforcedStrength(strength int, minIncrease float64) int {
	increase := math.Max(minIncrease, float64(storage.MaxStrength-strength)/2)
	raised := math.Min(float64(storage.MaxStrength), float64(strength)+increase)
	return int(raised)
}
