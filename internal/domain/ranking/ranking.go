// Package ranking implements the pairwise comparison engine that places a
// new item into an existing ordering through a binary-search interview.
package ranking

import (
	"math"

	"github.com/okian/pairrank/internal/domain/model"
)

// DefaultMaxComparisons caps the number of answers replayed before a
// session is forced to converge. It is a safety valve rather than a real
// limit; binary search over any practical peer list converges far earlier.
const DefaultMaxComparisons = 100000

const maxValue = 100

// Engine decides, from a fixed value-ascending peer list and a history of
// answered comparisons, either the next index to probe or the final
// insertion point. The engine keeps no cursor of its own: bounds are
// re-derived from the full history on every call, so retries and replays
// are idempotent.
type Engine struct {
	maxComparisons int
}

// New creates an engine with default configuration.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxComparisons: DefaultMaxComparisons,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NextProbe returns the next comparison to put to the user. ok is false
// when no further probing is needed: the peer list is empty, the answer
// budget is exhausted, or the bounds have converged.
func (e *Engine) NextProbe(peers []model.Rateable, history []model.Outcome) (model.Probe, bool) {
	if len(peers) == 0 {
		return model.Probe{}, false
	}
	if len(history) >= e.maxComparisons {
		return model.Probe{}, false
	}
	lo, hi := replayBounds(len(peers), history)
	if hi < lo {
		return model.Probe{}, false
	}
	idx := lo + (hi-lo)/2
	peer := peers[idx]
	return model.Probe{ItemID: peer.ID, ItemName: peer.Name, Index: idx}, true
}

// InsertionIndex returns the position at which the rated item belongs in
// the peer list. Meaningful once NextProbe has reported convergence.
func (e *Engine) InsertionIndex(peers []model.Rateable, history []model.Outcome) int {
	lo, _ := replayBounds(len(peers), history)
	if lo > len(peers) {
		lo = len(peers)
	}
	return lo
}

// Rescore inserts the rated item into a copy of the peer snapshot at its
// converged position and reassigns every value by linear rank on [0,100]
// (lowest 0, highest 100, two decimals). The returned list replaces the
// ratings of all N+1 items; callers must persist every one of them.
func (e *Engine) Rescore(item model.Rateable, peers []model.Rateable, history []model.Outcome) []model.Rateable {
	idx := e.InsertionIndex(peers, history)

	combined := make([]model.Rateable, 0, len(peers)+1)
	combined = append(combined, peers[:idx]...)
	combined = append(combined, item)
	combined = append(combined, peers[idx:]...)

	denominator := len(combined) - 1
	for i := range combined {
		v := 0.0
		if denominator > 0 {
			v = round2(float64(i) / float64(denominator) * maxValue)
		}
		combined[i].Value = &v
	}
	return combined
}

// replayBounds re-derives the inclusive insertion bounds from the answer
// history. Each answer narrows strictly past the probed index: a preferred
// peer pushes the upper bound to index-1, otherwise the lower bound moves
// to index+1. Once the bounds cross, later answers cannot widen them again.
func replayBounds(n int, history []model.Outcome) (lo, hi int) {
	lo, hi = 0, n-1
	for _, outcome := range history {
		if outcome.Preferred {
			hi = outcome.Index - 1
		} else {
			lo = outcome.Index + 1
		}
		if hi < lo {
			break
		}
	}
	return lo, hi
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
