// Package job contains pure domain policies for validation jobs that do not
// depend on storage or transport.
package job

import (
	"errors"

	"github.com/quantumgrade/entropyval/internal/domain/model"
)

// ErrInvalidChunkSize indicates the configured chunk size is not positive.
var ErrInvalidChunkSize = errors.New("max chunk events must be positive")

// Chunk is one bounded slice of a validation job's event stream, sized so that
// a single assessment call stays within practical limits. From and To bound
// the chunk in reception order; a nil bound means the corresponding window
// edge.
type Chunk struct {
	Index int
	From  *model.EventCursor
	To    *model.EventCursor
}

// Plan is the deterministic partition of a job window into ordered chunks.
type Plan struct {
	Chunks []Chunk
}

// TotalChunks returns the number of chunks in the plan, always ≥ 1.
func (p Plan) TotalChunks() int {
	return len(p.Chunks)
}

// PlanChunks partitions window into ordered, non-overlapping, contiguous
// chunks split at the given interior boundaries. Boundaries come from the
// event store: the cursor of the first event of each new group of
// maxChunkEvents events, so each resulting chunk holds at most maxChunkEvents
// events even when many events share one reception timestamp.
//
// An empty boundary list yields a single chunk spanning the whole window, so
// progress reporting is well-defined even for empty windows. The chunks cover
// the window exactly: chunk i ends where chunk i+1 begins, the first starts
// at the window start and the last runs to the window end.
func PlanChunks(window model.Window, boundaries []model.EventCursor) (Plan, error) {
	if err := window.Validate(); err != nil {
		return Plan{}, err
	}

	chunks := make([]Chunk, 0, len(boundaries)+1)
	var prev *model.EventCursor
	for i := range boundaries {
		b := boundaries[i]
		if b.ReceivedAt.Before(window.Start) || !b.ReceivedAt.Before(window.End) {
			return Plan{}, errors.New("chunk boundaries must fall inside the window")
		}
		if prev != nil && !prev.Before(b) {
			return Plan{}, errors.New("chunk boundaries must be strictly increasing")
		}
		chunks = append(chunks, Chunk{Index: len(chunks), From: prev, To: &b})
		prev = &b
	}
	chunks = append(chunks, Chunk{Index: len(chunks), From: prev})

	return Plan{Chunks: chunks}, nil
}

// BoundaryStride validates maxChunkEvents and returns it as the stride at
// which the event store should sample boundary cursors.
func BoundaryStride(maxChunkEvents int) (int, error) {
	if maxChunkEvents <= 0 {
		return 0, ErrInvalidChunkSize
	}
	return maxChunkEvents, nil
}
