package feasibility

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/troikatech/planwise/pkg/domain/entities"
	"github.com/troikatech/planwise/pkg/domain/repositories"
)

// CapacityProjection is the projected free capacity of one production line
// within a window
type CapacityProjection struct {
	LineID         entities.LineID
	AvailableHours float64
}

// CapacityProjector computes available production-line hours within a
// window, accounting for existing schedules. Inactive lines contribute
// zero and are omitted. Read-only.
type CapacityProjector struct{}

// NewCapacityProjector creates a CapacityProjector
func NewCapacityProjector() *CapacityProjector {
	return &CapacityProjector{}
}

// Project returns per-line available hours for [start, end] plus the total
// across lines. Lines come back in the snapshot's ID order.
func (p *CapacityProjector) Project(
	ctx context.Context,
	snap repositories.Snapshot,
	start, end time.Time,
) ([]CapacityProjection, float64, error) {
	if !start.Before(end) {
		return nil, 0, nil
	}

	lines, err := snap.ActiveLines(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "load active production lines")
	}

	schedules, err := snap.SchedulesOverlapping(ctx, start, end)
	if err != nil {
		return nil, 0, errors.Wrap(err, "load existing schedules")
	}

	committedByLine := make(map[entities.LineID]float64, len(lines))
	for _, sched := range schedules {
		committedByLine[sched.LineID] += overlapHours(sched.Start, sched.End, start, end)
	}

	windowHours := end.Sub(start).Hours()
	projections := make([]CapacityProjection, 0, len(lines))
	var total float64
	for _, line := range lines {
		available := windowHours - committedByLine[line.ID]
		if available < 0 {
			available = 0
		}
		projections = append(projections, CapacityProjection{
			LineID:         line.ID,
			AvailableHours: available,
		})
		total += available
	}

	return projections, total, nil
}

// overlapHours returns the length in hours of the intersection of
// [aStart, aEnd] and [bStart, bEnd]
func overlapHours(aStart, aEnd, bStart, bEnd time.Time) float64 {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !start.Before(end) {
		return 0
	}
	return end.Sub(start).Hours()
}
