package scheduling

import (
	"context"
	"sort"
	"time"

	"github.com/troikatech/planwise/pkg/application/dto"
	"github.com/troikatech/planwise/pkg/domain/entities"
)

// Interval is a half-open busy range [Start, End) in whole hours from the
// planning window start
type Interval struct {
	Start int
	End   int
}

// Job is one order to place on a production line
type Job struct {
	OrderID           entities.OrderID
	RequestedDelivery time.Time
	RequiredHours     float64
	// DurationByLine holds ceil(RequiredHours / line capacity) per line,
	// parallel to Problem.Lines. A value of -1 means the job cannot run
	// on that line within the horizon.
	DurationByLine []int
}

// Line is a production line with its pre-existing busy intervals
type Line struct {
	ID entities.LineID
	// OperatingCostCents is the per-hour cost proxy used by the cost
	// objective when staff are not yet attached
	OperatingCostCents int64
	Busy               []Interval
}

// Problem is a bounded placement problem over a planning window
type Problem struct {
	Jobs         []Job
	Lines        []Line
	HorizonHours int
	Objective    dto.Objective
}

// Placement assigns one job to a line and start offset
type Placement struct {
	Job   int
	Line  int
	Start int
	End   int
}

// SolveStatus reports how a solver run ended
type SolveStatus int

const (
	// SolveOptimal means the search space was exhausted and the best
	// solution found is provably optimal
	SolveOptimal SolveStatus = iota
	// SolveFeasible means a valid solution was found but the search was
	// truncated before proving optimality
	SolveFeasible
	// SolveInfeasible means the full batch cannot be placed in the window
	SolveInfeasible
	// SolveTimedOut means the time or node budget expired before any
	// conclusion; the caller falls back to the greedy heuristic
	SolveTimedOut
)

// String method for SolveStatus enum
func (s SolveStatus) String() string {
	switch s {
	case SolveOptimal:
		return "Optimal"
	case SolveFeasible:
		return "Feasible"
	case SolveInfeasible:
		return "Infeasible"
	case SolveTimedOut:
		return "TimedOut"
	default:
		return "Unknown"
	}
}

// Solution is the output of a solver run
type Solution struct {
	Placements []Placement
	Status     SolveStatus
}

// Solver is a bounded-time global solver for the placement problem. The
// context carries the hard deadline; implementations must return promptly
// once it expires.
type Solver interface {
	Solve(ctx context.Context, problem *Problem) (*Solution, error)
}

// insertInterval inserts iv into a list sorted by Start and returns the
// index it was placed at
func insertInterval(busy []Interval, iv Interval) ([]Interval, int) {
	at := sort.Search(len(busy), func(i int) bool { return busy[i].Start >= iv.Start })
	busy = append(busy, Interval{})
	copy(busy[at+1:], busy[at:])
	busy[at] = iv
	return busy, at
}

// removeInterval removes the interval at index i, undoing insertInterval
func removeInterval(busy []Interval, i int) []Interval {
	copy(busy[i:], busy[i+1:])
	return busy[:len(busy)-1]
}

// gapStarts returns the candidate start hours where a job of the given
// duration fits around the sorted busy list within the horizon. Restricting
// starts to gap openings preserves optimality for contiguous jobs: any
// placement can be left-shifted to a gap start without growing the
// objective.
func gapStarts(busy []Interval, duration, horizon int) []int {
	if duration <= 0 || duration > horizon {
		return nil
	}

	var starts []int
	cursor := 0
	for _, iv := range busy {
		if iv.Start-cursor >= duration {
			starts = append(starts, cursor)
		}
		if iv.End > cursor {
			cursor = iv.End
		}
	}
	if horizon-cursor >= duration {
		starts = append(starts, cursor)
	}
	return starts
}

// earliestFit returns the earliest start hour where a job of the given
// duration fits, or -1 when none exists
func earliestFit(busy []Interval, duration, horizon int) int {
	starts := gapStarts(busy, duration, horizon)
	if len(starts) == 0 {
		return -1
	}
	return starts[0]
}
