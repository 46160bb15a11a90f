package scheduling

import (
	"context"
	"math"

	"github.com/troikatech/planwise/pkg/application/dto"
)

// defaultMaxNodes bounds the search tree so a pathological batch degrades
// to SolveFeasible or SolveTimedOut instead of burning the whole deadline
const defaultMaxNodes = 2_000_000

// checkInterval is how many nodes pass between context deadline checks
const checkInterval = 1024

// branchAndBound is an exhaustive placement search with objective-bound
// pruning. It enumerates (line, gap start) assignments per job in a fixed
// order, so identical problems yield identical solutions.
type branchAndBound struct {
	maxNodes int
}

// Verify interface compliance
var _ Solver = (*branchAndBound)(nil)

// NewSolver creates the default bounded branch-and-bound solver
func NewSolver() Solver {
	return &branchAndBound{maxNodes: defaultMaxNodes}
}

type searchState struct {
	problem    *Problem
	busy       [][]Interval
	lineHours  []int
	placements []Placement
	best       []Placement
	bestScore  float64
	costSoFar  int64
	minJobCost []int64

	nodes     int
	truncated bool
	timedOut  bool
}

func (s *branchAndBound) Solve(ctx context.Context, problem *Problem) (*Solution, error) {
	// Small searches finish under checkInterval nodes, so an already-expired
	// deadline has to be caught before the first node
	if ctx.Err() != nil {
		return &Solution{Status: SolveTimedOut}, nil
	}
	state := &searchState{
		problem:    problem,
		busy:       make([][]Interval, len(problem.Lines)),
		lineHours:  make([]int, len(problem.Lines)),
		placements: make([]Placement, 0, len(problem.Jobs)),
		bestScore:  math.Inf(1),
	}
	for i, line := range problem.Lines {
		state.busy[i] = append([]Interval(nil), line.Busy...)
	}
	if problem.Objective == dto.ObjectiveCost {
		state.minJobCost = minCostPerJob(problem)
	}

	s.search(ctx, state, 0)

	switch {
	case state.timedOut:
		return &Solution{Status: SolveTimedOut}, nil
	case state.best == nil && state.truncated:
		return &Solution{Status: SolveTimedOut}, nil
	case state.best == nil:
		return &Solution{Status: SolveInfeasible}, nil
	case state.truncated:
		return &Solution{Placements: state.best, Status: SolveFeasible}, nil
	default:
		return &Solution{Placements: state.best, Status: SolveOptimal}, nil
	}
}

// search places jobs[jobIdx:] recursively, pruning branches whose partial
// score already meets or exceeds the best complete solution
func (s *branchAndBound) search(ctx context.Context, state *searchState, jobIdx int) {
	if state.timedOut || state.truncated {
		return
	}
	state.nodes++
	if state.nodes%checkInterval == 0 && ctx.Err() != nil {
		state.timedOut = true
		return
	}
	if state.nodes > s.maxNodes {
		state.truncated = true
		return
	}

	problem := state.problem
	if jobIdx == len(problem.Jobs) {
		score := state.score()
		if score < state.bestScore {
			state.bestScore = score
			state.best = append([]Placement(nil), state.placements...)
		}
		return
	}

	if state.bound(jobIdx) >= state.bestScore {
		return
	}

	job := problem.Jobs[jobIdx]
	for lineIdx := range problem.Lines {
		duration := job.DurationByLine[lineIdx]
		if duration <= 0 {
			continue
		}
		for _, start := range gapStarts(state.busy[lineIdx], duration, problem.HorizonHours) {
			placement := Placement{Job: jobIdx, Line: lineIdx, Start: start, End: start + duration}

			var at int
			state.busy[lineIdx], at = insertInterval(state.busy[lineIdx], Interval{Start: placement.Start, End: placement.End})
			state.lineHours[lineIdx] += duration
			state.costSoFar += int64(duration) * problem.Lines[lineIdx].OperatingCostCents
			state.placements = append(state.placements, placement)

			s.search(ctx, state, jobIdx+1)

			state.placements = state.placements[:len(state.placements)-1]
			state.costSoFar -= int64(duration) * problem.Lines[lineIdx].OperatingCostCents
			state.lineHours[lineIdx] -= duration
			state.busy[lineIdx] = removeInterval(state.busy[lineIdx], at)

			if state.timedOut || state.truncated {
				return
			}
		}
	}
}

// score evaluates a complete assignment for the configured objective.
// Lower is better for every objective.
func (state *searchState) score() float64 {
	switch state.problem.Objective {
	case dto.ObjectiveCost:
		return float64(state.costSoFar)
	case dto.ObjectiveUtilization:
		// Balancing load means minimizing the most loaded line
		return float64(maxInt(state.lineHours))
	default: // dto.ObjectiveTime
		return float64(makespanOf(state.placements))
	}
}

// bound is an optimistic lower bound on the score of any completion of the
// current partial assignment
func (state *searchState) bound(jobIdx int) float64 {
	switch state.problem.Objective {
	case dto.ObjectiveCost:
		remaining := int64(0)
		for j := jobIdx; j < len(state.problem.Jobs); j++ {
			remaining += state.minJobCost[j]
		}
		return float64(state.costSoFar + remaining)
	case dto.ObjectiveUtilization:
		return float64(maxInt(state.lineHours))
	default:
		return float64(makespanOf(state.placements))
	}
}

// minCostPerJob precomputes each job's cheapest possible line cost for the
// cost bound
func minCostPerJob(problem *Problem) []int64 {
	costs := make([]int64, len(problem.Jobs))
	for j, job := range problem.Jobs {
		min := int64(math.MaxInt64)
		for lineIdx, line := range problem.Lines {
			duration := job.DurationByLine[lineIdx]
			if duration <= 0 {
				continue
			}
			cost := int64(duration) * line.OperatingCostCents
			if cost < min {
				min = cost
			}
		}
		if min == math.MaxInt64 {
			min = 0
		}
		costs[j] = min
	}
	return costs
}

// makespanOf returns last end minus first start across placements
func makespanOf(placements []Placement) int {
	if len(placements) == 0 {
		return 0
	}
	minStart, maxEnd := math.MaxInt, 0
	for _, p := range placements {
		if p.Start < minStart {
			minStart = p.Start
		}
		if p.End > maxEnd {
			maxEnd = p.End
		}
	}
	return maxEnd - minStart
}

func maxInt(xs []int) int {
	max := 0
	for _, x := range xs {
		if x > max {
			max = x
		}
	}
	return max
}
