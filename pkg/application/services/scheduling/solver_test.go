package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troikatech/planwise/pkg/application/dto"
	"github.com/troikatech/planwise/pkg/domain/entities"
)

func uniformJob(orderID entities.OrderID, hours float64, durations ...int) Job {
	return Job{
		OrderID:           orderID,
		RequestedDelivery: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		RequiredHours:     hours,
		DurationByLine:    durations,
	}
}

func TestSolver_TwoOrdersOneLine_MinimizesMakespan(t *testing.T) {
	problem := &Problem{
		Jobs: []Job{
			uniformJob("ORD-1", 20, 20),
			uniformJob("ORD-2", 20, 20),
		},
		Lines:        []Line{{ID: "LINE-1"}},
		HorizonHours: 100,
		Objective:    dto.ObjectiveTime,
	}

	solution, err := NewSolver().Solve(context.Background(), problem)
	require.NoError(t, err)
	assert.Equal(t, SolveOptimal, solution.Status)
	require.Len(t, solution.Placements, 2)
	assert.Equal(t, 40, makespanOf(solution.Placements))
}

func TestSolver_PlacementsNeverOverlapPerLine(t *testing.T) {
	problem := &Problem{
		Jobs: []Job{
			uniformJob("ORD-1", 8, 8, 4),
			uniformJob("ORD-2", 6, 6, 3),
			uniformJob("ORD-3", 4, 4, 2),
			uniformJob("ORD-4", 10, 10, 5),
		},
		Lines: []Line{
			{ID: "LINE-1"},
			{ID: "LINE-2", Busy: []Interval{{Start: 0, End: 2}}},
		},
		HorizonHours: 48,
		Objective:    dto.ObjectiveTime,
	}

	solution, err := NewSolver().Solve(context.Background(), problem)
	require.NoError(t, err)
	assert.Equal(t, SolveOptimal, solution.Status)
	require.Len(t, solution.Placements, len(problem.Jobs))

	perLine := make(map[int][]Interval)
	for i := range problem.Lines {
		perLine[i] = append([]Interval(nil), problem.Lines[i].Busy...)
	}
	for _, p := range solution.Placements {
		assert.GreaterOrEqual(t, p.Start, 0)
		assert.LessOrEqual(t, p.End, problem.HorizonHours)
		for _, busy := range perLine[p.Line] {
			overlaps := p.Start < busy.End && busy.Start < p.End
			assert.False(t, overlaps, "placement %+v overlaps busy interval %+v", p, busy)
		}
		perLine[p.Line] = append(perLine[p.Line], Interval{Start: p.Start, End: p.End})
	}
}

func TestSolver_InfeasibleBatch(t *testing.T) {
	problem := &Problem{
		Jobs:         []Job{uniformJob("ORD-1", 10, 10)},
		Lines:        []Line{{ID: "LINE-1"}},
		HorizonHours: 5,
		Objective:    dto.ObjectiveTime,
	}

	solution, err := NewSolver().Solve(context.Background(), problem)
	require.NoError(t, err)
	assert.Equal(t, SolveInfeasible, solution.Status)
	assert.Empty(t, solution.Placements)
}

func TestSolver_ExpiredDeadlineTimesOut(t *testing.T) {
	jobs := make([]Job, 8)
	for i := range jobs {
		jobs[i] = uniformJob(entities.OrderID(rune('A'+i)), 1, 1, 1, 1)
	}
	problem := &Problem{
		Jobs:         jobs,
		Lines:        []Line{{ID: "L1"}, {ID: "L2"}, {ID: "L3"}},
		HorizonHours: 50,
		Objective:    dto.ObjectiveTime,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	solution, err := NewSolver().Solve(ctx, problem)
	require.NoError(t, err)
	assert.Equal(t, SolveTimedOut, solution.Status)
}

func TestSolver_TruncatedSearchReturnsFeasible(t *testing.T) {
	solver := &branchAndBound{maxNodes: 10}
	problem := &Problem{
		Jobs: []Job{
			uniformJob("ORD-1", 3, 3, 3, 3),
			uniformJob("ORD-2", 3, 3, 3, 3),
			uniformJob("ORD-3", 3, 3, 3, 3),
		},
		Lines:        []Line{{ID: "L1"}, {ID: "L2"}, {ID: "L3"}},
		HorizonHours: 20,
		Objective:    dto.ObjectiveTime,
	}

	solution, err := solver.Solve(context.Background(), problem)
	require.NoError(t, err)
	assert.Equal(t, SolveFeasible, solution.Status)
	assert.Len(t, solution.Placements, 3)
}

func TestSolver_CostObjectivePicksCheapestLine(t *testing.T) {
	problem := &Problem{
		Jobs: []Job{uniformJob("ORD-1", 10, 10, 10)},
		Lines: []Line{
			{ID: "EXPENSIVE", OperatingCostCents: 10_000},
			{ID: "CHEAP", OperatingCostCents: 2_500},
		},
		HorizonHours: 24,
		Objective:    dto.ObjectiveCost,
	}

	solution, err := NewSolver().Solve(context.Background(), problem)
	require.NoError(t, err)
	assert.Equal(t, SolveOptimal, solution.Status)
	require.Len(t, solution.Placements, 1)
	assert.Equal(t, 1, solution.Placements[0].Line)
}

func TestSolver_UtilizationObjectiveBalancesLines(t *testing.T) {
	problem := &Problem{
		Jobs: []Job{
			uniformJob("ORD-1", 10, 10, 10),
			uniformJob("ORD-2", 10, 10, 10),
		},
		Lines:        []Line{{ID: "L1"}, {ID: "L2"}},
		HorizonHours: 48,
		Objective:    dto.ObjectiveUtilization,
	}

	solution, err := NewSolver().Solve(context.Background(), problem)
	require.NoError(t, err)
	assert.Equal(t, SolveOptimal, solution.Status)
	require.Len(t, solution.Placements, 2)
	assert.NotEqual(t, solution.Placements[0].Line, solution.Placements[1].Line,
		"balancing should spread two equal jobs across both lines")
}

func TestSolver_DeterministicAcrossRuns(t *testing.T) {
	problem := &Problem{
		Jobs: []Job{
			uniformJob("ORD-1", 5, 5, 5),
			uniformJob("ORD-2", 7, 7, 7),
			uniformJob("ORD-3", 3, 3, 3),
		},
		Lines:        []Line{{ID: "L1"}, {ID: "L2"}},
		HorizonHours: 30,
		Objective:    dto.ObjectiveTime,
	}

	first, err := NewSolver().Solve(context.Background(), problem)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := NewSolver().Solve(context.Background(), problem)
		require.NoError(t, err)
		assert.Equal(t, first.Status, again.Status)
		assert.Equal(t, first.Placements, again.Placements)
	}
}

func TestGapStarts(t *testing.T) {
	testCases := []struct {
		name     string
		busy     []Interval
		duration int
		horizon  int
		want     []int
	}{
		{"empty line", nil, 4, 10, []int{0}},
		{"gap before and after", []Interval{{Start: 4, End: 6}}, 3, 12, []int{0, 6}},
		{"leading gap too small", []Interval{{Start: 2, End: 6}}, 3, 12, []int{6}},
		{"no room at all", []Interval{{Start: 0, End: 9}}, 3, 10, nil},
		{"duration exceeds horizon", nil, 11, 10, nil},
		{"adjacent intervals", []Interval{{Start: 0, End: 3}, {Start: 3, End: 6}}, 2, 10, []int{6}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, gapStarts(tc.busy, tc.duration, tc.horizon))
		})
	}
}

func TestGreedyFallback_DeliveryOrderAndUnplaced(t *testing.T) {
	early := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC)

	problem := &Problem{
		Jobs: []Job{
			{OrderID: "ORD-LATE", RequestedDelivery: late, RequiredHours: 6, DurationByLine: []int{6}},
			{OrderID: "ORD-EARLY", RequestedDelivery: early, RequiredHours: 6, DurationByLine: []int{6}},
		},
		Lines:        []Line{{ID: "LINE-1"}},
		HorizonHours: 10,
		Objective:    dto.ObjectiveTime,
	}

	placements, unplaced := greedyFallback(problem)
	require.Len(t, placements, 1)
	assert.Equal(t, 1, placements[0].Job, "earlier requested delivery goes first")
	assert.Equal(t, 0, placements[0].Start)
	require.Len(t, unplaced, 1)
	assert.Equal(t, 0, unplaced[0])
}

func TestGreedyFallback_EveryJobGetsDisposition(t *testing.T) {
	jobs := make([]Job, 6)
	for i := range jobs {
		jobs[i] = uniformJob(entities.OrderID(rune('A'+i)), 5, 5, 5)
	}
	problem := &Problem{
		Jobs:         jobs,
		Lines:        []Line{{ID: "L1"}, {ID: "L2"}},
		HorizonHours: 12,
		Objective:    dto.ObjectiveTime,
	}

	placements, unplaced := greedyFallback(problem)
	assert.Equal(t, len(jobs), len(placements)+len(unplaced))
}
