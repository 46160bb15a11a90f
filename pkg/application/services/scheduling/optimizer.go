package scheduling

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/troikatech/planwise/pkg/application/apperr"
	"github.com/troikatech/planwise/pkg/application/dto"
	"github.com/troikatech/planwise/pkg/domain/entities"
	"github.com/troikatech/planwise/pkg/domain/repositories"
)

// Config holds the tunable constants of the schedule optimizer
type Config struct {
	// SolverTimeout is the hard budget for the global solver before
	// control passes to the greedy fallback
	SolverTimeout time.Duration
}

// DefaultConfig returns the standard optimizer configuration
func DefaultConfig() Config {
	return Config{SolverTimeout: 30 * time.Second}
}

// Optimizer assigns orders to production lines and time slots, and staff
// to the resulting tasks. It is a stateless, request-scoped computation
// over a store snapshot; every input order receives a disposition.
type Optimizer struct {
	solver   Solver
	assigner *StaffAssigner
	cfg      Config
	log      *logrus.Entry
	newID    func() entities.ScheduleID
}

// NewOptimizer creates an optimizer using the default solver
func NewOptimizer(cfg Config, log *logrus.Logger) *Optimizer {
	return NewOptimizerWithSolver(cfg, NewSolver(), log)
}

// NewOptimizerWithSolver creates an optimizer with a custom solver,
// useful for forcing timeout paths in tests
func NewOptimizerWithSolver(cfg Config, solver Solver, log *logrus.Logger) *Optimizer {
	return &Optimizer{
		solver:   solver,
		assigner: NewStaffAssigner(),
		cfg:      cfg,
		log:      log.WithField("component", "optimizer"),
		newID:    func() entities.ScheduleID { return entities.ScheduleID(uuid.NewString()) },
	}
}

// Optimize places the requested orders within the window and attaches
// staff. Orders that cannot be placed even by the fallback are enumerated
// in the result rather than dropped.
func (o *Optimizer) Optimize(ctx context.Context, snap repositories.Snapshot, req dto.OptimizationRequest) (*dto.OptimizationResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	windowStart := req.WindowStart.UTC().Truncate(time.Hour)
	windowEnd := req.WindowEnd.UTC().Truncate(time.Hour)
	horizonHours := int(windowEnd.Sub(windowStart) / time.Hour)

	result := &dto.OptimizationResult{
		Schedules:        []*entities.ProductionSchedule{},
		StaffAssignments: []*entities.TaskAssignment{},
		Unschedulable:    []dto.UnschedulableOrder{},
		Understaffed:     []dto.UnderstaffedTask{},
		TotalCost:        decimal.Zero,
	}

	jobs, err := o.buildJobs(ctx, snap, req, result)
	if err != nil {
		return nil, err
	}

	lines, capacities, err := o.buildLines(ctx, snap, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		for _, job := range jobs {
			result.Unschedulable = append(result.Unschedulable, dto.UnschedulableOrder{
				OrderID: job.OrderID,
				Reason:  "no active production lines",
			})
		}
		result.Status = dto.StatusFallback
		return result, nil
	}

	problem := &Problem{
		Jobs:         jobs,
		Lines:        lines,
		HorizonHours: horizonHours,
		Objective:    req.Objective,
	}
	fillDurations(problem, capacities)

	// Jobs that fit no line even on an empty window can never be placed;
	// give them their disposition up front and keep the problem clean.
	problem.Jobs = o.extractHopeless(problem, result)

	placements, status := o.place(ctx, problem)
	result.Status = status

	for _, placement := range placements {
		job := problem.Jobs[placement.Job]
		line := problem.Lines[placement.Line]
		schedule, err := entities.NewProductionSchedule(
			o.newID(), job.OrderID, line.ID,
			windowStart.Add(time.Duration(placement.Start)*time.Hour),
			windowStart.Add(time.Duration(placement.End)*time.Hour))
		if err != nil {
			return nil, errors.Wrap(err, "build schedule from placement")
		}
		result.Schedules = append(result.Schedules, schedule)
	}
	result.TotalMakespanHours = makespanOf(placements)

	placed := make(map[entities.OrderID]bool, len(placements))
	for _, schedule := range result.Schedules {
		placed[schedule.OrderID] = true
	}
	for _, job := range problem.Jobs {
		if !placed[job.OrderID] {
			result.Unschedulable = append(result.Unschedulable, dto.UnschedulableOrder{
				OrderID: job.OrderID,
				Reason:  "no contiguous slot fits within the window",
			})
		}
	}

	if err := o.attachStaff(ctx, snap, windowStart, windowEnd, result); err != nil {
		return nil, err
	}

	o.log.WithFields(logrus.Fields{
		"status":        result.Status,
		"scheduled":     len(result.Schedules),
		"unschedulable": len(result.Unschedulable),
	}).Info("optimization completed")

	return result, nil
}

// place runs the bounded solver and falls back to the greedy heuristic on
// timeout, error, or batch infeasibility
func (o *Optimizer) place(ctx context.Context, problem *Problem) ([]Placement, dto.OptimizationStatus) {
	if len(problem.Jobs) == 0 {
		return nil, dto.StatusOptimal
	}

	solveCtx, cancel := context.WithTimeout(ctx, o.cfg.SolverTimeout)
	defer cancel()

	solution, err := o.solver.Solve(solveCtx, problem)
	if err == nil {
		switch solution.Status {
		case SolveOptimal:
			return solution.Placements, dto.StatusOptimal
		case SolveFeasible:
			return solution.Placements, dto.StatusFeasible
		}
		o.log.WithField("solver_status", solution.Status.String()).Warn("solver found no full-batch solution, using greedy fallback")
	} else {
		o.log.WithError(err).Warn("solver failed, using greedy fallback")
	}

	placements, _ := greedyFallback(problem)
	return placements, dto.StatusFallback
}

// buildJobs loads the requested orders and converts them to solver jobs.
// Cancelled orders are reported unschedulable instead of erroring.
func (o *Optimizer) buildJobs(ctx context.Context, snap repositories.Snapshot, req dto.OptimizationRequest, result *dto.OptimizationResult) ([]Job, error) {
	seen := make(map[entities.OrderID]bool, len(req.OrderIDs))
	jobs := make([]Job, 0, len(req.OrderIDs))
	for _, orderID := range req.OrderIDs {
		if seen[orderID] {
			continue
		}
		seen[orderID] = true

		order, err := snap.Order(ctx, orderID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errors.Wrapf(apperr.ErrInvalidInput, "unknown order %s", orderID)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "load order %s", orderID)
		}
		if order.Status == entities.OrderCancelled {
			result.Unschedulable = append(result.Unschedulable, dto.UnschedulableOrder{
				OrderID: orderID,
				Reason:  "order is cancelled",
			})
			continue
		}

		var requiredHours float64
		for _, item := range order.Items {
			product, err := snap.Product(ctx, item.ProductID)
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, errors.Wrapf(apperr.ErrInvalidInput, "order %s references unknown product %s", orderID, item.ProductID)
			}
			if err != nil {
				return nil, errors.Wrapf(err, "load product %s", item.ProductID)
			}
			requiredHours += float64(item.Quantity) * product.HoursPerUnit
		}

		jobs = append(jobs, Job{
			OrderID:           orderID,
			RequestedDelivery: order.RequestedDelivery,
			RequiredHours:     requiredHours,
		})
	}
	return jobs, nil
}

// buildLines loads active lines with their pre-existing busy intervals
// quantized to whole hours within the window. It also returns the
// per-line capacity used to derive job durations, keeping the solver
// types free of entity imports.
func (o *Optimizer) buildLines(ctx context.Context, snap repositories.Snapshot, windowStart, windowEnd time.Time) ([]Line, []float64, error) {
	activeLines, err := snap.ActiveLines(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load active production lines")
	}
	existing, err := snap.SchedulesOverlapping(ctx, windowStart, windowEnd)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load existing schedules")
	}

	lines := make([]Line, 0, len(activeLines))
	capacities := make([]float64, 0, len(activeLines))
	index := make(map[entities.LineID]int, len(activeLines))
	for i, line := range activeLines {
		lines = append(lines, Line{
			ID:                 line.ID,
			OperatingCostCents: line.OperatingCost.Mul(decimal.NewFromInt(100)).IntPart(),
		})
		capacities = append(capacities, float64(line.CapacityPerHour))
		index[line.ID] = i
	}

	horizon := int(windowEnd.Sub(windowStart) / time.Hour)
	for _, sched := range existing {
		i, ok := index[sched.LineID]
		if !ok {
			continue
		}
		// Quantize conservatively: floor the start, ceil the end
		startHour := int(math.Floor(sched.Start.Sub(windowStart).Hours()))
		endHour := int(math.Ceil(sched.End.Sub(windowStart).Hours()))
		if startHour < 0 {
			startHour = 0
		}
		if endHour > horizon {
			endHour = horizon
		}
		if startHour >= endHour {
			continue
		}
		lines[i].Busy, _ = insertInterval(lines[i].Busy, Interval{Start: startHour, End: endHour})
	}

	return lines, capacities, nil
}

// fillDurations computes each job's per-line duration as
// ceil(requiredHours / capacityPerHour). Lines with no throughput, or
// durations beyond the horizon, are marked unusable with -1.
func fillDurations(problem *Problem, capacities []float64) {
	for j := range problem.Jobs {
		job := &problem.Jobs[j]
		job.DurationByLine = make([]int, len(problem.Lines))
		for i, capacity := range capacities {
			if capacity <= 0 {
				job.DurationByLine[i] = -1
				continue
			}
			duration := int(math.Ceil(job.RequiredHours / capacity))
			if duration < 1 {
				duration = 1
			}
			if duration > problem.HorizonHours {
				job.DurationByLine[i] = -1
				continue
			}
			job.DurationByLine[i] = duration
		}
	}
}

// extractHopeless removes jobs that fit no line even on an empty window,
// reporting them unschedulable
func (o *Optimizer) extractHopeless(problem *Problem, result *dto.OptimizationResult) []Job {
	kept := problem.Jobs[:0]
	for _, job := range problem.Jobs {
		fits := false
		for _, duration := range job.DurationByLine {
			if duration > 0 && duration <= problem.HorizonHours {
				fits = true
				break
			}
		}
		if fits {
			kept = append(kept, job)
		} else {
			result.Unschedulable = append(result.Unschedulable, dto.UnschedulableOrder{
				OrderID: job.OrderID,
				Reason:  "required hours exceed the planning window on every line",
			})
		}
	}
	return kept
}

// attachStaff runs the staff assigner over the proposed schedules and
// accumulates assignment costs
func (o *Optimizer) attachStaff(ctx context.Context, snap repositories.Snapshot, windowStart, windowEnd time.Time, result *dto.OptimizationResult) error {
	if len(result.Schedules) == 0 {
		return nil
	}

	roster, err := snap.AvailableStaff(ctx)
	if err != nil {
		return errors.Wrap(err, "load staff roster")
	}
	committed, err := snap.AssignmentsBetween(ctx, windowStart, windowEnd)
	if err != nil {
		return errors.Wrap(err, "load committed assignments")
	}

	assignments, understaffed := o.assigner.Assign(result.Schedules, roster, committed)
	result.StaffAssignments = assignments
	result.Understaffed = understaffed
	for _, assignment := range assignments {
		result.TotalCost = result.TotalCost.Add(assignment.Cost)
	}
	return nil
}

func validateRequest(req dto.OptimizationRequest) error {
	if len(req.OrderIDs) == 0 {
		return errors.Wrap(apperr.ErrInvalidInput, "no order IDs provided")
	}
	if !req.WindowStart.Before(req.WindowEnd) {
		return errors.Wrapf(apperr.ErrInvalidInput, "window start %s is not before end %s",
			req.WindowStart.Format(time.RFC3339), req.WindowEnd.Format(time.RFC3339))
	}
	if _, err := dto.ParseObjective(string(req.Objective)); err != nil {
		return errors.Wrap(apperr.ErrInvalidInput, err.Error())
	}
	return nil
}
