package orchestration

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/troikatech/planwise/pkg/application/apperr"
	"github.com/troikatech/planwise/pkg/application/dto"
	"github.com/troikatech/planwise/pkg/application/services/feasibility"
	"github.com/troikatech/planwise/pkg/application/services/scheduling"
	"github.com/troikatech/planwise/pkg/domain/entities"
	"github.com/troikatech/planwise/pkg/domain/repositories"
	"github.com/troikatech/planwise/pkg/infrastructure/events"
)

// AdvisoryClient produces a narrative advisory for a feasibility verdict.
// Implementations may call out to a remote service; failures degrade the
// advisory, never the verdict.
type AdvisoryClient interface {
	Advise(ctx context.Context, req dto.FeasibilityRequest, result dto.FeasibilityResult) (*dto.Advisory, error)
}

// EventPublisher pushes planning events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Config holds the orchestrator's tunable constants
type Config struct {
	// CommitRetries bounds how many times an optimization is recomputed
	// against a fresh snapshot after losing the optimistic concurrency race
	CommitRetries int
}

// DefaultConfig returns the standard orchestrator configuration
func DefaultConfig() Config {
	return Config{CommitRetries: 3}
}

// PlanningOrchestrator coordinates the feasibility analyzer and schedule
// optimizer against the planning store, owning snapshot acquisition, the
// optimistic commit loop, advisory enrichment, and event publication.
type PlanningOrchestrator struct {
	store     repositories.Store
	analyzer  *feasibility.Analyzer
	optimizer *scheduling.Optimizer
	advisory  AdvisoryClient
	publisher EventPublisher
	cfg       Config
	log       *logrus.Entry
}

// NewPlanningOrchestrator creates a planning orchestrator. Advisory and
// publisher may be nil; both are optional collaborators.
func NewPlanningOrchestrator(
	store repositories.Store,
	analyzer *feasibility.Analyzer,
	optimizer *scheduling.Optimizer,
	advisory AdvisoryClient,
	publisher EventPublisher,
	cfg Config,
	log *logrus.Logger,
) *PlanningOrchestrator {
	return &PlanningOrchestrator{
		store:     store,
		analyzer:  analyzer,
		optimizer: optimizer,
		advisory:  advisory,
		publisher: publisher,
		cfg:       cfg,
		log:       log.WithField("component", "orchestrator"),
	}
}

// CheckFeasibility runs a feasibility check against the current snapshot
// and enriches the verdict with an advisory. The numeric verdict is final
// before the advisory call; an advisory failure falls back to the local
// rule-based narrative.
func (po *PlanningOrchestrator) CheckFeasibility(ctx context.Context, req dto.FeasibilityRequest) (*dto.FeasibilityResult, error) {
	snap, err := po.store.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(apperr.ErrDataUnavailable, err.Error())
	}

	result, err := po.analyzer.Check(ctx, snap, req)
	if err != nil {
		return nil, err
	}

	result.Advisory = po.adviseOn(ctx, req, result)

	po.publish(ctx, events.NewEvent(events.FeasibilityCheckedEvent, "feasibility", events.FeasibilityChecked{
		Feasible:        result.Feasible,
		ConfidenceScore: result.ConfidenceScore,
		RequestedDate:   req.RequestedDate,
		ItemCount:       len(req.Items),
	}))

	return result, nil
}

// OptimizeSchedule computes and commits a schedule for the requested
// orders. On a version conflict the whole optimization is recomputed
// against a fresh snapshot, up to the configured retry budget.
func (po *PlanningOrchestrator) OptimizeSchedule(ctx context.Context, req dto.OptimizationRequest) (*dto.OptimizationResult, error) {
	var lastVersion int64
	attempts := po.cfg.CommitRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		snap, err := po.store.Snapshot(ctx)
		if err != nil {
			return nil, errors.Wrap(apperr.ErrDataUnavailable, err.Error())
		}
		lastVersion = snap.Version()

		result, err := po.optimizer.Optimize(ctx, snap, req)
		if err != nil {
			return nil, err
		}

		plan := &entities.ProposedPlan{
			Schedules:   result.Schedules,
			Assignments: result.StaffAssignments,
		}
		plan.Allocations, err = po.planAllocations(ctx, snap, result.Schedules)
		if err != nil {
			return nil, err
		}

		err = po.store.CommitPlan(ctx, snap.Version(), plan)
		if err == nil {
			po.publish(ctx, events.NewEvent(events.ScheduleCommittedEvent, "scheduling", events.ScheduleCommitted{
				BaseVersion:     snap.Version(),
				ScheduleCount:   len(result.Schedules),
				AssignmentCount: len(result.StaffAssignments),
				Status:          string(result.Status),
			}))
			return result, nil
		}
		if !errors.Is(err, repositories.ErrVersionConflict) {
			return nil, errors.Wrap(err, "commit plan")
		}

		po.log.WithFields(logrus.Fields{
			"attempt": attempt,
			"version": snap.Version(),
		}).Warn("plan commit lost the version race, recomputing")
	}

	po.publish(ctx, events.NewEvent(events.ScheduleConflictEvent, "scheduling", events.ScheduleConflict{
		BaseVersion: lastVersion,
		Attempts:    attempts,
	}))
	return nil, errors.Wrapf(apperr.ErrSchedulingConflict, "store kept changing across %d attempts", attempts)
}

// planAllocations expands the scheduled orders' BOMs into component
// reservations, clamped to what the snapshot says is still available
func (po *PlanningOrchestrator) planAllocations(ctx context.Context, snap repositories.Snapshot, schedules []*entities.ProductionSchedule) (map[entities.ComponentID]entities.Quantity, error) {
	required := make(map[entities.ComponentID]entities.Quantity)
	seen := make(map[entities.OrderID]bool, len(schedules))
	for _, schedule := range schedules {
		if seen[schedule.OrderID] {
			continue
		}
		seen[schedule.OrderID] = true

		order, err := snap.Order(ctx, schedule.OrderID)
		if err != nil {
			return nil, errors.Wrapf(err, "load order %s", schedule.OrderID)
		}
		for _, item := range order.Items {
			product, err := snap.Product(ctx, item.ProductID)
			if err != nil {
				return nil, errors.Wrapf(err, "load product %s", item.ProductID)
			}
			for _, line := range product.BOM {
				required[line.ComponentID] += line.QtyPerUnit * item.Quantity
			}
		}
	}

	allocations := make(map[entities.ComponentID]entities.Quantity, len(required))
	for componentID, qty := range required {
		record, err := snap.InventoryRecord(ctx, componentID)
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "load inventory record for %s", componentID)
		}
		available := record.Available()
		if available <= 0 {
			continue
		}
		if qty > available {
			qty = available
		}
		allocations[componentID] = qty
	}
	return allocations, nil
}

// adviseOn returns the remote advisory when available, the local fallback
// otherwise
func (po *PlanningOrchestrator) adviseOn(ctx context.Context, req dto.FeasibilityRequest, result *dto.FeasibilityResult) *dto.Advisory {
	if po.advisory != nil {
		advisory, err := po.advisory.Advise(ctx, req, *result)
		if err == nil && advisory != nil {
			return advisory
		}
		if err != nil {
			po.log.WithError(err).Warn("advisory service unavailable, using fallback narrative")
		}
	}
	return fallbackAdvisory(result)
}

// publish sends an event best-effort; a broker failure never fails the
// planning operation
func (po *PlanningOrchestrator) publish(ctx context.Context, event events.Event) {
	if po.publisher == nil {
		return
	}
	if err := po.publisher.Publish(ctx, event); err != nil {
		po.log.WithError(err).WithField("type", event.Type()).Warn("event publish failed")
	}
}
