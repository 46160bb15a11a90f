package feasibility

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/troikatech/planwise/pkg/application/apperr"
	"github.com/troikatech/planwise/pkg/application/dto"
	"github.com/troikatech/planwise/pkg/domain/entities"
	"github.com/troikatech/planwise/pkg/domain/repositories"
)

// Analyzer decides whether a set of ordered products can be delivered by a
// requested date. It is a stateless computation over a store snapshot;
// concurrent checks against the same snapshot are safe.
type Analyzer struct {
	cfg       Config
	inventory *InventoryProjector
	capacity  *CapacityProjector
	risks     *RiskAggregator
	log       *logrus.Entry
	now       func() time.Time
}

// NewAnalyzer creates a feasibility analyzer
func NewAnalyzer(cfg Config, log *logrus.Logger) *Analyzer {
	return &Analyzer{
		cfg:       cfg,
		inventory: NewInventoryProjector(),
		capacity:  NewCapacityProjector(),
		risks:     NewRiskAggregator(cfg.Severity),
		log:       log.WithField("component", "feasibility"),
		now:       time.Now,
	}
}

// WithClock overrides the analyzer's clock. Results are deterministic for a
// fixed clock and snapshot.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// requirement is one component demand row of an expanded request
type requirement struct {
	componentID entities.ComponentID
	quantity    entities.Quantity
}

// Check analyzes a feasibility request against the snapshot and returns the
// complete verdict. Input validation failures are reported as
// apperr.ErrInvalidInput before any projection runs.
func (a *Analyzer) Check(ctx context.Context, snap repositories.Snapshot, req dto.FeasibilityRequest) (*dto.FeasibilityResult, error) {
	items, err := mergeItems(req.Items)
	if err != nil {
		return nil, err
	}

	now := a.now().UTC().Truncate(time.Hour)
	requestedDate := req.RequestedDate.UTC()
	if !requestedDate.After(now) {
		return nil, errors.Wrapf(apperr.ErrInvalidInput, "requested date %s is not in the future", requestedDate.Format(time.RFC3339))
	}

	required, requiredHours, err := a.expandItems(ctx, snap, items)
	if err != nil {
		return nil, err
	}

	componentIDs := make([]entities.ComponentID, 0, len(required))
	for id := range required {
		componentIDs = append(componentIDs, id)
	}

	// The three projections are independent reads over one snapshot.
	var (
		invProjections []InventoryProjection
		totalHours     float64
		componentRisks []ComponentRisk
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invProjections, err = a.inventory.Project(gctx, snap, required, requestedDate)
		return err
	})
	g.Go(func() error {
		var err error
		_, totalHours, err = a.capacity.Project(gctx, snap, now, requestedDate)
		return err
	})
	g.Go(func() error {
		var err error
		componentRisks, err = a.risks.Aggregate(gctx, snap, componentIDs, now, requestedDate)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &dto.FeasibilityResult{
		InventoryConstraints:  []string{},
		ProductionConstraints: []string{},
		RiskFactors:           []string{},
	}

	inventoryRatio := a.scoreInventory(invProjections, requestedDate, result)
	productionRatio := a.scoreProduction(totalHours, requiredHours, result)
	riskRatio := a.scoreRisk(componentRisks, result)

	result.ConfidenceScore = clampScore(100 * (a.cfg.Weights.Inventory*inventoryRatio +
		a.cfg.Weights.Production*productionRatio +
		a.cfg.Weights.Risk*riskRatio))

	// Risk lowers confidence but never flips feasibility on its own.
	result.Feasible = len(result.InventoryConstraints) == 0 && len(result.ProductionConstraints) == 0

	if result.Feasible {
		earliest := requestedDate
		result.EarliestPossibleDate = &earliest
	} else {
		earliest, err := a.searchEarliestDate(ctx, snap, required, requiredHours, now, requestedDate)
		if err != nil {
			return nil, err
		}
		result.EarliestPossibleDate = earliest
		result.PerpetuallyInfeasible = earliest == nil
	}

	a.log.WithFields(logrus.Fields{
		"feasible":   result.Feasible,
		"confidence": result.ConfidenceScore,
		"components": len(required),
	}).Debug("feasibility check completed")

	return result, nil
}

// mergeItems validates request items and sums duplicate product IDs
func mergeItems(items []dto.RequestedItem) ([]dto.RequestedItem, error) {
	if len(items) == 0 {
		return nil, errors.Wrap(apperr.ErrInvalidInput, "request contains no items")
	}

	merged := make(map[entities.ProductID]entities.Quantity, len(items))
	order := make([]entities.ProductID, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" {
			return nil, errors.Wrap(apperr.ErrInvalidInput, "item product ID is empty")
		}
		if item.Quantity <= 0 {
			return nil, errors.Wrapf(apperr.ErrInvalidInput, "item quantity must be positive, got %d for product %s", item.Quantity, item.ProductID)
		}
		if _, seen := merged[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		merged[item.ProductID] += item.Quantity
	}

	result := make([]dto.RequestedItem, 0, len(order))
	for _, id := range order {
		result = append(result, dto.RequestedItem{ProductID: id, Quantity: merged[id]})
	}
	return result, nil
}

// expandItems expands requested items through each product's BOM into a
// required-components map and the total production hours
func (a *Analyzer) expandItems(ctx context.Context, snap repositories.Snapshot, items []dto.RequestedItem) (map[entities.ComponentID]entities.Quantity, float64, error) {
	required := make(map[entities.ComponentID]entities.Quantity)
	var requiredHours float64

	for _, item := range items {
		product, err := snap.Product(ctx, item.ProductID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, 0, errors.Wrapf(apperr.ErrInvalidInput, "unknown product %s", item.ProductID)
		}
		if err != nil {
			return nil, 0, errors.Wrapf(err, "load product %s", item.ProductID)
		}

		requiredHours += float64(item.Quantity) * product.HoursPerUnit
		for _, line := range product.BOM {
			required[line.ComponentID] += line.QtyPerUnit * item.Quantity
		}
	}

	return required, requiredHours, nil
}

// scoreInventory computes the required-quantity-weighted inventory ratio
// and appends a constraint per shortfall
func (a *Analyzer) scoreInventory(projections []InventoryProjection, by time.Time, result *dto.FeasibilityResult) float64 {
	if len(projections) == 0 {
		return 1
	}

	var weightedSum, totalRequired float64
	for _, proj := range projections {
		ratio := 1.0
		if proj.AvailableBy < proj.Required {
			ratio = float64(proj.AvailableBy) / float64(proj.Required)
			result.InventoryConstraints = append(result.InventoryConstraints, fmt.Sprintf(
				"insufficient %s: need %d, have %d by %s",
				proj.ComponentID, proj.Required, proj.AvailableBy, by.Format("2006-01-02")))
		}
		weightedSum += ratio * float64(proj.Required)
		totalRequired += float64(proj.Required)
	}

	return weightedSum / totalRequired
}

// scoreProduction computes the capacity ratio and appends a constraint on
// shortfall
func (a *Analyzer) scoreProduction(availableHours, requiredHours float64, result *dto.FeasibilityResult) float64 {
	if requiredHours <= 0 {
		return 1
	}
	if availableHours >= requiredHours {
		return 1
	}
	result.ProductionConstraints = append(result.ProductionConstraints, fmt.Sprintf(
		"insufficient production capacity: need %.0f hours, have %.0f hours available",
		requiredHours, availableHours))
	return availableHours / requiredHours
}

// scoreRisk computes 1 - max severity and appends risk factor facts
func (a *Analyzer) scoreRisk(componentRisks []ComponentRisk, result *dto.FeasibilityResult) float64 {
	var maxSeverity float64
	for _, cr := range componentRisks {
		if cr.Severity > maxSeverity {
			maxSeverity = cr.Severity
		}
		if cr.Severity > 0 {
			factors := make([]string, len(cr.Factors))
			copy(factors, cr.Factors)
			sort.Strings(factors)
			result.RiskFactors = append(result.RiskFactors, factors...)
		}
	}
	return 1 - maxSeverity
}

// searchEarliestDate walks the horizon forward day by day looking for the
// first date where both inventory and capacity fully cover the request.
// Returns nil when no date within the search ceiling satisfies it.
func (a *Analyzer) searchEarliestDate(
	ctx context.Context,
	snap repositories.Snapshot,
	required map[entities.ComponentID]entities.Quantity,
	requiredHours float64,
	now, requestedDate time.Time,
) (*time.Time, error) {
	for day := 1; day <= a.cfg.SearchCeilingDays; day++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidate := requestedDate.AddDate(0, 0, day)

		projections, err := a.inventory.Project(ctx, snap, required, candidate)
		if err != nil {
			return nil, err
		}
		covered := true
		for _, proj := range projections {
			if proj.AvailableBy < proj.Required {
				covered = false
				break
			}
		}
		if !covered {
			continue
		}

		_, totalHours, err := a.capacity.Project(ctx, snap, now, candidate)
		if err != nil {
			return nil, err
		}
		if totalHours >= requiredHours {
			return &candidate, nil
		}
	}

	return nil, nil
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
