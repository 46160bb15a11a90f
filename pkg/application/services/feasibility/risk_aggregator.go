package feasibility

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/troikatech/planwise/pkg/domain/entities"
	"github.com/troikatech/planwise/pkg/domain/repositories"
)

// ComponentRisk is the aggregated disruption exposure of one component
type ComponentRisk struct {
	ComponentID entities.ComponentID
	// Severity is the max normalized weight across risks touching the
	// component, in [0,1]
	Severity float64
	Factors  []string
}

// RiskAggregator maps active external risks to the components they affect
// and produces a normalized severity per component
type RiskAggregator struct {
	severity SeverityWeights
}

// NewRiskAggregator creates a RiskAggregator with the given severity weights
func NewRiskAggregator(severity SeverityWeights) *RiskAggregator {
	return &RiskAggregator{severity: severity}
}

// Aggregate computes per-component risk over [start, end]. A risk applies
// to a component when it names the component directly, names one of its
// suppliers, or its region matches a supplier region - and its active
// window overlaps the horizon. Components come back sorted by ID.
func (a *RiskAggregator) Aggregate(
	ctx context.Context,
	snap repositories.Snapshot,
	componentIDs []entities.ComponentID,
	start, end time.Time,
) ([]ComponentRisk, error) {
	risks, err := snap.ActiveRisks(ctx, start, end)
	if err != nil {
		return nil, errors.Wrap(err, "load active risks")
	}

	sorted := make([]entities.ComponentID, len(componentIDs))
	copy(sorted, componentIDs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	results := make([]ComponentRisk, 0, len(sorted))
	for _, id := range sorted {
		suppliers, err := snap.SuppliersFor(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "load suppliers for %s", id)
		}

		cr := ComponentRisk{ComponentID: id}
		for _, risk := range risks {
			if !risk.ActiveDuring(start, end) {
				continue
			}
			if !a.applies(risk, id, suppliers) {
				continue
			}
			weight := a.weightOf(risk.Severity)
			if weight > cr.Severity {
				cr.Severity = weight
			}
			cr.Factors = append(cr.Factors, fmt.Sprintf(
				"%s risk in %s affecting %s: %s (%s)",
				risk.Type, risk.Region, id, risk.Description, risk.Severity))
		}
		results = append(results, cr)
	}

	return results, nil
}

func (a *RiskAggregator) applies(risk *entities.ExternalRisk, id entities.ComponentID, suppliers []*entities.Supplier) bool {
	if risk.Affects(id) {
		return true
	}
	for _, supplier := range suppliers {
		if risk.AffectsSupplier(supplier.ID) || supplier.Region == risk.Region {
			return true
		}
	}
	return false
}

func (a *RiskAggregator) weightOf(severity entities.RiskSeverity) float64 {
	switch severity {
	case entities.SeverityLow:
		return a.severity.Low
	case entities.SeverityMedium:
		return a.severity.Medium
	case entities.SeverityHigh:
		return a.severity.High
	case entities.SeverityCritical:
		return a.severity.Critical
	default:
		return 0
	}
}
