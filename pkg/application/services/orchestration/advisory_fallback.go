package orchestration

import (
	"fmt"
	"strings"

	"github.com/troikatech/planwise/pkg/application/dto"
)

// AdvisorySourceFallback marks advisories produced by the local rules
// rather than the advisory collaborator
const AdvisorySourceFallback = "fallback"

// fallbackAdvisory builds an advisory from the verdict alone using fixed
// templates. It names the dominant bottleneck and proposes alternatives a
// planner can act on without any external context.
func fallbackAdvisory(result *dto.FeasibilityResult) *dto.Advisory {
	advisory := &dto.Advisory{Source: AdvisorySourceFallback}

	switch {
	case result.Feasible:
		advisory.Recommendation = "proceed"
		advisory.BottleneckText = "none"
		advisory.Summary = fmt.Sprintf(
			"Order is feasible with %.0f%% confidence.", result.ConfidenceScore)
		if len(result.RiskFactors) > 0 {
			advisory.Summary += " External risks are lowering confidence; consider a buffer in the committed date."
			advisory.Alternatives = append(advisory.Alternatives, "add schedule buffer for active supply risks")
		}

	case result.PerpetuallyInfeasible:
		advisory.Recommendation = "reject"
		advisory.BottleneckText = dominantBottleneck(result)
		advisory.Summary = "No achievable date was found within the planning horizon. The order cannot be fulfilled as specified."
		advisory.Alternatives = append(advisory.Alternatives,
			"reduce the requested quantity",
			"source the constrained components from an additional supplier")

	default:
		advisory.Recommendation = "negotiate date"
		advisory.BottleneckText = dominantBottleneck(result)
		if result.EarliestPossibleDate != nil {
			advisory.Summary = fmt.Sprintf(
				"Requested date is not achievable; the earliest feasible date is %s.",
				result.EarliestPossibleDate.Format("2006-01-02"))
			advisory.Alternatives = append(advisory.Alternatives,
				fmt.Sprintf("move delivery to %s", result.EarliestPossibleDate.Format("2006-01-02")))
		} else {
			advisory.Summary = "Requested date is not achievable with current inventory and capacity."
		}
		advisory.Alternatives = append(advisory.Alternatives, "split the order into partial deliveries")
	}

	return advisory
}

// dominantBottleneck names the binding constraint class, preferring
// inventory over capacity when both bind
func dominantBottleneck(result *dto.FeasibilityResult) string {
	switch {
	case len(result.InventoryConstraints) > 0 && len(result.ProductionConstraints) > 0:
		return "inventory and production capacity: " + strings.Join(result.InventoryConstraints, "; ")
	case len(result.InventoryConstraints) > 0:
		return "inventory: " + strings.Join(result.InventoryConstraints, "; ")
	case len(result.ProductionConstraints) > 0:
		return "production capacity: " + strings.Join(result.ProductionConstraints, "; ")
	default:
		return "none"
	}
}
