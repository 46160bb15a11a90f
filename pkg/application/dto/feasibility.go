package dto

import (
	"time"

	"github.com/troikatech/planwise/pkg/domain/entities"
)

// RequestedItem is a product/quantity pair on a feasibility request
type RequestedItem struct {
	ProductID entities.ProductID `json:"product_id"`
	Quantity  entities.Quantity  `json:"quantity"`
}

// FeasibilityRequest asks whether a set of items can be delivered by the
// requested date
type FeasibilityRequest struct {
	Items         []RequestedItem `json:"items"`
	RequestedDate time.Time       `json:"requested_date"`
}

// Advisory is the optional narrative enrichment of a feasibility result.
// Source records whether it came from the advisory collaborator or from the
// local rule-based fallback.
type Advisory struct {
	Recommendation string   `json:"recommendation"`
	BottleneckText string   `json:"bottleneck_text"`
	Alternatives   []string `json:"alternatives,omitempty"`
	Summary        string   `json:"summary"`
	Source         string   `json:"source"`
}

// FeasibilityResult is the complete verdict of a feasibility check. The
// numeric fields never depend on the advisory collaborator's availability.
type FeasibilityResult struct {
	Feasible              bool       `json:"feasible"`
	ConfidenceScore       float64    `json:"confidence_score"`
	InventoryConstraints  []string   `json:"inventory_constraints"`
	ProductionConstraints []string   `json:"production_constraints"`
	RiskFactors           []string   `json:"risk_factors"`
	EarliestPossibleDate  *time.Time `json:"earliest_possible_date"`
	// PerpetuallyInfeasible is set when no horizon within the search
	// ceiling satisfies the order, as distinct from a late-but-possible one
	PerpetuallyInfeasible bool      `json:"perpetually_infeasible"`
	Advisory              *Advisory `json:"advisory,omitempty"`
}
