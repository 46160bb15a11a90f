package entities

import (
	"fmt"
	"time"
)

// RiskID uniquely identifies an external risk record
type RiskID string

// RiskType categorizes the source of an external risk
type RiskType string

const (
	RiskWeather      RiskType = "weather"
	RiskLogistics    RiskType = "logistics"
	RiskMarket       RiskType = "market"
	RiskGeopolitical RiskType = "geopolitical"
	RiskLabor        RiskType = "labor"
)

// RiskSeverity grades how disruptive a risk is expected to be
type RiskSeverity int

const (
	SeverityLow RiskSeverity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String method for RiskSeverity enum
func (s RiskSeverity) String() string {
	switch s {
	case SeverityLow:
		return "Low"
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	case SeverityCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// ExternalRisk represents a disruption risk sourced from an external feed
type ExternalRisk struct {
	ID                 RiskID
	Type               RiskType
	Region             string
	Description        string
	Severity           RiskSeverity
	AffectedComponents []ComponentID
	AffectedSuppliers  []SupplierID
	WindowStart        time.Time
	WindowEnd          time.Time // zero value = open ended
}

// NewExternalRisk creates a validated ExternalRisk
func NewExternalRisk(id RiskID, riskType RiskType, region, description string, severity RiskSeverity, windowStart, windowEnd time.Time) (*ExternalRisk, error) {
	if id == "" {
		return nil, fmt.Errorf("risk ID cannot be empty")
	}
	if region == "" {
		return nil, fmt.Errorf("risk region cannot be empty")
	}
	if !windowEnd.IsZero() && windowEnd.Before(windowStart) {
		return nil, fmt.Errorf("risk window end %v cannot be before start %v", windowEnd, windowStart)
	}

	return &ExternalRisk{
		ID:          id,
		Type:        riskType,
		Region:      region,
		Description: description,
		Severity:    severity,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}, nil
}

// ActiveDuring reports whether the risk's window overlaps [start, end]
func (r *ExternalRisk) ActiveDuring(start, end time.Time) bool {
	if r.WindowStart.After(end) {
		return false
	}
	if r.WindowEnd.IsZero() {
		return true
	}
	return !r.WindowEnd.Before(start)
}

// Affects reports whether the risk names the given component directly
func (r *ExternalRisk) Affects(componentID ComponentID) bool {
	for _, id := range r.AffectedComponents {
		if id == componentID {
			return true
		}
	}
	return false
}

// AffectsSupplier reports whether the risk names the given supplier
func (r *ExternalRisk) AffectsSupplier(supplierID SupplierID) bool {
	for _, id := range r.AffectedSuppliers {
		if id == supplierID {
			return true
		}
	}
	return false
}
