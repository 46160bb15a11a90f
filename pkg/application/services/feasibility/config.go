package feasibility

// ConfidenceWeights controls how the three feasibility ratios combine into
// the 0-100 confidence score. The weights are expected to sum to 1.
type ConfidenceWeights struct {
	Inventory  float64
	Production float64
	Risk       float64
}

// SeverityWeights maps risk severity grades to normalized [0,1] weights
type SeverityWeights struct {
	Low      float64
	Medium   float64
	High     float64
	Critical float64
}

// Config holds the tunable constants of the feasibility analyzer
type Config struct {
	Weights  ConfidenceWeights
	Severity SeverityWeights
	// SearchCeilingDays bounds the earliest-possible-date search beyond
	// the requested date. Past the ceiling an order is reported as
	// perpetually infeasible instead of searching forever.
	SearchCeilingDays int
}

// DefaultConfig returns the standard analyzer configuration
func DefaultConfig() Config {
	return Config{
		Weights: ConfidenceWeights{
			Inventory:  0.4,
			Production: 0.4,
			Risk:       0.2,
		},
		Severity: SeverityWeights{
			Low:      0.25,
			Medium:   0.5,
			High:     0.75,
			Critical: 1.0,
		},
		SearchCeilingDays: 180,
	}
}
