// Package riskfeed ingests external disruption risks (weather, logistics,
// market) into the planning store, with a cache in front of the upstream
// feed.
package riskfeed

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/troikatech/planwise/pkg/domain/entities"
)

// feedRisk is the upstream feed's wire format for one risk record
type feedRisk struct {
	ID                 string     `json:"id"`
	Type               string     `json:"type"`
	Region             string     `json:"region"`
	Description        string     `json:"description"`
	Severity           string     `json:"severity"`
	WindowStart        time.Time  `json:"window_start"`
	WindowEnd          *time.Time `json:"window_end"`
	AffectedComponents []string   `json:"affected_components"`
	AffectedSuppliers  []string   `json:"affected_suppliers"`
}

// Client fetches risk records from the external feed over HTTP
type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Entry
}

// NewClient creates a risk feed client
func NewClient(baseURL string, timeout time.Duration, log *logrus.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log.WithField("component", "riskfeed_client"),
	}
}

// FetchRisks pulls the current risk records from the feed. Records that
// fail validation are skipped with a warning rather than poisoning the
// whole batch.
func (c *Client) FetchRisks(ctx context.Context) ([]*entities.ExternalRisk, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/risks", nil)
	if err != nil {
		return nil, errors.Wrap(err, "build feed request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call risk feed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("risk feed returned %d", resp.StatusCode)
	}

	var records []feedRisk
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, errors.Wrap(err, "decode risk feed")
	}

	risks := make([]*entities.ExternalRisk, 0, len(records))
	for _, record := range records {
		risk, err := record.toEntity()
		if err != nil {
			c.log.WithError(err).WithField("risk_id", record.ID).Warn("skipping malformed feed record")
			continue
		}
		risks = append(risks, risk)
	}
	return risks, nil
}

func (r feedRisk) toEntity() (*entities.ExternalRisk, error) {
	var windowEnd time.Time
	if r.WindowEnd != nil {
		windowEnd = *r.WindowEnd
	}

	risk, err := entities.NewExternalRisk(
		entities.RiskID(r.ID),
		entities.RiskType(strings.ToLower(r.Type)),
		r.Region,
		r.Description,
		parseSeverity(r.Severity),
		r.WindowStart,
		windowEnd,
	)
	if err != nil {
		return nil, err
	}

	for _, id := range r.AffectedComponents {
		risk.AffectedComponents = append(risk.AffectedComponents, entities.ComponentID(id))
	}
	for _, id := range r.AffectedSuppliers {
		risk.AffectedSuppliers = append(risk.AffectedSuppliers, entities.SupplierID(id))
	}
	return risk, nil
}

// parseSeverity maps feed severity strings to grades. Unknown values
// grade as low.
func parseSeverity(s string) entities.RiskSeverity {
	switch strings.ToLower(s) {
	case "critical":
		return entities.SeverityCritical
	case "high":
		return entities.SeverityHigh
	case "medium":
		return entities.SeverityMedium
	default:
		return entities.SeverityLow
	}
}
