// Package advisory calls the external advisory service that turns
// feasibility verdicts into planner-facing narratives.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/troikatech/planwise/pkg/application/dto"
)

// SourceAdvisor marks advisories produced by the remote service
const SourceAdvisor = "advisor"

// Client is an HTTP client for the advisory service. Calls are bounded by
// the configured timeout so a slow advisor cannot stall a feasibility
// check.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Entry
}

// NewClient creates an advisory client
func NewClient(baseURL string, timeout time.Duration, log *logrus.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log.WithField("component", "advisory_client"),
	}
}

// adviseRequest is the advisory service's input payload
type adviseRequest struct {
	Request dto.FeasibilityRequest `json:"request"`
	Result  dto.FeasibilityResult  `json:"result"`
}

// Advise posts the verdict to the advisory service and returns its
// narrative. Any transport or decoding failure surfaces as an error; the
// caller degrades to the local fallback.
func (c *Client) Advise(ctx context.Context, req dto.FeasibilityRequest, result dto.FeasibilityResult) (*dto.Advisory, error) {
	body, err := json.Marshal(adviseRequest{Request: req, Result: result})
	if err != nil {
		return nil, errors.Wrap(err, "marshal advise request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/advise", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build advise request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "call advisory service")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("advisory service returned %d", resp.StatusCode)
	}

	var advisory dto.Advisory
	if err := json.NewDecoder(resp.Body).Decode(&advisory); err != nil {
		return nil, errors.Wrap(err, "decode advisory")
	}
	advisory.Source = SourceAdvisor

	c.log.WithField("recommendation", advisory.Recommendation).Debug("advisory received")
	return &advisory, nil
}
