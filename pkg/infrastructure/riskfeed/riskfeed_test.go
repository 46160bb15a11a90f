package riskfeed

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troikatech/planwise/pkg/domain/entities"
	"github.com/troikatech/planwise/pkg/infrastructure/events"
	"github.com/troikatech/planwise/pkg/infrastructure/repositories/memory"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

const feedPayload = `[
	{
		"id": "RISK-1",
		"type": "Weather",
		"region": "Taiwan",
		"description": "typhoon approaching",
		"severity": "High",
		"window_start": "2026-09-01T00:00:00Z",
		"affected_components": ["BOLT"]
	},
	{
		"id": "RISK-2",
		"type": "logistics",
		"region": "EU",
		"description": "port congestion",
		"severity": "experimental-grade",
		"window_start": "2026-09-01T00:00:00Z",
		"window_end": "2026-09-30T00:00:00Z",
		"affected_suppliers": ["SUP-1"]
	},
	{
		"id": "",
		"type": "market",
		"region": "US",
		"description": "malformed record without an id",
		"severity": "low",
		"window_start": "2026-09-01T00:00:00Z"
	}
]`

func TestClient_FetchRisks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/risks", r.URL.Path)
		w.Write([]byte(feedPayload))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, testLogger())
	risks, err := client.FetchRisks(context.Background())
	require.NoError(t, err)

	require.Len(t, risks, 2, "the record without an id is skipped")

	assert.Equal(t, entities.RiskID("RISK-1"), risks[0].ID)
	assert.Equal(t, entities.RiskWeather, risks[0].Type)
	assert.Equal(t, entities.SeverityHigh, risks[0].Severity)
	assert.True(t, risks[0].WindowEnd.IsZero(), "missing window end stays open ended")
	assert.Equal(t, []entities.ComponentID{"BOLT"}, risks[0].AffectedComponents)

	assert.Equal(t, entities.SeverityLow, risks[1].Severity, "unknown severity grades as low")
	assert.Equal(t, []entities.SupplierID{"SUP-1"}, risks[1].AffectedSuppliers)
}

func TestClient_FeedErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, testLogger())
	_, err := client.FetchRisks(context.Background())
	assert.Error(t, err)
}

// staticFeed returns a fixed set of risks and counts calls
type staticFeed struct {
	risks []*entities.ExternalRisk
	calls int
}

func (f *staticFeed) FetchRisks(ctx context.Context) ([]*entities.ExternalRisk, error) {
	f.calls++
	return f.risks, nil
}

func TestSyncer_UpsertsIntoStore(t *testing.T) {
	windowStart := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	risk, err := entities.NewExternalRisk("RISK-1", entities.RiskWeather, "Taiwan",
		"typhoon", entities.SeverityHigh, windowStart, time.Time{})
	require.NoError(t, err)

	store := memory.NewStore()
	feed := &staticFeed{risks: []*entities.ExternalRisk{risk}}
	syncer := NewSyncer(feed, nil, store, time.Minute, testLogger())

	count, err := syncer.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, feed.calls)

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	risks, err := snap.ActiveRisks(context.Background(), windowStart, windowStart.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, risks, 1)
	assert.Equal(t, entities.RiskID("RISK-1"), risks[0].ID)
}

func TestSyncer_PublishesSyncedEvent(t *testing.T) {
	windowStart := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	risk, err := entities.NewExternalRisk("RISK-1", entities.RiskWeather, "Taiwan",
		"typhoon", entities.SeverityHigh, windowStart, time.Time{})
	require.NoError(t, err)

	recorder := events.NewRecorder()
	syncer := NewSyncer(&staticFeed{risks: []*entities.ExternalRisk{risk}}, nil,
		memory.NewStore(), time.Minute, testLogger()).WithPublisher(recorder)

	count, err := syncer.Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	published := recorder.OfType(events.RisksSyncedEvent)
	require.Len(t, published, 1)
	payload, ok := published[0].Data().(events.RisksSynced)
	require.True(t, ok)
	assert.Equal(t, 1, payload.Count)
}
