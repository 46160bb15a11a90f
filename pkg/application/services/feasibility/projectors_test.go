package feasibility

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troikatech/planwise/pkg/domain/entities"
	"github.com/troikatech/planwise/pkg/infrastructure/repositories/memory"
)

func TestInventoryProjector_MissingRecordProjectsZero(t *testing.T) {
	store := memory.NewStore()
	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	projections, err := NewInventoryProjector().Project(context.Background(), snap,
		map[entities.ComponentID]entities.Quantity{"GHOST": 5},
		time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, projections, 1)
	assert.Equal(t, entities.Quantity(0), projections[0].AvailableNow)
	assert.Equal(t, entities.Quantity(0), projections[0].AvailableBy)
}

func TestInventoryProjector_AllocatedStockIsNotAvailable(t *testing.T) {
	store := memory.NewStore()
	record, err := entities.NewInventoryRecord("BOLT", 100, 30, 10, "WH-1")
	require.NoError(t, err)
	store.AddInventoryRecord(record)

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	projections, err := NewInventoryProjector().Project(context.Background(), snap,
		map[entities.ComponentID]entities.Quantity{"BOLT": 100},
		time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, projections, 1)
	assert.Equal(t, entities.Quantity(70), projections[0].AvailableNow)
}

func TestInventoryProjector_SortedByComponentID(t *testing.T) {
	store := memory.NewStore()
	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	projections, err := NewInventoryProjector().Project(context.Background(), snap,
		map[entities.ComponentID]entities.Quantity{"ZINC": 1, "BOLT": 1, "NUT": 1},
		time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, projections, 3)
	assert.Equal(t, entities.ComponentID("BOLT"), projections[0].ComponentID)
	assert.Equal(t, entities.ComponentID("NUT"), projections[1].ComponentID)
	assert.Equal(t, entities.ComponentID("ZINC"), projections[2].ComponentID)
}

func TestCapacityProjector_SubtractsCommittedSchedules(t *testing.T) {
	store := memory.NewStore()
	line, err := entities.NewProductionLine("LINE-1", "Line 1", 1, decimal.NewFromInt(50))
	require.NoError(t, err)
	store.AddLine(line)

	windowStart := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.Add(48 * time.Hour)

	// 10 committed hours inside the window, 5 more straddling its end
	inside, err := entities.NewProductionSchedule("SCH-1", "ORD-1", "LINE-1",
		windowStart.Add(5*time.Hour), windowStart.Add(15*time.Hour))
	require.NoError(t, err)
	store.AddSchedule(inside)
	straddling, err := entities.NewProductionSchedule("SCH-2", "ORD-2", "LINE-1",
		windowEnd.Add(-5*time.Hour), windowEnd.Add(5*time.Hour))
	require.NoError(t, err)
	store.AddSchedule(straddling)

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	projections, total, err := NewCapacityProjector().Project(context.Background(), snap, windowStart, windowEnd)
	require.NoError(t, err)

	require.Len(t, projections, 1)
	assert.InDelta(t, 33.0, projections[0].AvailableHours, 0.001,
		"only the in-window portion of a straddling schedule counts")
	assert.InDelta(t, 33.0, total, 0.001)
}

func TestCapacityProjector_EmptyWindow(t *testing.T) {
	store := memory.NewStore()
	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	at := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	projections, total, err := NewCapacityProjector().Project(context.Background(), snap, at, at)
	require.NoError(t, err)
	assert.Nil(t, projections)
	assert.Zero(t, total)
}

func TestRiskAggregator_MatchRules(t *testing.T) {
	windowStart := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.AddDate(0, 0, 7)

	direct, err := entities.NewExternalRisk("RISK-DIRECT", entities.RiskLogistics, "EU",
		"port congestion", entities.SeverityMedium, windowStart, time.Time{})
	require.NoError(t, err)
	direct.AffectedComponents = []entities.ComponentID{"BOLT"}

	bySupplier, err := entities.NewExternalRisk("RISK-SUP", entities.RiskLabor, "US",
		"strike at plant", entities.SeverityCritical, windowStart, time.Time{})
	require.NoError(t, err)
	bySupplier.AffectedSuppliers = []entities.SupplierID{"SUP-1"}

	byRegion, err := entities.NewExternalRisk("RISK-REGION", entities.RiskWeather, "Taiwan",
		"typhoon", entities.SeverityHigh, windowStart, time.Time{})
	require.NoError(t, err)

	expired, err := entities.NewExternalRisk("RISK-OLD", entities.RiskMarket, "Taiwan",
		"resolved shortage", entities.SeverityCritical,
		windowStart.AddDate(0, 0, -30), windowStart.AddDate(0, 0, -10))
	require.NoError(t, err)

	store := memory.NewStore()
	store.AddSupplier(&entities.Supplier{
		ID: "SUP-1", Name: "Bolts Inc", Region: "Taiwan",
		Components: []entities.ComponentID{"BOLT"},
	})
	require.NoError(t, store.UpsertRisks(context.Background(),
		[]*entities.ExternalRisk{direct, bySupplier, byRegion, expired}))

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	aggregator := NewRiskAggregator(DefaultConfig().Severity)
	results, err := aggregator.Aggregate(context.Background(), snap,
		[]entities.ComponentID{"BOLT", "SCREW"}, windowStart, windowEnd)
	require.NoError(t, err)

	require.Len(t, results, 2)

	bolt := results[0]
	assert.Equal(t, entities.ComponentID("BOLT"), bolt.ComponentID)
	assert.Len(t, bolt.Factors, 3, "direct, supplier, and region matches all apply; the expired one does not")
	assert.InDelta(t, 1.0, bolt.Severity, 0.001, "critical supplier strike dominates")

	screw := results[1]
	assert.Equal(t, entities.ComponentID("SCREW"), screw.ComponentID)
	assert.Zero(t, screw.Severity)
	assert.Empty(t, screw.Factors)
}
