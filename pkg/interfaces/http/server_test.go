package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troikatech/planwise/pkg/application/dto"
	"github.com/troikatech/planwise/pkg/application/services/feasibility"
	"github.com/troikatech/planwise/pkg/application/services/orchestration"
	"github.com/troikatech/planwise/pkg/application/services/scheduling"
	"github.com/troikatech/planwise/pkg/domain/entities"
	"github.com/troikatech/planwise/pkg/infrastructure/repositories/memory"
)

var (
	serverNow       = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	serverRequested = time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()

	product, err := entities.NewProduct("WIDGET", "Widget", "SKU-W", 1.0,
		[]entities.BOMLine{{ComponentID: "BOLT", QtyPerUnit: 10}})
	require.NoError(t, err)
	store.AddProduct(product)

	record, err := entities.NewInventoryRecord("BOLT", 1000, 0, 10, "WH-1")
	require.NoError(t, err)
	store.AddInventoryRecord(record)

	line, err := entities.NewProductionLine("LINE-1", "Line 1", 1, decimal.NewFromInt(50))
	require.NoError(t, err)
	store.AddLine(line)

	member, err := entities.NewStaff("STAFF-A", "Avery", "production", entities.SkillSenior, decimal.NewFromInt(40), 24)
	require.NoError(t, err)
	store.AddStaff(member)

	order, err := entities.NewOrder("ORD-1", "CUST-1",
		[]entities.OrderItem{{ProductID: "WIDGET", Quantity: 10}}, serverRequested)
	require.NoError(t, err)
	store.AddOrder(order)

	return store
}

func newTestServer(t *testing.T, syncer RiskSyncer) *Server {
	t.Helper()
	store := seededStore(t)
	analyzer := feasibility.NewAnalyzer(feasibility.DefaultConfig(), testLogger()).
		WithClock(func() time.Time { return serverNow })
	optimizer := scheduling.NewOptimizer(scheduling.DefaultConfig(), testLogger())
	orch := orchestration.NewPlanningOrchestrator(
		store, analyzer, optimizer, nil, nil, orchestration.DefaultConfig(), testLogger())
	return NewServer(orch, syncer, testLogger())
}

func postJSON(t *testing.T, server *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	server := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_CheckFeasibility(t *testing.T) {
	server := newTestServer(t, nil)

	rec := postJSON(t, server, "/api/v1/feasibility/check", dto.FeasibilityRequest{
		Items:         []dto.RequestedItem{{ProductID: "WIDGET", Quantity: 10}},
		RequestedDate: serverRequested,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result dto.FeasibilityResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Feasible)
	assert.NotNil(t, result.Advisory)
}

func TestServer_CheckFeasibilityRejectsBadInput(t *testing.T) {
	server := newTestServer(t, nil)

	rec := postJSON(t, server, "/api/v1/feasibility/check", dto.FeasibilityRequest{
		Items:         []dto.RequestedItem{{ProductID: "WIDGET", Quantity: -1}},
		RequestedDate: serverRequested,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_CheckFeasibilityRejectsMalformedJSON(t *testing.T) {
	server := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/feasibility/check",
		bytes.NewReader([]byte(`{"items": [`)))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_OptimizeSchedule(t *testing.T) {
	server := newTestServer(t, nil)

	rec := postJSON(t, server, "/api/v1/schedule/optimize", dto.OptimizationRequest{
		OrderIDs:    []entities.OrderID{"ORD-1"},
		WindowStart: serverNow,
		WindowEnd:   serverNow.Add(100 * time.Hour),
		Objective:   dto.ObjectiveTime,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result dto.OptimizationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, dto.StatusOptimal, result.Status)
	require.Len(t, result.Schedules, 1)
	assert.Equal(t, entities.OrderID("ORD-1"), result.Schedules[0].OrderID)
}

func TestServer_OptimizeUnknownOrderIsBadRequest(t *testing.T) {
	server := newTestServer(t, nil)

	rec := postJSON(t, server, "/api/v1/schedule/optimize", dto.OptimizationRequest{
		OrderIDs:    []entities.OrderID{"ORD-MISSING"},
		WindowStart: serverNow,
		WindowEnd:   serverNow.Add(100 * time.Hour),
		Objective:   dto.ObjectiveTime,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubSyncer struct {
	count int
	err   error
}

func (s *stubSyncer) Sync(ctx context.Context) (int, error) {
	return s.count, s.err
}

func TestServer_SyncRisks(t *testing.T) {
	server := newTestServer(t, &stubSyncer{count: 3})

	rec := postJSON(t, server, "/api/v1/risks/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"synced": 3}`, rec.Body.String())
}

func TestServer_SyncRisksWithoutFeedIsUnavailable(t *testing.T) {
	server := newTestServer(t, nil)

	rec := postJSON(t, server, "/api/v1/risks/sync", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
