package output

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troikatech/planwise/pkg/application/dto"
	"github.com/troikatech/planwise/pkg/domain/entities"
)

func mustSchedule(t *testing.T, id entities.ScheduleID, orderID entities.OrderID, lineID entities.LineID, start time.Time, hours int) *entities.ProductionSchedule {
	t.Helper()
	sched, err := entities.NewProductionSchedule(id, orderID, lineID, start, start.Add(time.Duration(hours)*time.Hour))
	require.NoError(t, err)
	return sched
}

func TestTimeline_GroupsRowsByLine(t *testing.T) {
	start := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	result := &dto.OptimizationResult{
		Schedules: []*entities.ProductionSchedule{
			mustSchedule(t, "SCH-2", "ORD-2", "LINE-B", start.Add(4*time.Hour), 8),
			mustSchedule(t, "SCH-1", "ORD-1", "LINE-A", start, 10),
			mustSchedule(t, "SCH-3", "ORD-3", "LINE-A", start.Add(10*time.Hour), 6),
		},
		TotalMakespanHours: 16,
		TotalCost:          decimal.NewFromInt(1200),
		Status:             dto.StatusOptimal,
	}

	rendered := NewTimeline().Render(result)
	lines := strings.Split(strings.TrimRight(rendered, "\n"), "\n")

	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, lines[1], "LINE-A")
	assert.Contains(t, lines[1], "ORD-1")
	// Second schedule on the same line leaves the line column blank
	assert.Contains(t, lines[2], "ORD-3")
	assert.NotContains(t, lines[2], "LINE-A")
	assert.Contains(t, lines[3], "LINE-B")
	assert.Contains(t, rendered, "Status: OPTIMAL, makespan 16 hours, total cost 1200.00")
}

func TestTimeline_BarsScaleWithDuration(t *testing.T) {
	start := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	long := mustSchedule(t, "SCH-1", "ORD-1", "LINE-A", start, 30)
	short := mustSchedule(t, "SCH-2", "ORD-2", "LINE-B", start, 10)
	result := &dto.OptimizationResult{
		Schedules: []*entities.ProductionSchedule{long, short},
		Status:    dto.StatusOptimal,
	}

	rendered := NewTimeline().Render(result)
	var longBar, shortBar int
	for _, line := range strings.Split(rendered, "\n") {
		if strings.Contains(line, "ORD-1") {
			longBar = strings.Count(line, "=")
		}
		if strings.Contains(line, "ORD-2") {
			shortBar = strings.Count(line, "=")
		}
	}
	assert.Greater(t, longBar, shortBar)
	assert.Greater(t, shortBar, 0)
}

func TestTimeline_ListsUnschedulableAndUnderstaffed(t *testing.T) {
	result := &dto.OptimizationResult{
		Unschedulable: []dto.UnschedulableOrder{
			{OrderID: "ORD-9", Reason: "no contiguous slot fits within the window"},
		},
		Understaffed: []dto.UnderstaffedTask{
			{ScheduleID: "SCH-1", TaskType: entities.TaskProduction, Hours: 8},
		},
		Status: dto.StatusFallback,
	}

	rendered := NewTimeline().Render(result)
	assert.Contains(t, rendered, "No schedules placed.")
	assert.Contains(t, rendered, "ORD-9")
	assert.Contains(t, rendered, "no contiguous slot fits within the window")
	assert.Contains(t, rendered, "production (8h)")
	assert.Contains(t, rendered, "Status: FALLBACK")
}
