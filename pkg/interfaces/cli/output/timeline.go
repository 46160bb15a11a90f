// Package output renders optimization results for terminal display
package output

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/troikatech/planwise/pkg/application/dto"
	"github.com/troikatech/planwise/pkg/domain/entities"
)

// Timeline renders an optimization result as a text Gantt chart, one row
// per schedule, grouped by production line.
type Timeline struct {
	// Width is the number of columns available for the bar area
	Width int
}

// NewTimeline creates a timeline renderer with the default width
func NewTimeline() *Timeline {
	return &Timeline{Width: 60}
}

// Render writes the timeline for a result. Unschedulable orders and
// understaffed tasks are listed below the chart.
func (t *Timeline) Render(result *dto.OptimizationResult) string {
	var b strings.Builder

	if len(result.Schedules) == 0 {
		b.WriteString("No schedules placed.\n")
	} else {
		t.renderChart(&b, result.Schedules)
	}

	if len(result.Unschedulable) > 0 {
		b.WriteString("\nUnschedulable orders:\n")
		for _, unplaced := range result.Unschedulable {
			fmt.Fprintf(&b, "  %-12s %s\n", unplaced.OrderID, unplaced.Reason)
		}
	}
	if len(result.Understaffed) > 0 {
		b.WriteString("\nUnderstaffed tasks:\n")
		for _, task := range result.Understaffed {
			fmt.Fprintf(&b, "  %s %s (%dh)\n", task.ScheduleID, task.TaskType, task.Hours)
		}
	}

	fmt.Fprintf(&b, "\nStatus: %s, makespan %d hours, total cost %s\n",
		result.Status, result.TotalMakespanHours, result.TotalCost.StringFixed(2))
	return b.String()
}

func (t *Timeline) renderChart(b *strings.Builder, schedules []*entities.ProductionSchedule) {
	start, end := timeBounds(schedules)
	span := end.Sub(start)
	if span <= 0 {
		span = time.Hour
	}

	sorted := make([]*entities.ProductionSchedule, len(schedules))
	copy(sorted, schedules)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].LineID != sorted[j].LineID {
			return sorted[i].LineID < sorted[j].LineID
		}
		return sorted[i].Start.Before(sorted[j].Start)
	})

	fmt.Fprintf(b, "%-10s %-12s %s\n", "LINE", "ORDER",
		fmt.Sprintf("%s .. %s", start.Format("Jan 2 15:04"), end.Format("Jan 2 15:04")))

	var currentLine entities.LineID
	for _, sched := range sorted {
		lineLabel := ""
		if sched.LineID != currentLine {
			lineLabel = string(sched.LineID)
			currentLine = sched.LineID
		}

		from := t.column(sched.Start.Sub(start), span)
		to := t.column(sched.End.Sub(start), span)
		if to <= from {
			to = from + 1
		}

		bar := strings.Repeat(" ", from) +
			strings.Repeat("=", to-from) +
			strings.Repeat(" ", t.Width-to)
		fmt.Fprintf(b, "%-10s %-12s |%s| %dh\n", lineLabel, sched.OrderID, bar, sched.DurationHours())
	}
}

// column maps an offset into the span onto a chart column
func (t *Timeline) column(offset, span time.Duration) int {
	col := int(float64(offset) / float64(span) * float64(t.Width))
	if col < 0 {
		return 0
	}
	if col > t.Width {
		return t.Width
	}
	return col
}

func timeBounds(schedules []*entities.ProductionSchedule) (time.Time, time.Time) {
	start, end := schedules[0].Start, schedules[0].End
	for _, sched := range schedules[1:] {
		if sched.Start.Before(start) {
			start = sched.Start
		}
		if sched.End.After(end) {
			end = sched.End
		}
	}
	return start, end
}
