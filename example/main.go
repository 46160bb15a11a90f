package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/troikatech/planwise/pkg/application/dto"
	"github.com/troikatech/planwise/pkg/application/services/feasibility"
	"github.com/troikatech/planwise/pkg/application/services/orchestration"
	"github.com/troikatech/planwise/pkg/application/services/scheduling"
	"github.com/troikatech/planwise/pkg/domain/entities"
	"github.com/troikatech/planwise/pkg/infrastructure/events"
	"github.com/troikatech/planwise/pkg/infrastructure/repositories/memory"
)

func main() {
	ctx := context.Background()

	log := logrus.New()
	log.SetOutput(io.Discard)

	store := memory.NewStore()
	seedFactory(store)

	analyzer := feasibility.NewAnalyzer(feasibility.DefaultConfig(), log)
	optimizer := scheduling.NewOptimizer(scheduling.DefaultConfig(), log)
	recorder := events.NewRecorder()
	orch := orchestration.NewPlanningOrchestrator(
		store, analyzer, optimizer, nil, recorder, orchestration.DefaultConfig(), log)

	requested := time.Now().UTC().AddDate(0, 0, 14)

	fmt.Println("Checking feasibility for 40 drone kits...")
	verdict, err := orch.CheckFeasibility(ctx, dto.FeasibilityRequest{
		Items:         []dto.RequestedItem{{ProductID: "DRONE_KIT", Quantity: 40}},
		RequestedDate: requested,
	})
	if err != nil {
		fmt.Printf("feasibility check failed: %v\n", err)
		return
	}

	fmt.Printf("  Feasible: %v (confidence %.0f%%)\n", verdict.Feasible, verdict.ConfidenceScore)
	for _, constraint := range verdict.InventoryConstraints {
		fmt.Printf("  Inventory: %s\n", constraint)
	}
	for _, constraint := range verdict.ProductionConstraints {
		fmt.Printf("  Production: %s\n", constraint)
	}
	for _, risk := range verdict.RiskFactors {
		fmt.Printf("  Risk: %s\n", risk)
	}
	if verdict.Advisory != nil {
		fmt.Printf("  Advisory: %s\n", verdict.Advisory.Summary)
	}
	fmt.Println()

	fmt.Println("Optimizing the schedule for the open orders...")
	result, err := orch.OptimizeSchedule(ctx, dto.OptimizationRequest{
		OrderIDs:    []entities.OrderID{"ORD-1001", "ORD-1002"},
		WindowStart: time.Now().UTC().Truncate(time.Hour),
		WindowEnd:   time.Now().UTC().Truncate(time.Hour).AddDate(0, 0, 14),
		Objective:   dto.ObjectiveTime,
	})
	if err != nil {
		fmt.Printf("optimization failed: %v\n", err)
		return
	}

	fmt.Printf("  Status: %s, makespan %d hours, cost %s\n",
		result.Status, result.TotalMakespanHours, result.TotalCost.StringFixed(2))
	for _, sched := range result.Schedules {
		fmt.Printf("  %s on %s: %s -> %s\n", sched.OrderID, sched.LineID,
			sched.Start.Format("Jan 2 15:04"), sched.End.Format("Jan 2 15:04"))
	}
	for _, assignment := range result.StaffAssignments {
		fmt.Printf("  %s: %s for %dh (cost %s)\n",
			assignment.StaffID, assignment.TaskType, assignment.Hours, assignment.Cost.StringFixed(2))
	}
	for _, unplaced := range result.Unschedulable {
		fmt.Printf("  Unschedulable %s: %s\n", unplaced.OrderID, unplaced.Reason)
	}

	fmt.Printf("\nPublished %d planning events\n", len(recorder.Events()))
}

// seedFactory loads a small drone factory dataset
func seedFactory(store *memory.Store) {
	product, _ := entities.NewProduct("DRONE_KIT", "Drone Kit", "SKU-DK", 0.5, []entities.BOMLine{
		{ComponentID: "MOTOR", QtyPerUnit: 4},
		{ComponentID: "FRAME", QtyPerUnit: 1},
		{ComponentID: "BATTERY", QtyPerUnit: 2},
	})
	store.AddProduct(product)

	for component, onHand := range map[entities.ComponentID]entities.Quantity{
		"MOTOR":   400,
		"FRAME":   80,
		"BATTERY": 150,
	} {
		record, _ := entities.NewInventoryRecord(component, onHand, 0, 10, "WH-MAIN")
		store.AddInventoryRecord(record)
	}

	lineA, _ := entities.NewProductionLine("LINE-A", "Assembly A", 2, decimal.NewFromInt(60))
	lineB, _ := entities.NewProductionLine("LINE-B", "Assembly B", 1, decimal.NewFromInt(35))
	store.AddLine(lineA)
	store.AddLine(lineB)

	assembler, _ := entities.NewStaff("STAFF-1", "Mika", "assembly", entities.SkillSenior, decimal.NewFromFloat(42.5), 8)
	operator, _ := entities.NewStaff("STAFF-2", "Jordan", "production", entities.SkillIntermediate, decimal.NewFromFloat(31), 8)
	store.AddStaff(assembler)
	store.AddStaff(operator)

	delivery := time.Now().UTC().AddDate(0, 0, 10)
	first, _ := entities.NewOrder("ORD-1001", "CUST-9", []entities.OrderItem{
		{ProductID: "DRONE_KIT", Quantity: 20},
	}, delivery)
	second, _ := entities.NewOrder("ORD-1002", "CUST-12", []entities.OrderItem{
		{ProductID: "DRONE_KIT", Quantity: 12},
	}, delivery.AddDate(0, 0, 2))
	store.AddOrder(first)
	store.AddOrder(second)

	risk, _ := entities.NewExternalRisk("RISK-7", entities.RiskLogistics, "Shenzhen",
		"port congestion delaying motor shipments", entities.SeverityMedium,
		time.Now().UTC().AddDate(0, 0, -3), time.Time{})
	risk.AffectedComponents = []entities.ComponentID{"MOTOR"}
	store.UpsertRisks(context.Background(), []*entities.ExternalRisk{risk})
}
