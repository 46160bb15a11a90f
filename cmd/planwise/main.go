package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/troikatech/planwise/pkg/application/dto"
	"github.com/troikatech/planwise/pkg/domain/entities"
	"github.com/troikatech/planwise/pkg/interfaces/cli/output"
)

func main() {
	app := &cli.App{
		Name:  "planwise",
		Usage: "feasibility and schedule optimization engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to YAML config file",
				EnvVars: []string{"PLANWISE_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			checkCommand(),
			optimizeCommand(),
			syncRisksCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the planning API server",
		Action: func(c *cli.Context) error {
			rt, err := buildRuntime(c.Context, c.String("config"))
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.log.WithField("addr", rt.cfg.HTTP.Addr).Info("starting API server")
			return rt.server.Run(rt.cfg.HTTP.Addr)
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "run a one-off feasibility check",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "item",
				Usage:    "requested item as PRODUCT_ID:QUANTITY (repeatable)",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:     "date",
				Usage:    "requested delivery date (YYYY-MM-DD)",
				Layout:   "2006-01-02",
				Timezone: time.UTC,
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			rt, err := buildRuntime(c.Context, c.String("config"))
			if err != nil {
				return err
			}
			defer rt.Close()

			items, err := parseItems(c.StringSlice("item"))
			if err != nil {
				return err
			}

			result, err := rt.orchestrator.CheckFeasibility(c.Context, dto.FeasibilityRequest{
				Items:         items,
				RequestedDate: *c.Timestamp("date"),
			})
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func optimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "optimize and commit a production schedule",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "order",
				Usage:    "order ID to schedule (repeatable)",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:     "from",
				Usage:    "window start (YYYY-MM-DD)",
				Layout:   "2006-01-02",
				Timezone: time.UTC,
				Required: true,
			},
			&cli.IntFlag{
				Name:  "days",
				Usage: "window length in days",
				Value: 14,
			},
			&cli.StringFlag{
				Name:  "objective",
				Usage: "optimization objective: time, cost, or utilization",
				Value: string(dto.ObjectiveTime),
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "output format: timeline or json",
				Value: "timeline",
			},
		},
		Action: func(c *cli.Context) error {
			rt, err := buildRuntime(c.Context, c.String("config"))
			if err != nil {
				return err
			}
			defer rt.Close()

			objective, err := dto.ParseObjective(c.String("objective"))
			if err != nil {
				return err
			}

			var orderIDs []entities.OrderID
			for _, id := range c.StringSlice("order") {
				orderIDs = append(orderIDs, entities.OrderID(id))
			}

			windowStart := *c.Timestamp("from")
			result, err := rt.orchestrator.OptimizeSchedule(c.Context, dto.OptimizationRequest{
				OrderIDs:    orderIDs,
				WindowStart: windowStart,
				WindowEnd:   windowStart.AddDate(0, 0, c.Int("days")),
				Objective:   objective,
			})
			if err != nil {
				return err
			}

			if c.String("format") == "json" {
				return printJSON(result)
			}
			fmt.Print(output.NewTimeline().Render(result))
			return nil
		},
	}
}

func syncRisksCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync-risks",
		Usage: "refresh external risks from the configured feed",
		Action: func(c *cli.Context) error {
			rt, err := buildRuntime(c.Context, c.String("config"))
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.syncer == nil {
				return fmt.Errorf("no risk feed configured; set risk_feed.enabled")
			}
			count, err := rt.syncer.Sync(c.Context)
			if err != nil {
				return err
			}
			fmt.Printf("Synced %d risks\n", count)
			return nil
		},
	}
}

// parseItems parses PRODUCT_ID:QUANTITY pairs
func parseItems(raw []string) ([]dto.RequestedItem, error) {
	var items []dto.RequestedItem
	for _, pair := range raw {
		productID, qtyText, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("invalid item %q (expected PRODUCT_ID:QUANTITY)", pair)
		}
		var qty int64
		if _, err := fmt.Sscanf(qtyText, "%d", &qty); err != nil {
			return nil, fmt.Errorf("invalid quantity in item %q", pair)
		}
		items = append(items, dto.RequestedItem{
			ProductID: entities.ProductID(productID),
			Quantity:  entities.Quantity(qty),
		})
	}
	return items, nil
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
