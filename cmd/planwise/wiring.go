package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/troikatech/planwise/pkg/application/services/feasibility"
	"github.com/troikatech/planwise/pkg/application/services/orchestration"
	"github.com/troikatech/planwise/pkg/application/services/scheduling"
	"github.com/troikatech/planwise/pkg/domain/repositories"
	"github.com/troikatech/planwise/pkg/infrastructure/advisory"
	"github.com/troikatech/planwise/pkg/infrastructure/config"
	"github.com/troikatech/planwise/pkg/infrastructure/events"
	"github.com/troikatech/planwise/pkg/infrastructure/repositories/csv"
	"github.com/troikatech/planwise/pkg/infrastructure/repositories/memory"
	"github.com/troikatech/planwise/pkg/infrastructure/repositories/postgres"
	"github.com/troikatech/planwise/pkg/infrastructure/riskfeed"
	apihttp "github.com/troikatech/planwise/pkg/interfaces/http"
)

// runtime holds the wired application components for one CLI invocation
type runtime struct {
	cfg          *config.Config
	log          *logrus.Logger
	orchestrator *orchestration.PlanningOrchestrator
	syncer       *riskfeed.Syncer
	server       *apihttp.Server
	closers      []func()
}

// Close releases infrastructure connections in reverse wiring order
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// buildRuntime loads configuration and wires the store, collaborators,
// orchestrator, and API server
func buildRuntime(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := buildLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, log: log}

	store, err := rt.buildStore(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}

	analyzer := feasibility.NewAnalyzer(feasibility.Config{
		Weights: feasibility.ConfidenceWeights{
			Inventory:  cfg.Planning.InventoryWeight,
			Production: cfg.Planning.ProductionWeight,
			Risk:       cfg.Planning.RiskWeight,
		},
		Severity:          feasibility.DefaultConfig().Severity,
		SearchCeilingDays: cfg.Planning.SearchCeilingDays,
	}, log)

	optimizer := scheduling.NewOptimizer(scheduling.Config{
		SolverTimeout: cfg.Optimizer.SolverTimeout,
	}, log)

	var advisor orchestration.AdvisoryClient
	if cfg.Advisory.Enabled {
		advisor = advisory.NewClient(cfg.Advisory.BaseURL, cfg.Advisory.Timeout, log)
	}

	var publisher orchestration.EventPublisher
	if cfg.AMQP.Enabled {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			rt.Close()
			return nil, errors.Wrap(err, "connect event broker")
		}
		rt.closers = append(rt.closers, func() { amqpPublisher.Close() })
		publisher = amqpPublisher
	}

	if cfg.RiskFeed.Enabled {
		var cache *redis.Client
		if cfg.Redis.Enabled {
			cache = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
			rt.closers = append(rt.closers, func() { cache.Close() })
		}
		feed := riskfeed.NewClient(cfg.RiskFeed.BaseURL, cfg.RiskFeed.Timeout, log)
		rt.syncer = riskfeed.NewSyncer(feed, cache, store, cfg.RiskFeed.CacheTTL, log)
		if publisher != nil {
			rt.syncer = rt.syncer.WithPublisher(publisher)
		}
	}

	rt.orchestrator = orchestration.NewPlanningOrchestrator(
		store, analyzer, optimizer, advisor, publisher,
		orchestration.Config{CommitRetries: cfg.Planning.CommitRetries}, log)

	var syncer apihttp.RiskSyncer
	if rt.syncer != nil {
		syncer = rt.syncer
	}
	rt.server = apihttp.NewServer(rt.orchestrator, syncer, log)

	return rt, nil
}

func (rt *runtime) buildStore(ctx context.Context) (repositories.Store, error) {
	switch rt.cfg.Store.Driver {
	case "postgres":
		store, err := postgres.Connect(ctx, rt.cfg.Store.PostgresDSN)
		if err != nil {
			return nil, errors.Wrap(err, "connect postgres store")
		}
		rt.closers = append(rt.closers, store.Close)
		if err := store.Migrate(ctx, postgres.Schema); err != nil {
			return nil, err
		}
		return store, nil
	default:
		store := memory.NewStore()
		if rt.cfg.Store.DataDir != "" {
			if err := csv.NewLoader().LoadDirectory(rt.cfg.Store.DataDir, store); err != nil {
				return nil, errors.Wrap(err, "seed store from fixtures")
			}
			rt.log.WithField("dir", rt.cfg.Store.DataDir).Info("seeded store from CSV fixtures")
		}
		return store, nil
	}
}

func buildLogger(cfg config.LogConfig) (*logrus.Logger, error) {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "parse log level %q", cfg.Level)
	}
	log.SetLevel(level)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log, nil
}
