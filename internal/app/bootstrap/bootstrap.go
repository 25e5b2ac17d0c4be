package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	campaignworkflow "adops/contexts/sales-pipeline/campaign-workflow"
	campaignpostgres "adops/contexts/sales-pipeline/campaign-workflow/adapters/postgres"
	campaignworkers "adops/contexts/sales-pipeline/campaign-workflow/application/workers"
	orderworkflow "adops/contexts/sales-pipeline/order-workflow"
	orderpostgres "adops/contexts/sales-pipeline/order-workflow/adapters/postgres"
	orderworkers "adops/contexts/sales-pipeline/order-workflow/application/workers"
	triggerengine "adops/contexts/sales-pipeline/trigger-engine"
	triggermemory "adops/contexts/sales-pipeline/trigger-engine/adapters/memory"
	"adops/contexts/sales-pipeline/trigger-engine/adapters/notify"
	triggerpostgres "adops/contexts/sales-pipeline/trigger-engine/adapters/postgres"
	"adops/contexts/sales-pipeline/trigger-engine/adapters/webhook"
	triggerworkers "adops/contexts/sales-pipeline/trigger-engine/application/workers"
	"adops/internal/platform/bus"
	"adops/internal/platform/config"
	"adops/internal/platform/db"
	"adops/internal/platform/httpserver"
	"adops/internal/shared/events"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	consumer *triggerworkers.EventConsumer
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	consumer      *triggerworkers.EventConsumer
	campaignRelay campaignworkers.OutboxRelay
	orderRelay    orderworkers.OutboxRelay
	relayEnabled  bool
	pollInterval  time.Duration
	logger        *slog.Logger
}

// modules holds the three pipeline modules wired over shared infrastructure.
type modules struct {
	campaigns campaignworkflow.Module
	orders    orderworkflow.Module
	triggers  triggerengine.Module
}

func buildModules(cfg config.Config, pg *db.Postgres, logger *slog.Logger) modules {
	orderRepo := orderpostgres.NewRepository(pg.DB, logger)
	orderModule := orderworkflow.NewModule(orderworkflow.Dependencies{
		Orders:    orderRepo,
		History:   orderRepo,
		Packages:  orderRepo,
		Inventory: orderRepo,
		Outbox:    orderRepo,
		Clock:     orderpostgres.SystemClock{},
		IDGen:     orderpostgres.UUIDGenerator{},
		Logger:    logger,
	})
	orderGateway := orderworkflow.Gateway{Module: orderModule}

	campaignRepo := campaignpostgres.NewRepository(pg.DB, logger)
	campaignModule := campaignworkflow.NewModule(campaignworkflow.Dependencies{
		Campaigns: campaignRepo,
		Approvals: campaignRepo,
		Activity:  campaignRepo,
		Settings:  campaignRepo,
		Inventory: orderGateway,
		Packages:  orderGateway,
		Outbox:    campaignRepo,
		Clock:     campaignpostgres.SystemClock{},
		IDGen:     campaignpostgres.UUIDGenerator{},
		Logger:    logger,
	})

	triggerRepo := triggerpostgres.NewRepository(pg.DB, logger)
	triggerModule := triggerengine.NewModule(triggerengine.Dependencies{
		Triggers:   triggerRepo,
		Executions: triggerRepo,
		Cache:      triggermemory.NewRuleCache(triggerRepo, cfg.RuleCacheTTL),
		Campaigns:  campaignworkflow.Gateway{Module: campaignModule},
		Orders:     orderGateway,
		Directory:  triggerRepo,
		Notifier:   notify.NewLogSink(logger),
		Webhooks:   webhook.NewClient(cfg.WebhookTimeout),
		Clock:      triggerpostgres.SystemClock{},
		IDGen:      triggerpostgres.UUIDGenerator{},
		Logger:     logger,
	})

	return modules{
		campaigns: campaignModule,
		orders:    orderModule,
		triggers:  triggerModule,
	}
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	workflowBus := bus.New(logger)
	wired := buildModules(cfg, pg, logger)

	app := &APIApp{
		server: httpserver.New(
			wired.campaigns,
			wired.orders,
			wired.triggers,
			workflowBus,
			logger,
			normalizeAddr(cfg.HTTPPort),
		),
		postgres: pg,
		logger:   logger,
	}

	// The bus is in-process, so events accepted on POST /v1/events are only
	// evaluated if this process also subscribes.
	if cfg.EnableTriggerConsumer {
		app.consumer = &triggerworkers.EventConsumer{
			Source:   workflowBus,
			Evaluate: wired.triggers.EvaluateEvent,
			Logger:   logger,
		}
	}
	return app, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	workflowBus := bus.New(logger)
	wired := buildModules(cfg, pg, logger)

	campaignRepo := campaignpostgres.NewRepository(pg.DB, logger)
	orderRepo := orderpostgres.NewRepository(pg.DB, logger)

	app := &WorkerApp{
		postgres: pg,
		campaignRelay: campaignworkers.OutboxRelay{
			Outbox:    campaignRepo,
			Publisher: workflowBus,
			Clock:     campaignpostgres.SystemClock{},
			Topic:     events.TopicWorkflow,
			BatchSize: 100,
			Logger:    logger,
		},
		orderRelay: orderworkers.OutboxRelay{
			Outbox:    orderRepo,
			Publisher: workflowBus,
			Clock:     orderpostgres.SystemClock{},
			Topic:     events.TopicWorkflow,
			BatchSize: 100,
			Logger:    logger,
		},
		relayEnabled: cfg.EnableOutboxRelay,
		pollInterval: cfg.WorkerPollInterval,
		logger:       logger,
	}
	if cfg.EnableTriggerConsumer {
		app.consumer = &triggerworkers.EventConsumer{
			Source:   workflowBus,
			Evaluate: wired.triggers.EvaluateEvent,
			Logger:   logger,
		}
	}
	return app, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.consumer != nil {
		if err := a.consumer.Start(ctx); err != nil {
			return err
		}
	}
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.consumer != nil {
		if err := w.consumer.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.relayEnabled {
			if err := w.campaignRelay.RunOnce(ctx); err != nil {
				return err
			}
			if err := w.orderRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
