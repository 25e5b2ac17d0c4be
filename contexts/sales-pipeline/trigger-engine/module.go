package triggerengine

import (
	"log/slog"
	"time"

	"adops/contexts/sales-pipeline/trigger-engine/adapters/memory"
	"adops/contexts/sales-pipeline/trigger-engine/application/actions"
	"adops/contexts/sales-pipeline/trigger-engine/application/commands"
	"adops/contexts/sales-pipeline/trigger-engine/application/queries"
	"adops/contexts/sales-pipeline/trigger-engine/ports"
)

type Module struct {
	SaveTrigger    commands.SaveTriggerUseCase
	DisableTrigger commands.DisableTriggerUseCase
	EvaluateEvent  commands.EvaluateEventUseCase
	ListTriggers   queries.ListTriggersUseCase
	GetTrigger     queries.GetTriggerUseCase
	ListExecutions queries.ListExecutionsUseCase

	Store *memory.Store
	Cache ports.RuleCache
}

type Dependencies struct {
	Triggers   ports.TriggerRepository
	Executions ports.ExecutionLogStore
	Cache      ports.RuleCache
	Campaigns  ports.CampaignGateway
	Orders     ports.OrderGateway
	Directory  ports.Directory
	Notifier   ports.NotificationSink
	Webhooks   ports.WebhookClient
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	executor := actions.Executor{
		Campaigns: deps.Campaigns,
		Orders:    deps.Orders,
		Directory: deps.Directory,
		Notifier:  deps.Notifier,
		Webhooks:  deps.Webhooks,
		Logger:    deps.Logger,
	}
	return Module{
		SaveTrigger: commands.SaveTriggerUseCase{
			Triggers: deps.Triggers,
			Cache:    deps.Cache,
			Clock:    deps.Clock,
			IDGen:    deps.IDGen,
			Logger:   deps.Logger,
		},
		DisableTrigger: commands.DisableTriggerUseCase{
			Triggers: deps.Triggers,
			Cache:    deps.Cache,
			Clock:    deps.Clock,
			Logger:   deps.Logger,
		},
		EvaluateEvent: commands.EvaluateEventUseCase{
			Cache:      deps.Cache,
			Triggers:   deps.Triggers,
			Executions: deps.Executions,
			Executor:   executor,
			Clock:      deps.Clock,
			IDGen:      deps.IDGen,
			Logger:     deps.Logger,
		},
		ListTriggers:   queries.ListTriggersUseCase{Triggers: deps.Triggers},
		GetTrigger:     queries.GetTriggerUseCase{Triggers: deps.Triggers},
		ListExecutions: queries.ListExecutionsUseCase{Executions: deps.Executions},
		Cache:          deps.Cache,
	}
}

// NewInMemoryModule wires the module over the in-memory store. Campaign and
// order gateways cross module boundaries and are injected.
func NewInMemoryModule(
	campaigns ports.CampaignGateway,
	orders ports.OrderGateway,
	notifier ports.NotificationSink,
	webhooks ports.WebhookClient,
	cacheTTL time.Duration,
	logger *slog.Logger,
) Module {
	store := memory.NewStore()
	cache := memory.NewRuleCache(store, cacheTTL)
	module := NewModule(Dependencies{
		Triggers:   store,
		Executions: store,
		Cache:      cache,
		Campaigns:  campaigns,
		Orders:     orders,
		Directory:  store,
		Notifier:   notifier,
		Webhooks:   webhooks,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
