package app

import (
	"github.com/sequenceit/proposaldesk/internal/config"
	"github.com/sequenceit/proposaldesk/internal/event_bus"
	"github.com/sequenceit/proposaldesk/internal/metrics"
	"github.com/sequenceit/proposaldesk/internal/utils"
	"github.com/sequenceit/proposaldesk/pkg/budget"
	"github.com/sequenceit/proposaldesk/pkg/draft"
	"github.com/sequenceit/proposaldesk/pkg/export"
	"github.com/sequenceit/proposaldesk/pkg/generator"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus
	Metrics  *metrics.Metrics

	BudgetHandler *budget.Handler

	DraftRepo    draft.Repository
	DraftService *draft.ServiceImpl
	DraftHandler *draft.Handler

	GeneratorClient  *generator.Client
	GeneratorService *generator.ServiceImpl
	GeneratorHandler *generator.Handler

	ExportService *export.ServiceImpl
	ExportHandler *export.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(repo draft.Repository, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()
	deps.Metrics = metrics.New()
	deps.Metrics.Subscribe(deps.EventBus)

	deps.BudgetHandler = budget.NewHandler()

	deps.DraftRepo = repo
	deps.DraftService = draft.NewService(deps.DraftRepo, deps.EventBus, deps.Clock)
	deps.DraftHandler = draft.NewHandler(deps.DraftService, deps.Clock)

	deps.GeneratorClient = generator.NewClient(cfg.AI.Url, cfg.AI.Model, cfg.AI.ApiKey, cfg.AI.Timeout)
	deps.GeneratorService = generator.NewService(deps.GeneratorClient, deps.EventBus, deps.Clock)
	deps.GeneratorHandler = generator.NewHandler(deps.GeneratorService)

	deps.ExportService = export.NewService(deps.DraftService, deps.EventBus, deps.Clock)
	deps.ExportHandler = export.NewHandler(deps.ExportService)

	return deps
}
