package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/common"
	"github.com/ternarybob/casebot/internal/handlers"
	"github.com/ternarybob/casebot/internal/interfaces"
	"github.com/ternarybob/casebot/internal/services/agreement"
	"github.com/ternarybob/casebot/internal/services/content"
	"github.com/ternarybob/casebot/internal/services/events"
	"github.com/ternarybob/casebot/internal/services/llm"
	"github.com/ternarybob/casebot/internal/services/notify"
	"github.com/ternarybob/casebot/internal/services/pdf"
	"github.com/ternarybob/casebot/internal/services/pipeline"
	"github.com/ternarybob/casebot/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	AgreementStorage interfaces.AgreementStorage
	EventService     interfaces.EventService

	// Pipeline
	Provider     llm.Provider
	Analyzer     *llm.Analyzer
	Orchestrator *pipeline.Orchestrator

	// Agreement gate
	AgreementService *agreement.Service
	Gate             *agreement.Gate

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	AgreementHandler *handlers.AgreementHandler
	DocumentHandler  *handlers.DocumentHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initEvents(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize events: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("storage", cfg.Storage.Type).
		Str("backend", app.Analyzer.Backend()).
		Bool("backend_configured", app.Provider.Configured()).
		Msg("Application initialization complete")

	return app, nil
}

func (a *App) initStorage() error {
	store, err := storage.NewAgreementStorage(a.Logger, a.Config)
	if err != nil {
		return err
	}
	a.AgreementStorage = store
	a.Logger.Debug().Str("type", a.Config.Storage.Type).Msg("Agreement storage initialized")
	return nil
}

// initEvents creates the bus and attaches the logger and user notifier
func (a *App) initEvents() error {
	a.EventService = events.NewService(a.Logger)

	if err := events.SubscribeLoggerToAllEvents(a.EventService, a.Logger); err != nil {
		return err
	}
	if err := notify.NewNotifier(a.Logger).Subscribe(a.EventService); err != nil {
		return err
	}
	return nil
}

func (a *App) initServices() error {
	provider, err := llm.NewProvider(a.Config, a.Logger)
	if err != nil {
		return err
	}
	a.Provider = provider

	prompt, err := llm.LoadPromptTemplate(a.Config.Analysis.PromptFile)
	if err != nil {
		return err
	}
	a.Analyzer = llm.NewAnalyzer(provider, prompt, a.Config.AnalysisTimeout(), a.Logger)

	processing := a.Config.Processing
	a.Orchestrator = pipeline.NewOrchestrator(
		pdf.NewExtractor(a.Logger),
		content.NewValidator(processing.MinTextLength, processing.DefaultLanguage, a.Logger),
		a.Analyzer,
		a.Analyzer,
		pdf.NewRenderer(a.Logger, a.Config.Report.Title, a.Config.Report.FontPath),
		a.EventService,
		processing,
		a.Logger,
	)

	a.AgreementService = agreement.NewService(a.AgreementStorage, a.EventService, a.Logger)
	a.Gate = agreement.NewGate(a.AgreementService, a.Orchestrator, a.Logger)
	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.AgreementHandler = handlers.NewAgreementHandler(a.AgreementService, a.Logger)
	a.DocumentHandler = handlers.NewDocumentHandler(a.Gate, a.Config.Processing.MaxFileSizeBytes(), a.Logger)
}

// Close releases the backend client, event bus and storage
func (a *App) Close() error {
	if a.Provider != nil {
		if err := a.Provider.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM provider")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.AgreementStorage != nil {
		if err := a.AgreementStorage.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
