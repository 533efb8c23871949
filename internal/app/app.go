package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/common"
	"github.com/ternarybob/solicita/internal/handlers"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/ternarybob/solicita/internal/services/documents"
	"github.com/ternarybob/solicita/internal/services/events"
	"github.com/ternarybob/solicita/internal/services/forms"
	"github.com/ternarybob/solicita/internal/services/humanloop"
	"github.com/ternarybob/solicita/internal/services/lifecycle"
	"github.com/ternarybob/solicita/internal/services/llm"
	"github.com/ternarybob/solicita/internal/services/maintenance"
	"github.com/ternarybob/solicita/internal/services/notify"
	"github.com/ternarybob/solicita/internal/services/pdf"
	"github.com/ternarybob/solicita/internal/services/scheduler"
	"github.com/ternarybob/solicita/internal/services/scraper"
	"github.com/ternarybob/solicita/internal/services/workers"
	badgerstore "github.com/ternarybob/solicita/internal/storage/badger"
)

// submitWorkers sizes the pool that runs authorized submissions and PDF
// renders; these are rare and browser-bound, so a small pool is plenty.
const submitWorkers = 4

// App holds all application components and dependencies.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	EventService   interfaces.EventService

	LLMService       *llm.OllamaService
	LifecycleService interfaces.LifecycleService
	DocumentService  interfaces.DocumentService

	PagePool         interfaces.PagePool
	TaskPool         *workers.Pool
	HumanLoopService interfaces.HumanLoopService

	ScraperService   *scraper.Runtime
	SchedulerService *scheduler.Service
	BackupService    *maintenance.BackupService
	RetentionService *maintenance.RetentionService
	Notifier         *notify.Notifier

	// HTTP handlers
	PostingHandler     *handlers.PostingHandler
	ApplicationHandler *handlers.ApplicationHandler
	ScraperHandler     *handlers.ScraperHandler
	SettingsHandler    *handlers.SettingsHandler
	SetupHandler       *handlers.SetupHandler
	EventsHandler      *handlers.EventsHandler
	SystemHandler      *handlers.SystemHandler
}

// New wires the application from configuration. Services are created in
// dependency order: storage, bus, AI, lifecycle, documents, browser, human
// loop, scraper, scheduler.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create data directories: %w", err)
	}

	storage, err := badgerstore.NewManager(logger, badgerstore.Options{
		Path:           cfg.DatabaseDir(),
		ResetOnStartup: cfg.Storage.ResetOnStartup,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.StorageManager = storage

	if err := a.initServices(); err != nil {
		storage.Close()
		return nil, err
	}
	a.initHandlers()
	a.seedSetupState()

	logger.Info().Msg("Application initialized")
	return a, nil
}

func (a *App) initServices() error {
	a.EventService = events.NewService(a.Logger)

	a.LLMService = llm.NewOllamaService(a.Config, a.Logger)
	if a.Config.Ollama.Model == "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		model, err := a.LLMService.SelectModel(ctx)
		cancel()
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Model auto-selection failed, CV generation degraded until a model is configured")
		} else {
			a.Logger.Info().Str("model", model).Msg("Ollama model selected")
		}
	}

	a.LifecycleService = lifecycle.NewService(a.StorageManager, a.EventService, a.Logger)

	renderer := pdf.NewRenderer(a.Logger)
	master := pdf.NewMasterSource(a.Config.CVMasterPath(), a.Logger)
	a.DocumentService = documents.NewService(a.Config, a.StorageManager, a.LifecycleService,
		a.LLMService, renderer, master, a.EventService, a.Logger)

	a.PagePool = forms.NewPool(a.Config, a.Logger)
	a.TaskPool = workers.NewPool(submitWorkers, a.Logger)
	a.TaskPool.Start()

	a.HumanLoopService = humanloop.NewService(a.Config, a.StorageManager, a.LifecycleService,
		a.PagePool, a.TaskPool, a.EventService, a.Logger)

	a.ScraperService = scraper.NewRuntime(a.Config, a.StorageManager, a.EventService,
		a.PagePool, a.Logger, scraper.DefaultConstructors())

	a.SchedulerService = scheduler.NewService(a.Config, a.Logger)
	if err := a.SchedulerService.RegisterScraperJobs(a.ScraperService.Sites(), func(ctx context.Context, site string) error {
		_, err := a.ScraperService.RunSource(ctx, site)
		return err
	}); err != nil {
		return err
	}

	a.BackupService = maintenance.NewBackupService(a.Config, a.StorageManager, a.Logger)
	a.RetentionService = maintenance.NewRetentionService(a.Config, a.StorageManager, a.Logger)
	if err := a.SchedulerService.RegisterJob("database_backup", "0 3 * * *",
		"Nightly database backup with rolling pruning", a.BackupService.Run); err != nil {
		return err
	}
	if err := a.SchedulerService.RegisterJob("retention_sweep", "30 3 * * *",
		"Sweep stale postings, terminal applications and old logs", a.RetentionService.Run); err != nil {
		return err
	}

	a.Notifier = notify.NewNotifier(a.EventService, a.Logger)
	a.Notifier.Start()

	return nil
}

func (a *App) initHandlers() {
	a.PostingHandler = handlers.NewPostingHandler(a.StorageManager, a.Logger)
	a.ApplicationHandler = handlers.NewApplicationHandler(a.StorageManager, a.LifecycleService,
		a.DocumentService, a.HumanLoopService, a.Logger)
	a.ScraperHandler = handlers.NewScraperHandler(a.SchedulerService, a.ScraperService,
		a.StorageManager.Settings(), a.Logger)
	a.SettingsHandler = handlers.NewSettingsHandler(a.StorageManager.Settings(), a.Logger)
	a.SetupHandler = handlers.NewSetupHandler(a.StorageManager.Settings(), a.Logger)
	a.EventsHandler = handlers.NewEventsHandler(a.EventService, a.Logger)
	a.SystemHandler = handlers.NewSystemHandler(a.Logger)
}

// seedSetupState carries a completed setup from the config file into the
// settings table so a wiped database does not re-trigger first run.
func (a *App) seedSetupState() {
	if !a.Config.Setup.Complete {
		return
	}
	ctx := context.Background()
	settings := a.StorageManager.Settings()
	if handlers.SetupComplete(ctx, settings) {
		return
	}
	if err := settings.Set(ctx, handlers.SettingSetupComplete, "true"); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to seed setup state")
		return
	}
	if a.Config.Setup.TOSAcceptedAt != "" {
		if err := settings.Set(ctx, handlers.SettingTOSAcceptedAt, a.Config.Setup.TOSAcceptedAt); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to seed TOS acceptance")
		}
	}
}

// Start arms the scheduler. Call after the HTTP server is listening.
func (a *App) Start() {
	a.SchedulerService.Start()
}

// Close shuts components down in reverse dependency order.
func (a *App) Close() error {
	a.Logger.Info().Msg("Shutting down application")

	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
	}
	if hl, ok := a.HumanLoopService.(*humanloop.Service); ok && hl != nil {
		hl.Shutdown()
	}
	if a.TaskPool != nil {
		a.TaskPool.Shutdown()
	}
	if a.PagePool != nil {
		a.PagePool.Shutdown()
	}
	if a.Notifier != nil {
		a.Notifier.Stop()
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Failed to close storage")
			return err
		}
	}

	a.Logger.Info().Msg("Application stopped")
	return nil
}
