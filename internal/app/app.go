// Package app wires the repositories, services and HTTP handlers into a fiber application
package app

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ceronops/jobcal/internal/calendar"
	"github.com/ceronops/jobcal/internal/config"
	"github.com/ceronops/jobcal/internal/db/repos"
	"github.com/ceronops/jobcal/internal/logger"
	"github.com/ceronops/jobcal/internal/services"
	"github.com/ceronops/jobcal/internal/types"
	"github.com/ceronops/jobcal/pkg/api/v1/handlers"
	"github.com/ceronops/jobcal/pkg/api/v1/routes"
)

// Options holds the dependencies of the application
type Options struct {
	DB       *gorm.DB
	Location *time.Location
	// Now defaults to time.Now
	Now             func() time.Time
	WindowDays      int
	MinDaysAhead    int
	SyncConcurrency int
	// Refresher may be nil, in which case the calendar cannot be connected
	Refresher      calendar.TokenRefresher
	Provider       calendar.Provider
	GatewayOptions []calendar.GatewayOption
}

// App is the assembled server
type App struct {
	Fiber *fiber.App
	Clock services.Clock

	Templates   *services.Template
	Instances   *services.Instance
	Lifecycle   *services.Lifecycle
	Sync        *services.Sync
	Credentials *calendar.CredentialManager
	Gateway     *calendar.Gateway
}

// New builds the services and registers the v1 routes
func New(opts Options) *App {
	if opts.Provider == nil {
		opts.Provider = calendar.NewGoogleProvider()
	}
	clock := services.NewClock(opts.Now, opts.Location)

	templateRepo := repos.NewTemplateRepository(opts.DB)
	instanceRepo := repos.NewInstanceRepository(opts.DB)
	credentialRepo := repos.NewCredentialRepository(opts.DB)

	creds := calendar.NewCredentialManager(credentialRepo, opts.Refresher, opts.Now)
	gateway := calendar.NewGateway(creds, opts.Provider, clock.Location(), opts.GatewayOptions...)

	syncService := services.NewSyncService(instanceRepo, gateway, clock, opts.SyncConcurrency)
	lifecycle := services.NewLifecycleService(instanceRepo, clock, opts.WindowDays)
	lifecycle.SetMinDaysAhead(opts.MinDaysAhead)
	templateService := services.NewTemplateService(templateRepo, instanceRepo, lifecycle, syncService)
	instanceService := services.NewInstanceService(instanceRepo, syncService)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(logger.APILogger())

	routes.RegisterRoutes(app,
		handlers.NewHealthHandler(syncService),
		handlers.NewTemplateHandler(templateService),
		handlers.NewInstanceHandler(instanceService),
		handlers.NewSyncHandler(syncService, instanceService),
		handlers.NewCalendarHandler(creds, gateway, instanceService, clock),
	)

	return &App{
		Fiber:       app,
		Clock:       clock,
		Templates:   templateService,
		Instances:   instanceService,
		Lifecycle:   lifecycle,
		Sync:        syncService,
		Credentials: creds,
		Gateway:     gateway,
	}
}

// OptionsFromConfig derives the application options of cfg. A token backend
// URL wins over OAuth client credentials; with neither, the calendar cannot be connected.
func OptionsFromConfig(cfg *config.Config, db *gorm.DB) (Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Options{}, err
	}

	var providerOpts []calendar.ProviderOption
	if cfg.Calendar.Endpoint != "" {
		providerOpts = append(providerOpts, calendar.WithEndpoint(cfg.Calendar.Endpoint))
	}

	opts := Options{
		DB:              db,
		Location:        loc,
		WindowDays:      cfg.WindowDays,
		MinDaysAhead:    cfg.MinDaysAhead,
		SyncConcurrency: cfg.Sync.Concurrency,
		Provider:        calendar.NewGoogleProvider(providerOpts...),
	}

	switch {
	case cfg.Calendar.TokenBackendURL != "":
		opts.Refresher = calendar.NewBackendRefresher(cfg.Calendar.TokenBackendURL, 0)
	case cfg.Calendar.ClientID != "":
		opts.Refresher = calendar.NewOAuthRefresher(cfg.Calendar.ClientID, cfg.Calendar.ClientSecret, cfg.Calendar.RedirectURL)
	default:
		logger.Warn("No calendar token backend or OAuth client configured, calendar sync is unavailable")
	}
	return opts, nil
}

// errorHandler renders errors that escape the handlers, such as unknown routes, in the slug envelope
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	slug := types.ServerErrorSlug
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		switch {
		case code == fiber.StatusNotFound:
			slug = types.NotFoundSlug
		case code < fiber.StatusInternalServerError:
			slug = types.ErrorSlug
		}
	}
	return c.Status(code).JSON(types.Failure(slug, err.Error()))
}
