package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/ottersden/otterball/external/discord"
	"github.com/ottersden/otterball/external/espn"
	"github.com/ottersden/otterball/external/jobqueue"
	"github.com/ottersden/otterball/external/nflverse"
	"github.com/ottersden/otterball/internal/config"
	"github.com/ottersden/otterball/internal/domain/identity"
	"github.com/ottersden/otterball/internal/infrastructure/repository/postgres"
	"github.com/ottersden/otterball/internal/interfaces/httpapi"
	"github.com/ottersden/otterball/internal/platform/logging"
	"github.com/ottersden/otterball/internal/usecase"
)

// App owns the HTTP server, the database handle and the optional in-process
// job dispatcher.
type App struct {
	Server *http.Server

	db         *sqlx.DB
	dispatcher *localDispatcher
	logger     *logging.Logger
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	channelRepo := postgres.NewChannelRepository(db)
	teamRepo := postgres.NewTeamRepository(db)
	gameRepo := postgres.NewGameRepository(db)
	gameTypeRepo := postgres.NewGameTypeRepository(db)
	identityRepo := postgres.NewIdentityRepository(db)
	pollRepo := postgres.NewPollRepository(db)
	wagerRepo := postgres.NewWagerRepository(db)
	userRepo := postgres.NewUserRepository(db)

	discordClient := discord.NewClient(discord.ClientConfig{
		BaseURL:        cfg.DiscordBaseURL,
		BotToken:       cfg.DiscordBotToken,
		Timeout:        cfg.DiscordTimeout,
		MaxRetries:     cfg.DiscordMaxRetries,
		Logger:         logger,
		CircuitBreaker: cfg.DiscordCircuit,
	})
	nflverseClient := nflverse.NewClient(nflverse.ClientConfig{
		GamesURL:       cfg.NFLVerseGamesURL,
		TeamsURL:       cfg.NFLVerseTeamsURL,
		Timeout:        cfg.NFLVerseTimeout,
		MaxRetries:     cfg.NFLVerseMaxRetries,
		Logger:         logger,
		CircuitBreaker: cfg.NFLVerseCircuit,
	})

	jobQueue := usecase.NoopJobQueue()
	if cfg.QStashEnabled {
		jobQueue = jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker:   cfg.QStashCircuit,
		}, logger)
	}

	scheduleSvc := usecase.NewScheduleService(nflverseClient, teamRepo, gameRepo, gameTypeRepo, identityRepo, logger)
	scoringSvc := usecase.NewScoringService(wagerRepo, gameRepo, gameTypeRepo, userRepo, logger)
	wagerSvc := usecase.NewWagerService(pollRepo, gameRepo, wagerRepo, userRepo, discordClient, cfg.WagerSyncWorkers, logger)
	pollSvc := usecase.NewPollService(
		usecase.PollServiceConfig{
			CreationWindow:    cfg.PollCreationWindow,
			PollDuration:      cfg.PollDuration,
			ResultDeleteDelay: cfg.ResultDeleteDelay,
		},
		channelRepo,
		teamRepo,
		gameRepo,
		gameTypeRepo,
		pollRepo,
		wagerRepo,
		discordClient,
		scoringSvc,
		wagerSvc,
		jobQueue,
		logger,
	)
	orchestrator := usecase.NewJobOrchestratorService(jobQueue, logger)

	var reconcileSvc *usecase.ReconcileService
	if cfg.ESPNEnabled {
		espnClient := espn.NewClient(espn.ClientConfig{
			BaseURL:        cfg.ESPNBaseURL,
			Timeout:        cfg.ESPNTimeout,
			MaxRetries:     cfg.ESPNMaxRetries,
			Logger:         logger,
			CircuitBreaker: cfg.ESPNCircuit,
		})
		reconcileSvc = usecase.NewReconcileService(espnClient, identity.SourceESPN, teamRepo, gameRepo, identityRepo, logger)
	}

	handler := httpapi.NewHandler(
		scheduleSvc,
		reconcileSvc,
		pollSvc,
		wagerSvc,
		scoringSvc,
		orchestrator,
		discordClient,
		cfg.Season,
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	application := &App{
		Server: server,
		db:     db,
		logger: logger,
	}

	if !cfg.QStashEnabled {
		application.dispatcher = newLocalDispatcher(cfg.LocalDispatchInterval, logger,
			buildLocalJobs(cfg, scheduleSvc, reconcileSvc, pollSvc, wagerSvc)...)
	}

	return application, nil
}

// Start launches the in-process dispatcher when no external queue drives the
// job endpoints. The HTTP server is started by the caller.
func (a *App) Start(ctx context.Context) {
	if a.dispatcher != nil {
		a.dispatcher.Start(ctx)
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	if a.dispatcher != nil {
		a.dispatcher.Stop()
	}

	if err := a.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	return nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

func buildLocalJobs(
	cfg config.Config,
	scheduleSvc *usecase.ScheduleService,
	reconcileSvc *usecase.ReconcileService,
	pollSvc *usecase.PollService,
	wagerSvc *usecase.WagerService,
) []dispatchJob {
	jobs := []dispatchJob{
		{name: "sync-schedule", every: 6 * time.Hour, run: func(ctx context.Context) error {
			_, err := scheduleSvc.SyncSeason(ctx, cfg.Season)
			return err
		}},
		{name: "create-polls", every: time.Hour, run: func(ctx context.Context) error {
			_, err := pollSvc.CreatePolls(ctx)
			return err
		}},
		{name: "open-polls", every: 15 * time.Minute, run: func(ctx context.Context) error {
			_, err := pollSvc.OpenPolls(ctx)
			return err
		}},
		{name: "close-polls", every: 0, run: func(ctx context.Context) error {
			_, err := pollSvc.ClosePolls(ctx)
			return err
		}},
		{name: "sync-wagers", every: 0, run: func(ctx context.Context) error {
			_, err := wagerSvc.SyncOpenPolls(ctx)
			return err
		}},
		{name: "post-results", every: 15 * time.Minute, run: func(ctx context.Context) error {
			_, err := pollSvc.PostResults(ctx)
			return err
		}},
	}

	if reconcileSvc != nil {
		jobs = append(jobs, dispatchJob{name: "reconcile", every: time.Hour, run: func(ctx context.Context) error {
			_, err := reconcileSvc.Reconcile(ctx)
			return err
		}})
	}

	return jobs
}
