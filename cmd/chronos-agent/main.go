package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	agentpkg "github.com/chronos-hq/chronos-agent/agent"
	"github.com/chronos-hq/chronos-agent/chroma"
	"github.com/chronos-hq/chronos-agent/config"
	googlesvc "github.com/chronos-hq/chronos-agent/google"
	google_mocks "github.com/chronos-hq/chronos-agent/google/mocks"
	"github.com/chronos-hq/chronos-agent/index"
	"github.com/chronos-hq/chronos-agent/internal/logging"
	"github.com/chronos-hq/chronos-agent/llm"
	llm_mocks "github.com/chronos-hq/chronos-agent/llm/mocks"
	"github.com/chronos-hq/chronos-agent/status"
)

var (
	// Version information - will be set by build flags
	version = "dev"
	commit  = "unknown"
	date    = "unknown"

	// Command line flags
	showVersion = flag.Bool("version", false, "show version information and exit")
	showHelp    = flag.Bool("help", false, "show help information and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("chronos-agent\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Build Date: %s\n", date)
		os.Exit(0)
	}

	if *showHelp {
		fmt.Printf("chronos-agent - a natural-language calendar scheduling agent\n\n")
		fmt.Printf("Usage:\n")
		fmt.Printf("  -help                         Show help information and exit\n")
		fmt.Printf("  -version                      Show version information and exit\n")
		fmt.Printf("\nConfiguration is managed through environment variables (and an optional .env file).\n")
		os.Exit(0)
	}

	// Optional .env for local development; environment variables win
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("starting chronos-agent",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("buildDate", date))

	gin.SetMode(cfg.Server.Mode)

	if err := googlesvc.CreateCredentialsFile(logger, cfg); err != nil {
		logger.Fatal("failed to create google credentials file", zap.Error(err))
	}

	calendarService, contactsService := buildGoogleServices(ctx, cfg, logger)

	logger.Info("initializing LLM service")
	var llmService llm.Service
	llmService, err = llm.NewInferenceGatewayService(cfg, logger)
	if err != nil {
		logger.Warn("failed to initialize LLM service, using disabled mock", zap.Error(err))
		llmService = &llm_mocks.FakeService{Enabled: false}
	} else if llmService.IsEnabled() {
		logger.Info("LLM service initialized successfully",
			zap.String("provider", llmService.GetProvider()),
			zap.String("model", llmService.GetModel()))
	} else {
		logger.Info("LLM service is disabled")
	}

	semanticIndex := buildSemanticIndex(ctx, cfg, logger)
	statusStore := buildStatusStore(ctx, cfg, logger)
	defer func() {
		_ = statusStore.Close()
	}()

	location := cfg.Location()
	timeZone := cfg.Google.TimeZone

	classifier := agentpkg.NewIntentClassifier(llmService, cfg.LLM.ClassifierModel, logger)
	mutationClassifier := agentpkg.NewMutationClassifier(llmService, cfg.LLM.ClassifierModel, logger)
	compiler := agentpkg.NewPreferenceCompiler(llmService, cfg.LLM.ClassifierModel, logger)
	availability := agentpkg.NewAvailabilityAgent(calendarService, cfg.Google.CalendarID, cfg.App.AvailabilityHorizonDays, location, logger)
	contacts := agentpkg.NewContactResolver(contactsService, int64(cfg.Google.ContactsPageSize), cfg.Google.DedupeContacts, logger)
	scheduler := agentpkg.NewSchedulingAgent(classifier, compiler, availability, contacts, llmService, timeZone, location, cfg.LLM.Temperature, logger)
	executor := agentpkg.NewMutationExecutor(calendarService, cfg.Google.CalendarID, llmService, timeZone, location, logger)
	answerer := agentpkg.NewAnswerer(semanticIndex, llmService, cfg.Index.SearchResults, location, logger)

	srv := &server{
		cfg:                cfg,
		logger:             logger,
		calendar:           calendarService,
		scheduler:          scheduler,
		mutationClassifier: mutationClassifier,
		executor:           executor,
		answerer:           answerer,
		semanticIndex:      semanticIndex,
		statusStore:        statusStore,
	}

	scheduleReindex(cfg, logger, srv)

	router := gin.New()
	router.Use(gin.Recovery())
	srv.registerRoutes(router)

	logger.Info("starting HTTP server", zap.String("address", cfg.GetServerAddress()))
	if err := router.Run(cfg.GetServerAddress()); err != nil {
		logger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}

// buildGoogleServices initializes the calendar and contacts providers,
// falling back to in-memory mocks in demo mode or when credentials are
// unavailable
func buildGoogleServices(ctx context.Context, cfg *config.Config, logger *zap.Logger) (googlesvc.CalendarService, googlesvc.ContactsService) {
	if cfg.ShouldUseMockService() {
		logger.Info("demo mode enabled, using mock google services")
		return google_mocks.NewMockCalendarService(), google_mocks.NewMockContactsService()
	}

	credType, credValue, err := cfg.GetGoogleCredentialsOption()
	if err != nil {
		logger.Warn("failed to get google credentials option, running with mock services", zap.Error(err))
		return google_mocks.NewMockCalendarService(), google_mocks.NewMockContactsService()
	}

	var opt option.ClientOption
	switch credType {
	case "json":
		opt = option.WithCredentialsJSON([]byte(credValue))
	case "file":
		opt = option.WithCredentialsFile(credValue)
	default:
		logger.Warn("no credentials available, running with mock services")
		return google_mocks.NewMockCalendarService(), google_mocks.NewMockContactsService()
	}

	calendarService, err := googlesvc.NewCalendarService(ctx, logger, opt)
	if err != nil {
		logger.Warn("failed to initialize calendar service, using mock", zap.Error(err))
		return google_mocks.NewMockCalendarService(), google_mocks.NewMockContactsService()
	}

	contactsService, err := googlesvc.NewContactsService(ctx, logger, opt)
	if err != nil {
		logger.Warn("failed to initialize contacts service, using mock", zap.Error(err))
		return calendarService, google_mocks.NewMockContactsService()
	}

	logger.Info("google services initialized successfully")
	return calendarService, contactsService
}

// buildSemanticIndex connects to the configured Chroma collection, falling
// back to the in-memory store in demo mode or when the server is
// unreachable
func buildSemanticIndex(ctx context.Context, cfg *config.Config, logger *zap.Logger) *index.SemanticIndex {
	if cfg.ShouldUseMockService() {
		logger.Info("demo mode enabled, using in-memory vector store")
		return index.New(index.NewMemoryStore(), cfg.Index.ChunkSize, logger)
	}

	client := chroma.NewClient(cfg.Chroma, logger)
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Chroma.Timeout)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		logger.Warn("failed to connect to chroma, using in-memory vector store", zap.Error(err))
		return index.New(index.NewMemoryStore(), cfg.Index.ChunkSize, logger)
	}

	return index.New(client, cfg.Index.ChunkSize, logger)
}

// buildStatusStore selects the Redis-backed status store when configured,
// the in-process store otherwise
func buildStatusStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) status.Store {
	if cfg.UseRedisStatusStore() {
		store, err := status.NewRedisStore(ctx, cfg.Status.RedisAddr, cfg.Status.RedisPassword, cfg.Status.RedisDB, cfg.Status.TTL, logger)
		if err != nil {
			logger.Warn("failed to connect to redis, using in-memory status store", zap.Error(err))
			return status.NewMemoryStore(cfg.Status.TTL, logger)
		}
		return store
	}
	return status.NewMemoryStore(cfg.Status.TTL, logger)
}

// scheduleReindex runs a full semantic reindex immediately and then on the
// configured cron schedule
func scheduleReindex(cfg *config.Config, logger *zap.Logger, srv *server) {
	reindex := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := srv.reindexNow(ctx); err != nil {
			logger.Error("scheduled reindex failed", zap.Error(err))
		}
	}

	go reindex()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Index.ReindexSchedule, reindex); err != nil {
		logger.Warn("invalid reindex schedule, periodic reindex disabled",
			zap.String("schedule", cfg.Index.ReindexSchedule),
			zap.Error(err))
		return
	}
	scheduler.Start()
	logger.Info("scheduled periodic reindex", zap.String("schedule", cfg.Index.ReindexSchedule))
}
