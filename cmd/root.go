package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	coreconfig "github.com/linkpilot-ai/linkpilot/core/config"
	coreDB "github.com/linkpilot-ai/linkpilot/core/database"
	domainAnalytics "github.com/linkpilot-ai/linkpilot/domains/analytics"
	domainContent "github.com/linkpilot-ai/linkpilot/domains/content"
	domainEngagement "github.com/linkpilot-ai/linkpilot/domains/engagement"
	domainUser "github.com/linkpilot-ai/linkpilot/domains/user"
	"github.com/linkpilot-ai/linkpilot/generator"
	"github.com/linkpilot-ai/linkpilot/infrastructure/valkey"
	"github.com/linkpilot-ai/linkpilot/integrations/unipile"
	"github.com/linkpilot-ai/linkpilot/pkg/media"
	"github.com/linkpilot-ai/linkpilot/pkg/taskmonitor"
	"github.com/linkpilot-ai/linkpilot/pkg/utils"
	"github.com/linkpilot-ai/linkpilot/repository"
	"github.com/linkpilot-ai/linkpilot/scheduler"
	"github.com/linkpilot-ai/linkpilot/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	flagPort      string
	flagDebug     bool
	flagBasicAuth string

	// Infrastructure
	vkClient *valkey.Client
	serverID string

	// Repositories
	contentRepo     domainContent.IContentRepository
	userRepo        domainUser.IUserRepository
	engagementRepo  domainEngagement.IEngagementRepository
	analyticsRepo   domainAnalytics.IAnalyticsRepository
	maintenanceRepo *repository.MaintenanceGormRepository

	// Services
	schedulerService  *scheduler.Service
	contentUsecase    domainContent.IContentUsecase
	userUsecase       domainUser.IUserUsecase
	linkedinUsecase   domainUser.ILinkedinUsecase
	engagementUsecase domainEngagement.IEngagementUsecase
	analyticsUsecase  domainAnalytics.IAnalyticsUsecase
	ghostwriter       *generator.Ghostwriter
	monitor           *taskmonitor.Monitor
)

var rootCmd = &cobra.Command{
	Use:   "linkpilot",
	Short: "LinkedIn content automation API",
	Long: `LinkPilot generates LinkedIn posts in the user's own voice and
publishes them on schedule, with analytics snapshots and engagement drafting.`,
}

func init() {
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initEnvConfig, initApp)
}

func initFlags() {
	rootCmd.PersistentFlags().StringVarP(
		&flagPort,
		"port", "p",
		"",
		"change port number with --port <number> | example: --port=8080",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&flagDebug,
		"debug", "d",
		false,
		"hide or displaying log with --debug <true/false> | example: --debug=true",
	)
	rootCmd.PersistentFlags().StringVarP(
		&flagBasicAuth,
		"basic-auth", "b",
		"",
		"basic auth credential | -b=yourUsername:yourPassword",
	)
}

// initEnvConfig loads the structured configuration, then lets viper-visible
// environment and CLI flags override it.
func initEnvConfig() {
	cfg, err := coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}

	if flagPort != "" {
		cfg.App.Port = flagPort
	} else if envPort := viper.GetString("app_port"); envPort != "" {
		cfg.App.Port = envPort
	}
	if flagDebug || viper.GetBool("app_debug") {
		cfg.App.Debug = true
	}
	if flagBasicAuth != "" {
		cfg.App.BasicAuth = strings.Split(flagBasicAuth, ",")
	}
}

func initApp() {
	cfg := coreconfig.Global

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := utils.CreateFolder(cfg.Paths.Storages, cfg.Paths.Statics); err != nil {
		logrus.Errorln(err)
	}

	serverID = utils.GetPersistentServerID(cfg.App.ServerID, cfg.Paths.Storages)
	logrus.Infof("[APP] Server ID: %s", serverID)

	ctx := context.Background()

	// Database
	db, err := coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("failed to open database: %v", err)
	}

	// Queue/cache transport. Failure here is not fatal: the scheduler falls
	// back to in-process dispatch.
	vkClient, err = valkey.NewClient(valkey.Config{
		Address:   cfg.Database.ValkeyAddress,
		Password:  cfg.Database.ValkeyPassword,
		DB:        cfg.Database.ValkeyDB,
		KeyPrefix: cfg.Database.ValkeyKeyPrefix,
	})
	if err != nil {
		logrus.WithError(err).Warn("[APP] Valkey unavailable")
		vkClient = nil
	}

	// Repositories
	contentRepo = repository.NewContentGormRepository(db)
	userRepo = repository.NewUserGormRepository(db)
	engagementRepo = repository.NewEngagementGormRepository(db)
	analyticsRepo = repository.NewAnalyticsGormRepository(db)
	maintenanceRepo = repository.NewMaintenanceGormRepository(db)

	for name, init := range map[string]func(context.Context) error{
		"content":     contentRepo.Init,
		"users":       userRepo.Init,
		"engagement":  engagementRepo.Init,
		"analytics":   analyticsRepo.Init,
		"maintenance": maintenanceRepo.Init,
	} {
		if err := init(ctx); err != nil {
			logrus.Fatalf("failed to init %s repository: %v", name, err)
		}
	}

	// Integrations
	unipileClient := unipile.NewClient(cfg.Unipile)
	resolver := media.NewResolver()

	// AI providers
	registry := generator.NewRegistry()
	if cfg.APIKeys.OpenAI != "" {
		registry.Register(generator.NewOpenAIProvider(cfg.APIKeys.OpenAI, ""))
	}
	if cfg.APIKeys.Gemini != "" {
		registry.Register(generator.NewGeminiProvider(cfg.APIKeys.Gemini, ""))
	}
	if len(registry.Names()) == 0 {
		logrus.Warn("[APP] No AI provider keys configured, generation endpoints will fail")
	}
	ghostwriter = generator.NewGhostwriter(registry, userRepo, contentRepo)

	// Analytics feeds the scheduler's daily snapshot fan-out.
	analyticsUsecase = usecase.NewAnalyticsService(analyticsRepo, userRepo, unipileClient)

	// Scheduler: probes the transport once and fixes the mode for the
	// process lifetime.
	schedulerService = scheduler.NewService(
		cfg.Scheduler,
		contentRepo,
		userRepo,
		unipileClient,
		resolver,
		analyticsUsecase,
		maintenanceRepo,
		vkClient,
	)

	// Usecases
	contentUsecase = usecase.NewContentService(contentRepo, schedulerService)
	userUsecase = usecase.NewUserService(userRepo, unipileClient, ghostwriter)
	linkedinUsecase = usecase.NewLinkedinService(userRepo, unipileClient, cfg.App)
	engagementUsecase = usecase.NewEngagementService(engagementRepo, ghostwriter)

	monitor = taskmonitor.New(50)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp performs a clean shutdown of the shared connections.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if vkClient != nil {
		vkClient.Close()
	}
	if coreDB.GlobalDB != nil {
		if sqlDB, err := coreDB.GlobalDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	logrus.Info("[APP] Application stopped cleanly.")
}
