package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadchat/internal/config"
	"leadchat/internal/handler"
	"leadchat/internal/repository"
	"leadchat/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := config.NewLogger(cfg.Logging)
	logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("Lead chat server")

	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize dependencies")
	}
	defer cleanup()

	router := handler.NewRouter(cfg.Server.AllowedOrigins, logger)
	handler.SetupRoutes(router, deps, handler.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("Server stopped with error")
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

// buildDependencies picks PostgreSQL or in-memory stores and wires the services
func buildDependencies(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (handler.Handlers, func(), error) {
	var (
		catalog   service.Catalog
		prefStore service.PreferenceStore
		leadStore service.LeadStore
		writer    service.EmbeddingWriter
		cleanup   = func() {}
	)

	if cfg.PostgreSQL.Enabled {
		repo, err := repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
		)
		if err != nil {
			return handler.Handlers{}, cleanup, err
		}
		cleanup = func() { repo.Close() }

		if err := repo.EnsureSchema(ctx, cfg.OpenAI.EmbeddingDimensions); err != nil {
			return handler.Handlers{}, cleanup, err
		}
		if err := seedCatalog(ctx, repo, cfg.Chat.CatalogPath, logger); err != nil {
			return handler.Handlers{}, cleanup, err
		}
		logger.Info("Connected to PostgreSQL database")

		catalog, prefStore, leadStore, writer = repo, repo, repo, repo
	} else {
		static, err := repository.LoadStaticCatalog(cfg.Chat.CatalogPath, logger)
		if err != nil {
			return handler.Handlers{}, cleanup, err
		}
		memory := repository.NewMemoryStore()
		logger.Warn("PostgreSQL is not configured, leads and preferences are kept in memory")

		catalog, prefStore, leadStore = static, memory, memory
	}

	var (
		assistant service.Assistant
		embedder  service.Embedder
	)
	if cfg.OpenAI.Enabled {
		client := service.NewOpenAIClient(&cfg.OpenAI, logger)
		assistant, embedder = client, client
		logger.WithFields(logrus.Fields{
			"api_base":        cfg.OpenAI.APIBase,
			"chat_model":      cfg.OpenAI.ChatModel,
			"embedding_model": cfg.OpenAI.EmbeddingModel,
		}).Info("OpenAI client initialized")
	} else {
		logger.Warn("OpenAI is disabled, chat turns will be rejected until OPENAI_API_KEY is set")
	}

	sessions := service.NewSessionManager(prefStore, cfg.Chat.Greeting, logger)
	conversation := service.NewConversationService(
		sessions,
		assistant,
		catalog,
		prefStore,
		cfg.Chat.ContextWindow,
		time.Duration(cfg.Chat.TurnTimeout)*time.Second,
		logger,
	)

	properties := service.NewPropertyService(catalog, embedder, writer, logger)

	return handler.Handlers{
		Chat:       handler.NewChatHandler(conversation, logger),
		Leads:      handler.NewLeadHandler(service.NewLeadService(leadStore, logger), logger),
		Properties: handler.NewPropertyHandler(properties, logger),
	}, cleanup, nil
}

// seedCatalog fills an empty properties table from the catalog file
func seedCatalog(ctx context.Context, repo *repository.PostgresRepository, path string, logger logrus.FieldLogger) error {
	existing, err := repo.ListProperties(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	static, err := repository.LoadStaticCatalog(path, logger)
	if err != nil {
		return err
	}
	props, _ := static.ListProperties(ctx)
	for i := range props {
		if err := repo.InsertProperty(ctx, &props[i]); err != nil {
			return err
		}
	}
	logger.WithField("count", len(props)).Info("Seeded property catalog")
	return nil
}
