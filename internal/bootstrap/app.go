package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ragstack/internal/ai"
	appsvc "ragstack/internal/app"
	"ragstack/internal/cache"
	"ragstack/internal/config"
	"ragstack/internal/logger"
	"ragstack/internal/model"
	mysqlClient "ragstack/internal/platform/mysql"
	"ragstack/internal/platform/objectstore"
	rabbitmqClient "ragstack/internal/platform/rabbitmq"
	redisClient "ragstack/internal/platform/redis"
	"ragstack/internal/repository"
	"ragstack/internal/worker"
)

// App holds every long-lived resource: config, logger, clients, the task
// publisher and the background workers.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	MySQL  *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection
	Store  *objectstore.Client

	Publisher      *rabbitmqClient.TaskPublisher
	HistoryCache   *cache.HistoryCache
	TokenBlacklist *cache.TokenBlacklist
	LLMClient      *ai.Client
	LLMConfig      ai.Config

	documentWorker   *worker.DocumentWorker
	embeddingWorker  *worker.EmbeddingWorker
	connectorWorker  *worker.ConnectorWorker
	evaluationWorker *worker.EvaluationWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log, err := logger.New(cfg.App.Env, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.User{},
		&model.UserPreferences{},
		&model.Collection{},
		&model.CollectionSettings{},
		&model.Document{},
		&model.DocumentChunk{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.Citation{},
		&model.Connector{},
		&model.Evaluation{},
		&model.TestQuery{},
		&model.QueryResult{},
		&model.AuditLog{},
		&model.ServiceStatus{},
		&model.SystemMetrics{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}
	for _, queue := range []string{
		cfg.RabbitMQ.DocumentProcessingQueue,
		cfg.RabbitMQ.EmbeddingQueue,
		cfg.RabbitMQ.ConnectorSyncQueue,
		cfg.RabbitMQ.EvaluationQueue,
	} {
		if err := rabbitmqClient.DeclareQueue(mqConn, queue); err != nil {
			return nil, err
		}
	}

	store, err := objectstore.New(ctx,
		cfg.Storage.Endpoint,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		cfg.Storage.Region,
		cfg.Storage.UseSSL,
	)
	if err != nil {
		return nil, err
	}

	llmConfig := ai.Config{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
	}

	app := &App{
		Config: cfg,
		Logger: log,
		MySQL:  mysqlDB,
		Redis:  redisCli,
		MQConn: mqConn,
		Store:  store,

		Publisher: rabbitmqClient.NewTaskPublisher(mqConn),
		HistoryCache: cache.NewHistoryCache(redisCli,
			time.Duration(cfg.Auth.HistoryTTLSeconds)*time.Second,
			time.Duration(cfg.Auth.HistoryDirtySeconds)*time.Second),
		TokenBlacklist: cache.NewTokenBlacklist(redisCli),
		LLMClient:      ai.NewClient(),
		LLMConfig:      llmConfig,

		StartedAt: time.Now(),
	}

	if err := app.startWorkers(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

func (a *App) startWorkers(ctx context.Context) error {
	documentRepo := repository.NewDocumentRepository(a.MySQL)
	chunkRepo := repository.NewChunkRepository(a.MySQL)
	collectionRepo := repository.NewCollectionRepository(a.MySQL)
	connectorRepo := repository.NewConnectorRepository(a.MySQL)
	evaluationRepo := repository.NewEvaluationRepository(a.MySQL)

	a.documentWorker = worker.NewDocumentWorker(
		a.MQConn, a.Config.RabbitMQ.DocumentProcessingQueue,
		documentRepo, chunkRepo, collectionRepo,
		a.Store, a.LLMClient, a.LLMConfig,
		a.Config.RAG.EmbeddingBatchSize, a.Logger,
	)
	if err := a.documentWorker.Start(ctx); err != nil {
		return fmt.Errorf("start document worker failed: %w", err)
	}

	a.embeddingWorker = worker.NewEmbeddingWorker(
		a.MQConn, a.Config.RabbitMQ.EmbeddingQueue,
		chunkRepo, a.LLMClient, a.LLMConfig,
		a.Config.RAG.EmbeddingBatchSize, a.Logger,
	)
	if err := a.embeddingWorker.Start(ctx); err != nil {
		return fmt.Errorf("start embedding worker failed: %w", err)
	}

	a.connectorWorker = worker.NewConnectorWorker(
		a.MQConn, a.Config.RabbitMQ.ConnectorSyncQueue,
		connectorRepo, documentRepo, a.Store,
		a.Publisher, a.Config.RabbitMQ.DocumentProcessingQueue,
		a.Logger,
	)
	if err := a.connectorWorker.Start(ctx); err != nil {
		return fmt.Errorf("start connector worker failed: %w", err)
	}

	a.evaluationWorker = worker.NewEvaluationWorker(
		a.MQConn, a.Config.RabbitMQ.EvaluationQueue,
		evaluationRepo, a.RAGService(),
		a.Logger,
	)
	if err := a.evaluationWorker.Start(ctx); err != nil {
		return fmt.Errorf("start evaluation worker failed: %w", err)
	}

	return nil
}

// RAGService builds a retrieval pipeline wired to this app's clients.
// The router and the evaluation worker each get their own instance.
func (a *App) RAGService() *appsvc.RAGService {
	return appsvc.NewRAGService(
		repository.NewChunkRepository(a.MySQL),
		repository.NewDocumentRepository(a.MySQL),
		repository.NewCollectionRepository(a.MySQL),
		a.LLMClient,
		a.LLMConfig,
		a.Config.RAG.MaxRetrievalResults,
		a.Config.RAG.MaxFinalResults,
	)
}

func (a *App) Close() error {
	var closeErr error
	if a.documentWorker != nil {
		a.documentWorker.Close()
	}
	if a.embeddingWorker != nil {
		a.embeddingWorker.Close()
	}
	if a.connectorWorker != nil {
		a.connectorWorker.Close()
	}
	if a.evaluationWorker != nil {
		a.evaluationWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}
