package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/rfp-assist/backend/internal/api/handlers"
	"github.com/rfp-assist/backend/internal/cache/redis"
	"github.com/rfp-assist/backend/internal/draft"
	"github.com/rfp-assist/backend/internal/ingestion"
	"github.com/rfp-assist/backend/internal/llm"
	"github.com/rfp-assist/backend/internal/metrics"
	"github.com/rfp-assist/backend/internal/notify"
	"github.com/rfp-assist/backend/internal/pipeline"
	"github.com/rfp-assist/backend/internal/resultlog"
	"github.com/rfp-assist/backend/internal/storage/sqlite"
	"github.com/rfp-assist/backend/internal/vector"
	"github.com/rfp-assist/backend/internal/vector/milvus"
	"github.com/rfp-assist/backend/internal/vector/qdrant"
	"github.com/rfp-assist/backend/pkg/config"
	appLogger "github.com/rfp-assist/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting RFP Assist API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	store, err := newVectorStore(cfg)
	if err != nil {
		appLogger.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer store.Close()

	err = store.EnsureCollection(context.Background())
	if err != nil {
		appLogger.Fatal("Failed to ensure collection", zap.Error(err))
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.EmbeddingModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
	)

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, embedding cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			llmClient = llmClient.WithCache(redisClient, time.Duration(cfg.Redis.TTLHours)*time.Hour)
		}
	}

	auditLog, err := resultlog.New(cfg.Pipeline.LogDir)
	if err != nil {
		appLogger.Fatal("Failed to create audit log", zap.Error(err))
	}

	synth := draft.NewSynthesizer(draft.Config{
		QuestionPrefixes: cfg.Drafting.QuestionPrefixes,
		MinAnswerLen:     cfg.Drafting.MinAnswerLen,
		MaxQuestionMarks: cfg.Drafting.MaxQuestionMarks,
	})
	gate := draft.NewReviewGate(cfg.Pipeline.ReviewScoreThreshold)

	engine := pipeline.NewEngine(llmClient, store, synth, gate, auditLog, pipeline.Config{
		SearchLimit:  cfg.Pipeline.SearchLimit,
		MinScore:     cfg.Pipeline.MinScore,
		OutputDir:    cfg.Pipeline.OutputDir,
		RefineDrafts: cfg.LLM.RefineDrafts,
	}).WithStorage(sqliteClient)

	if cfg.LLM.RefineDrafts {
		engine = engine.WithRefiner(llmClient)
	}

	var notifier *notify.Client
	if cfg.Webhook.Enabled && cfg.Webhook.URL != "" {
		notifier = notify.NewClient(cfg.Webhook.URL, time.Duration(cfg.Webhook.TimeoutSec)*time.Second)
		engine = engine.WithNotifier(notifier)
	}

	processor := ingestion.NewProcessor(sqliteClient, store, llmClient, cfg.Pipeline.PastRFPsDir)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	rfpHandler := handlers.NewRFPHandler(engine, cfg.Pipeline.OutputDir)
	ingestHandler := handlers.NewIngestHandler(processor, notifier)
	draftsHandler := handlers.NewDraftsHandler(sqliteClient)
	wsHandler := handlers.NewWebSocketHandler(engine)

	app.Get("/metrics", metrics.MetricsHandler())

	api := app.Group("/api/v1")

	api.Post("/rfps", rfpHandler.UploadRFP)
	api.Get("/rfps/outputs/:name", rfpHandler.DownloadOutput)
	api.Post("/ingest", ingestHandler.UploadFinal)
	api.Get("/drafts", draftsHandler.GetHistory)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws/pipeline", websocket.New(wsHandler.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}

// newVectorStore selects the search backend from config. Qdrant is the
// default; milvus remains available for deployments already running it.
func newVectorStore(cfg *config.Config) (vector.Store, error) {
	normalizer := vector.Normalizer{
		AnswerFields: cfg.Drafting.AnswerFields,
		SourceFields: cfg.Drafting.SourceFields,
	}

	switch cfg.Vector.Backend {
	case "qdrant", "":
		return qdrant.NewClient(qdrant.Config{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			APIKey:     cfg.Qdrant.APIKey,
			UseTLS:     cfg.Qdrant.UseTLS,
			Collection: cfg.Vector.Collection,
			Dim:        cfg.Vector.Dim,
			Normalizer: normalizer,
		})
	case "milvus":
		return milvus.NewClient(milvus.Config{
			Endpoint:   cfg.Milvus.Endpoint,
			Collection: cfg.Vector.Collection,
			Dim:        cfg.Vector.Dim,
			Normalizer: normalizer,
		})
	default:
		return nil, fmt.Errorf("unknown vector backend: %s", cfg.Vector.Backend)
	}
}
