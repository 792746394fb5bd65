package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/houmingya/LLM-MCP-TOOLS/internal/db"
	"github.com/houmingya/LLM-MCP-TOOLS/internal/queue"
	mid "github.com/houmingya/LLM-MCP-TOOLS/internal/server/middleware"
	"github.com/houmingya/LLM-MCP-TOOLS/internal/storage"
	"github.com/houmingya/LLM-MCP-TOOLS/internal/util"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/ai"
	oai "github.com/houmingya/LLM-MCP-TOOLS/pkg/ai/ollama"
	gai "github.com/houmingya/LLM-MCP-TOOLS/pkg/ai/openai"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/graph"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/logger"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/query"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/store/file"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewExtractorClient builds the extraction backend selected by AI_ADAPTER.
// The default is the OpenAI-compatible backend.
func NewExtractorClient() ai.ExtractorClient {
	switch util.GetEnv("AI_ADAPTER") {
	case "ollama":
		client, err := oai.NewExtractOllamaClient(oai.NewExtractOllamaClientParams{
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvInt("AI_PARALLEL_REQ", 15)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewExtractOpenAIClient(gai.NewExtractOpenAIClientParams{
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),

			ChatURL: util.GetEnv("AI_CHAT_URL"),
			ChatKey: util.GetEnv("AI_CHAT_KEY"),
		})
	}
}

func Init() {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Graph engine over the on-disk image.
	dataDir := util.GetEnvString("GRAPH_DATA_DIR", "data/graph")
	store := graph.NewStore()
	engine, err := graph.NewEngine(graph.NewEngineParams{
		Store:               store,
		Persister:           file.NewFilePersister(dataDir),
		ParallelExtractions: util.GetEnvInt("AI_PARALLEL_REQ", 4),
		MaxRetries:          util.GetEnvInt("AI_MAX_RETRIES", 3),
	})
	if err != nil {
		logger.Fatal("Failed to create graph engine", "err", err)
	}
	engine.Load(ctx)

	queryClient, err := query.NewClient(store)
	if err != nil {
		logger.Fatal("Failed to create query client", "err", err)
	}

	app := &mid.App{
		Engine:       engine,
		Query:        queryClient,
		AiClient:     NewExtractorClient(),
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
	}

	// Optional JWKS auth.
	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err := keyfunc.NewDefault([]string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		app.Key = &k
	}

	// Optional employee directory.
	if dbURL := util.GetEnv("DATABASE_URL"); dbURL != "" {
		migrations := util.GetEnvString("MIGRATIONS_URL", "file://internal/db/migrations")
		if err := db.Migrate(migrations, dbURL); err != nil {
			logger.Fatal("Failed to run migrations", "err", err)
		}
		conn, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", "err", err)
		}
		defer conn.Close()
		app.DBConn = conn
	}

	// Optional async build queue.
	if util.GetEnv("RABBITMQ_HOST") != "" {
		que := queue.Init()
		defer que.Close()
		ch, err := que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		if err := queue.SetupQueues(ch, []string{queue.BuildQueue}); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
		app.Queue = ch
	}

	// Optional document archive.
	if util.GetEnv("AWS_BUCKET") != "" {
		app.S3 = storage.NewS3Client(ctx)
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("[HTTP] Request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("64M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}

	// Final flush so a clean shutdown never loses merged data.
	if err := engine.Save(shutdownCtx); err != nil {
		logger.Error("Failed to save graph on shutdown", "err", err)
	}
}
