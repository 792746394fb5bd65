package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/houmingya/LLM-MCP-TOOLS/internal/db"
	"github.com/houmingya/LLM-MCP-TOOLS/internal/queue"
	"github.com/houmingya/LLM-MCP-TOOLS/internal/storage"
	"github.com/houmingya/LLM-MCP-TOOLS/internal/util"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/houmingya/LLM-MCP-TOOLS/pkg/ai"
	oai "github.com/houmingya/LLM-MCP-TOOLS/pkg/ai/ollama"
	gai "github.com/houmingya/LLM-MCP-TOOLS/pkg/ai/openai"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/graph"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/leaselock"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/logger"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/logger/console"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/store/file"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	// Init s3 client for archived documents
	var s3Client *s3.Client
	if util.GetEnv("AWS_BUCKET") != "" {
		s3Client = storage.NewS3Client(ctx)
	}

	// Extraction client
	adapter := util.GetEnv("AI_ADAPTER")
	var aiClient ai.ExtractorClient

	switch adapter {
	case "ollama":
		client, err := oai.NewExtractOllamaClient(oai.NewExtractOllamaClientParams{
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvInt("AI_PARALLEL_REQ", 15)),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		aiClient = client
	default:
		aiClient = gai.NewExtractOpenAIClient(gai.NewExtractOpenAIClientParams{
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),

			ChatURL: util.GetEnv("AI_CHAT_URL"),
			ChatKey: util.GetEnv("AI_CHAT_KEY"),
		})
	}

	// Graph engine; the worker is the single active mutator in async
	// deployments.
	dataDir := util.GetEnvString("GRAPH_DATA_DIR", "data/graph")
	engine, err := graph.NewEngine(graph.NewEngineParams{
		Store:               graph.NewStore(),
		Persister:           file.NewFilePersister(dataDir),
		ParallelExtractions: util.GetEnvInt("AI_PARALLEL_REQ", 4),
		MaxRetries:          util.GetEnvInt("AI_MAX_RETRIES", 3),
	})
	if err != nil {
		logger.Fatal("Failed to create graph engine", "err", err)
	}

	// With a database configured, a lease lock keeps replicas from mutating
	// the same graph image concurrently. Only the lease holder runs builds.
	if dbURL := util.GetEnv("DATABASE_URL"); dbURL != "" {
		migrations := util.GetEnvString("MIGRATIONS_URL", "file://internal/db/migrations")
		if err := db.Migrate(migrations, dbURL); err != nil {
			logger.Fatal("Failed to run migrations", "err", err)
		}
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", "err", err)
		}
		defer pool.Close()

		logger.Info("Waiting for graph mutator lease")
		lease, err := leaselock.New(pool).Acquire(ctx, "graph_builder", leaselock.Options{
			TTL:  time.Minute,
			Wait: true,
		})
		if err != nil {
			logger.Fatal("Failed to acquire graph mutator lease", "err", err)
		}
		defer lease.Release(context.Background())
		ctx = lease.Context
		logger.Info("Graph mutator lease acquired")
	}

	engine.Load(ctx)

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	queues := []string{queue.BuildQueue}
	if err := queue.SetupQueues(ch, queues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	logger.Info("Listening for messages")

	// Single consumer channel with prefetch=1 so builds run one at a time.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	err = consumerCh.Qos(1, 0, true)
	if err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	type queuedMessage struct {
		msg       amqp.Delivery
		queueName string
	}

	messageChan := make(chan queuedMessage)

	for _, queueName := range queues {
		go func(qName string) {
			consumerTag := fmt.Sprintf("%s_consumer", qName)
			msgs, err := consumerCh.Consume(
				qName,
				consumerTag,
				false, // autoAck
				false, // exclusive
				false, // noLocal
				false, // noWait
				nil,   // args
			)
			if err != nil {
				logger.Fatal("Failed to start consuming", "queue", qName, "err", err)
			}

			for {
				select {
				case <-ctx.Done():
					logger.Info("Stopping consumer", "queue", qName)
					return
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("Message channel closed", "queue", qName)
						return
					}
					messageChan <- queuedMessage{msg: msg, queueName: qName}
				}
			}
		}(queueName)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case qm := <-messageChan:
				startTime := time.Now()
				logger.Info("Received message", "queue", qm.queueName)

				processingErr := queue.ProcessBuildMessage(ctx, s3Client, engine, aiClient, string(qm.msg.Body))

				// Failed messages go to retry or dead-letter, successful ones are acked.
				if processingErr != nil {
					logger.Error("Error processing message", "queue", qm.queueName, "err", processingErr)
					queue.HandleProcessingError(consumerCh, qm.msg, qm.queueName)
				} else {
					if err := qm.msg.Ack(false); err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", qm.queueName)
				}

				metrics := aiClient.GetMetrics()
				aiDuration := time.Duration(metrics.DurationMs) * time.Millisecond
				aiHours := int(aiDuration.Hours())
				aiMinutes := int(aiDuration.Minutes()) % 60
				aiSeconds := int(aiDuration.Seconds()) % 60
				logger.Info(
					"AI Metrics",
					"input_tokens", metrics.InputTokens,
					"output_tokens", metrics.OutputTokens,
					"total_tokens", metrics.TotalTokens,
					"duration", fmt.Sprintf("%02d:%02d:%02d", aiHours, aiMinutes, aiSeconds),
				)

				processingDuration := time.Since(startTime)
				hours := int(processingDuration.Hours())
				minutes := int(processingDuration.Minutes()) % 60
				seconds := int(processingDuration.Seconds()) % 60
				logger.Info(
					"Processing time",
					"duration", fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds),
				)
				logger.Info("Waiting for next message")
				aiClient.ResetMetrics()
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")

	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := engine.Save(saveCtx); err != nil {
		logger.Error("Failed to save graph on shutdown", "err", err)
	}
}
