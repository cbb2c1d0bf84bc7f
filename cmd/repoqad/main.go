package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kensho/repoqa/internal/answer"
	"github.com/kensho/repoqa/internal/config"
	"github.com/kensho/repoqa/internal/embedder"
	"github.com/kensho/repoqa/internal/forge"
	"github.com/kensho/repoqa/internal/ingestion"
	"github.com/kensho/repoqa/internal/llm"
	"github.com/kensho/repoqa/internal/retrieval"
	"github.com/kensho/repoqa/internal/server"
	"github.com/kensho/repoqa/internal/service"
	"github.com/kensho/repoqa/internal/vectorstore"
)

func main() {
	// Set up structured logging
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("failed to run server", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("starting repo QA service",
		"port", cfg.Port,
		"embedding_model", cfg.EmbeddingModel,
		"llm_configured", cfg.LLMKey() != "",
	)

	// Initialize Qdrant vector store
	store, err := vectorstore.NewQdrantStore(ctx, vectorstore.QdrantConfig{
		URL:            cfg.QdrantURL,
		SharedPrefix:   cfg.VectorSharedPrefix,
		MaxCollections: cfg.VectorMaxCollections,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer store.Close()
	slog.Info("connected to Qdrant")

	// Initialize Ollama embedder
	embed := embedder.NewOllamaEmbedder(embedder.OllamaConfig{
		BaseURL: cfg.OllamaURL,
		Model:   cfg.EmbeddingModel,
	})
	slog.Info("initialized embedder",
		"model", embed.ModelName(), "dimension", embed.Dimension())

	// Initialize Groq LLM (empty key runs in degraded context-only mode)
	chat := llm.NewGroqClient(cfg.LLMKey(),
		llm.WithBaseURL(cfg.GroqAPIURL),
		llm.WithModel(cfg.GroqModel),
	)
	if !chat.Configured() {
		slog.Warn("no LLM key configured, answers will be raw retrieved context")
	}

	// Initialize GitHub forge client
	gh := forge.NewGitHubClient(
		forge.WithAPIURL(cfg.GitHubAPIURL),
		forge.WithRawURL(cfg.GitHubRawURL),
		forge.WithToken(cfg.GitHubToken),
	)

	// Assemble the pipeline
	logger := slog.Default()
	indexer := ingestion.NewIndexer(gh, embed, store, ingestion.WithLogger(logger))
	retriever := retrieval.NewRetriever(embed, store)
	composer := answer.NewComposer(chat, logger)
	svc := service.New(gh, embed, store, indexer, retriever, composer, chat,
		service.WithRetrievalDefaults(cfg.DefaultTopFiles, cfg.DefaultTopChunks),
		service.WithLogger(logger),
	)

	httpServer := server.New(server.Config{
		Port:           cfg.Port,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
	}, svc)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown HTTP server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

// Ensure interfaces are satisfied at compile time
var (
	_ forge.Client      = (*forge.GitHubClient)(nil)
	_ embedder.Embedder = (*embedder.OllamaEmbedder)(nil)
	_ llm.Chat          = (*llm.GroqClient)(nil)
	_ vectorstore.Store = (*vectorstore.QdrantStore)(nil)
)
