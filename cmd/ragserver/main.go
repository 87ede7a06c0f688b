package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"chatbot/internal/chunker"
	"chatbot/internal/config"
	"chatbot/internal/embedding"
	"chatbot/internal/generator/ollama"
	"chatbot/internal/keyword"
	"chatbot/internal/knowledge"
	"chatbot/internal/logging"
	"chatbot/internal/server"
	"chatbot/internal/service"
	"chatbot/internal/summarizer"
	"chatbot/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, knowledgePath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/chatbot/config.yaml if not provided)")
	flag.StringVar(&knowledgePath, "knowledge", "", "Path to the company knowledge file (overrides config)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if knowledgePath != "" {
		cfg.Knowledge.Path = knowledgePath
	}

	logger, err := logging.New(cfg.Log.Debug, "")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc, err := knowledge.Load(cfg.Knowledge.Path)
	if err != nil {
		return err
	}

	emb, err := embedding.New(cfg.Retrieval.Embedder)
	if err != nil {
		return err
	}
	store, err := vectorstore.New(cfg.Retrieval.VectorStore)
	if err != nil {
		return err
	}
	kw, err := keyword.NewBleveIndex()
	if err != nil {
		return err
	}
	defer kw.Close()

	gen := ollama.NewClient(ollama.Config{
		BaseURL:      cfg.Generator.BaseURL,
		Model:        cfg.Generator.Model,
		MaxNewTokens: cfg.Generator.MaxNewTokens,
		Timeout:      time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})

	rag := service.NewRAGService(
		chunker.NewFixedSizeChunker(cfg.Retrieval.Chunker.Size),
		emb, store, kw, gen,
		summarizer.NewFrequencySummarizer(),
		service.RAGOptions{
			TopK:                cfg.Retrieval.TopK,
			SummaryMaxSentences: cfg.Display.AboutSentences,
			RequestsPerMinute:   cfg.Retrieval.RequestsPerMinute,
			Logger:              logger,
		},
	)
	summary, err := rag.Ingest(ctx, doc)
	if err != nil {
		return err
	}
	logger.Info("Knowledge indexed",
		zap.String("embedder", emb.Name()),
		zap.String("generator", gen.Model()),
		zap.Int("chunks", rag.Chunks()),
		zap.String("summary", summary),
	)

	srv := server.NewServer(rag, &cfg.Server, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
