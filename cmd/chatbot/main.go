package main

import (
	"flag"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"chatbot/internal/completion"
	"chatbot/internal/config"
	"chatbot/internal/conversation"
	"chatbot/internal/knowledge"
	"chatbot/internal/logging"
	"chatbot/internal/service"
	"chatbot/internal/summarizer"
	"chatbot/internal/tokens"
	"chatbot/internal/tui"
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

	// the alt screen owns stdout, so logs go to a file
	logger, err := logging.New(cfg.Log.Debug, cfg.Log.File)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	doc, err := knowledge.Load(cfg.Knowledge.Path)
	if err != nil {
		log.Fatalf("failed to load knowledge: %v", err)
	}
	logger.Info("Knowledge loaded", zap.String("path", doc.Path), zap.Int("bytes", len(doc.Content)))

	client, err := completion.NewClient(completion.Config{
		URL:       cfg.Completion.URL,
		APIKeyEnv: cfg.Completion.APIKeyEnv,
		Model:     cfg.Completion.Model,
		MaxTokens: cfg.Completion.MaxTokens,
		Timeout:   time.Duration(cfg.Completion.TimeoutSecs) * time.Second,
		Referer:   cfg.Completion.Referer,
		Title:     cfg.Completion.Title,
	})
	if err != nil {
		log.Fatalf("completion client init failed: %v", err)
	}

	about, err := summarizer.NewFrequencySummarizer().Summarize(doc.Content, cfg.Display.AboutSentences)
	if err != nil {
		logger.Warn("About summary failed", zap.Error(err))
		about = ""
	}

	conv := conversation.New(conversation.SystemPrompt(doc.Content))
	chat := service.NewChatService(client, logger)

	m := tui.New(chat, conv, tui.Options{
		Model:       client.Model(),
		About:       about,
		TypingDelay: time.Duration(cfg.Display.TypingDelayMs) * time.Millisecond,
		Counter:     tokens.New(cfg.Display.TokenEncoding),
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
