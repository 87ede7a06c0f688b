package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CompletionConfig configures the hosted chat completion endpoint.
type CompletionConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	MaxTokens   int    `yaml:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	Referer     string `yaml:"referer,omitempty"`
	Title       string `yaml:"title,omitempty"`
}

// KnowledgeConfig points at the plain-text company knowledge file.
type KnowledgeConfig struct {
	Path string `yaml:"path"`
}

// DisplayConfig controls the chat UI.
type DisplayConfig struct {
	// TypingDelayMs is the pause between revealed words; 0 shows replies at once.
	TypingDelayMs  int    `yaml:"typing_delay_ms"`
	TokenEncoding  string `yaml:"token_encoding"`
	AboutSentences int    `yaml:"about_sentences"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how the knowledge file is split into chunks.
type ChunkerConfig struct {
	Size int `yaml:"size"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrievalConfig configures the chunk/embed/index pipeline.
type RetrievalConfig struct {
	Chunker           ChunkerConfig     `yaml:"chunker"`
	Embedder          EmbedderConfig    `yaml:"embedder"`
	VectorStore       VectorStoreConfig `yaml:"vector_store"`
	TopK              int               `yaml:"top_k"`
	RequestsPerMinute int               `yaml:"requests_per_minute"`
}

// GeneratorConfig configures the local text-generation model.
type GeneratorConfig struct {
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	MaxNewTokens int    `yaml:"max_new_tokens"`
	TimeoutSecs  int    `yaml:"timeout_secs"`
}

// ServerConfig holds HTTP server settings for the retrieval endpoint.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	RequestTimeout int    `yaml:"request_timeout_secs"`
}

// LogConfig configures zap.
type LogConfig struct {
	Debug bool   `yaml:"debug"`
	File  string `yaml:"file"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Completion CompletionConfig `yaml:"completion"`
	Knowledge  KnowledgeConfig  `yaml:"knowledge"`
	Display    DisplayConfig    `yaml:"display"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/chatbot/config.yaml.
// If neither exists, it writes defaults to ~/.config/chatbot/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "chatbot", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		Completion: CompletionConfig{
			URL:       "https://openrouter.ai/api/v1/chat/completions",
			APIKeyEnv: "OPENROUTER_API_KEY",
			Model:     "openai/gpt-3.5-turbo",
			MaxTokens: 1000,
		},
		Knowledge: KnowledgeConfig{Path: "info.txt"},
		Display:   DisplayConfig{TypingDelayMs: 50, TokenEncoding: "cl100k_base", AboutSentences: 2},
		Retrieval: RetrievalConfig{
			Chunker: ChunkerConfig{Size: 512},
			Embedder: EmbedderConfig{
				Type: "tfidf",
				// used only when Type is openai
				OpenAI: &OpenAIEmbedderConfig{
					BaseURL:     "https://api.openai.com/v1",
					Model:       "text-embedding-3-small",
					TimeoutSecs: 30,
					MaxRetries:  5,
				},
			},
			VectorStore: VectorStoreConfig{Type: "memory"},
			TopK:        5,
		},
		Generator: GeneratorConfig{BaseURL: "http://localhost:11434", Model: "tinyllama", MaxNewTokens: 300, TimeoutSecs: 300},
		Server:    ServerConfig{Host: "127.0.0.1", Port: 8000, RequestTimeout: 300},
		Log:       LogConfig{File: "chatbot.log"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	def := Default()
	if cfg.Completion.URL == "" {
		cfg.Completion.URL = def.Completion.URL
	}
	if cfg.Completion.APIKeyEnv == "" {
		cfg.Completion.APIKeyEnv = def.Completion.APIKeyEnv
	}
	if cfg.Completion.Model == "" {
		cfg.Completion.Model = def.Completion.Model
	}
	if cfg.Completion.MaxTokens <= 0 {
		cfg.Completion.MaxTokens = def.Completion.MaxTokens
	}
	if cfg.Knowledge.Path == "" {
		cfg.Knowledge.Path = def.Knowledge.Path
	}
	if cfg.Display.TypingDelayMs < 0 {
		cfg.Display.TypingDelayMs = 0
	}
	if cfg.Retrieval.Chunker.Size <= 0 {
		cfg.Retrieval.Chunker.Size = def.Retrieval.Chunker.Size
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = def.Retrieval.TopK
	}
	if cfg.Retrieval.Embedder.Type == "openai" && cfg.Retrieval.Embedder.OpenAI != nil {
		oc := cfg.Retrieval.Embedder.OpenAI
		if oc.BaseURL == "" {
			oc.BaseURL = "https://api.openai.com/v1"
		}
		if oc.Model == "" {
			oc.Model = "text-embedding-3-small"
		}
		if oc.TimeoutSecs == 0 {
			oc.TimeoutSecs = 30
		}
	}
	if cfg.Generator.BaseURL == "" {
		cfg.Generator.BaseURL = def.Generator.BaseURL
	}
	if cfg.Generator.MaxNewTokens <= 0 {
		cfg.Generator.MaxNewTokens = def.Generator.MaxNewTokens
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
}
