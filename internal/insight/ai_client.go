package insight

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mbti-quest/shared/models"

	"github.com/ollama/ollama/api"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Supported providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// ErrAIGenerationFailed wraps every provider failure.
var ErrAIGenerationFailed = fmt.Errorf("%w: AI text generation failed", models.ErrUpstream)

// AIClient generates text from a single prompt.
type AIClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Provider() string
	Model() string
}

// ClientConfig selects and configures a provider.
type ClientConfig struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float32
}

// NewAIClient builds the client for cfg.Provider. A provider that needs a
// key and has none returns a *ConfigError.
func NewAIClient(ctx context.Context, cfg ClientConfig, logger *zap.Logger) (AIClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		if cfg.APIKey == "" {
			return nil, &models.ConfigError{Key: "GEMINI_API_KEY"}
		}
		return newGeminiClient(ctx, cfg, logger)
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, &models.ConfigError{Key: "OPENAI_API_KEY"}
		}
		return newOpenAIClient(cfg, logger), nil
	case ProviderOllama:
		return newOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}

func observe(provider, model, status string, started time.Time) {
	aiRequestsTotal.WithLabelValues(provider, model, status).Inc()
	aiRequestDuration.WithLabelValues(provider, model).Observe(time.Since(started).Seconds())
}

// --- Gemini ---

type geminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

func newGeminiClient(ctx context.Context, cfg ClientConfig, logger *zap.Logger) (AIClient, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	logger.Info("Gemini client created", zap.String("model", model))
	return &geminiClient{client: client, model: model, temperature: cfg.Temperature, logger: logger}, nil
}

// insightSchema constrains Gemini output to the Insight array.
var insightSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"Personality_info": {Type: genai.TypeString},
			"age_info":         {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"careers":          {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		PropertyOrdering: []string{"Personality_info", "age_info", "careers"},
		Required:         []string{"Personality_info", "age_info", "careers"},
	},
}

func (c *geminiClient) Provider() string { return ProviderGemini }
func (c *geminiClient) Model() string    { return c.model }

func (c *geminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	started := time.Now()
	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   insightSchema,
	}
	if c.temperature > 0 {
		genCfg.Temperature = genai.Ptr(c.temperature)
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), genCfg)
	if err != nil {
		observe(ProviderGemini, c.model, "error", started)
		c.logger.Warn("Gemini request failed", zap.Duration("duration", time.Since(started)), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		observe(ProviderGemini, c.model, "error_empty_response", started)
		return "", fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}
	observe(ProviderGemini, c.model, "success", started)
	c.logger.Debug("Gemini response received", zap.Int("length", len(text)), zap.Duration("duration", time.Since(started)))
	return text, nil
}

// --- OpenAI compatible ---

type openAIClient struct {
	client      *openaigo.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

func newOpenAIClient(cfg ClientConfig, logger *zap.Logger) AIClient {
	config := openaigo.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	model := cfg.Model
	if model == "" {
		model = openaigo.GPT4oMini
	}
	logger.Info("OpenAI client created", zap.String("model", model), zap.String("base_url", config.BaseURL))
	return &openAIClient{
		client:      openaigo.NewClientWithConfig(config),
		model:       model,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

func (c *openAIClient) Provider() string { return ProviderOpenAI }
func (c *openAIClient) Model() string    { return c.model }

func (c *openAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	started := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		observe(ProviderOpenAI, c.model, "error", started)
		c.logger.Warn("OpenAI request failed", zap.Duration("duration", time.Since(started)), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		observe(ProviderOpenAI, c.model, "error_empty_response", started)
		return "", fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}
	observe(ProviderOpenAI, c.model, "success", started)
	c.logger.Debug("OpenAI response received",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// --- Ollama ---

type ollamaClient struct {
	client      *api.Client
	model       string
	timeout     time.Duration
	temperature float32
	logger      *zap.Logger
}

func newOllamaClient(cfg ClientConfig, logger *zap.Logger) (AIClient, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL %q: %w", baseURL, err)
	}
	if cfg.Model == "" {
		return nil, &models.ConfigError{Key: "AI_MODEL"}
	}
	logger.Info("Ollama client created", zap.String("base_url", baseURL), zap.String("model", cfg.Model))
	return &ollamaClient{
		client:      api.NewClient(parsed, &http.Client{Timeout: cfg.Timeout}),
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		temperature: cfg.Temperature,
		logger:      logger,
	}, nil
}

func (c *ollamaClient) Provider() string { return ProviderOllama }
func (c *ollamaClient) Model() string    { return c.model }

func (c *ollamaClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
	}
	if c.temperature > 0 {
		req.Options = map[string]interface{}{"temperature": c.temperature}
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	if err != nil {
		status := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		observe(ProviderOllama, c.model, status, started)
		c.logger.Warn("Ollama request failed", zap.String("status", status), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	if resp.Message.Content == "" {
		observe(ProviderOllama, c.model, "error_empty_response", started)
		return "", fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}
	observe(ProviderOllama, c.model, "success", started)
	return resp.Message.Content, nil
}
