package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mbti-quest/shared/models"

	"go.uber.org/zap"
)

// Defaults of the ElevenLabs API.
const (
	DefaultBaseURL      = "https://api.elevenlabs.io"
	DefaultModelID      = "eleven_multilingual_v2"
	DefaultOutputFormat = "mp3_44100_128"
	defaultStability    = 0.5
	defaultSimilarity   = 0.5
	maxErrorBody        = 2048
)

// Audio is a synthesized clip.
type Audio struct {
	Data        []byte
	ContentType string
}

// Synthesizer turns text into speech.
type Synthesizer interface {
	Synthesize(ctx context.Context, voiceID, text string) (Audio, error)
}

// ElevenLabsConfig configures the HTTP client.
type ElevenLabsConfig struct {
	APIKey  string
	BaseURL string
	ModelID string
	Timeout time.Duration
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// ElevenLabsClient calls the text-to-speech endpoint.
type ElevenLabsClient struct {
	cfg    ElevenLabsConfig
	http   *http.Client
	logger *zap.Logger
}

var _ Synthesizer = (*ElevenLabsClient)(nil)

func NewElevenLabsClient(cfg ElevenLabsConfig, logger *zap.Logger) *ElevenLabsClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ElevenLabsClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.Named("elevenlabs"),
	}
}

// Synthesize posts the text and returns the mp3 bytes.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, voiceID, text string) (Audio, error) {
	log := c.logger.With(zap.String("voice_id", voiceID), zap.Int("text_length", len(text)))

	body, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: c.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       defaultStability,
			SimilarityBoost: defaultSimilarity,
		},
	})
	if err != nil {
		return Audio{}, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		c.cfg.BaseURL, url.PathEscape(voiceID), DefaultOutputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Audio{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		ttsRequestsTotal.WithLabelValues("error").Inc()
		log.Error("ElevenLabs request failed", zap.Error(err))
		return Audio{}, fmt.Errorf("%w: elevenlabs request: %v", models.ErrUpstream, err)
	}
	defer resp.Body.Close()
	ttsRequestDuration.Observe(time.Since(started).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		ttsRequestsTotal.WithLabelValues(fmt.Sprintf("http_%d", resp.StatusCode)).Inc()
		log.Error("ElevenLabs returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", snippet),
		)
		return Audio{}, fmt.Errorf("%w: elevenlabs returned status %d", models.ErrUpstream, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		ttsRequestsTotal.WithLabelValues("error").Inc()
		return Audio{}, fmt.Errorf("%w: read audio: %v", models.ErrUpstream, err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	ttsRequestsTotal.WithLabelValues("success").Inc()
	log.Debug("Speech synthesized", zap.Int("bytes", len(data)), zap.Duration("duration", time.Since(started)))
	return Audio{Data: data, ContentType: contentType}, nil
}
