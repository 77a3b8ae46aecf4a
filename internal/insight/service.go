package insight

import (
	"context"
	"time"

	"mbti-quest/internal/mbti"
	"mbti-quest/shared/models"

	"go.uber.org/zap"
)

// DefaultCacheTTL is used when ServiceConfig.CacheTTL is zero.
const DefaultCacheTTL = 24 * time.Hour

// ServiceConfig tunes Service.
type ServiceConfig struct {
	CacheTTL time.Duration
}

// Service turns (type, age) into a parsed narrative. Client may be nil when
// the provider is not configured; every call then returns ClientErr.
type Service struct {
	client    AIClient
	clientErr error
	cache     Cache
	ttl       time.Duration
	logger    *zap.Logger
}

// NewService wires the AI client and the optional cache. clientErr is the
// error NewAIClient returned, if any.
func NewService(client AIClient, clientErr error, cache Cache, cfg ServiceConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil && clientErr == nil {
		clientErr = &models.ConfigError{Key: "GEMINI_API_KEY"}
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Service{
		client:    client,
		clientErr: clientErr,
		cache:     cache,
		ttl:       cfg.CacheTTL,
		logger:    logger.Named("insight"),
	}
}

// Configured reports whether an upstream client is available.
func (s *Service) Configured() bool { return s.client != nil }

// ConfigErr is the reason the service cannot reach a provider, nil when it can.
func (s *Service) ConfigErr() error {
	if s.client != nil {
		return nil
	}
	return s.clientErr
}

// Generate validates the request, then serves from cache or asks the model.
func (s *Service) Generate(ctx context.Context, t mbti.Type, age int) ([]Insight, error) {
	if _, err := ValidateRequest(string(t), age); err != nil {
		return nil, err
	}
	if s.client == nil {
		return nil, s.clientErr
	}
	log := s.logger.With(zap.String("type", string(t)), zap.Int("age", age))

	if s.cache != nil {
		items, ok, err := s.cache.Get(ctx, t, age)
		switch {
		case err != nil:
			insightCacheTotal.WithLabelValues("error").Inc()
			log.Warn("Insight cache read failed", zap.Error(err))
		case ok:
			insightCacheTotal.WithLabelValues("hit").Inc()
			log.Debug("Insight served from cache")
			return items, nil
		default:
			insightCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	text, err := s.client.GenerateText(ctx, BuildPrompt(t, age))
	if err != nil {
		log.Error("Insight generation failed", zap.Error(err))
		return nil, err
	}
	items, err := ParseResponse(text)
	if err != nil {
		log.Warn("Insight reply could not be parsed", zap.Error(err), zap.Int("length", len(text)))
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, t, age, items, s.ttl); err != nil {
			log.Warn("Insight cache write failed", zap.Error(err))
		}
	}
	log.Info("Insight generated", zap.String("provider", s.client.Provider()), zap.String("model", s.client.Model()))
	return items, nil
}
