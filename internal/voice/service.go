package voice

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"mbti-quest/shared/models"

	"go.uber.org/zap"
)

// MaxTextLength is the longest text accepted for one clip.
const MaxTextLength = 2500

// Service validates speech requests and applies the cooldown.
type Service struct {
	synth        Synthesizer
	limiter      Limiter
	defaultVoice string
	logger       *zap.Logger
}

// NewService wires the collaborators. synth may be nil when no API key is
// configured; Speak then returns a ConfigError.
func NewService(synth Synthesizer, limiter Limiter, defaultVoice string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = NewMemoryLimiter(DefaultCooldown)
	}
	if defaultVoice == "" {
		defaultVoice = DefaultVoiceID
	}
	return &Service{synth: synth, limiter: limiter, defaultVoice: defaultVoice, logger: logger.Named("voice")}
}

// Configured reports whether speech can be produced.
func (s *Service) Configured() bool { return s.synth != nil }

// DefaultVoice is the voice used when a request names none.
func (s *Service) DefaultVoice() string { return s.defaultVoice }

// Speak synthesizes text with voiceID. key scopes the cooldown, typically a
// session handle or client IP.
func (s *Service) Speak(ctx context.Context, key, text, voiceID string) (Audio, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Audio{}, fmt.Errorf("%w: text is required", models.ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return Audio{}, fmt.Errorf("%w: text exceeds %d characters", models.ErrInvalidInput, MaxTextLength)
	}
	if voiceID == "" {
		voiceID = s.defaultVoice
	}
	if _, ok := Lookup(voiceID); !ok && voiceID != s.defaultVoice {
		return Audio{}, fmt.Errorf("%w: unknown voice %q", models.ErrInvalidInput, voiceID)
	}
	if s.synth == nil {
		return Audio{}, &models.ConfigError{Key: "ELEVENLABS_API_KEY"}
	}

	if err := s.limiter.Wait(ctx, key); err != nil {
		return Audio{}, err
	}
	audio, err := s.synth.Synthesize(ctx, voiceID, text)
	if err != nil {
		s.logger.Warn("Speech synthesis failed", zap.String("voice_id", voiceID), zap.Error(err))
		return Audio{}, err
	}
	return audio, nil
}
