package insight_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mbti-quest/internal/insight"
	"mbti-quest/internal/mbti"
	"mbti-quest/internal/mocks"
	"mbti-quest/shared/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const validReply = `[{"Personality_info": "Logical and curious.", "age_info": ["one"], "careers": ["Engineer"]}]`

type ServiceSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	redis  *redis.Client
	client *mocks.MockAIClient
	svc    *insight.Service
}

func (s *ServiceSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	s.redis = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.client = mocks.NewMockAIClient(s.T())
	s.client.On("Provider").Return("gemini").Maybe()
	s.client.On("Model").Return("gemini-2.5-flash").Maybe()
	s.svc = insight.NewService(s.client, nil, insight.NewRedisCache(s.redis),
		insight.ServiceConfig{CacheTTL: time.Hour}, zap.NewNop())
}

func (s *ServiceSuite) TearDownTest() {
	s.redis.Close()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) TestGenerateCachesReply() {
	ctx := context.Background()
	s.client.On("GenerateText", mock.Anything, mock.MatchedBy(func(p string) bool {
		return p == insight.BuildPrompt("INTP", 33)
	})).Return(validReply, nil).Once()

	items, err := s.svc.Generate(ctx, "INTP", 33)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal("Logical and curious.", items[0].PersonalityInfo)

	s.True(s.mr.Exists("insight:INTP:33"))
	s.Equal(time.Hour, s.mr.TTL("insight:INTP:33"))

	// второй запрос обслуживается из кэша
	again, err := s.svc.Generate(ctx, "INTP", 33)
	s.Require().NoError(err)
	s.Equal(items, again)
}

func (s *ServiceSuite) TestDifferentAgeIsNotShared() {
	s.client.On("GenerateText", mock.Anything, mock.Anything).Return(validReply, nil).Twice()

	_, err := s.svc.Generate(context.Background(), "INTP", 20)
	s.Require().NoError(err)
	_, err = s.svc.Generate(context.Background(), "INTP", 21)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestCacheFailureIsIgnored() {
	s.mr.Close()
	s.client.On("GenerateText", mock.Anything, mock.Anything).Return(validReply, nil).Once()

	items, err := s.svc.Generate(context.Background(), "ISTJ", 50)
	s.Require().NoError(err)
	s.Len(items, 1)
}

func (s *ServiceSuite) TestMalformedReplyIsNotCached() {
	s.client.On("GenerateText", mock.Anything, mock.Anything).Return("I cannot help with that.", nil).Once()

	_, err := s.svc.Generate(context.Background(), "ESFP", 19)
	s.ErrorIs(err, models.ErrMalformedResponse)
	s.False(s.mr.Exists("insight:ESFP:19"))
}

func (s *ServiceSuite) TestUpstreamError() {
	s.client.On("GenerateText", mock.Anything, mock.Anything).
		Return("", insight.ErrAIGenerationFailed).Once()

	_, err := s.svc.Generate(context.Background(), "ESFP", 19)
	s.ErrorIs(err, models.ErrUpstream)
}

func (s *ServiceSuite) TestInvalidRequestSkipsUpstream() {
	_, err := s.svc.Generate(context.Background(), "ABCD", 19)
	s.ErrorIs(err, models.ErrInvalidInput)
	_, err = s.svc.Generate(context.Background(), "INFJ", 0)
	s.ErrorIs(err, models.ErrInvalidInput)
	s.client.AssertNotCalled(s.T(), "GenerateText", mock.Anything, mock.Anything)
}

func TestService_NotConfigured(t *testing.T) {
	svc := insight.NewService(nil, nil, nil, insight.ServiceConfig{}, nil)
	assert.False(t, svc.Configured())

	_, err := svc.Generate(context.Background(), mbti.Type("INTJ"), 30)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotConfigured)
	assert.Equal(t, "GEMINI_API_KEY not configured", err.Error())
}

func TestService_KeepsFactoryError(t *testing.T) {
	factoryErr := &models.ConfigError{Key: "OPENAI_API_KEY"}
	svc := insight.NewService(nil, factoryErr, nil, insight.ServiceConfig{}, nil)

	_, err := svc.Generate(context.Background(), "INTJ", 30)
	var cfgErr *models.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "OPENAI_API_KEY", cfgErr.Key)
}
