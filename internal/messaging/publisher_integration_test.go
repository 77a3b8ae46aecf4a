package messaging_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"mbti-quest/internal/flow"
	"mbti-quest/internal/mbti"
	"mbti-quest/internal/messaging"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"go.uber.org/zap"
)

type PublisherIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	conn      *amqp.Connection
}

func TestPublisherIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PublisherIntegrationSuite))
}

func (s *PublisherIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.container, err = rabbitmq.Run(s.ctx, "rabbitmq:3.12-management-alpine")
	require.NoError(s.T(), err, "Failed to start rabbitmq container")

	amqpURL, err := s.container.AmqpURL(s.ctx)
	require.NoError(s.T(), err)
	s.conn, err = amqp.Dial(amqpURL)
	require.NoError(s.T(), err)
}

func (s *PublisherIntegrationSuite) TearDownSuite() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PublisherIntegrationSuite) TestPublishedEventReachesQueue() {
	queue := "quiz.completed.test." + uuid.NewString()
	pub, err := messaging.NewRabbitMQResultPublisher(s.conn, queue, zap.NewNop())
	s.Require().NoError(err)

	scores, err := mbti.NewScores(map[mbti.Dimension]int{mbti.E: 3, mbti.S: 3, mbti.T: 3, mbti.J: 3})
	s.Require().NoError(err)
	outcome := flow.Outcome{
		SessionID:   uuid.NewString(),
		Type:        mbti.ComputeType(scores),
		Scores:      scores,
		Percentages: mbti.ComputePercentages(scores),
		Answers:     12,
		StartedAt:   time.Now().Add(-3 * time.Minute),
		CompletedAt: time.Now(),
	}
	s.Require().NoError(pub.PublishQuizCompleted(s.ctx, outcome))

	ch, err := s.conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	var delivery amqp.Delivery
	s.Require().Eventually(func() bool {
		d, ok, err := ch.Get(queue, true)
		if err != nil || !ok {
			return false
		}
		delivery = d
		return true
	}, 10*time.Second, 100*time.Millisecond)

	var event messaging.QuizCompletedEvent
	s.Require().NoError(json.Unmarshal(delivery.Body, &event))
	s.Equal(outcome.SessionID, event.SessionID)
	s.Equal(mbti.Type("ESTJ"), event.PersonalityType)
	s.Equal("mbti-quest", delivery.AppId)
	s.Equal(event.EventID, delivery.MessageId)
}
