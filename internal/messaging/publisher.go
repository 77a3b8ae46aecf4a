package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mbti-quest/internal/flow"
	"mbti-quest/internal/mbti"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// QuizCompletedQueue is the default queue for finished quizzes.
const QuizCompletedQueue = "quiz.completed"

const (
	appID          = "mbti-quest"
	publishTimeout = 10 * time.Second
	maxAttempts    = 3
)

// QuizCompletedEvent is the message body.
type QuizCompletedEvent struct {
	EventID         string           `json:"event_id"`
	SessionID       string           `json:"session_id"`
	PersonalityType mbti.Type        `json:"personality_type"`
	Scores          mbti.Scores      `json:"scores"`
	Percentages     mbti.Percentages `json:"percentages"`
	Answers         int              `json:"answers"`
	DurationMs      int64            `json:"duration_ms"`
	CompletedAt     time.Time        `json:"completed_at"`
}

// NewQuizCompletedEvent builds the message for an outcome.
func NewQuizCompletedEvent(outcome flow.Outcome) QuizCompletedEvent {
	return QuizCompletedEvent{
		EventID:         uuid.NewString(),
		SessionID:       outcome.SessionID,
		PersonalityType: outcome.Type,
		Scores:          outcome.Scores,
		Percentages:     outcome.Percentages,
		Answers:         outcome.Answers,
		DurationMs:      outcome.Duration().Milliseconds(),
		CompletedAt:     outcome.CompletedAt,
	}
}

// ResultPublisher announces finished quizzes.
type ResultPublisher interface {
	PublishQuizCompleted(ctx context.Context, outcome flow.Outcome) error
}

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type rabbitMQPublisher struct {
	channel   channel
	queueName string
	logger    *zap.Logger
}

var _ ResultPublisher = (*rabbitMQPublisher)(nil)

// NewRabbitMQResultPublisher opens a channel and declares the durable queue.
func NewRabbitMQResultPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (ResultPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueName == "" {
		queueName = QuizCompletedQueue
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("result publisher: не удалось открыть канал: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("result publisher: не удалось объявить очередь '%s': %w", queueName, err)
	}
	logger.Info("Result publisher ready", zap.String("queue", queueName))
	return &rabbitMQPublisher{channel: ch, queueName: queueName, logger: logger.Named("ResultPublisher")}, nil
}

// PublishQuizCompleted serializes the outcome and publishes it.
func (p *rabbitMQPublisher) PublishQuizCompleted(ctx context.Context, outcome flow.Outcome) error {
	event := NewQuizCompletedEvent(outcome)
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ошибка сериализации QuizCompletedEvent для session %s: %w", outcome.SessionID, err)
	}
	if err := p.publishMessage(ctx, event.EventID, body); err != nil {
		return fmt.Errorf("ошибка публикации QuizCompletedEvent для session %s: %w", outcome.SessionID, err)
	}
	return nil
}

func (p *rabbitMQPublisher) publishMessage(ctx context.Context, messageID string, body []byte) error {
	if p.channel == nil {
		return errors.New("канал RabbitMQ не инициализирован")
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // exchange (default)
			p.queueName, // routing key
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        appID,
				MessageId:    messageID,
			},
		)
		if err == nil {
			p.logger.Debug("Message published", zap.String("queue", p.queueName), zap.Int("attempt", attempt))
			return nil
		}
		p.logger.Warn("Publish attempt failed", zap.String("queue", p.queueName), zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return fmt.Errorf("publish to %s: %w", p.queueName, ctx.Err())
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("ошибка публикации в очередь %s после retries: %w", p.queueName, err)
}

// Close releases the channel.
func (p *rabbitMQPublisher) Close() error {
	if p.channel == nil {
		return nil
	}
	return p.channel.Close()
}
