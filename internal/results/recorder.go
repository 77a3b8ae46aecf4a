package results

import (
	"context"
	"errors"
	"fmt"

	"mbti-quest/internal/flow"
	"mbti-quest/internal/messaging"
	"mbti-quest/internal/repository"

	"go.uber.org/zap"
)

// Recorder persists and announces finished quizzes. Either collaborator may
// be nil when the deployment has no database or broker.
type Recorder struct {
	repo      repository.ResultRepository
	publisher messaging.ResultPublisher
	logger    *zap.Logger
}

var _ flow.ResultSink = (*Recorder)(nil)

func NewRecorder(repo repository.ResultRepository, publisher messaging.ResultPublisher, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{repo: repo, publisher: publisher, logger: logger.Named("recorder")}
}

// Record tries every collaborator and joins their errors.
func (r *Recorder) Record(ctx context.Context, outcome flow.Outcome) error {
	log := r.logger.With(zap.String("session_id", outcome.SessionID), zap.String("type", string(outcome.Type)))
	var errs []error

	if r.repo != nil {
		if err := r.repo.Save(ctx, outcome); err != nil {
			log.Error("Failed to store result", zap.Error(err))
			errs = append(errs, fmt.Errorf("store result: %w", err))
		}
	}
	if r.publisher != nil {
		if err := r.publisher.PublishQuizCompleted(ctx, outcome); err != nil {
			log.Error("Failed to publish result", zap.Error(err))
			errs = append(errs, fmt.Errorf("publish result: %w", err))
		}
	}
	if len(errs) == 0 {
		log.Debug("Result recorded")
	}
	return errors.Join(errs...)
}
