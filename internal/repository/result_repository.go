package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mbti-quest/internal/flow"
	"mbti-quest/shared/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ResultRepository stores finished quizzes. Rows are never updated.
type ResultRepository interface {
	Save(ctx context.Context, outcome flow.Outcome) error
}

// Compile-time check
var _ ResultRepository = (*pgResultRepository)(nil)

type pgResultRepository struct {
	db     DBTX
	logger *zap.Logger
}

func NewPgResultRepository(db DBTX, logger *zap.Logger) ResultRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &pgResultRepository{
		db:     db,
		logger: logger.Named("PgResultRepo"),
	}
}

const insertResultQuery = `
	INSERT INTO mbti_results
		(session_id, personality_type, scores, percentages, answers, started_at, completed_at)
	VALUES
		($1, $2, $3, $4, $5, $6, $7)
`

func (r *pgResultRepository) Save(ctx context.Context, outcome flow.Outcome) error {
	logFields := []zap.Field{
		zap.String("sessionID", outcome.SessionID),
		zap.String("type", string(outcome.Type)),
	}
	if outcome.SessionID == "" || outcome.Type == "" {
		return fmt.Errorf("%w: session id and personality type are required", models.ErrInvalidInput)
	}

	scores, err := json.Marshal(outcome.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	percentages, err := json.Marshal(outcome.Percentages)
	if err != nil {
		return fmt.Errorf("marshal percentages: %w", err)
	}

	var startedAt *time.Time
	if !outcome.StartedAt.IsZero() {
		startedAt = &outcome.StartedAt
	}

	_, err = r.db.Exec(ctx, insertResultQuery,
		outcome.SessionID,
		string(outcome.Type),
		scores,
		percentages,
		outcome.Answers,
		startedAt,
		outcome.CompletedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert quiz result", append(logFields, zap.Error(err))...)
		return fmt.Errorf("insert mbti result: %w", err)
	}
	r.logger.Debug("Quiz result stored", logFields...)
	return nil
}
