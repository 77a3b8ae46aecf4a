package repository_test

import (
	"context"
	"testing"
	"time"

	"mbti-quest/internal/flow"
	"mbti-quest/internal/mbti"
	"mbti-quest/internal/repository"
	"mbti-quest/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type storedResult struct {
	SessionID       string    `db:"session_id"`
	PersonalityType string    `db:"personality_type"`
	Scores          []byte    `db:"scores"`
	Percentages     []byte    `db:"percentages"`
	Answers         int       `db:"answers"`
	CompletedAt     time.Time `db:"completed_at"`
}

type ResultRepositorySuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	pool        *pgxpool.Pool
	repo        repository.ResultRepository
}

func TestResultRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ResultRepositorySuite))
}

func (s *ResultRepositorySuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("mbti_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	dsn, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	require.NoError(s.T(), repository.ApplyMigrations(dsn, zap.NewNop()))
	// повторный запуск без изменений не должен падать
	require.NoError(s.T(), repository.ApplyMigrations(dsn, zap.NewNop()))

	s.pool, err = pgxpool.New(s.ctx, dsn)
	require.NoError(s.T(), err)
	s.repo = repository.NewPgResultRepository(s.pool, zap.NewNop())
}

func (s *ResultRepositorySuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(s.ctx)
	}
}

func (s *ResultRepositorySuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, "TRUNCATE mbti_results")
	s.Require().NoError(err)
}

func (s *ResultRepositorySuite) TestSave_StoresOutcome() {
	scores, err := mbti.NewScores(map[mbti.Dimension]int{mbti.E: 2, mbti.N: 1, mbti.F: 3, mbti.J: 1, mbti.P: 1})
	s.Require().NoError(err)
	outcome := flow.Outcome{
		SessionID:   uuid.NewString(),
		Type:        mbti.ComputeType(scores),
		Scores:      scores,
		Percentages: mbti.ComputePercentages(scores),
		Answers:     scores.Total(),
		StartedAt:   time.Now().Add(-time.Minute).UTC(),
		CompletedAt: time.Now().UTC(),
	}

	s.Require().NoError(s.repo.Save(s.ctx, outcome))

	var rows []storedResult
	err = pgxscan.Select(s.ctx, s.pool, &rows,
		`SELECT session_id::text AS session_id, personality_type, scores, percentages, answers, completed_at FROM mbti_results`)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)

	row := rows[0]
	s.Equal(outcome.SessionID, row.SessionID)
	s.Equal(string(outcome.Type), row.PersonalityType)
	s.Equal(outcome.Answers, row.Answers)
	s.WithinDuration(outcome.CompletedAt, row.CompletedAt, time.Millisecond)

	var stored mbti.Scores
	s.Require().NoError(stored.UnmarshalJSON(row.Scores))
	s.Equal(outcome.Scores, stored)
	s.JSONEq(`{"E":100,"I":0,"S":0,"N":100,"T":0,"F":100,"J":50,"P":50}`, string(row.Percentages))
}

func (s *ResultRepositorySuite) TestSave_IsInsertOnly() {
	outcome := flow.Outcome{
		SessionID:   uuid.NewString(),
		Type:        "INFP",
		CompletedAt: time.Now(),
	}
	s.Require().NoError(s.repo.Save(s.ctx, outcome))
	s.Require().NoError(s.repo.Save(s.ctx, outcome))

	var count int
	s.Require().NoError(pgxscan.Get(s.ctx, s.pool, &count, `SELECT COUNT(*) FROM mbti_results WHERE session_id = $1`, outcome.SessionID))
	s.Equal(2, count)
}

func (s *ResultRepositorySuite) TestSave_RejectsIncompleteOutcome() {
	err := s.repo.Save(s.ctx, flow.Outcome{Type: "INFP"})
	s.ErrorIs(err, models.ErrInvalidInput)
}
