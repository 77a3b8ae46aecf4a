package results_test

import (
	"context"
	"errors"
	"testing"

	"mbti-quest/internal/flow"
	"mbti-quest/internal/mocks"
	"mbti-quest/internal/results"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecorder_SavesAndPublishes(t *testing.T) {
	repo := mocks.NewMockResultRepository(t)
	pub := mocks.NewMockResultPublisher(t)
	outcome := flow.Outcome{SessionID: "s-1", Type: "INTJ"}

	repo.On("Save", mock.Anything, outcome).Return(nil).Once()
	pub.On("PublishQuizCompleted", mock.Anything, outcome).Return(nil).Once()

	r := results.NewRecorder(repo, pub, zap.NewNop())
	assert.NoError(t, r.Record(context.Background(), outcome))
}

func TestRecorder_JoinsErrors(t *testing.T) {
	repo := mocks.NewMockResultRepository(t)
	pub := mocks.NewMockResultPublisher(t)
	dbErr := errors.New("db down")
	mqErr := errors.New("broker down")

	repo.On("Save", mock.Anything, mock.Anything).Return(dbErr).Once()
	pub.On("PublishQuizCompleted", mock.Anything, mock.Anything).Return(mqErr).Once()

	r := results.NewRecorder(repo, pub, nil)
	err := r.Record(context.Background(), flow.Outcome{SessionID: "s-2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.ErrorIs(t, err, mqErr)
}

func TestRecorder_PublishesEvenWhenStoreFails(t *testing.T) {
	repo := mocks.NewMockResultRepository(t)
	pub := mocks.NewMockResultPublisher(t)
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	pub.On("PublishQuizCompleted", mock.Anything, mock.Anything).Return(nil).Once()

	r := results.NewRecorder(repo, pub, nil)
	assert.Error(t, r.Record(context.Background(), flow.Outcome{SessionID: "s-3"}))
}

func TestRecorder_WithoutCollaborators(t *testing.T) {
	r := results.NewRecorder(nil, nil, nil)
	assert.NoError(t, r.Record(context.Background(), flow.Outcome{SessionID: "s-4"}))
}
