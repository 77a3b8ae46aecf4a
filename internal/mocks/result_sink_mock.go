package mocks

import (
	"context"

	"mbti-quest/internal/flow"
	"mbti-quest/internal/messaging"
	"mbti-quest/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockResultSink is a mock type for the ResultSink type
type MockResultSink struct {
	mock.Mock
}

// Record provides a mock function with given fields: ctx, outcome
func (_m *MockResultSink) Record(ctx context.Context, outcome flow.Outcome) error {
	ret := _m.Called(ctx, outcome)
	if rf, ok := ret.Get(0).(func(context.Context, flow.Outcome) error); ok {
		return rf(ctx, outcome)
	}
	return ret.Error(0)
}

// NewMockResultSink creates a new instance of MockResultSink.
func NewMockResultSink(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockResultSink {
	m := &MockResultSink{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ flow.ResultSink = (*MockResultSink)(nil)

// MockResultRepository is a mock type for the ResultRepository type
type MockResultRepository struct {
	mock.Mock
}

// Save provides a mock function with given fields: ctx, outcome
func (_m *MockResultRepository) Save(ctx context.Context, outcome flow.Outcome) error {
	ret := _m.Called(ctx, outcome)
	return ret.Error(0)
}

// NewMockResultRepository creates a new instance of MockResultRepository.
func NewMockResultRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockResultRepository {
	m := &MockResultRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ repository.ResultRepository = (*MockResultRepository)(nil)

// MockResultPublisher is a mock type for the ResultPublisher type
type MockResultPublisher struct {
	mock.Mock
}

// PublishQuizCompleted provides a mock function with given fields: ctx, outcome
func (_m *MockResultPublisher) PublishQuizCompleted(ctx context.Context, outcome flow.Outcome) error {
	ret := _m.Called(ctx, outcome)
	return ret.Error(0)
}

// NewMockResultPublisher creates a new instance of MockResultPublisher.
func NewMockResultPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockResultPublisher {
	m := &MockResultPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ messaging.ResultPublisher = (*MockResultPublisher)(nil)
