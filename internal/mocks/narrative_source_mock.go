package mocks

import (
	"context"

	"mbti-quest/internal/flow"
	"mbti-quest/internal/insight"
	"mbti-quest/internal/mbti"

	"github.com/stretchr/testify/mock"
)

// MockNarrativeSource is a mock type for the NarrativeSource type
type MockNarrativeSource struct {
	mock.Mock
}

// Generate provides a mock function with given fields: ctx, t, age
func (_m *MockNarrativeSource) Generate(ctx context.Context, t mbti.Type, age int) ([]insight.Insight, error) {
	ret := _m.Called(ctx, t, age)

	var r0 []insight.Insight
	if rf, ok := ret.Get(0).(func(context.Context, mbti.Type, int) []insight.Insight); ok {
		r0 = rf(ctx, t, age)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]insight.Insight)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, mbti.Type, int) error); ok {
		r1 = rf(ctx, t, age)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockNarrativeSource creates a new instance of MockNarrativeSource.
func NewMockNarrativeSource(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockNarrativeSource {
	m := &MockNarrativeSource{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ flow.NarrativeSource = (*MockNarrativeSource)(nil)
