package mocks

import (
	"context"

	"mbti-quest/internal/voice"

	"github.com/stretchr/testify/mock"
)

// MockSynthesizer is a mock type for the Synthesizer type
type MockSynthesizer struct {
	mock.Mock
}

// Synthesize provides a mock function with given fields: ctx, voiceID, text
func (_m *MockSynthesizer) Synthesize(ctx context.Context, voiceID string, text string) (voice.Audio, error) {
	ret := _m.Called(ctx, voiceID, text)

	var r0 voice.Audio
	if rf, ok := ret.Get(0).(func(context.Context, string, string) voice.Audio); ok {
		r0 = rf(ctx, voiceID, text)
	} else {
		r0 = ret.Get(0).(voice.Audio)
	}

	return r0, ret.Error(1)
}

// NewMockSynthesizer creates a new instance of MockSynthesizer.
func NewMockSynthesizer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSynthesizer {
	m := &MockSynthesizer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ voice.Synthesizer = (*MockSynthesizer)(nil)
