package mocks

import (
	"context"

	"github.com/ersonp/activity-core/internal/domain/entities"
)

// Summarizer is a mock implementation of ports.Summarizer.
type Summarizer struct {
	Digest string
	Err    error

	CallCount      int
	LastActivities []entities.Activity
}

// Summarize returns the configured digest or error.
func (m *Summarizer) Summarize(_ context.Context, _ string, activities []entities.Activity) (string, error) {
	m.CallCount++
	m.LastActivities = activities
	if m.Err != nil {
		return "", m.Err
	}
	return m.Digest, nil
}
