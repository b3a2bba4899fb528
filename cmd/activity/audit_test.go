package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/activity-core/internal/domain/entities"
)

func TestPrintAudit(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []entities.AuditEntry{
		{Action: entities.AuditActionDelete, ActivityID: "p1", Details: map[string]any{"name": "post__published"}, CreatedAt: now.Add(-time.Minute)},
		{Action: entities.AuditActionImport, Details: map[string]any{"skipped": 2, "imported": 10}, CreatedAt: now.Add(-2 * time.Hour)},
	}

	var buf bytes.Buffer
	printAudit(&buf, entries, now)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "ACTION")
	assert.Contains(t, lines[1], "1 minute ago")
	assert.Contains(t, lines[1], "name=post__published")
	assert.Contains(t, lines[2], "2 hours ago")
	assert.Contains(t, lines[2], "imported=10 skipped=2")
}

func TestPrintAudit_Empty(t *testing.T) {
	var buf bytes.Buffer
	printAudit(&buf, nil, time.Now())
	assert.Equal(t, "No audit entries.\n", buf.String())
}

func TestFormatDetails(t *testing.T) {
	assert.Equal(t, "", formatDetails(nil))
	assert.Equal(t, "a=1 b=x", formatDetails(map[string]any{"b": "x", "a": 1}))
}
