package relationaldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "sqlite unchanged",
			dialect:  SQLiteDialect{},
			query:    "SELECT id FROM activities WHERE site_id = ? AND id = ?",
			expected: "SELECT id FROM activities WHERE site_id = ? AND id = ?",
		},
		{
			name:     "postgres numbered",
			dialect:  PostgresDialect{},
			query:    "SELECT id FROM activities WHERE site_id = ? AND id IN (?, ?)",
			expected: "SELECT id FROM activities WHERE site_id = $1 AND id IN ($2, $3)",
		},
		{
			name:     "no placeholders",
			dialect:  PostgresDialect{},
			query:    "SELECT COUNT(*) FROM activities",
			expected: "SELECT COUNT(*) FROM activities",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Rebind(tt.dialect, tt.query))
		})
	}
}

func TestDialects(t *testing.T) {
	assert.Equal(t, "sqlite", SQLiteDialect{}.DriverName())
	assert.Equal(t, "pgx", PostgresDialect{}.DriverName())
	assert.Equal(t, "$7", PostgresDialect{}.Placeholder(7))

	for _, d := range []Dialect{SQLiteDialect{}, PostgresDialect{}} {
		schema := d.SchemaSQL()
		assert.Len(t, schema, 5)
		assert.Contains(t, schema[0], "PRIMARY KEY (site_id, id)")
	}
	assert.Contains(t, SQLiteDialect{}.SchemaSQL()[3], "AUTOINCREMENT")
	assert.Contains(t, PostgresDialect{}.SchemaSQL()[3], "BIGSERIAL")
}
