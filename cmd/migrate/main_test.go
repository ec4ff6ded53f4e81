package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/journal-service/internal/database"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		args    []string
		want    command
		wantErr string
	}{
		{args: []string{"up"}, want: command{name: "up"}},
		{args: []string{"status"}, want: command{name: "status"}},
		{args: []string{"list"}, want: command{name: "list"}},
		{args: []string{"steps", "-2"}, want: command{name: "steps", n: -2}},
		{args: []string{"force", "3"}, want: command{name: "force", n: 3}},
		{args: nil, wantErr: "no command given"},
		{args: []string{"sideways"}, wantErr: `unknown command "sideways"`},
		{args: []string{"up", "2"}, wantErr: "up takes no arguments"},
		{args: []string{"steps"}, wantErr: "steps takes exactly one number"},
		{args: []string{"steps", "two"}, wantErr: `steps: "two" is not a number`},
		{args: []string{"steps", "0"}, wantErr: "steps: N must not be zero"},
		{args: []string{"force", "-1"}, wantErr: "force: version must not be negative"},
	}

	for _, tc := range tests {
		got, err := parseCommand(tc.args)
		if tc.wantErr != "" {
			assert.EqualError(t, err, tc.wantErr, "args %v", tc.args)
			continue
		}
		require.NoError(t, err, "args %v", tc.args)
		assert.Equal(t, tc.want, got)
	}
}

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "embedded", sourceLabel(""))
	assert.Equal(t, "/srv/migrations", sourceLabel("/srv/migrations"))
}

func TestLogSchema(t *testing.T) {
	known := []database.Migration{
		{Version: 1, Name: "create_manuscripts"},
		{Version: 2, Name: "create_people_and_texts"},
		{Version: 3, Name: "create_outbox_events"},
	}

	decode := func(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
		t.Helper()
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		return entry
	}

	t.Run("reports pending migrations", func(t *testing.T) {
		var buf bytes.Buffer
		logSchema(zerolog.New(&buf), 1, false, known)

		entry := decode(t, &buf)
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, float64(1), entry["version"])
		assert.Equal(t, float64(3), entry["latest"])
		assert.Equal(t, float64(2), entry["pending"])
	})

	t.Run("dirty schema warns", func(t *testing.T) {
		var buf bytes.Buffer
		logSchema(zerolog.New(&buf), 3, true, known)

		entry := decode(t, &buf)
		assert.Equal(t, "warn", entry["level"])
		assert.Equal(t, float64(0), entry["pending"])
		assert.Equal(t, true, entry["dirty"])
	})
}
