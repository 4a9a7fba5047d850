package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pos/backend/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var errNoDatabase = errors.New("no database in tests")

// countingOpener records whether a command reached the database
func countingOpener(calls *int) migratorOpener {
	return func(string, *zap.Logger) (*migration.Migrator, func(), error) {
		*calls++
		return nil, nil, errNoDatabase
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"drop"}},
		{"step without count", []string{"step"}},
		{"step not a number", []string{"step", "two"}},
		{"step zero", []string{"step", "0"}},
		{"goto negative", []string{"goto", "-1"}},
		{"force without version", []string{"force"}},
		{"create without name", []string{"create"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := run(tt.args, t.TempDir(), &bytes.Buffer{}, zaptest.NewLogger(t), countingOpener(&calls))
			assert.ErrorIs(t, err, errUsage)
			assert.Zero(t, calls, "arguments are validated before connecting")
		})
	}
}

func TestRun_DatabaseCommandsOpenMigrator(t *testing.T) {
	for _, args := range [][]string{{"up"}, {"down"}, {"version"}, {"step", "-1"}, {"goto", "3"}, {"force", "2"}} {
		t.Run(args[0], func(t *testing.T) {
			calls := 0
			err := run(args, t.TempDir(), &bytes.Buffer{}, zaptest.NewLogger(t), countingOpener(&calls))
			assert.ErrorIs(t, err, errNoDatabase)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestRun_CreateAndList(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	log := zaptest.NewLogger(t)

	var out bytes.Buffer
	require.NoError(t, run([]string{"list"}, dir, &out, log, countingOpener(&calls)))
	assert.Equal(t, "No migrations found\n", out.String())

	require.NoError(t, run([]string{"create", "add refunds", "track refunds"}, dir, &out, log, countingOpener(&calls)))
	_, err := os.Stat(filepath.Join(dir, "000001_add_refunds.up.sql"))
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, run([]string{"list"}, dir, &out, log, countingOpener(&calls)))
	assert.Equal(t, "  - 000001_add_refunds\n", out.String())
	assert.Zero(t, calls, "file commands never connect")
}

func TestWriteUsage_ListsEveryCommand(t *testing.T) {
	var out bytes.Buffer
	writeUsage(&out)
	for name := range commands {
		assert.Contains(t, out.String(), "  "+name+" ")
	}
	assert.Contains(t, out.String(), "POS_DATABASE_SSLMODE")
}

func TestResolveMigrationsPath_Explicit(t *testing.T) {
	dir := t.TempDir()
	got, err := resolveMigrationsPath(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}
