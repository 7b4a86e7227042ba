package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewFileLogger_DisabledIsNop(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	logger, cleanup, err := NewFileLogger(dir, false)
	require.NoError(t, err)
	defer cleanup()

	logger.Info("ignored")
	_, statErr := os.Stat(filepath.Join(dir, "logs"))
	assert.True(t, os.IsNotExist(statErr), "no logs directory in production mode")
}

func TestNewFileLogger_WritesToFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	logger, cleanup, err := NewFileLogger(dir, true)
	require.NoError(t, err)

	logger.Info("hello", zap.String("k", "v"))
	cleanup()

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, "logs", entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), `"k":"v"`)
}
