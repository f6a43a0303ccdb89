package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_DisabledByDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, closeFn, err := SetupIn(dir, false)
	require.NoError(t, err)
	require.NotNil(t, closeFn)
	assert.NoError(t, closeFn())

	logger.Info("dropped")
	assert.Equal(t, io.Discard, log.Writer())

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "no directory without debug")
}

func TestSetup_EnabledWithDebug(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, closeFn, err := SetupIn(dir, true)
	require.NoError(t, err)

	logger.Info("price_poller_started")
	log.Println("std logger line")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"price_poller_started"`)
	assert.Contains(t, string(data), "std logger line")
}

func TestSetup_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LogFileName)
	require.NoError(t, os.WriteFile(path, make([]byte, MaxLogSize+1), 0o644))

	_, closeFn, err := SetupIn(dir, true)
	require.NoError(t, err)
	defer closeFn()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	rotated := false
	for _, e := range entries {
		if e.Name() != LogFileName && filepath.Ext(e.Name()) == ".log" {
			rotated = true
		}
	}
	assert.True(t, rotated, "oversized log is renamed")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(MaxLogSize))
}

func TestSetup_NoStdoutStderr(t *testing.T) {
	_, closeFn, err := SetupIn(t.TempDir(), true)
	require.NoError(t, err)
	defer closeFn()

	out := log.Writer()
	assert.NotEqual(t, os.Stdout, out)
	assert.NotEqual(t, os.Stderr, out)
}
