package atomicfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAndRead(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	require.NoError(t, Publish(dir, "record.json", []byte(`{"a":1}`)))

	data, err := Read(filepath.Join(dir, "record.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))
}

func TestPublishOverwrites(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	require.NoError(t, Publish(dir, "record.json", []byte("first")))
	require.NoError(t, Publish(dir, "record.json", []byte("second")))

	data, err := Read(filepath.Join(dir, "record.json"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestPublishCreatesDir(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	dir := filepath.Join(base, "nested", "deeper")

	require.NoError(t, Publish(dir, "f.json", []byte("x")))

	_, err := os.Stat(filepath.Join(dir, "f.json"))
	require.NoError(t, err)
}

func TestPublishLeavesNoTempFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	require.NoError(t, Publish(dir, "f.json", []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "f.json", entries[0].Name())
}

func TestReadNotFound(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := Read(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRandomSuffix(t *testing.T) {
	t.Parallel()

	a := RandomSuffix(8)
	b := RandomSuffix(8)

	assert.Len(t, a, 8)
	assert.Len(t, b, 8)
	assert.NotEqual(t, a, b)
}

func TestRandomSuffixClampsToAvailableLength(t *testing.T) {
	t.Parallel()

	s := RandomSuffix(1000)
	assert.LessOrEqual(t, len(s), 32)
	assert.NotEmpty(t, s)
}
