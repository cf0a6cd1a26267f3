package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "state")

	b, err := NewFileBackend(dir)
	require.NoError(t, err)

	var missing []string
	assert.ErrorIs(t, b.Load(ctx, KeySentNews, &missing), ErrNotFound)

	require.NoError(t, b.Save(ctx, KeySentNews, []string{"a_1", "b_2"}))

	var got []string
	require.NoError(t, b.Load(ctx, KeySentNews, &got))
	assert.Equal(t, []string{"a_1", "b_2"}, got)

	_, err = os.Stat(filepath.Join(dir, "sent_news.json"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileBackend_Corrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b, err := NewFileBackend(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sent_news.json"), []byte("{not json"), 0o600))

	var got []string
	err = b.Load(ctx, KeySentNews, &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
