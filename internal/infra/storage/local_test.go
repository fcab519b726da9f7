package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ecshop/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_SaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	ctx := context.Background()

	p, err := s.Save(ctx, "Photo.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, "/uploads/"))
	assert.True(t, strings.HasSuffix(p, ".png"))

	b, err := os.ReadFile(filepath.Join(s.Dir(), filepath.Base(p)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))

	require.NoError(t, s.Remove(ctx, p))
	_, err = os.Stat(filepath.Join(s.Dir(), filepath.Base(p)))
	assert.True(t, os.IsNotExist(err))

	// 2回目は何もしない
	assert.NoError(t, s.Remove(ctx, p))
}

func TestLocalStore_RejectsNonImage(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(context.Background(), "evil.sh", strings.NewReader("#!/bin/sh"))
	assert.ErrorIs(t, err, usecase.ErrUnsupportedImage)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStore_RemoveStaysInDir(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(root, "secret.png")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	s, err := NewLocalStore(filepath.Join(root, "uploads"))
	require.NoError(t, err)

	assert.Error(t, s.Remove(context.Background(), "/etc/passwd"))
	assert.NoError(t, s.Remove(context.Background(), "/uploads/../secret.png"))

	_, err = os.Stat(outside)
	assert.NoError(t, err)
}
