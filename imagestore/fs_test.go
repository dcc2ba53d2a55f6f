package imagestore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_PutReadDelete(t *testing.T) {
	s, err := NewFS(filepath.Join(t.TempDir(), "images"))
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := s.Put(ctx, bytes.NewReader([]byte("pixels")), "JPG")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".jpg"))

	data, err := s.ReadImage(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("pixels"), data)

	require.NoError(t, s.Delete(ref))
	_, err = s.ReadImage(ctx, ref)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.NoError(t, s.Delete(ref))

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files must not be left behind")
}

func TestFS_RejectsEscapingRefs(t *testing.T) {
	s, err := NewFS(t.TempDir())
	require.NoError(t, err)
	for _, ref := range []string{"", "../etc/passwd", "/etc/passwd", "a/../../b"} {
		_, err := s.ReadImage(context.Background(), ref)
		assert.True(t, errors.Is(err, ErrInvalidRef), "ref %q", ref)
	}
	_, err = s.Put(context.Background(), bytes.NewReader(nil), "../x")
	assert.Error(t, err)
}
