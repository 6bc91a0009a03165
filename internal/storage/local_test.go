package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePutAndDelete(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(root, "/files/")

	obj, err := s.Put(context.Background(), "Report.PDF", strings.NewReader("hello"), 5)
	require.NoError(t, err)

	assert.EqualValues(t, 5, obj.Size)
	assert.True(t, strings.HasPrefix(obj.Key, "uploads/"))
	assert.True(t, strings.HasSuffix(obj.Key, ".pdf"))
	assert.Equal(t, "/files/"+obj.Key, obj.URL)

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(obj.Key)))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Delete(context.Background(), obj.Key))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(obj.Key)))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, s.Delete(context.Background(), obj.Key))
}
