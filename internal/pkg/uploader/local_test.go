package uploader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"socialgraph/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageUploadAndRelease(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "/uploads/")
	require.NoError(t, err)

	ctx := context.Background()
	item, err := s.Upload(ctx, File{
		Name:        "Sunset.JPG",
		ContentType: "image/jpeg",
		Body:        strings.NewReader("fake-image"),
	}, "posts")
	require.NoError(t, err)

	assert.Equal(t, model.MediaImage, item.Kind)
	assert.True(t, strings.HasPrefix(item.StorageID, "posts/"))
	assert.True(t, strings.HasSuffix(item.StorageID, ".jpg"))
	assert.Equal(t, "/uploads/"+item.StorageID, item.URL)

	fullPath := filepath.Join(dir, filepath.FromSlash(item.StorageID))
	data, err := os.ReadFile(fullPath)
	require.NoError(t, err)
	assert.Equal(t, "fake-image", string(data))

	require.NoError(t, s.Release(ctx, item.StorageID, item.Kind))
	_, err = os.Stat(fullPath)
	assert.True(t, os.IsNotExist(err))

	// 重复释放不报错
	assert.NoError(t, s.Release(ctx, item.StorageID, item.Kind))
}

func TestLocalStorageReleaseStaysInBase(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(filepath.Dir(dir), "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))
	t.Cleanup(func() { os.Remove(outside) })

	s, err := NewLocalStorage(dir, "")
	require.NoError(t, err)
	require.NoError(t, s.Release(context.Background(), "../outside.txt", model.MediaRaw))

	_, err = os.Stat(outside)
	assert.NoError(t, err)
}

func TestObjectKey(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	key := objectKey("/stories/", "clip.MP4", now)
	assert.True(t, strings.HasPrefix(key, "stories/20240501/"))
	assert.True(t, strings.HasSuffix(key, ".mp4"))

	assert.True(t, strings.HasPrefix(objectKey("", "a.png", now), "media/20240501/"))
}
