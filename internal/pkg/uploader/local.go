package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"socialgraph/pkg/model"
)

// LocalStorage 本地磁盘存储，开发环境使用
type LocalStorage struct {
	basePath  string
	publicURL string
}

func NewLocalStorage(basePath, publicURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &LocalStorage{basePath: basePath, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, file File, folder string) (model.MediaItem, error) {
	key := objectKey(folder, file.Name, time.Now())
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return model.MediaItem{}, fmt.Errorf("创建目录失败: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return model.MediaItem{}, fmt.Errorf("创建文件失败: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, file.Body); err != nil {
		return model.MediaItem{}, fmt.Errorf("保存文件失败: %w", err)
	}

	return model.MediaItem{
		URL:       s.publicURL + "/" + key,
		StorageID: key,
		Kind:      model.DetectKind(file.Name, file.ContentType),
	}, nil
}

// Release 删除本地文件，文件已不存在视为成功
func (s *LocalStorage) Release(ctx context.Context, storageID string, _ model.MediaKind) error {
	clean := filepath.Clean("/" + filepath.FromSlash(storageID))
	err := os.Remove(filepath.Join(s.basePath, clean))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("删除文件失败: %w", err)
	}
	return nil
}
