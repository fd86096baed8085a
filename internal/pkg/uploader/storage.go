package uploader

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"socialgraph/internal/pkg/config"
	"socialgraph/pkg/model"

	"github.com/google/uuid"
)

// MediaStorage 媒体存储服务
// Upload 返回的 StorageID 即对象键，Release 通过它删除对象
type MediaStorage interface {
	Upload(ctx context.Context, file File, folder string) (model.MediaItem, error)
	Release(ctx context.Context, storageID string, kind model.MediaKind) error
}

// File 待上传的文件
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// New 根据配置创建存储驱动
func New(cfg config.Config) (MediaStorage, error) {
	switch cfg.Storage.Driver {
	case "oss":
		return NewAliyunOSSStorage(cfg.OSS)
	case "s3":
		return NewS3Storage(cfg.S3)
	case "local", "":
		return NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.PublicURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// objectKey 生成唯一对象键: folder/YYYYMMDD/uuid.ext
func objectKey(folder, filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "media"
	}
	return path.Join(folder, now.Format("20060102"), uuid.New().String()+ext)
}
