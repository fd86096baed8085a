package uploader

import (
	"context"
	"fmt"
	"time"

	"socialgraph/internal/pkg/config"
	"socialgraph/pkg/model"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type AliyunOSSStorage struct {
	client *oss.Client
	bucket *oss.Bucket
	config config.OSSConfig
}

func NewAliyunOSSStorage(cfg config.OSSConfig) (*AliyunOSSStorage, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &AliyunOSSStorage{
		client: client,
		bucket: bucket,
		config: cfg,
	}, nil
}

func (s *AliyunOSSStorage) Upload(ctx context.Context, file File, folder string) (model.MediaItem, error) {
	key := objectKey(folder, file.Name, time.Now())

	opts := []oss.Option{oss.WithContext(ctx)}
	if file.ContentType != "" {
		opts = append(opts, oss.ContentType(file.ContentType))
	}
	if err := s.bucket.PutObject(key, file.Body, opts...); err != nil {
		return model.MediaItem{}, fmt.Errorf("oss put %s: %w", key, err)
	}

	// bucket 为公共读或挂了 CDN，直接拼接公网地址
	return model.MediaItem{
		URL:       fmt.Sprintf("https://%s.%s/%s", s.config.BucketName, s.config.Endpoint, key),
		StorageID: key,
		Kind:      model.DetectKind(file.Name, file.ContentType),
	}, nil
}

// Release OSS 按对象键删除，与媒体类型无关
func (s *AliyunOSSStorage) Release(ctx context.Context, storageID string, _ model.MediaKind) error {
	if err := s.bucket.DeleteObject(storageID, oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("oss delete %s: %w", storageID, err)
	}
	return nil
}
