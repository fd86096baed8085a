package uploader

import (
	"context"
	"fmt"
	"time"

	"socialgraph/internal/pkg/config"
	"socialgraph/pkg/model"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type S3Storage struct {
	s3       *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	baseURL  string
}

func NewS3Storage(cfg config.S3Config) (*S3Storage, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	baseURL := fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.Bucket)
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
		baseURL = fmt.Sprintf("%s/%s", cfg.Endpoint, cfg.Bucket)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}

	return &S3Storage{
		s3:       s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   cfg.Bucket,
		baseURL:  baseURL,
	}, nil
}

func (s *S3Storage) Upload(ctx context.Context, file File, folder string) (model.MediaItem, error) {
	key := objectKey(folder, file.Name, time.Now())

	input := &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file.Body,
	}
	if file.ContentType != "" {
		input.ContentType = aws.String(file.ContentType)
	}

	if _, err := s.uploader.UploadWithContext(ctx, input); err != nil {
		return model.MediaItem{}, fmt.Errorf("s3 put %s: %w", key, err)
	}

	return model.MediaItem{
		URL:       fmt.Sprintf("%s/%s", s.baseURL, key),
		StorageID: key,
		Kind:      model.DetectKind(file.Name, file.ContentType),
	}, nil
}

func (s *S3Storage) Release(ctx context.Context, storageID string, _ model.MediaKind) error {
	_, err := s.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageID),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", storageID, err)
	}
	return nil
}
