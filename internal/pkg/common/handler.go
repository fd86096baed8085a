package common

import (
	"context"
	"mime/multipart"

	"socialgraph/internal/pkg/uploader"
	"socialgraph/internal/pkg/worker"
	"socialgraph/pkg/apperr"
	"socialgraph/pkg/model"
	"socialgraph/pkg/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// 并发上传数
const uploadConcurrency = 5

// MaxUploadMemory multipart 表单在内存中保留的最大字节数，超出部分写入临时文件
const MaxUploadMemory = 32 << 20

// Pagination 读取 page / limit 查询参数，非法值回退默认值
func Pagination(c *gin.Context) utils.Pagination {
	return utils.ParsePagination(c.Query("page"), c.Query("limit"))
}

// MediaFiles 读取 multipart 表单中的文件列表，表单不存在时返回空
func MediaFiles(c *gin.Context, field string) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	return form.File[field]
}

// UploadMedia 并发上传文件并保持原有顺序
// 任一文件失败时已上传的文件交给 releaser 回收，返回 External 错误
func UploadMedia(ctx context.Context, storage uploader.MediaStorage, releaser worker.MediaReleaser, files []*multipart.FileHeader, folder string) ([]model.MediaItem, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if storage == nil {
		return nil, apperr.Internal("uploader not initialized", nil)
	}

	// 直接按索引赋值，保证顺序
	items := make([]model.MediaItem, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			src, err := file.Open()
			if err != nil {
				return err
			}
			defer src.Close()

			item, err := storage.Upload(gctx, uploader.File{
				Name:        file.Filename,
				ContentType: file.Header.Get("Content-Type"),
				Size:        file.Size,
				Body:        src,
			}, folder)
			if err != nil {
				return err
			}
			items[i] = item
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if releaser != nil {
			releaser.Release(items...)
		}
		return nil, apperr.External("media upload failed", err)
	}
	return items, nil
}
