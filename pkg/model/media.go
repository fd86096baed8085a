package model

import (
	"path/filepath"
	"strings"
)

// MediaKind 媒体类型，释放对象时需要按类型删除
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaRaw   MediaKind = "raw"
)

// MediaItem 已上传到对象存储的媒体
type MediaItem struct {
	URL       string    `json:"url"`
	StorageID string    `json:"storageId"`
	Kind      MediaKind `json:"kind"`
}

// IsZero reports whether the item points at nothing.
func (m MediaItem) IsZero() bool {
	return m.StorageID == ""
}

var videoExts = map[string]bool{
	".mp4": true, ".mov": true, ".webm": true, ".mkv": true, ".avi": true, ".m4v": true,
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".heic": true, ".bmp": true,
}

// DetectKind 根据 Content-Type 或文件扩展名判断媒体类型
func DetectKind(filename, contentType string) MediaKind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return MediaImage
	case strings.HasPrefix(contentType, "video/"):
		return MediaVideo
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if imageExts[ext] {
		return MediaImage
	}
	if videoExts[ext] {
		return MediaVideo
	}
	return MediaRaw
}
