package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/rgabuco/webapp-sodv2201-final/config"
)

var (
	ErrFileTooLarge    = errors.New("文件超过大小限制")
	ErrUnsupportedType = errors.New("仅支持 JPEG/PNG 图片")
	ErrEmptyFile       = errors.New("文件为空")
)

// allowedPhotoTypes 头像允许的 MIME 类型与落盘扩展名
var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// PhotoStore 本地磁盘头像存储
type PhotoStore struct {
	dir      string
	prefix   string
	maxBytes int64
}

// NewPhotoStore 创建头像存储，目录不存在时自动创建
func NewPhotoStore(cfg *config.StorageConfig) (*PhotoStore, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &PhotoStore{
		dir:      cfg.UploadDir,
		prefix:   strings.TrimRight(cfg.PublicPrefix, "/"),
		maxBytes: cfg.MaxPhotoBytes,
	}, nil
}

// Dir 返回存储目录
func (s *PhotoStore) Dir() string { return s.dir }

// SavePhoto 校验并保存头像，返回公开访问 URL
// 文件类型以内容嗅探为准，不信任客户端提供的文件名或 Content-Type
func (s *PhotoStore) SavePhoto(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("读取上传文件失败: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrFileTooLarge
	}

	mt := mimetype.Detect(data)
	ext, ok := allowedPhotoTypes[mt.String()]
	if !ok {
		return "", ErrUnsupportedType
	}

	name := uuid.NewString() + ext
	if err := writeFile(filepath.Join(s.dir, name), bytes.NewReader(data)); err != nil {
		return "", err
	}
	return path.Join(s.prefix, name), nil
}

// writeFile 写入失败或关闭失败时删除残留文件
func writeFile(dstPath string, r io.Reader) (err error) {
	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("创建目标文件失败: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(dstPath)
		}
	}()

	if _, err = io.Copy(dst, r); err != nil {
		dst.Close()
		return fmt.Errorf("写入文件失败: %w", err)
	}
	if err = dst.Close(); err != nil {
		return fmt.Errorf("关闭文件失败: %w", err)
	}
	return nil
}

// Remove 删除先前保存的头像，URL 不属于本存储时忽略
func (s *PhotoStore) Remove(url string) error {
	if url == "" || !strings.HasPrefix(url, s.prefix+"/") {
		return nil
	}
	name := path.Base(url)
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
