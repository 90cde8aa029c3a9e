package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/logger"
	"lendahand-backend/internal/storage"

	"github.com/google/uuid"
)

var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageOptions limits what the upload endpoint accepts.
type ImageOptions struct {
	MaxFileSize  int64 // bytes
	AllowedTypes []string
}

type imageService struct {
	store   storage.ImageStore
	options ImageOptions
}

func NewImageService(store storage.ImageStore, options ImageOptions) ImageService {
	return &imageService{store: store, options: options}
}

// UploadImages stores every file under a fresh random name and returns the
// public URLs in input order. A rejected file aborts the batch and removes
// the files already stored.
func (s *imageService) UploadImages(ctx context.Context, userID int32, files []UploadedFile) ([]string, error) {
	logger.EnterMethod("imageService.UploadImages", "userID", userID, "count", len(files))

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files provided", domain.ErrValidation)
	}

	var keys []string
	urls := make([]string, 0, len(files))
	for _, f := range files {
		key, err := s.storeOne(ctx, f)
		if err != nil {
			for _, k := range keys {
				if derr := s.store.Delete(ctx, k); derr != nil {
					logger.Warn("Failed to clean up stored image", "key", k, "error", derr)
				}
			}
			logger.ExitMethodWithError("imageService.UploadImages", err, "userID", userID, "filename", f.Filename)
			return nil, err
		}
		keys = append(keys, key)
		urls = append(urls, s.store.URL(key))
	}

	logger.ExitMethod("imageService.UploadImages", "userID", userID, "stored", len(urls))
	return urls, nil
}

func (s *imageService) storeOne(ctx context.Context, f UploadedFile) (string, error) {
	ext := strings.ToLower(filepath.Ext(f.Filename))
	contentType, ok := imageExtensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: unsupported file type: %q", domain.ErrValidation, ext)
	}
	if len(s.options.AllowedTypes) > 0 && !slices.Contains(s.options.AllowedTypes, contentType) {
		return "", fmt.Errorf("%w: content type %s is not allowed", domain.ErrValidation, contentType)
	}
	if s.options.MaxFileSize > 0 && f.Size > s.options.MaxFileSize {
		return "", fmt.Errorf("%w: %s exceeds the %d byte limit", domain.ErrValidation, f.Filename, s.options.MaxFileSize)
	}

	key := strings.ReplaceAll(uuid.New().String(), "-", "") + ext
	content := f.Content
	if s.options.MaxFileSize > 0 {
		// The declared size can lie; never write more than the limit plus one byte.
		content = io.LimitReader(f.Content, s.options.MaxFileSize+1)
	}
	n, err := s.store.Save(ctx, key, content)
	if err != nil {
		return "", fmt.Errorf("save %s: %w", f.Filename, err)
	}
	if s.options.MaxFileSize > 0 && n > s.options.MaxFileSize {
		_ = s.store.Delete(ctx, key)
		return "", fmt.Errorf("%w: %s exceeds the %d byte limit", domain.ErrValidation, f.Filename, s.options.MaxFileSize)
	}
	return key, nil
}

// OpenImage returns the stored file and its content type.
func (s *imageService) OpenImage(ctx context.Context, key string) (io.ReadCloser, string, error) {
	contentType, ok := imageExtensions[strings.ToLower(filepath.Ext(key))]
	if !ok || key != filepath.Base(key) {
		return nil, "", fmt.Errorf("image %q: %w", key, domain.ErrNotFound)
	}
	rc, err := s.store.Open(ctx, key)
	if errors.Is(err, storage.ErrFileNotFound) {
		return nil, "", fmt.Errorf("image %q: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, "", err
	}
	return rc, contentType, nil
}
