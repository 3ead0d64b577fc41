package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"contractbuilder/internal/apperror"
	"contractbuilder/internal/storage"
	"contractbuilder/pkg/logger"
)

// FileUpload is an image received from a multipart form.
type FileUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// storeImage validates and uploads an image under prefix and returns its public URL.
func storeImage(ctx context.Context, store storage.FileStore, prefix string, file FileUpload) (string, error) {
	if err := storage.ValidateImage(file.ContentType, file.Size); err != nil {
		if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrUnsupportedType) {
			return "", apperror.Validation(err.Error(), map[string]string{"file": err.Error()})
		}
		return "", err
	}
	key := storage.ObjectKey(prefix, file.ContentType)
	url, err := store.Upload(ctx, key, file.Reader, file.Size, file.ContentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return url, nil
}

// removeImage deletes a previously stored image. Failures are only logged.
func removeImage(ctx context.Context, store storage.FileStore, url string) {
	key, ok := store.KeyFromURL(url)
	if !ok {
		return
	}
	if err := store.Delete(ctx, key); err != nil {
		logger.Warn(ctx, "failed to remove stored file", "key", key, "error", err)
	}
}
