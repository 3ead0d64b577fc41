// Package storage keeps uploaded files (company logo, avatars) in object storage.
// Only the returned URL is persisted by callers.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
)

// MaxImageSize bounds logo and avatar uploads.
const MaxImageSize int64 = 5 << 20

var (
	ErrUnsupportedType = errors.New("only image files are allowed (jpeg, png, gif, webp)")
	ErrTooLarge        = errors.New("file exceeds the 5MB limit")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type FileStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

// ValidateImage checks the declared content type and size of an upload.
func ValidateImage(contentType string, size int64) error {
	if _, ok := imageExtensions[contentType]; !ok {
		return ErrUnsupportedType
	}
	if size > MaxImageSize {
		return ErrTooLarge
	}
	return nil
}

// ObjectKey builds a collision-free key such as "avatars/01J9...X.png".
func ObjectKey(prefix, contentType string) string {
	return path.Join(prefix, ulid.Make().String()+imageExtensions[contentType])
}

// MemoryStore is an in-process FileStore for tests and local runs without object storage.
type MemoryStore struct {
	mu      sync.Mutex
	baseURL string
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{baseURL: strings.TrimRight(baseURL, "/"), objects: make(map[string]memoryObject)}
}

func (m *MemoryStore) Upload(_ context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
	return m.baseURL + "/" + key, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) KeyFromURL(url string) (string, bool) {
	return strings.CutPrefix(url, m.baseURL+"/")
}

// Open returns the stored bytes and content type of key.
func (m *MemoryStore) Open(key string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", false
	}
	return obj.data, obj.contentType, true
}

// Has reports whether key is stored.
func (m *MemoryStore) Has(key string) bool {
	_, _, ok := m.Open(key)
	return ok
}
