package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"contractbuilder/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int64
		want        error
	}{
		{"png", "image/png", 1024, nil},
		{"webp at limit", "image/webp", MaxImageSize, nil},
		{"pdf", "application/pdf", 1024, ErrUnsupportedType},
		{"too large", "image/jpeg", MaxImageSize + 1, ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateImage(tt.contentType, tt.size))
		})
	}
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("avatars", "image/png")
	assert.True(t, strings.HasPrefix(key, "avatars/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, ObjectKey("avatars", "image/png"))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore("http://files.local/")
	ctx := context.Background()

	url, err := store.Upload(ctx, "logos/a.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://files.local/logos/a.png", url)

	key, ok := store.KeyFromURL(url)
	require.True(t, ok)
	assert.True(t, store.Has(key))

	data, contentType, ok := store.Open(key)
	require.True(t, ok)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "image/png", contentType)

	require.NoError(t, store.Delete(ctx, key))
	assert.False(t, store.Has(key))

	_, ok = store.KeyFromURL("https://elsewhere/x.png")
	assert.False(t, ok)
}

func TestMinioStoreURLs(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MinioConfig
		want string
	}{
		{
			name: "endpoint",
			cfg:  config.MinioConfig{Endpoint: "localhost:9000", Bucket: "contracts", Region: "us-east-1"},
			want: "http://localhost:9000/contracts/logos/a.png",
		},
		{
			name: "ssl endpoint",
			cfg:  config.MinioConfig{Endpoint: "minio.example.com", Bucket: "contracts", UseSSL: true, Region: "us-east-1"},
			want: "https://minio.example.com/contracts/logos/a.png",
		},
		{
			name: "public url",
			cfg:  config.MinioConfig{Endpoint: "minio:9000", Bucket: "contracts", PublicURL: "https://cdn.example.com/", Region: "us-east-1"},
			want: "https://cdn.example.com/contracts/logos/a.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewMinioStore(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, store.URL("logos/a.png"))

			key, ok := store.KeyFromURL(tt.want)
			assert.True(t, ok)
			assert.Equal(t, "logos/a.png", key)
		})
	}
}

func TestMinioStoreUploadAndDelete(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer server.Close()

	store, err := NewMinioStore(config.MinioConfig{
		Endpoint:  strings.TrimPrefix(server.URL, "http://"),
		AccessKey: "test",
		SecretKey: "test-secret",
		Bucket:    "contracts",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	ctx := context.Background()
	url, err := store.Upload(ctx, "logos/a.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/contracts/logos/a.png", url)

	require.NoError(t, store.Delete(ctx, "logos/a.png"))

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, calls, "PUT /contracts/logos/a.png")
	assert.Contains(t, calls, "DELETE /contracts/logos/a.png")
}
