package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"foodgram/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateAWSConfig(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
}

func newTestS3(t *testing.T, endpoint string) Storage {
	t.Helper()
	isolateAWSConfig(t)

	store, err := NewAwsS3(context.Background(), S3Config{
		Bucket:    "media",
		Region:    "eu-central-1",
		AccessKey: "access",
		SecretKey: "secret",
		Endpoint:  endpoint,
	})
	require.NoError(t, err)
	return store
}

func TestAwsS3PublicLink(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		key      string
		want     string
	}{
		{"aws host", "", "recipes/a.png", "https://media.s3.eu-central-1.amazonaws.com/recipes/a.png"},
		{"custom endpoint", "http://minio:9000/", "recipes/a.png", "http://minio:9000/media/recipes/a.png"},
		{"empty key", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newTestS3(t, tt.endpoint).GetPublicLink(tt.key))
		})
	}
}

func TestNewAwsS3RequiresBucketAndRegion(t *testing.T) {
	_, err := NewAwsS3(context.Background(), S3Config{Region: "eu-central-1"})
	assert.Error(t, err)

	_, err = NewAwsS3(context.Background(), S3Config{Bucket: "media"})
	assert.Error(t, err)
}

type s3Request struct {
	method      string
	path        string
	contentType string
}

func TestAwsS3UploadAndDelete(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []s3Request
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		requests = append(requests, s3Request{method: r.Method, path: r.URL.Path, contentType: r.Header.Get("Content-Type")})
		mu.Unlock()

		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	store := newTestS3(t, server.URL)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "recipes/a.png", []byte("png"), "image/png"))
	require.NoError(t, store.Delete(ctx, "recipes/a.png"))
	assert.Equal(t, server.URL+"/media/recipes/a.png", store.GetPublicLink("recipes/a.png"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requests, 2)
	assert.Equal(t, s3Request{method: http.MethodPut, path: "/media/recipes/a.png", contentType: "image/png"}, requests[0])
	assert.Equal(t, http.MethodDelete, requests[1].method)
	assert.Equal(t, "/media/recipes/a.png", requests[1].path)
}

func TestAwsS3UploadReportsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	err := newTestS3(t, server.URL).Upload(context.Background(), "recipes/a.png", []byte("png"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipes/a.png")
}

func TestNewStorageSelectsBackend(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	t.Cleanup(func() { _ = utils.LoadConfig(missing) })
	isolateAWSConfig(t)
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("AWS_S3_BUCKET", "media")
	t.Setenv("AWS_S3_REGION", "eu-central-1")
	t.Setenv("AWS_ACCESS_KEY", "access")
	t.Setenv("AWS_SECRET_KEY", "secret")
	t.Setenv("AWS_S3_ENDPOINT", "")
	require.NoError(t, utils.LoadConfig(missing))

	store, err := NewStorage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://media.s3.eu-central-1.amazonaws.com/recipes/a.png", store.GetPublicLink("recipes/a.png"))

	t.Setenv("STORAGE_DRIVER", "ftp")
	require.NoError(t, utils.LoadConfig(missing))
	_, err = NewStorage(context.Background())
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
