package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/snowsync/internal/config"
)

type s3Call struct {
	method string
	path   string
	body   string
}

func newTestStorage(t *testing.T) (*S3Storage, *[]s3Call) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []s3Call
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, s3Call{method: r.Method, path: r.URL.Path, body: string(body)})
		mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte("object content"))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.Header().Set("ETag", `"etag"`)
			w.WriteHeader(http.StatusOK)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := config.AWSConfig{
		Region:          "us-east-1",
		S3Endpoint:      srv.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "secret",
	}
	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	require.NoError(t, err)
	awsCfg.HTTPClient = srv.Client()
	return NewS3Storage(awsCfg, cfg), &calls
}

func TestDownloadUploadDelete(t *testing.T) {
	store, calls := newTestStorage(t)
	ctx := context.Background()

	body, err := store.Download(ctx, "relay", "INC1/77/trace.log")
	require.NoError(t, err)
	content, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "object content", string(content))

	require.NoError(t, store.Upload(ctx, "relay", "INC1/78/out.txt", strings.NewReader("payload")))
	require.NoError(t, store.Delete(ctx, "relay", "INC1/77/trace.log"))

	require.Len(t, *calls, 3)
	assert.Equal(t, http.MethodGet, (*calls)[0].method)
	assert.Equal(t, "/relay/INC1/77/trace.log", (*calls)[0].path)
	assert.Equal(t, http.MethodPut, (*calls)[1].method)
	assert.Equal(t, "/relay/INC1/78/out.txt", (*calls)[1].path)
	assert.Equal(t, http.MethodDelete, (*calls)[2].method)
}

func TestPresignPost(t *testing.T) {
	store, calls := newTestStorage(t)

	post, err := store.PresignPost(context.Background(), "uploads", "FSD-1/report.pdf", 10*time.Minute)
	require.NoError(t, err)

	assert.Contains(t, post.URL, "uploads")
	assert.Equal(t, "FSD-1/report.pdf", post.Fields["key"])
	assert.Empty(t, *calls)
}
