package formupload

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postEndpoint accepts form uploads the way the storage service does
type postEndpoint struct {
	attempts atomic.Int32
	failures int32
	received atomic.Value
}

func (p *postEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := p.attempts.Add(1)
	if n <= p.failures {
		http.Error(w, "slow down", http.StatusServiceUnavailable)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fields := make(map[string]string, len(r.MultipartForm.Value))
	for name, values := range r.MultipartForm.Value {
		fields[name] = values[0]
	}
	files := r.MultipartForm.File[FieldFile]
	if len(files) != 1 {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	f, err := files[0].Open()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer f.Close()
	data, _ := io.ReadAll(f)

	bucket := strings.Trim(r.URL.Path, "/")
	if _, err := VerifyPost(testSecretKey, PostRequest{Bucket: bucket, Fields: fields, ContentLength: int64(len(data))}, testNow); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	p.received.Store(string(data))
	w.WriteHeader(http.StatusNoContent)
}

func issueFor(t *testing.T, server *httptest.Server) *Form {
	t.Helper()
	form, err := New(WithClock(fixedClock()), WithEndpoint(server.URL, true)).Issue(testConfig())
	require.NoError(t, err)
	return form
}

func TestClient_Upload(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		endpoint := &postEndpoint{}
		server := httptest.NewServer(endpoint)
		defer server.Close()

		var (
			mu       sync.Mutex
			progress []int64
		)
		client := NewClient(WithProgress(func(n int64) {
			mu.Lock()
			defer mu.Unlock()
			progress = append(progress, n)
		}))

		err := client.Upload(t.Context(), issueFor(t, server), "photo.png", strings.NewReader("png bytes"),
			WithContentType("image/png"), WithField("x-ignore-trace", "1"))
		require.NoError(t, err)

		assert.Equal(t, int32(1), endpoint.attempts.Load())
		assert.Equal(t, "png bytes", endpoint.received.Load())
		mu.Lock()
		defer mu.Unlock()
		require.NotEmpty(t, progress)
		assert.IsIncreasing(t, progress)
	})

	t.Run("policy rejection is not retried", func(t *testing.T) {
		endpoint := &postEndpoint{}
		server := httptest.NewServer(endpoint)
		defer server.Close()

		client := NewClient(WithRetry(3, time.Millisecond))
		err := client.Upload(t.Context(), issueFor(t, server), "page.html", strings.NewReader("<html>"),
			WithContentType("text/html"))
		require.Error(t, err)

		var uerr *UploadError
		require.True(t, errors.As(err, &uerr))
		assert.Equal(t, http.StatusForbidden, uerr.StatusCode)
		assert.Contains(t, uerr.Body, "policy condition failed")
		assert.Equal(t, int32(1), endpoint.attempts.Load())
	})

	t.Run("server errors are retried", func(t *testing.T) {
		endpoint := &postEndpoint{failures: 2}
		server := httptest.NewServer(endpoint)
		defer server.Close()

		client := NewClient(WithRetry(3, time.Millisecond))
		err := client.Upload(t.Context(), issueFor(t, server), "photo.png", strings.NewReader("png"),
			WithContentType("image/png"))
		require.NoError(t, err)
		assert.Equal(t, int32(3), endpoint.attempts.Load())
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		endpoint := &postEndpoint{failures: 10}
		server := httptest.NewServer(endpoint)
		defer server.Close()

		client := NewClient(WithRetry(2, time.Millisecond))
		err := client.Upload(t.Context(), issueFor(t, server), "photo.png", strings.NewReader("png"),
			WithContentType("image/png"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after 2 attempts")
		assert.Equal(t, int32(2), endpoint.attempts.Load())
	})

	t.Run("missing action", func(t *testing.T) {
		err := NewClient().Upload(t.Context(), &Form{}, "photo.png", strings.NewReader("png"))
		assert.ErrorIs(t, err, ErrMissingInput)
	})
}
