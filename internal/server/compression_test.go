package server

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipRequest(method string) *http.Request {
	r := httptest.NewRequest(method, "/api/buffers", nil)
	r.Header.Set("Accept-Encoding", "gzip, deflate")
	return r
}

func TestCompressionRoundTrip(t *testing.T) {
	h := CompressionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<h1>Hello, world!</h1>")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, gzipRequest(http.MethodGet))

	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hello, world!</h1>", string(body))
}

func TestCompressionSkipsBodilessResponses(t *testing.T) {
	h := CompressionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, gzipRequest(http.MethodGet))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Zero(t, w.Body.Len())
}

func TestShouldCompress(t *testing.T) {
	tests := []struct {
		name string
		req  func() *http.Request
		want bool
	}{
		{"gzip get", func() *http.Request { return gzipRequest(http.MethodGet) }, true},
		{"head", func() *http.Request { return gzipRequest(http.MethodHead) }, false},
		{"no accept", func() *http.Request { return httptest.NewRequest(http.MethodGet, "/", nil) }, false},
		{"websocket", func() *http.Request {
			r := gzipRequest(http.MethodGet)
			r.Header.Set("Upgrade", "WebSocket")
			return r
		}, false},
		{"export", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/api/export", nil)
			r.Header.Set("Accept-Encoding", "gzip")
			return r
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldCompress(tt.req()))
		})
	}
}
