package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, body string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHasFileFalseBeforeDownload(t *testing.T) {
	r := New("org/model", t.TempDir(), "")
	assert.False(t, r.HasFile("tokenizer.json"))
}

func TestDownloadFileFetchesAndCaches(t *testing.T) {
	srv := testServer(t, `{"version":"1.0"}`)
	r := New("org/model", t.TempDir(), "")
	r.Endpoint = srv.URL
	r.client = srv.Client()

	path, err := r.DownloadFile(context.Background(), "tokenizer.json")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.0"}`, string(data))
	assert.True(t, r.HasFile("tokenizer.json"))
}

func TestDownloadFileReusesCachedFileWithoutRefetch(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		calls++
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	r := New("org/model", t.TempDir(), "")
	r.Endpoint = srv.URL
	r.client = srv.Client()

	_, err := r.DownloadFile(context.Background(), "vocab.txt")
	require.NoError(t, err)
	_, err = r.DownloadFile(context.Background(), "vocab.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDownloadFileRejectsPathTraversal(t *testing.T) {
	r := New("org/model", t.TempDir(), "")
	_, err := r.DownloadFile(context.Background(), "../../etc/passwd")
	assert.Error(t, err)
}

func TestDownloadFileSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := New("org/model", t.TempDir(), "")
	r.Endpoint = srv.URL
	r.client = srv.Client()

	_, err := r.DownloadFile(context.Background(), "missing.json")
	assert.Error(t, err)
}

func TestLocalPathLayout(t *testing.T) {
	cache := t.TempDir()
	r := New("org/model", cache, "v1")
	got := r.localPath("tokenizer.json")
	assert.Equal(t, filepath.Join(cache, "org/model", "v1", "tokenizer.json"), got)
}
