package bootstrap

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/lysyi3m/quickwatch/app/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func serve(t *testing.T, body []byte, hits *int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestEnsure_DownloadsWhenMissing(t *testing.T) {
	hits := 0
	server := serve(t, zipBytes(t, map[string]string{"archive.csv": "title,channel_name,publish_date,video_link\n"}), &hits)

	dir := t.TempDir()
	path := filepath.Join(dir, "archive.csv")

	b := NewBootstrapper(server.Client(), "test")
	downloaded, err := b.Ensure(context.Background(), path, server.URL)
	require.NoError(t, err)
	assert.True(t, downloaded)
	assert.FileExists(t, path)
	assert.Equal(t, 1, hits)

	leftovers, _ := filepath.Glob(filepath.Join(dir, "bootstrap-*.zip"))
	assert.Empty(t, leftovers)
}

func TestEnsure_SkipsExistingFile(t *testing.T) {
	hits := 0
	server := serve(t, nil, &hits)

	path := filepath.Join(t.TempDir(), "archive.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	downloaded, err := NewBootstrapper(server.Client(), "test").Ensure(context.Background(), path, server.URL)
	require.NoError(t, err)
	assert.False(t, downloaded)
	assert.Equal(t, 0, hits)
}

func TestEnsure_NoURL(t *testing.T) {
	_, err := NewBootstrapper(http.DefaultClient, "test").Ensure(context.Background(), filepath.Join(t.TempDir(), "a.csv"), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEnsure_HTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewBootstrapper(server.Client(), "test").Ensure(context.Background(), filepath.Join(t.TempDir(), "a.csv"), server.URL)
	assert.ErrorIs(t, err, domain.ErrCollaborator)
}

func TestEnsure_ZipWithoutExpectedFile(t *testing.T) {
	hits := 0
	server := serve(t, zipBytes(t, map[string]string{"other.csv": "x"}), &hits)

	_, err := NewBootstrapper(server.Client(), "test").Ensure(context.Background(), filepath.Join(t.TempDir(), "archive.csv"), server.URL)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExtract_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	require.NoError(t, os.WriteFile(zipPath, zipBytes(t, map[string]string{"../escape.csv": "x"}), 0o644))

	target := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(target, 0o755))

	_, err := extract(zipPath, target)
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "escape.csv"))
}
