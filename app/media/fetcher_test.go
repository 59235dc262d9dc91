package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/quickwatch/app/domain"
)

func newTestFetcher(t *testing.T, run runFunc) *YTDLP {
	t.Helper()
	y := NewYTDLP(filepath.Join(t.TempDir(), "downloads"), "")
	y.retryDelay = time.Millisecond
	y.run = run
	return y
}

func TestNewYTDLP_DefaultFormat(t *testing.T) {
	y := NewYTDLP("downloads", "")
	assert.Equal(t, DefaultFormat, y.format)
}

func TestFetch_Success(t *testing.T) {
	var y *YTDLP
	y = newTestFetcher(t, func(ctx context.Context, url string) (string, error) {
		path := filepath.Join(y.DownloadDir(), "abc123.mp4")
		return path, os.WriteFile(path, []byte("video"), 0o644)
	})

	file, err := y.Fetch(context.Background(), "https://youtube.com/watch?v=abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123.mp4", file.Name)
	assert.FileExists(t, file.Path)
}

func TestFetch_RetriesOnce(t *testing.T) {
	calls := 0
	y := newTestFetcher(t, func(ctx context.Context, url string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("transient")
		}
		return "/tmp/abc.mp4", nil
	})

	file, err := y.Fetch(context.Background(), "https://x/1")
	require.NoError(t, err)
	assert.Equal(t, "abc.mp4", file.Name)
	assert.Equal(t, 2, calls)
}

func TestFetch_GivesUpAsCollaboratorError(t *testing.T) {
	calls := 0
	y := newTestFetcher(t, func(ctx context.Context, url string) (string, error) {
		calls++
		return "", errors.New("video unavailable")
	})

	_, err := y.Fetch(context.Background(), "https://x/1")
	assert.ErrorIs(t, err, domain.ErrCollaborator)
	assert.Contains(t, err.Error(), "video unavailable")
	assert.Equal(t, 2, calls)
}

const fakeYTDLP = `#!/bin/sh
echo "$@" >> "$0.args"
out=""
while [ $# -gt 0 ]; do
	case "$1" in
	-o|--output) out="$2"; shift 2 ;;
	*) shift ;;
	esac
done
file=$(echo "$out" | sed -e 's/%(id)s/abc123/' -e 's/%(ext)s/mp4/')
printf video > "$file"
`

// writeFakeYTDLP installs a stand-in yt-dlp that writes <dir>/abc123.mp4.
// When printInfo is set it also prints the info JSON line yt-dlp emits
// for --print-json.
func writeFakeYTDLP(t *testing.T, printInfo bool) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}

	script := fakeYTDLP
	if printInfo {
		script += `printf '{"_type":"video","id":"abc123","ext":"mp4","filename":"%s"}\n' "$file"` + "\n"
	}

	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestFetch_RunsYTDLPWithJSONOutput(t *testing.T) {
	y := NewYTDLP(filepath.Join(t.TempDir(), "downloads"), "")
	y.retryDelay = time.Millisecond
	y.executable = writeFakeYTDLP(t, true)

	file, err := y.Fetch(context.Background(), "https://youtube.com/watch?v=abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123.mp4", file.Name)
	assert.Equal(t, filepath.Join(y.DownloadDir(), "abc123.mp4"), file.Path)
	assert.FileExists(t, file.Path)

	args, err := os.ReadFile(y.executable + ".args")
	require.NoError(t, err)
	assert.Contains(t, string(args), "--print-json")
	assert.Contains(t, string(args), "https://youtube.com/watch?v=abc123")
	assert.Equal(t, 1, strings.Count(string(args), "\n"), "yt-dlp should run once")
}

func TestFetch_FindsFileWithoutInfo(t *testing.T) {
	y := NewYTDLP(filepath.Join(t.TempDir(), "downloads"), "")
	y.retryDelay = time.Millisecond
	y.executable = writeFakeYTDLP(t, false)

	file, err := y.Fetch(context.Background(), "https://youtube.com/watch?v=abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123.mp4", file.Name)
	assert.FileExists(t, file.Path)
}

func TestResolve(t *testing.T) {
	y := newTestFetcher(t, nil)
	require.NoError(t, os.MkdirAll(y.DownloadDir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(y.DownloadDir(), "abc.mp4"), []byte("v"), 0o644))

	path, err := y.Resolve("abc.mp4")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(y.DownloadDir(), "abc.mp4"), path)

	_, err = y.Resolve("missing.mp4")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for _, name := range []string{"", "../secret", "a/b.mp4", ".hidden"} {
		_, err = y.Resolve(name)
		assert.ErrorIs(t, err, domain.ErrValidation, name)
	}
}
