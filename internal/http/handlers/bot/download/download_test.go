package download

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func get(h http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/bot/download", nil))
	return rr
}

func TestDownload_GeneratedLauncher(t *testing.T) {
	rr := get(New(newNoopLogger(), "", "RM_Bot_v2.0.py", "https://portal.example.com/"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/octet-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=RM_Bot_v2.0.py", rr.Header().Get("Content-Disposition"))
	body := rr.Body.String()
	assert.Contains(t, body, `"https://portal.example.com/api/v1/bot/validate-license"`)
	assert.Contains(t, body, `json={"license_key": license_key}`)
}

func TestDownload_ConfiguredArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.zip")
	require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04bot"), 0o600))

	rr := get(New(newNoopLogger(), path, "RM_Bot.zip", "http://localhost:8080"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/octet-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=RM_Bot.zip", rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "PK\x03\x04bot", rr.Body.String())
}

func TestDownload_ArtifactUnavailable(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{name: "missing file", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.zip") }},
		{name: "directory", path: func(t *testing.T) string { return t.TempDir() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(New(newNoopLogger(), tt.path(t), "RM_Bot.zip", ""))

			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			assert.Empty(t, rr.Header().Get("Content-Disposition"))
			assert.Contains(t, rr.Body.String(), "bot artifact unavailable")
		})
	}
}
