package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func do(t *testing.T, s *Server, path string, auth ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if len(auth) == 2 {
		req.SetBasicAuth(auth[0], auth[1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rdup.rc")
	require.NoError(t, os.WriteFile(path, []byte("DIRECTORIES=/home,/etc\nbackup=/mnt/backup\n"), 0644))
	s := New(path, zap.NewNop())

	rec := do(t, s, "/ping")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Pong", rec.Body.String())

	rec = do(t, s, "/settings")
	require.Equal(t, http.StatusOK, rec.Code)
	var m map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	require.Equal(t, "/home,/etc", m["DIRECTORIES"])
	require.Equal(t, "/mnt/backup", m["BACKUP"])
	require.Equal(t, "", m["LOCKFILE"])
	require.Len(t, m, 9)

	rec = do(t, s, "/settings/backup")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "/mnt/backup", rec.Body.String())

	rec = do(t, s, "/settings/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Edits are visible without a restart.
	require.NoError(t, os.WriteFile(path, []byte("BACKUP=/srv/backup\n"), 0644))
	rec = do(t, s, "/settings/BACKUP")
	require.Equal(t, "/srv/backup", rec.Body.String())
}

func TestSettingsMissingRC(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "rdup.rc"), zap.NewNop())
	rec := do(t, s, "/settings")
	require.Equal(t, http.StatusOK, rec.Code)
	var m map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	for _, v := range m {
		require.Empty(t, v)
	}
}

func TestSettingsBasicAuth(t *testing.T) {
	dir := t.TempDir()
	htpasswdPath := filepath.Join(dir, "htpasswd")
	rcPath := filepath.Join(dir, "rdup.rc")
	require.NoError(t, os.WriteFile(htpasswdPath, []byte("miek:{SHA}W6ph5Mm5Pz8GgiULbPgzG37mj9g=\n"), 0600))
	require.NoError(t, os.WriteFile(rcPath, []byte("HTPASSWD="+htpasswdPath+"\nFIFO=/tmp/rdup.fifo\n"), 0644))
	s := New(rcPath, zap.NewNop())

	rec := do(t, s, "/settings/fifo")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "rdup")

	rec = do(t, s, "/settings/fifo", "miek", "wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, "/settings/fifo", "miek", "password")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "/tmp/rdup.fifo", rec.Body.String())

	rec = do(t, s, "/ping")
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, os.Remove(htpasswdPath))
	rec = do(t, s, "/settings", "miek", "password")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNilLogger(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "rdup.rc"), nil)
	rec := do(t, s, "/settings/backup")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "", rec.Body.String())
}
