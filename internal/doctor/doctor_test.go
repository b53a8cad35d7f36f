package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/karagenc/rduprc/internal/rc"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDoctor(free uint64) *Doctor {
	d := New(zap.NewNop())
	d.lookPath = func(file string) (string, error) {
		if file == "gzip" || file == "gpg" {
			return "/usr/bin/" + file, nil
		}
		return "", errors.New("executable file not found in $PATH")
	}
	d.diskFree = func(context.Context, string) (uint64, error) { return free, nil }
	return d
}

func levels(r *Report, key string) (l []Level) {
	for _, f := range r.Findings {
		if f.Key == key {
			l = append(l, f.Level)
		}
	}
	return
}

func TestDoctorEmptySettings(t *testing.T) {
	r := newTestDoctor(0).Run(context.Background(), rc.Settings{})
	require.True(t, r.HasErrors())
	require.Equal(t, []Level{LevelError}, levels(r, "BACKUP"))
	require.Equal(t, []Level{LevelWarn}, levels(r, "DIRECTORIES"))
	require.Equal(t, []Level{LevelOK}, levels(r, "COMPRESSION"))
	require.Equal(t, []Level{LevelWarn}, levels(r, "LOCKFILE"))

	// Findings follow the display order of the keys.
	var keys []string
	for _, f := range r.Findings {
		if len(keys) == 0 || keys[len(keys)-1] != f.Key {
			keys = append(keys, f.Key)
		}
	}
	require.Equal(t, rc.Keys(), keys)
}

func TestDoctorHealthy(t *testing.T) {
	var (
		backup = t.TempDir()
		src1   = t.TempDir()
		src2   = t.TempDir()
		etc    = t.TempDir()
		htpw   = filepath.Join(etc, "htpasswd")
	)
	require.NoError(t, os.WriteFile(htpw, []byte("miek:secret\n"), 0600))

	s := rc.Settings{
		Directories: src1 + ", " + src2,
		Backup:      backup,
		Free:        "1GB",
		Compression: "gzip -9",
		Encryption:  "gpg --encrypt -r 'Backup Key'",
		Htpasswd:    htpw,
		Lockfile:    filepath.Join(etc, "rdup.lock"),
	}
	r := newTestDoctor(2_000_000_000).Run(context.Background(), s)
	for _, f := range r.Findings {
		require.Equal(t, LevelOK, f.Level, "%s: %s", f.Key, f.Message)
	}
	require.Equal(t, []Level{LevelOK, LevelOK}, levels(r, "DIRECTORIES"))
}

func TestDoctorFree(t *testing.T) {
	backup := t.TempDir()

	r := newTestDoctor(500_000_000).Run(context.Background(), rc.Settings{Backup: backup, Free: "1GB"})
	require.Equal(t, []Level{LevelError}, levels(r, "FREE"))

	r = newTestDoctor(500_000_000).Run(context.Background(), rc.Settings{Backup: backup, Free: "lots"})
	require.Equal(t, []Level{LevelError}, levels(r, "FREE"))

	r = newTestDoctor(500_000_000).Run(context.Background(), rc.Settings{Free: "1GB"})
	require.Equal(t, []Level{LevelWarn}, levels(r, "FREE"))
}

func TestDoctorCommands(t *testing.T) {
	r := newTestDoctor(0).Run(context.Background(), rc.Settings{
		Compression: "xz -T0",
		Encryption:  "gpg 'unterminated",
		Rdupsh:      "gzip",
	})
	require.Equal(t, []Level{LevelError}, levels(r, "COMPRESSION"))
	require.Equal(t, []Level{LevelError}, levels(r, "ENCRYPTION"))
	require.Equal(t, []Level{LevelOK}, levels(r, "RDUPSH"))
}

func TestDoctorFifo(t *testing.T) {
	dir := t.TempDir()
	regular := filepath.Join(dir, "regular")
	require.NoError(t, os.WriteFile(regular, nil, 0644))

	r := newTestDoctor(0).Run(context.Background(), rc.Settings{Fifo: regular})
	require.Equal(t, []Level{LevelError}, levels(r, "FIFO"))

	r = newTestDoctor(0).Run(context.Background(), rc.Settings{Fifo: filepath.Join(dir, "missing")})
	require.Equal(t, []Level{LevelWarn}, levels(r, "FIFO"))
}

func TestSplitDirectories(t *testing.T) {
	require.Equal(t, []string{"/home", "/etc", "/srv"}, SplitDirectories("/home,/etc /srv\t"))
	require.Empty(t, SplitDirectories(" , "))
}

func TestDoctorNilLogger(t *testing.T) {
	r := New(nil).Run(context.Background(), rc.Settings{})
	require.True(t, r.HasErrors())
}
