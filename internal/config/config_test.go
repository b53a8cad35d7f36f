package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/karagenc/rduprc/internal/utils"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	f := pflag.NewFlagSet("rduprc", pflag.ContinueOnError)
	f.String("rc", "", "")
	f.String("listen", utils.APIFallbackAddr, "")
	f.String("log", "", "")
	f.Bool("enable-log", false, "")
	return f
}

func TestReadPrecedence(t *testing.T) {
	t.Setenv("RDUPRC_RC", "/from/env/rdup.rc")
	t.Setenv("RDUPRC_ENABLE_LOG", "true")

	f := newFlags()
	config, _, err := Read(f)
	require.NoError(t, err)
	require.Equal(t, "/from/env/rdup.rc", config.RC)
	require.True(t, config.EnableLog)
	require.Equal(t, utils.APIFallbackAddr, config.Listen)

	f = newFlags()
	require.NoError(t, f.Parse([]string{"--rc", "/from/flag/rdup.rc", "--listen", ":8080"}))
	config, _, err = Read(f)
	require.NoError(t, err)
	require.Equal(t, "/from/flag/rdup.rc", config.RC)
	require.Equal(t, ":8080", config.Listen)
}

func TestResolveRC(t *testing.T) {
	require.Equal(t, "/explicit/rdup.rc", ResolveRC("/explicit/rdup.rc"))

	t.Setenv("RDUP_RC", "/env/rdup.rc")
	require.Equal(t, "/env/rdup.rc", ResolveRC(""))
}

func TestResolveRCSearch(t *testing.T) {
	var (
		first  = t.TempDir()
		second = t.TempDir()
		third  = t.TempDir()
	)
	// A directory named rdup.rc is not a candidate.
	require.NoError(t, os.Mkdir(filepath.Join(first, RCName), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(second, RCName), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(third, RCName), nil, 0644))

	require.Equal(t, filepath.Join(second, RCName), resolveRC([]string{first, second, third}))

	empty := t.TempDir()
	require.Equal(t, filepath.Join(empty, RCName), resolveRC([]string{first, empty}))
}

func TestDirsUnique(t *testing.T) {
	dirs := Dirs()
	require.Equal(t, ".", dirs[0])
	seen := map[string]bool{}
	for _, dir := range dirs {
		require.False(t, seen[dir], dir)
		seen[dir] = true
	}
}
