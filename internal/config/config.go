package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/karagenc/rduprc/internal/utils"
	"github.com/kirsle/configdir"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const RCName = "rdup.rc"

// Config holds the options of rduprc itself. rdup.rc is read separately
// through the rc package.
type Config struct {
	RC        string `mapstructure:"rc"`
	Listen    string `mapstructure:"listen"`
	Log       string `mapstructure:"log"`
	EnableLog bool   `mapstructure:"enable-log"`
}

// Read merges the given flags with RDUPRC_* environment variables.
// Flags set on the command line take precedence.
func Read(flags *pflag.FlagSet) (config *Config, v *viper.Viper, err error) {
	v = viper.New()
	v.SetEnvPrefix("RDUPRC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("rc", "")
	v.SetDefault("listen", utils.APIFallbackAddr)
	v.SetDefault("log", "")
	v.SetDefault("enable-log", false)

	if flags != nil {
		err = v.BindPFlags(flags)
		if err != nil {
			return
		}
	}

	config = new(Config)
	err = v.Unmarshal(config)
	if err != nil {
		return
	}
	config.RC = ResolveRC(config.RC)
	return
}

func Dirs() []string {
	dirs := []string{"."}
	home, err := homedir.Dir()
	if err == nil {
		dirs = append(dirs,
			filepath.Join(home, "rdup"),
			filepath.Join(home, ".rdup"),
		)
	}
	dirs = append(dirs, configdir.LocalConfig("rdup"))
	dirs = append(dirs, configdir.SystemConfig("rdup")...)
	dirs = append(dirs, "/etc/rdup")

	// Avoid duplicates, e.g. when $XDG_CONFIG_DIRS contains /etc/rdup
	seen := make(map[string]bool, len(dirs))
	unique := dirs[:0]
	for _, dir := range dirs {
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			unique = append(unique, dir)
		}
	}
	return unique
}

// ResolveRC picks the rdup.rc to use. An explicit path always wins, then
// $RDUP_RC, then the first existing rdup.rc in Dirs. When nothing exists the
// last candidate is returned, which loads as an empty configuration.
func ResolveRC(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("RDUP_RC"); env != "" {
		return env
	}
	return resolveRC(Dirs())
}

func resolveRC(dirs []string) string {
	var candidate string
	for _, dir := range dirs {
		candidate = filepath.Join(dir, RCName)
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return candidate
}
