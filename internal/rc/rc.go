// Package rc reads rdup.rc, the line-oriented KEY=value file that configures
// an rdup backup setup.
package rc

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Settings holds the values of the recognized rdup.rc keys. Every field is the
// raw value from the file, or empty when the key was absent.
type Settings struct {
	Compression string `json:"compression"`
	Encryption  string `json:"encryption"`
	Backup      string `json:"backup"`
	Directories string `json:"directories"`
	Free        string `json:"free"`
	Fifo        string `json:"fifo"`
	Rdupsh      string `json:"rdupsh"`
	Htpasswd    string `json:"htpasswd"`
	Lockfile    string `json:"lockfile"`
}

type field struct {
	key string
	ptr func(s *Settings) *string
}

// Display order of the recognized keys.
var fields = []field{
	{"DIRECTORIES", func(s *Settings) *string { return &s.Directories }},
	{"BACKUP", func(s *Settings) *string { return &s.Backup }},
	{"FREE", func(s *Settings) *string { return &s.Free }},
	{"COMPRESSION", func(s *Settings) *string { return &s.Compression }},
	{"ENCRYPTION", func(s *Settings) *string { return &s.Encryption }},
	{"FIFO", func(s *Settings) *string { return &s.Fifo }},
	{"RDUPSH", func(s *Settings) *string { return &s.Rdupsh }},
	{"HTPASSWD", func(s *Settings) *string { return &s.Htpasswd }},
	{"LOCKFILE", func(s *Settings) *string { return &s.Lockfile }},
}

var setters = func() map[string]func(s *Settings) *string {
	m := make(map[string]func(s *Settings) *string, len(fields))
	for _, f := range fields {
		m[f.key] = f.ptr
	}
	return m
}()

// Keys returns the recognized keys in display order.
func Keys() []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	return keys
}

// Get returns the value of a recognized key. The key is matched case-insensitively.
func (s Settings) Get(key string) (value string, ok bool) {
	ptr, ok := setters[upperASCII(key)]
	if !ok {
		return "", false
	}
	return *ptr(&s), true
}

// Map returns every recognized key with its value.
func (s Settings) Map() map[string]string {
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[f.key] = *f.ptr(&s)
	}
	return m
}

type Loader struct {
	log *zap.Logger
}

func NewLoader(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{log: log}
}

// Load reads the rc file at path. A file that cannot be opened yields
// the zero Settings.
func (l *Loader) Load(path string) Settings {
	f, err := os.Open(path)
	if err != nil {
		l.log.Debug("rc file unreadable, using defaults", zap.String("path", path), zap.Error(err))
		return Settings{}
	}
	defer f.Close()

	s, err := parse(f)
	if err != nil {
		l.log.Debug("rc file read interrupted", zap.String("path", path), zap.Error(err))
	}
	l.log.Debug("rc file loaded", zap.String("path", path))
	return s
}

var defaultLoader = NewLoader(nil)

func Load(path string) Settings { return defaultLoader.Load(path) }

// Parse reads rc directives from r. Reading stops at the first error,
// keeping whatever was parsed before it.
func Parse(r io.Reader) Settings {
	s, _ := parse(r)
	return s
}

func parse(r io.Reader) (s Settings, err error) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			s.apply(line)
		}
		if errors.Is(err, io.EOF) {
			return s, nil
		} else if err != nil {
			return s, err
		}
	}
}

func (s *Settings) apply(line string) {
	if strings.HasPrefix(strings.TrimLeftFunc(line, unicode.IsSpace), "#") {
		return
	}
	line = strings.TrimSuffix(line, "\n")

	key, value, found := strings.Cut(line, "=")
	if !found {
		return
	}
	if ptr, ok := setters[upperASCII(key)]; ok {
		*ptr(s) = value
	}
}

// upperASCII uppercases a-z only, so non-ASCII letters that fold to ASCII
// under Unicode rules (ı, ſ) never form a recognized key.
func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
