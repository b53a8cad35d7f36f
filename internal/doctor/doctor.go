// Package doctor inspects the values of an rdup.rc and reports what would
// break a backup run. It never modifies the settings it is given.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/docker/go-units"
	"github.com/dustin/go-humanize"
	"github.com/karagenc/rduprc/internal/htpasswd"
	"github.com/karagenc/rduprc/internal/lock"
	"github.com/karagenc/rduprc/internal/rc"
	"github.com/mattn/go-shellwords"
	"github.com/shirou/gopsutil/v4/disk"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Level int

const (
	LevelOK Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelOK:
		return "ok"
	case LevelWarn:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

type Finding struct {
	Key     string
	Level   Level
	Message string
}

type Report struct {
	Findings []Finding
}

func (r *Report) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Level == LevelError {
			return true
		}
	}
	return false
}

type Doctor struct {
	log      *zap.Logger
	lookPath func(file string) (string, error)
	diskFree func(ctx context.Context, path string) (uint64, error)
}

func New(log *zap.Logger) *Doctor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Doctor{
		log:      log,
		lookPath: exec.LookPath,
		diskFree: func(ctx context.Context, path string) (uint64, error) {
			usage, err := disk.UsageWithContext(ctx, path)
			if err != nil {
				return 0, err
			}
			return usage.Free, nil
		},
	}
}

type check func(ctx context.Context, s rc.Settings) []Finding

func (d *Doctor) checks() map[string]check {
	return map[string]check{
		"DIRECTORIES": d.checkDirectories,
		"BACKUP":      d.checkBackup,
		"FREE":        d.checkFree,
		"COMPRESSION": d.command("COMPRESSION", func(s rc.Settings) string { return s.Compression }),
		"ENCRYPTION":  d.command("ENCRYPTION", func(s rc.Settings) string { return s.Encryption }),
		"FIFO":        d.checkFifo,
		"RDUPSH":      d.command("RDUPSH", func(s rc.Settings) string { return s.Rdupsh }),
		"HTPASSWD":    d.checkHtpasswd,
		"LOCKFILE":    d.checkLockfile,
	}
}

// Run performs every check concurrently. Findings are ordered like rc.Keys.
func (d *Doctor) Run(ctx context.Context, s rc.Settings) *Report {
	var (
		keys    = rc.Keys()
		checks  = d.checks()
		results = make([][]Finding, len(keys))
		g       errgroup.Group
	)
	for i, key := range keys {
		i, c := i, checks[key]
		g.Go(func() error {
			results[i] = c(ctx, s)
			return nil
		})
	}
	g.Wait()

	report := &Report{}
	for _, findings := range results {
		for _, f := range findings {
			d.log.Debug("doctor", zap.String("key", f.Key), zap.Stringer("level", f.Level), zap.String("msg", f.Message))
		}
		report.Findings = append(report.Findings, findings...)
	}
	return report
}

func ok(key, format string, a ...any) []Finding {
	return []Finding{{Key: key, Level: LevelOK, Message: fmt.Sprintf(format, a...)}}
}

func warn(key, format string, a ...any) []Finding {
	return []Finding{{Key: key, Level: LevelWarn, Message: fmt.Sprintf(format, a...)}}
}

func fail(key, format string, a ...any) []Finding {
	return []Finding{{Key: key, Level: LevelError, Message: fmt.Sprintf(format, a...)}}
}

// SplitDirectories splits a DIRECTORIES value on commas and whitespace.
func SplitDirectories(directories string) []string {
	return strings.FieldsFunc(directories, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

func (d *Doctor) checkDirectories(_ context.Context, s rc.Settings) (findings []Finding) {
	dirs := SplitDirectories(s.Directories)
	if len(dirs) == 0 {
		return warn("DIRECTORIES", "no directories to back up")
	}
	for _, dir := range dirs {
		st, err := os.Stat(dir)
		switch {
		case err != nil:
			findings = append(findings, fail("DIRECTORIES", "%v", err)...)
		case !st.IsDir():
			findings = append(findings, warn("DIRECTORIES", "%s is not a directory", dir)...)
		default:
			findings = append(findings, ok("DIRECTORIES", "%s exists", dir)...)
		}
	}
	return
}

func (d *Doctor) checkBackup(_ context.Context, s rc.Settings) []Finding {
	if s.Backup == "" {
		return fail("BACKUP", "no backup destination set")
	}
	st, err := os.Stat(s.Backup)
	if err != nil {
		return fail("BACKUP", "%v", err)
	} else if !st.IsDir() {
		return fail("BACKUP", "%s is not a directory", s.Backup)
	}
	return ok("BACKUP", "%s exists", s.Backup)
}

func (d *Doctor) checkFree(ctx context.Context, s rc.Settings) []Finding {
	if s.Free == "" {
		return ok("FREE", "no free space threshold set")
	}
	threshold, err := units.FromHumanSize(s.Free)
	if err != nil {
		return fail("FREE", "invalid size %q: %v", s.Free, err)
	}
	if s.Backup == "" {
		return warn("FREE", "free space cannot be checked without BACKUP")
	}
	free, err := d.diskFree(ctx, s.Backup)
	if err != nil {
		return fail("FREE", "free space of %s: %v", s.Backup, err)
	}
	if free < uint64(threshold) {
		return fail("FREE", "only %s free on %s, threshold is %s",
			humanize.IBytes(free), s.Backup, humanize.IBytes(uint64(threshold)))
	}
	return ok("FREE", "%s free on %s, threshold is %s",
		humanize.IBytes(free), s.Backup, humanize.IBytes(uint64(threshold)))
}

func (d *Doctor) command(key string, value func(s rc.Settings) string) check {
	return func(_ context.Context, s rc.Settings) []Finding {
		command := value(s)
		if command == "" {
			return ok(key, "not set")
		}
		w, err := shellwords.Parse(command)
		if err != nil {
			return fail(key, "cannot parse %q: %v", command, err)
		} else if len(w) == 0 {
			return warn(key, "empty command")
		}
		path, err := d.lookPath(w[0])
		if err != nil {
			return fail(key, "%s not found: %v", w[0], err)
		}
		return ok(key, "%s found at: %s", w[0], path)
	}
}

func (d *Doctor) checkFifo(_ context.Context, s rc.Settings) []Finding {
	if s.Fifo == "" {
		return ok("FIFO", "not set")
	}
	st, err := os.Stat(s.Fifo)
	if os.IsNotExist(err) {
		return warn("FIFO", "%s does not exist", s.Fifo)
	} else if err != nil {
		return fail("FIFO", "%v", err)
	}
	if st.Mode()&os.ModeNamedPipe == 0 {
		return fail("FIFO", "%s is not a named pipe", s.Fifo)
	}
	return ok("FIFO", "%s is a named pipe", s.Fifo)
}

func (d *Doctor) checkHtpasswd(_ context.Context, s rc.Settings) []Finding {
	if s.Htpasswd == "" {
		return warn("HTPASSWD", "not set, the settings API is served without authentication")
	}
	f, err := htpasswd.Load(s.Htpasswd)
	if err != nil {
		return fail("HTPASSWD", "%v", err)
	}
	users := f.Users()
	if len(users) == 0 {
		return warn("HTPASSWD", "%s has no users", s.Htpasswd)
	}
	return ok("HTPASSWD", "%d user(s): %s", len(users), strings.Join(users, ", "))
}

func (d *Doctor) checkLockfile(_ context.Context, s rc.Settings) []Finding {
	if s.Lockfile == "" {
		return warn("LOCKFILE", "not set, concurrent runs are not prevented")
	}
	lockDir := filepath.Dir(s.Lockfile)
	if _, err := os.Stat(lockDir); err != nil {
		return fail("LOCKFILE", "lockfile directory: %v", err)
	}
	if _, err := os.Stat(s.Lockfile); os.IsNotExist(err) {
		return ok("LOCKFILE", "%s will be created", s.Lockfile)
	}
	held, err := lock.Held(s.Lockfile)
	if err != nil {
		return fail("LOCKFILE", "%v", err)
	} else if held {
		return warn("LOCKFILE", "%s is held by another process", s.Lockfile)
	}
	return ok("LOCKFILE", "lockfile is at: %s", s.Lockfile)
}
