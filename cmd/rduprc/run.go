package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/karagenc/rduprc/internal/lock"
	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run -- COMMAND [ARGS...]",
	Short: "Run a command while holding LOCKFILE",
	Long: `Run a command while holding the LOCKFILE from rdup.rc, so that two backup
runs never overlap. A single argument is split into words like a shell would.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		argv := args
		if len(args) == 1 {
			parser := shellwords.NewParser()
			parser.ParseEnv = true
			w, err := parser.Parse(args[0])
			if err != nil {
				errPrintln(err)
				exit(exitErrAny)
			}
			if len(w) == 0 {
				errPrintln(fmt.Errorf("empty command"))
				exit(exitErrAny)
			}
			argv = w
		}

		ctx, cancel := context.WithCancel(context.Background())
		addExitHandler(cancel)

		settings := loadSettings()
		l, err := lock.Acquire(ctx, settings.Lockfile, log)
		if err != nil {
			errPrintln(err)
			if errors.Is(err, lock.ErrNoLockfile) {
				exit(exitErrAny)
			}
			exit(exitLocked)
		}
		addExitHandler(func() { l.Release() })

		log.Info("running", zap.Strings("argv", argv), zap.String("lockfile", l.Path()))
		c := exec.CommandContext(ctx, argv[0], argv[1:]...)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		err = c.Run()
		if err != nil {
			code := commandExitCode(err)
			if code == exitErrAny {
				errPrintln(err)
			}
			exit(code)
		}
		exit(exitSuccess)
	},
}

// commandExitCode passes the exit status of a failed child through.
// Failures to start and signal deaths map to exitErrAny.
func commandExitCode(err error) exitCode {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitCode(exitErr.ExitCode())
	}
	return exitErrAny
}
