package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_config "github.com/karagenc/rduprc/internal/config"
	"github.com/karagenc/rduprc/internal/rc"
	"github.com/karagenc/rduprc/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	config *_config.Config
	log    *zap.Logger

	rootCmd = &cobra.Command{
		Use:   "rduprc",
		Short: "Inspect and use the settings of an rdup.rc",
	}
)

func main() { rootCmd.Execute() }

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)

	f := rootCmd.PersistentFlags()
	f.StringP("rc", "c", "", "Path to rdup.rc")
	f.Bool("enable-log", false, "Enable debug logging to stdout")
	f.String("log", "", "Additional log file")

	cobra.OnInitialize(sync.OnceFunc(func() {
		// When serving, defer initialization to svc.Start, and leave signals
		// to kardianos/service.
		if runsAsService() {
			return
		}

		sigChan := make(chan os.Signal, 2)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			exit(exitTerm)
		}()

		err := initEverything()
		if err != nil {
			errPrintln(err)
			exit(exitErrAny)
		}
	}))
}

var initEverything = sync.OnceValue(func() (err error) {
	config, _, err = _config.Read(rootCmd.PersistentFlags())
	if err != nil {
		return err
	}
	return initLogging()
})

func initLogging() (err error) {
	if !config.EnableLog && config.Log == "" {
		log = zap.NewNop()
		return nil
	}
	log, err = utils.NewLogger(config.EnableLog, config.Log)
	if err != nil {
		return err
	}
	addExitHandler(func() { log.Sync() })
	return nil
}

func loadSettings() rc.Settings {
	return rc.NewLoader(log).Load(config.RC)
}

type exitCode int

const (
	exitSuccess exitCode = iota
	exitErrAny
	exitTerm
	exitLocked
	exitServiceFail
)

func errPrintln(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", utils.Red.Sprint("Error:"), err)
	}
}

var (
	exitHandlers   []func()
	exitHandlersMu sync.Mutex
)

func addExitHandler(f func()) {
	exitHandlersMu.Lock()
	exitHandlers = append(exitHandlers, sync.OnceFunc(f))
	exitHandlersMu.Unlock()
}

func onExit() {
	exitHandlersMu.Lock()
	defer exitHandlersMu.Unlock()
	for _, f := range exitHandlers {
		f()
	}
}

func exit(code exitCode) {
	onExit()
	os.Exit(int(code))
}
