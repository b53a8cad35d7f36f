package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/karagenc/rduprc/internal/api"
	"github.com/karagenc/rduprc/internal/utils"
	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

func init() {
	serveCmd.PersistentFlags().String("listen", utils.APIFallbackAddr, "Address to listen on")
	for _, action := range service.ControlAction {
		serveCmd.AddCommand(newServiceControlCmd(action))
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the settings over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		svc := &svc{cmd: cmd}
		s, err := newService(svc)
		if err != nil {
			errPrintln(err)
			exit(exitServiceFail)
		}
		svcLog, err := s.Logger(nil)
		if err != nil {
			errPrintln(err)
			exit(exitServiceFail)
		}
		err = s.Run()
		if err != nil {
			svcLog.Error(err)
			errPrintln(err)
			exit(exitServiceFail)
		}
	},
}

func newServiceControlCmd(action string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: fmt.Sprintf("%s the settings API service", action),
		Run: func(cmd *cobra.Command, args []string) {
			applyListenFlag(cmd)
			s, err := newService(&svc{cmd: cmd})
			if err != nil {
				errPrintln(err)
				exit(exitServiceFail)
			}
			err = service.Control(s, action)
			if err != nil {
				errPrintln(err)
				exit(exitServiceFail)
			}
			utils.Success.Println("Successful")
		},
	}
}

func newService(svc *svc) (service.Service, error) {
	args, err := serviceArguments()
	if err != nil {
		return nil, err
	}
	return service.New(svc, &service.Config{
		Name:        "rduprc",
		DisplayName: "rdup.rc settings API",
		Description: "Serves the settings of rdup.rc over HTTP.",
		Arguments:   args,
	})
}

// serviceArguments pins the resolved rc path and listen address, so the
// installed service does not depend on the working directory or environment.
func serviceArguments() ([]string, error) {
	if config == nil {
		return []string{"serve"}, nil
	}
	rc, err := filepath.Abs(config.RC)
	if err != nil {
		return nil, err
	}
	args := []string{"serve", "--rc", rc, "--listen", config.Listen}
	if config.Log != "" {
		args = append(args, "--log", config.Log)
	}
	return args, nil
}

// --listen belongs to serve only, so it was not part of the persistent
// flags merged by config.Read.
func applyListenFlag(cmd *cobra.Command) {
	if f := cmd.Flags().Lookup("listen"); f != nil && f.Changed {
		config.Listen = f.Value.String()
	}
}

type svc struct {
	cmd       *cobra.Command
	startOnce sync.Once
	stopOnce  sync.Once
	errs      []error
	errsMu    sync.Mutex
	api       *api.Server
}

func (s *svc) Start(sv service.Service) (err error) {
	s.startOnce.Do(func() {
		err = initEverything()
		if err != nil {
			return
		}
		applyListenFlag(s.cmd)

		// The service always logs, --enable-log only raises the level.
		log, err = utils.NewLogger(config.EnableLog, config.Log)
		if err != nil {
			return
		}
		addExitHandler(func() { log.Sync() })

		s.api = api.New(config.RC, log)
		log.Sugar().Infof("Serving settings of: %s", config.RC)
		go func() {
			err := s.api.ListenAndServe(config.Listen)
			if err != nil {
				s.appendErr(fmt.Errorf("api: %v", err))
				err := sv.Stop()
				if err != nil {
					log.Error(err.Error())
				}
			}
		}()
	})
	return
}

func (s *svc) appendErr(err error) {
	if err != nil {
		s.errsMu.Lock()
		s.errs = append(s.errs, err)
		s.errsMu.Unlock()
	}
}

func (s *svc) Stop(sv service.Service) (err error) {
	s.stopOnce.Do(func() {
		if s.api != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			s.api.Shutdown(ctx)
			cancel()
		}
		onExit()

		s.errsMu.Lock()
		defer s.errsMu.Unlock()
		for _, e := range s.errs {
			err = errors.Join(err, e)
		}
	})
	return
}

// willRunAsService reports whether serveCmd itself is going to run, and
// none of its control subcommands.
func willRunAsService(args []string) bool {
	var (
		hasServeCmd    bool
		hasServeSubCmd bool
		skipValue      bool
	)
	for _, arg := range args {
		switch {
		case skipValue:
			skipValue = false
		case arg == "":
		case arg[0] == '-':
			switch arg {
			case "-c", "--rc", "--log", "--listen":
				skipValue = true
			}
		case arg == "serve":
			hasServeCmd = true
		case hasServeCmd:
			hasServeSubCmd = true
		}
	}
	return hasServeCmd && !hasServeSubCmd
}

var runsAsService = sync.OnceValue(func() bool { return willRunAsService(os.Args[1:]) })
