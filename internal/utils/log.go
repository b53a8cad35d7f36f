package utils

import (
	"net/url"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var registerWinFileSink = sync.OnceValue(func() error {
	newWinFileSink := func(u *url.URL) (zap.Sink, error) {
		// Remove leading slash left by url.Parse()
		return os.OpenFile(u.Path[1:], os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	}
	return zap.RegisterSink("winfile", newWinFileSink)
})

// NewLogger builds the JSON logger used by every command. logFile is an
// extra output path; "disabled" yields a no-op logger.
func NewLogger(debug bool, logFile string) (*zap.Logger, error) {
	development := false
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if debug {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
		development = true
	}

	outputPaths := []string{"stdout"}
	if logFile == "disabled" {
		return zap.NewNop(), nil
	} else if logFile != "" {
		// https://github.com/uber-go/zap/issues/621
		if RunningOnWindows {
			logFile = "winfile:///" + logFile
			err := registerWinFileSink()
			if err != nil {
				return nil, err
			}
		}
		outputPaths = append(outputPaths, logFile)
	}

	logConfig := &zap.Config{
		Encoding:    "json",
		Level:       level,
		Development: development,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		OutputPaths: outputPaths,
		EncoderConfig: zapcore.EncoderConfig{
			NameKey:        "logger",
			TimeKey:        "ts",
			LevelKey:       "level",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.EpochTimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
	}
	return logConfig.Build()
}
