package utils

import (
	"os"
	"runtime"
)

const (
	RunningOnWindows = runtime.GOOS == "windows"
	RunningOnMacOS   = runtime.GOOS == "darwin"
)

var RunningOnGitHubActions = os.Getenv("GITHUB_ACTIONS") == "true"

const APIFallbackAddr = "127.0.0.1:56793"
