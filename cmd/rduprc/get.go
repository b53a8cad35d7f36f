package main

import (
	"fmt"
	"strings"

	"github.com/karagenc/rduprc/internal/rc"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print the value of a single setting",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		value, ok := loadSettings().Get(args[0])
		if !ok {
			errPrintln(fmt.Errorf("unrecognized key %s. recognized keys: %s", args[0], strings.Join(rc.Keys(), ", ")))
			exit(exitErrAny)
		}
		fmt.Println(value)
	},
}
