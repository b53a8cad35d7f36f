package main

import (
	"fmt"
	"time"

	"github.com/karagenc/rduprc/internal/utils"
	"github.com/karagenc/rduprc/internal/watch"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the settings every time rdup.rc changes",
	Run: func(cmd *cobra.Command, args []string) {
		w, err := watch.New(config.RC, log)
		if err != nil {
			errPrintln(err)
			exit(exitErrAny)
		}
		addExitHandler(func() { w.Close() })

		fmt.Printf("Watching: %s\n", w.Path())
		fmt.Println(renderSettings(loadSettings()))

		go func() {
			for settings := range w.Updates() {
				fmt.Println()
				utils.BgWhite.Printf("Reloaded at %s", time.Now().Format(time.TimeOnly))
				fmt.Println()
				fmt.Println(renderSettings(settings))
			}
		}()

		err = w.Run()
		if err != nil {
			errPrintln(err)
			exit(exitErrAny)
		}
	},
}
