package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/karagenc/rduprc/internal/rc"
	"github.com/karagenc/rduprc/internal/utils"
	"github.com/spf13/cobra"
)

func init() {
	showCmd.Flags().Bool("json", false, "Print as JSON")
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show every recognized setting",
	Run: func(cmd *cobra.Command, args []string) {
		asJSON, _ := cmd.Flags().GetBool("json")
		settings := loadSettings()

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			err := enc.Encode(settings.Map())
			if err != nil {
				errPrintln(err)
				exit(exitErrAny)
			}
			return
		}
		fmt.Printf("Using rc: %s\n", config.RC)
		fmt.Println(renderSettings(settings))
	},
}

func renderSettings(settings rc.Settings) string {
	w := table.NewWriter()
	w.AppendHeader(table.Row{"KEY", "VALUE"})
	for _, key := range rc.Keys() {
		value, _ := settings.Get(key)
		if value == "" {
			value = utils.Warn.Sprint("(unset)")
		}
		w.AppendRow(table.Row{key, value})
	}
	return w.Render()
}
