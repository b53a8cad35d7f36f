package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/karagenc/rduprc/internal/doctor"
	"github.com/karagenc/rduprc/internal/utils"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the settings for problems",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(context.Background())
		addExitHandler(cancel)

		utils.Bold.Println("Doctor:")
		fmt.Printf("    Using rc: %s\n", config.RC)

		report := doctor.New(log).Run(ctx, loadSettings())
		for _, f := range report.Findings {
			switch f.Level {
			case doctor.LevelOK:
				fmt.Printf("    %-12s %s\n", f.Key, f.Message)
			case doctor.LevelWarn:
				utils.Warn.Printf("    %-12s Warning: %s\n", f.Key, f.Message)
			case doctor.LevelError:
				utils.Error.Printf("    %-12s Error: %s\n", f.Key, f.Message)
			}
		}

		if !report.HasErrors() {
			utils.Success.Println("All good.")
		} else {
			color.Red("Error(s) occured.")
			exit(exitErrAny)
		}
	},
}
