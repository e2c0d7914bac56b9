package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the current round's per project donation statistics.",
	Run: func(cmd *cobra.Command, args []string) {
		url := fmt.Sprintf("%s/v1/rounds/current/stats", publicURL)
		if err := get(url); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
