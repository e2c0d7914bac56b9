package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var distributeCmd = &cobra.Command{
	Use:   "distribute",
	Short: "Distribute the current round's pooled funds.",
	Run: func(cmd *cobra.Command, args []string) {
		url := fmt.Sprintf("%s/v1/admin/rounds/distribute", privateURL)
		if err := post(url, struct{}{}); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(distributeCmd)
}
