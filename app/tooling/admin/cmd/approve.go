package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var approveProposalID uint64

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve a funding proposal.",
	Run: func(cmd *cobra.Command, args []string) {
		url := fmt.Sprintf("%s/v1/admin/proposals/%d/approve", privateURL, approveProposalID)
		if err := post(url, struct{}{}); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(approveCmd)
	approveCmd.Flags().Uint64VarP(&approveProposalID, "proposal", "i", 0, "Id of the proposal to approve.")
	approveCmd.MarkFlagRequired("proposal")
}
