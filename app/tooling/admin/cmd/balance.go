package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var balanceAddress string

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the token balance of an address.",
	Run: func(cmd *cobra.Command, args []string) {
		url := fmt.Sprintf("%s/v1/balances/%s", publicURL, balanceAddress)
		if err := get(url); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&balanceAddress, "address", "a", "", "Address to look up.")
	balanceCmd.MarkFlagRequired("address")
}
