package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var feeWallet string

var feeWalletCmd = &cobra.Command{
	Use:   "feewallet",
	Short: "Change the wallet the platform fee accrues to.",
	Run: func(cmd *cobra.Command, args []string) {
		payload := struct {
			Wallet string `json:"wallet"`
		}{
			Wallet: feeWallet,
		}

		url := fmt.Sprintf("%s/v1/admin/feewallet", privateURL)
		if err := post(url, payload); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(feeWalletCmd)
	feeWalletCmd.Flags().StringVarP(&feeWallet, "wallet", "w", "", "Address of the new fee wallet.")
	feeWalletCmd.MarkFlagRequired("wallet")
}
