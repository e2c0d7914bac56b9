package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var (
	verifyCharityID uint64
	verifyRevoke    bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Mark a charity as verified.",
	Run: func(cmd *cobra.Command, args []string) {
		payload := struct {
			Verified bool `json:"verified"`
		}{
			Verified: !verifyRevoke,
		}

		url := fmt.Sprintf("%s/v1/admin/charities/%d/verify", privateURL, verifyCharityID)
		if err := post(url, payload); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().Uint64VarP(&verifyCharityID, "charity", "c", 0, "Id of the charity to verify.")
	verifyCmd.Flags().BoolVar(&verifyRevoke, "revoke", false, "Revoke the verification instead.")
	verifyCmd.MarkFlagRequired("charity")
}
