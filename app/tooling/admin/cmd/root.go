// Package cmd contains the admin tooling commands.
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var (
	privateURL string
	publicURL  string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&privateURL, "private-url", "r", "http://localhost:9080", "Url of the private admin API.")
	rootCmd.PersistentFlags().StringVarP(&publicURL, "public-url", "u", "http://localhost:8080", "Url of the public API.")
}

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Charity platform administration",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// post sends a JSON payload to the specified endpoint and prints the
// response body.
func post(url string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %s: %s", resp.Status, body)
	}

	fmt.Println(string(body))
	return nil
}

// get fetches the specified endpoint and prints the response body.
func get(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %s: %s", resp.Status, body)
	}

	fmt.Println(string(body))
	return nil
}
