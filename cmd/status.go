package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "Query a running server for a registration job state",
	Long: `Query the web server for the state of a registration job. Job states
live in the server process, so this command talks to the API instead
of reading storage directly.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().String("server", "http://localhost:8080", "Base URL of the running server")
}

func runStatus(cmd *cobra.Command, args []string) error {
	name := args[0]
	server := mustGetString(cmd, "server")

	client := &http.Client{Timeout: 10 * time.Second}
	endpoint := fmt.Sprintf("%s/api/v1/register/%s/status", server, url.PathEscape(name))

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("querying server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	var body struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	fmt.Printf("%s: %s\n", body.Name, body.Status)
	return nil
}
