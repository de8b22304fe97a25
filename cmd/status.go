package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xrs-network/xrsd/internal/api"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show registry health and statistics",
	Long: `Query the configured registry for liveness and totals.

Example:
  xrsd status
  xrsd status --endpoint http://registry.example.com:8545`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	endpoint := strings.TrimRight(cfg.Resolver.Endpoint, "/")
	client := &http.Client{Timeout: 10 * time.Second}

	var health api.HealthResponse
	if err := fetchJSON(cmd, client, endpoint+"/api/health", &health); err != nil {
		return fmt.Errorf("registry at %s is unreachable: %w", endpoint, err)
	}

	var stats api.StatsResponse
	if err := fetchJSON(cmd, client, endpoint+"/api/stats", &stats); err != nil {
		return fmt.Errorf("fetching stats: %w", err)
	}

	fmt.Printf("Registry:      %s\n", endpoint)
	fmt.Printf("Status:        %s\n", health.Status)
	fmt.Printf("Service:       %s (%s)\n", health.Service, health.Version)
	fmt.Printf("Names:         %d\n", stats.TotalNames)
	fmt.Printf("Unique owners: %d\n", stats.UniqueOwners)
	return nil
}

func fetchJSON(cmd *cobra.Command, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
