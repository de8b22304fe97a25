package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xrs-network/xrsd/internal/api"
)

var registerCmd = &cobra.Command{
	Use:   "register <name> <address>",
	Short: "Register a name for an address",
	Long: `Register a handle with the configured registry. The ".xrs" suffix is
optional; the registry normalizes it either way.

Example:
  xrsd register alice a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4 --signature <sig>
  xrsd register bob.xrs <address> --description "bob's wallet"`,
	Args: cobra.ExactArgs(2),
	RunE: runRegister,
}

var (
	registerSignature   string
	registerDescription string
	registerAvatar      string
	registerWebsite     string
	registerEmail       string
)

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().StringVar(&registerSignature, "signature", "", "ownership signature, required later for updates")
	registerCmd.Flags().StringVar(&registerDescription, "description", "", "profile description")
	registerCmd.Flags().StringVar(&registerAvatar, "avatar", "", "avatar URL")
	registerCmd.Flags().StringVar(&registerWebsite, "website", "", "website URL")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "contact email")
}

func runRegister(cmd *cobra.Command, args []string) error {
	metadata := map[string]any{}
	for key, value := range map[string]string{
		"description": registerDescription,
		"avatar":      registerAvatar,
		"website":     registerWebsite,
		"email":       registerEmail,
	} {
		if value != "" {
			metadata[key] = value
		}
	}
	if len(metadata) == 0 {
		metadata = nil
	}

	body, err := json.Marshal(api.RegisterRequest{
		Name:      args[0],
		Address:   args[1],
		Signature: registerSignature,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Resolver.Endpoint, "/")
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
		endpoint+"/api/register", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("contacting registry at %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		var apiErr api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("registration failed: %s", apiErr.Error)
		}
		return fmt.Errorf("registration failed with status %d", resp.StatusCode)
	}

	var result api.RegisterResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	fmt.Printf("Registered %s -> %s\n", result.Name, result.Address)
	return nil
}
