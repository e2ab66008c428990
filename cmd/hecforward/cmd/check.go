package cmd

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the collector is reachable and healthy",
	Long:  `Send a request to the collector health endpoint to verify connectivity and the configured token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := buildConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}

		transport := http.DefaultTransport
		if cfg.HEC.SkipTLSVerify {
			transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}
		client := &http.Client{Timeout: cfg.Sender.Timeout, Transport: transport}

		body, err := healthRequest(cmd.Context(), client, cfg.HealthURL(), cfg.HEC.Token)
		if err != nil {
			return err
		}

		if outputJSON {
			fmt.Println(string(body))
		} else {
			fmt.Printf("Collector is healthy: %s\n", cfg.HealthURL())
		}
		return nil
	},
}

// healthRequest probes the collector health endpoint and returns the response
// body on a 2xx status.
func healthRequest(ctx context.Context, client *http.Client, url, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Splunk "+token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("collector unhealthy: %s: %s", resp.Status, string(body))
	}
	return body, nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
