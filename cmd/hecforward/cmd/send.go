package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/austindbirch/hec_forward/internal/hec"
	"github.com/austindbirch/hec_forward/internal/logging"
	"github.com/austindbirch/hec_forward/internal/metrics"
	"github.com/austindbirch/hec_forward/internal/tracing"
)

var (
	sendDelay   time.Duration
	maxAttempts int
	chunkSize   int
	metricsAddr string
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [file]",
	Short: "Forward a JSON file to the collector",
	Long: `Read a JSON file and forward each record to the collector.

The file may hold a single JSON document (one object, or an array of objects)
or newline-delimited JSON objects. Malformed lines are logged and skipped.

Example:
  hecforward send --host splunk.internal --token $HEC_TOKEN events.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		cfg := buildConfig()
		if sendDelay > 0 {
			cfg.Processor.SendDelay = sendDelay
		}
		if maxAttempts > 0 {
			cfg.Sender.MaxAttempts = maxAttempts
		}
		if chunkSize > 0 {
			cfg.Processor.ChunkSize = chunkSize
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := logging.New(cfg.AppName)
		ctx := context.Background()

		shutdown, err := tracing.InitTracing(ctx, cfg.AppName)
		if err != nil {
			return fmt.Errorf("initialize tracing: %w", err)
		}
		defer shutdown()

		reg := prometheus.NewRegistry()
		metrics.MustRegister(reg)
		if metricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			srv := &http.Server{Addr: metricsAddr, Handler: mux}
			go func() {
				logger.Plain().WithField("addr", metricsAddr).Info("metrics server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Plain().WithError(err).Error("metrics server failed")
				}
			}()
			defer srv.Shutdown(context.Background())
		}

		client := hec.NewClient(cfg, logger)
		processor := hec.NewProcessor(cfg, client, logger)

		sum, err := processor.Process(ctx, path)
		if err != nil {
			return err
		}

		if outputJSON {
			printOutput(map[string]int{
				"sent":    sum.Sent,
				"failed":  sum.Failed,
				"skipped": sum.Skipped,
			})
		} else {
			fmt.Printf("Forwarded %s: %d sent, %d failed, %d skipped\n", path, sum.Sent, sum.Failed, sum.Skipped)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().DurationVar(&sendDelay, "delay", 0, "pause after each successful send (default 500ms)")
	sendCmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "total attempts per event (default 3)")
	sendCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "max payload bytes per request (default 131072)")
	sendCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while sending")
}
