package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/austindbirch/hec_forward/internal/config"
)

var (
	cfgFile       string
	hecHost       string
	hecPort       string
	hecToken      string
	hecIndex      string
	hecSource     string
	hecSourceType string
	skipTLSVerify bool
	httpTimeout   time.Duration
	outputJSON    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hecforward",
	Short: "Forward JSON files to an HTTP Event Collector endpoint",
	Long: `hecforward reads JSON data from a file and forwards it, record by
record, to an HTTP Event Collector (HEC) style ingestion endpoint.

Each record is wrapped in an envelope carrying index, source and sourcetype
metadata, stamped with a timestamp extracted from the record when one is
present, and posted with bounded retries. Oversized payloads are split into
byte-budgeted chunks.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.hecforward.yaml)")
	rootCmd.PersistentFlags().StringVar(&hecHost, "host", "", "HEC host (no scheme, no path)")
	rootCmd.PersistentFlags().StringVar(&hecPort, "port", "", "HEC port (default 8088)")
	rootCmd.PersistentFlags().StringVar(&hecToken, "token", "", "HEC authentication token (overrides HEC_TOKEN env var)")
	rootCmd.PersistentFlags().StringVar(&hecIndex, "index", "", "destination index (default main)")
	rootCmd.PersistentFlags().StringVar(&hecSource, "source", "", "source label for forwarded events")
	rootCmd.PersistentFlags().StringVar(&hecSourceType, "sourcetype", "", "sourcetype label (default json)")
	rootCmd.PersistentFlags().BoolVar(&skipTLSVerify, "insecure", false, "skip TLS certificate verification")
	rootCmd.PersistentFlags().DurationVar(&httpTimeout, "timeout", 0, "per-request HTTP timeout")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")

	// Bind flags to viper
	viper.BindPFlag("host", rootCmd.PersistentFlags().Lookup("host"))
	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	viper.BindPFlag("index", rootCmd.PersistentFlags().Lookup("index"))
	viper.BindPFlag("source", rootCmd.PersistentFlags().Lookup("source"))
	viper.BindPFlag("sourcetype", rootCmd.PersistentFlags().Lookup("sourcetype"))
	viper.BindPFlag("insecure", rootCmd.PersistentFlags().Lookup("insecure"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".hecforward")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// Override global variables with config values if flags weren't explicitly set
	if !rootCmd.PersistentFlags().Changed("host") {
		if v := viper.GetString("host"); v != "" {
			hecHost = v
		}
	}
	if !rootCmd.PersistentFlags().Changed("port") {
		if v := viper.GetString("port"); v != "" {
			hecPort = v
		}
	}
	if !rootCmd.PersistentFlags().Changed("token") {
		if v := viper.GetString("token"); v != "" {
			hecToken = v
		}
	}
	if !rootCmd.PersistentFlags().Changed("index") {
		if v := viper.GetString("index"); v != "" {
			hecIndex = v
		}
	}
	if !rootCmd.PersistentFlags().Changed("source") {
		if v := viper.GetString("source"); v != "" {
			hecSource = v
		}
	}
	if !rootCmd.PersistentFlags().Changed("sourcetype") {
		if v := viper.GetString("sourcetype"); v != "" {
			hecSourceType = v
		}
	}
	if !rootCmd.PersistentFlags().Changed("insecure") {
		skipTLSVerify = viper.GetBool("insecure")
	}
	if !rootCmd.PersistentFlags().Changed("timeout") {
		if d := viper.GetDuration("timeout"); d > 0 {
			httpTimeout = d
		}
	}
	if !rootCmd.PersistentFlags().Changed("json") {
		outputJSON = viper.GetBool("json")
	}
}

// buildConfig assembles the immutable run configuration: environment defaults
// first, then any flag or config-file overrides. The result is passed by
// value into the sender and processor; nothing mutates it afterwards.
func buildConfig() config.Config {
	cfg := config.FromEnv()
	if hecHost != "" {
		cfg.HEC.Host = hecHost
	}
	if hecPort != "" {
		cfg.HEC.Port = hecPort
	}
	if hecToken != "" {
		cfg.HEC.Token = hecToken
	}
	if hecIndex != "" {
		cfg.HEC.Index = hecIndex
	}
	if hecSource != "" {
		cfg.HEC.Source = hecSource
	}
	if hecSourceType != "" {
		cfg.HEC.SourceType = hecSourceType
	}
	if skipTLSVerify {
		cfg.HEC.SkipTLSVerify = true
	}
	if httpTimeout > 0 {
		cfg.Sender.Timeout = httpTimeout
	}
	return cfg
}

// printOutput prints the value either as indented JSON or in %+v form.
func printOutput(v any) {
	if outputJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error marshaling to JSON: %v\n", err)
			return
		}
		fmt.Println(string(data))
	} else {
		fmt.Printf("%+v\n", v)
	}
}
