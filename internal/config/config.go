package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type HEC struct {
	Host          string // collector host, no scheme or path
	Port          string // e.g. 8088
	Token         string // HEC authentication token
	Index         string // destination index
	Source        string // source label stamped on every envelope
	SourceType    string // sourcetype label stamped on every envelope
	SkipTLSVerify bool   // disable TLS certificate verification
}

type Sender struct {
	MaxAttempts int           // total attempts per send, including the first
	BackoffUnit time.Duration // base delay; attempt n waits unit << n
	Timeout     time.Duration // per-request HTTP timeout
}

type Processor struct {
	SendDelay time.Duration // pause after each successful send
	ChunkSize int           // max serialized envelope bytes per request
}

type FakeHEC struct {
	FailFirstN      int           // number of requests to fail initially
	Token           string        // expected HEC token; empty disables the check
	ResponseDelayMS int           // simulated response delay in milliseconds
	Port            string        // server listen port
	ReadTimeout     time.Duration // HTTP read timeout
	WriteTimeout    time.Duration // HTTP write timeout
	IdleTimeout     time.Duration // HTTP idle timeout
}

type Config struct {
	AppName   string
	HEC       HEC
	Sender    Sender
	Processor Processor
	FakeHEC   FakeHEC
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func FromEnv() Config {
	return Config{
		AppName: getenv("APP_NAME", "hecforward"),
		HEC: HEC{
			Host:          getenv("HEC_HOST", ""),
			Port:          getenv("HEC_PORT", "8088"),
			Token:         getenv("HEC_TOKEN", ""),
			Index:         getenv("HEC_INDEX", "main"),
			Source:        getenv("HEC_SOURCE", "python_script"),
			SourceType:    getenv("HEC_SOURCETYPE", "json"),
			SkipTLSVerify: getenvBool("HEC_SKIP_TLS_VERIFY", false),
		},
		Sender: Sender{
			MaxAttempts: getenvInt("MAX_ATTEMPTS", 3),
			BackoffUnit: getenvDuration("BACKOFF_UNIT", time.Second),
			Timeout:     getenvDuration("HTTP_TIMEOUT", 15*time.Second),
		},
		Processor: Processor{
			SendDelay: getenvDuration("SEND_DELAY", 500*time.Millisecond),
			ChunkSize: getenvInt("CHUNK_SIZE_BYTES", 131072),
		},
		FakeHEC: FakeHEC{
			FailFirstN:      getenvInt("FAIL_FIRST_N", 0),
			Token:           getenv("FAKE_HEC_TOKEN", ""),
			ResponseDelayMS: getenvInt("RESPONSE_DELAY_MS", 0),
			Port:            getenv("FAKE_HEC_PORT", ":8090"),
			ReadTimeout:     getenvDuration("FAKE_HEC_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getenvDuration("FAKE_HEC_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getenvDuration("FAKE_HEC_IDLE_TIMEOUT", 60*time.Second),
		},
	}
}

var indexRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validate checks the fields required before any record is processed.
// A violation here is fatal to the run.
func (c Config) Validate() error {
	if c.HEC.Host == "" {
		return fmt.Errorf("HEC host is required (set HEC_HOST or --host)")
	}
	if strings.Contains(c.HEC.Host, "://") || strings.Contains(c.HEC.Host, "/") {
		return fmt.Errorf("HEC host %q must be a bare hostname, without scheme or path", c.HEC.Host)
	}
	if c.HEC.Token == "" {
		return fmt.Errorf("HEC token is required (set HEC_TOKEN or --token)")
	}
	if !indexRe.MatchString(c.HEC.Index) {
		return fmt.Errorf("HEC index %q is invalid: only letters, digits, underscore and hyphen are allowed", c.HEC.Index)
	}
	if c.Sender.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.Sender.MaxAttempts)
	}
	return nil
}

// CollectorURL returns the HEC event ingestion endpoint.
func (c Config) CollectorURL() string {
	return fmt.Sprintf("https://%s:%s/services/collector/event", c.HEC.Host, c.HEC.Port)
}

// HealthURL returns the HEC health endpoint used by `hecforward check`.
func (c Config) HealthURL() string {
	return fmt.Sprintf("https://%s:%s/services/collector/health", c.HEC.Host, c.HEC.Port)
}
