// fake-hec is a local stand-in for an HTTP Event Collector endpoint. It
// verifies the Splunk token header, optionally fails the first N requests to
// exercise retry behavior, and can delay responses to simulate a slow
// collector.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/austindbirch/hec_forward/internal/config"
)

type collector struct {
	failFirstN    int
	token         string
	responseDelay time.Duration

	reqCount atomic.Int64
}

type ackResponse struct {
	Text string `json:"text"`
	Code int    `json:"code"`
}

func main() {
	cfg := config.FromEnv().FakeHEC

	c := &collector{
		failFirstN:    cfg.FailFirstN,
		token:         cfg.Token,
		responseDelay: time.Duration(cfg.ResponseDelayMS) * time.Millisecond,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/services/collector/event", c.handleEvent)
	mux.HandleFunc("/services/collector/health", c.handleHealth)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	log.Printf("fake-hec listening on %s", cfg.Port)
	log.Fatal(srv.ListenAndServe())
}

func (c *collector) handleEvent(w http.ResponseWriter, r *http.Request) {
	n := c.reqCount.Add(1)
	body, _ := io.ReadAll(r.Body)
	defer r.Body.Close()

	if ok, msg := verifyToken(c.token, r.Header.Get("Authorization")); !ok {
		log.Printf("fake-hec rejected request: %s", msg)
		writeAck(w, http.StatusUnauthorized, ackResponse{Text: msg, Code: 4})
		return
	}

	if c.responseDelay > 0 {
		time.Sleep(c.responseDelay)
	}

	// Simulate flakiness: first N requests -> 503
	if n <= int64(c.failFirstN) {
		log.Printf("FAILING (%d/%d) body=%s", n, c.failFirstN, truncate(string(body), 160))
		writeAck(w, http.StatusServiceUnavailable, ackResponse{Text: "Server is busy", Code: 9})
		return
	}

	var env map[string]any
	if err := json.Unmarshal(body, &env); err != nil {
		log.Printf("fake-hec got non-JSON payload: %v body=%q", err, truncate(string(body), 160))
		writeAck(w, http.StatusBadRequest, ackResponse{Text: "Invalid data format", Code: 6})
		return
	}

	log.Printf("fake-hec OK index=%v sourcetype=%v body=%q", env["index"], env["sourcetype"], truncate(string(body), 160))
	writeAck(w, http.StatusOK, ackResponse{Text: "Success", Code: 0})
}

func (c *collector) handleHealth(w http.ResponseWriter, r *http.Request) {
	if ok, msg := verifyToken(c.token, r.Header.Get("Authorization")); !ok {
		writeAck(w, http.StatusUnauthorized, ackResponse{Text: msg, Code: 4})
		return
	}
	writeAck(w, http.StatusOK, ackResponse{Text: "HEC is healthy", Code: 17})
}

// verifyToken checks the Authorization header against the configured token.
// An empty configured token disables the check.
func verifyToken(want, header string) (bool, string) {
	if want == "" {
		return true, ""
	}
	if header == "" {
		return false, "missing authorization header"
	}
	got, found := strings.CutPrefix(header, "Splunk ")
	if !found {
		return false, "authorization scheme must be Splunk"
	}
	if got != want {
		return false, "invalid token"
	}
	return true, ""
}

func writeAck(w http.ResponseWriter, status int, ack ackResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ack)
}

// truncate truncates a string to the specified length and adds an ellipsis if truncated
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
