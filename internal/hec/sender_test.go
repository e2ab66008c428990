package hec

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(url string, maxAttempts int) (*Client, *[]time.Duration) {
	var sleeps []time.Duration
	c := &Client{
		url:         url,
		token:       "test-token",
		maxAttempts: maxAttempts,
		backoffUnit: time.Second,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		logger:      quietLogger(),
		sleep:       func(d time.Duration) { sleeps = append(sleeps, d) },
	}
	return c, &sleeps
}

func TestSendSuccessFirstAttempt(t *testing.T) {
	requests := 0
	var gotAuth, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, sleeps := newTestClient(srv.URL, 3)
	res := client.Send(context.Background(), []byte(`{"event":"hello"}`))

	if !res.OK {
		t.Fatalf("Send() OK = false, want true: %v", res.Err)
	}
	if res.Attempts != 1 {
		t.Errorf("Send() Attempts = %d, want 1", res.Attempts)
	}
	if requests != 1 {
		t.Errorf("server saw %d requests, want 1 (no retries after success)", requests)
	}
	if len(*sleeps) != 0 {
		t.Errorf("slept %v, want no backoff on first-attempt success", *sleeps)
	}
	if gotAuth != "Splunk test-token" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Splunk test-token")
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
}

func TestSendRetriesUntilExhausted(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, sleeps := newTestClient(srv.URL, 3)
	res := client.Send(context.Background(), []byte(`{}`))

	if res.OK {
		t.Fatal("Send() OK = true, want false after exhausting retries")
	}
	if res.Attempts != 3 {
		t.Errorf("Send() Attempts = %d, want 3", res.Attempts)
	}
	if requests != 3 {
		t.Errorf("server saw %d requests, want 3", requests)
	}
	if res.Status != http.StatusServiceUnavailable {
		t.Errorf("Send() Status = %d, want %d", res.Status, http.StatusServiceUnavailable)
	}

	// Backoff doubles per attempt: 1s << 0, 1s << 1. No sleep after the
	// final attempt.
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("slept %d times (%v), want %v", len(*sleeps), *sleeps, want)
	}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Errorf("sleep %d = %v, want %v", i, (*sleeps)[i], d)
		}
	}
}

func TestSendRecoversMidRetry(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			http.Error(w, "busy", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, sleeps := newTestClient(srv.URL, 3)
	res := client.Send(context.Background(), []byte(`{}`))

	if !res.OK {
		t.Fatalf("Send() OK = false, want true on third attempt: %v", res.Err)
	}
	if res.Attempts != 3 {
		t.Errorf("Send() Attempts = %d, want 3", res.Attempts)
	}
	if len(*sleeps) != 2 {
		t.Errorf("slept %d times, want 2", len(*sleeps))
	}
}

func TestSendReusesConnection(t *testing.T) {
	var newConns atomic.Int64
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"text":"Success","code":0}`))
	}))
	srv.Config.ConnState = func(c net.Conn, state http.ConnState) {
		if state == http.StateNew {
			newConns.Add(1)
		}
	}
	srv.Start()
	defer srv.Close()

	client, _ := newTestClient(srv.URL, 3)
	for i := 0; i < 3; i++ {
		if res := client.Send(context.Background(), []byte(`{"event":"x"}`)); !res.OK {
			t.Fatalf("send %d failed: %v", i, res.Err)
		}
	}

	// Response bodies are drained before close, so sequential sends keep
	// reusing the first connection.
	if got := newConns.Load(); got != 1 {
		t.Errorf("server saw %d connections for 3 sequential sends, want 1", got)
	}
}

func TestSendConnectionFailure(t *testing.T) {
	// Grab a port that is closed by the time Send runs.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, _ := newTestClient(url, 2)
	res := client.Send(context.Background(), []byte(`{}`))

	if res.OK {
		t.Fatal("Send() OK = true, want false on connection failure")
	}
	if res.Err == nil {
		t.Error("Send() Err = nil, want transport error")
	}
	if res.Attempts != 2 {
		t.Errorf("Send() Attempts = %d, want 2", res.Attempts)
	}
}

func TestClassifyReason(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		expected string
	}{
		{
			name:     "server error",
			status:   503,
			expected: "http_5xx",
		},
		{
			name:     "rate limited",
			status:   429,
			expected: "http_429",
		},
		{
			name:     "client error",
			status:   403,
			expected: "http_4xx",
		},
		{
			name:     "timeout",
			err:      errTimeout{},
			expected: "timeout",
		},
		{
			name:     "connection refused",
			err:      errString("dial tcp 127.0.0.1:1: connection refused"),
			expected: "connection_refused",
		},
		{
			name:     "dns failure",
			err:      errString("dial tcp: lookup nosuch.example: no such host"),
			expected: "dns_error",
		},
		{
			name:     "other network error",
			err:      errString("broken pipe"),
			expected: "network",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyReason(tt.err, tt.status)
			if got != tt.expected {
				t.Errorf("classifyReason(%v, %d) = %q, want %q", tt.err, tt.status, got, tt.expected)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }

type errTimeout struct{}

func (errTimeout) Error() string { return "context deadline exceeded (Client.Timeout exceeded)" }
