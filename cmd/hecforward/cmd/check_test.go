package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthRequest(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"text":"HEC is healthy","code":17}`))
	}))
	defer srv.Close()

	body, err := healthRequest(context.Background(), srv.Client(), srv.URL, "secret")
	if err != nil {
		t.Fatalf("healthRequest() error = %v", err)
	}
	if gotAuth != "Splunk secret" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Splunk secret")
	}
	if !strings.Contains(string(body), "healthy") {
		t.Errorf("body = %q, want health ack", body)
	}
}

func TestHealthRequestUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := healthRequest(context.Background(), srv.Client(), srv.URL, "secret")
	if err == nil {
		t.Fatal("healthRequest() error = nil, want unhealthy error")
	}
	if !strings.Contains(err.Error(), "unhealthy") {
		t.Errorf("error = %v, want collector unhealthy", err)
	}
}

func TestHealthRequestHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := healthRequest(ctx, srv.Client(), srv.URL, "secret")
	if err == nil {
		t.Fatal("healthRequest() error = nil with canceled context, want error")
	}
}
