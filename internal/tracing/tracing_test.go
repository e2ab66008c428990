package tracing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestEnabled(t *testing.T) {
	original := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	defer func() {
		if original == "" {
			os.Unsetenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		} else {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", original)
		}
	}()

	os.Unsetenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if Enabled() {
		t.Error("Enabled() = true with no endpoint configured")
	}

	os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	if !Enabled() {
		t.Error("Enabled() = false with endpoint configured")
	}
}

func TestInitTracingDisabled(t *testing.T) {
	original := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	os.Unsetenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	defer func() {
		if original != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", original)
		}
	}()

	shutdown, err := InitTracing(context.Background(), "test")
	if err != nil {
		t.Fatalf("InitTracing() error = %v", err)
	}
	if shutdown == nil {
		t.Fatal("InitTracing() returned nil shutdown function")
	}
	shutdown() // must be a safe no-op
}

func TestGetVersion(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected string
	}{
		{
			name:     "with SERVICE_VERSION set",
			envValue: "v1.2.3",
			expected: "v1.2.3",
		},
		{
			name:     "with SERVICE_VERSION not set",
			envValue: "",
			expected: "dev",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("SERVICE_VERSION", tt.envValue)
				defer os.Unsetenv("SERVICE_VERSION")
			} else {
				os.Unsetenv("SERVICE_VERSION")
			}

			if got := getVersion(); got != tt.expected {
				t.Errorf("getVersion() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetOTLPEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected string
	}{
		{
			name:     "bare host port",
			envValue: "collector:4318",
			expected: "collector:4318",
		},
		{
			name:     "http prefix stripped",
			envValue: "http://collector:4318",
			expected: "collector:4318",
		},
		{
			name:     "https prefix stripped",
			envValue: "https://collector:4318",
			expected: "collector:4318",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", tt.envValue)
			defer os.Unsetenv("OTEL_EXPORTER_OTLP_ENDPOINT")

			if got := getOTLPEndpoint(); got != tt.expected {
				t.Errorf("getOTLPEndpoint() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func TestStartSpanAndTraceID(t *testing.T) {
	setupTestTracer(t)

	ctx, span := StartSpan(context.Background(), "test.operation")
	defer span.End()

	traceID := GetTraceID(ctx)
	if traceID == "" {
		t.Error("GetTraceID() returned empty string inside a span")
	}
}

func TestGetTraceIDWithoutSpan(t *testing.T) {
	if got := GetTraceID(context.Background()); got != "" {
		t.Errorf("GetTraceID() = %q without a span, want empty", got)
	}
}

func TestSetSpanError(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx, span := StartSpan(context.Background(), "test.failing")
	SetSpanError(ctx, errors.New("boom"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("exported %d spans, want 1", len(spans))
	}
	if len(spans[0].Events) == 0 {
		t.Error("span has no events, want recorded error")
	}
}

func TestInjectHTTP(t *testing.T) {
	setupTestTracer(t)

	ctx, span := StartSpan(context.Background(), "test.inject")
	defer span.End()

	header := http.Header{}
	InjectHTTP(ctx, header)

	if header.Get("traceparent") == "" {
		t.Error("InjectHTTP() did not set traceparent header")
	}
}
