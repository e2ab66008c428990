package hec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/austindbirch/hec_forward/internal/config"
	"github.com/austindbirch/hec_forward/internal/logging"
	"github.com/austindbirch/hec_forward/internal/metrics"
	"github.com/austindbirch/hec_forward/internal/tracing"
)

// Summary counts the outcome of one processing run.
type Summary struct {
	Sent    int // events accepted by the collector
	Failed  int // events dropped after exhausting retries
	Skipped int // malformed input lines skipped
}

// Processor reads an input file and forwards each record through a Client,
// one record at a time. Records are never processed concurrently; each send
// finishes (including all retries) before the next record starts.
type Processor struct {
	cfg    config.Config
	client *Client
	logger *logging.Logger

	sleep func(time.Duration)
}

// NewProcessor builds a processor bound to one client and one run config.
func NewProcessor(cfg config.Config, client *Client, logger *logging.Logger) *Processor {
	return &Processor{
		cfg:    cfg,
		client: client,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// Process reads path and forwards every record it holds. Two input shapes
// are supported: a single JSON document (one object, or an array of objects)
// and newline-delimited JSON objects. Malformed lines are logged and skipped;
// a missing or unreadable file aborts the run with an error.
func (p *Processor) Process(ctx context.Context, path string) (Summary, error) {
	ctx, span := tracing.StartSpan(ctx, "hec.process_file",
		attribute.String("file", path),
	)
	defer span.End()

	data, err := os.ReadFile(path)
	if err != nil {
		tracing.SetSpanError(ctx, err)
		return Summary{}, fmt.Errorf("read input file: %w", err)
	}

	var sum Summary
	if records, ok := parseDocument(data); ok {
		for i, rec := range records {
			p.forward(ctx, path, i+1, rec, &sum)
		}
	} else {
		p.processLines(ctx, path, data, &sum)
	}

	span.SetAttributes(
		attribute.Int("sent", sum.Sent),
		attribute.Int("failed", sum.Failed),
		attribute.Int("skipped", sum.Skipped),
	)
	p.logger.WithContext(ctx).WithFile(path).WithFields(map[string]any{
		"sent":    sum.Sent,
		"failed":  sum.Failed,
		"skipped": sum.Skipped,
	}).Info("finished forwarding file")
	return sum, nil
}

// parseDocument tries to read data as one JSON document. An array yields one
// record per element; any other value is a single record. NDJSON input fails
// here (multiple top-level values) and falls back to line processing.
func parseDocument(data []byte) ([]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, false
	}
	// A second value means the input is newline-delimited, not one document.
	if dec.More() {
		return nil, false
	}
	if arr, isArr := doc.([]any); isArr {
		return arr, true
	}
	return []any{doc}, true
}

// processLines handles newline-delimited JSON: one record per line, malformed
// lines skipped without aborting the file. The input is already fully in
// memory, so lines are split directly and no line-length cap applies.
func (p *Processor) processLines(ctx context.Context, path string, data []byte, sum *Summary) {
	lineNo := 0
	for _, raw := range bytes.Split(data, []byte("\n")) {
		lineNo++
		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}
		var rec any
		if err := json.Unmarshal(line, &rec); err != nil {
			p.logger.WithContext(ctx).WithFile(path).WithRecord(lineNo).WithError(err).Error("skipping malformed line")
			metrics.LinesSkippedTotal.Inc()
			sum.Skipped++
			continue
		}
		p.forward(ctx, path, lineNo, rec, sum)
	}
}

// forward wraps one record in an envelope and sends it, chunking the payload
// when it exceeds the configured size. On success it pauses briefly so the
// collector is not overwhelmed.
func (p *Processor) forward(ctx context.Context, path string, recordNo int, rec any, sum *Summary) {
	env := Envelope{
		Event:      rec,
		Index:      p.cfg.HEC.Index,
		Source:     p.cfg.HEC.Source,
		SourceType: p.cfg.HEC.SourceType,
	}
	if m, isMap := rec.(map[string]any); isMap {
		if ts, ok := ExtractTime(m, p.logger); ok {
			env.Time = &ts
		}
	}

	chunks, err := Chunks(env, p.cfg.Processor.ChunkSize)
	if err != nil {
		p.logger.WithContext(ctx).WithFile(path).WithRecord(recordNo).WithError(err).Error("envelope serialization failed")
		sum.Failed++
		return
	}
	if len(chunks) > 1 {
		metrics.ChunksTotal.Add(float64(len(chunks)))
		p.logger.WithContext(ctx).WithFile(path).WithRecord(recordNo).WithField("chunks", len(chunks)).Warn("envelope exceeds chunk size, sending in fragments")
	}

	ok := true
	for _, chunk := range chunks {
		res := p.client.Send(ctx, []byte(chunk))
		if !res.OK {
			ok = false
			break
		}
	}

	if ok {
		sum.Sent++
		p.sleep(p.cfg.Processor.SendDelay)
	} else {
		sum.Failed++
		p.logger.WithContext(ctx).WithFile(path).WithRecord(recordNo).Error("record not delivered")
	}
}
