// Package hec implements the read → wrap → POST pipeline that forwards JSON
// records to an HTTP Event Collector style ingestion endpoint.
package hec

// Envelope wraps one raw event with the routing metadata the collector
// expects. Time is epoch seconds; nil means no timestamp was extracted and
// the field is omitted on the wire. A pointer keeps a legitimate epoch-zero
// timestamp distinct from no timestamp.
type Envelope struct {
	Event      any    `json:"event"`
	Index      string `json:"index"`
	Source     string `json:"source"`
	SourceType string `json:"sourcetype"`
	Time       *int64 `json:"time,omitempty"`
}
