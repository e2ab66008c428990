package hec

import (
	"encoding/json"
	"strings"
)

// DefaultChunkSize is the maximum serialized payload size per request.
const DefaultChunkSize = 131072

// Chunks serializes v and splits the result into byte-bounded fragments when
// it exceeds max (DefaultChunkSize when max <= 0). A payload within the limit
// comes back as a single chunk holding the full serialization.
//
// Oversized payloads are split on fixed byte boundaries and patched up
// textually: chunks after the first are trimmed through their first '{' and
// given a fresh leading '{'; chunks before the last are cut at their final
// '}'. The repair is best effort only — individual chunks are not guaranteed
// to be well-formed JSON.
func Chunks(v any, max int) ([]string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if max <= 0 {
		max = DefaultChunkSize
	}

	s := string(b)
	if len(s) <= max {
		return []string{s}, nil
	}

	var chunks []string
	for start := 0; start < len(s); start += max {
		end := start + max
		if end > len(s) {
			end = len(s)
		}
		c := s[start:end]

		if start > 0 {
			if i := strings.Index(c, "{"); i >= 0 {
				c = "{" + c[i+1:]
			}
		}
		if end < len(s) {
			if i := strings.LastIndex(c, "}"); i >= 0 {
				c = c[:i] + "}"
			}
		}

		chunks = append(chunks, c)
	}
	return chunks, nil
}
