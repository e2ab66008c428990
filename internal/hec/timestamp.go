package hec

import (
	"time"

	"github.com/austindbirch/hec_forward/internal/logging"
)

// TimeField is the record field inspected for an event timestamp.
const TimeField = "createdAt"

// timeFormats are tried in order; the first one that parses wins. Formats
// without a zone are interpreted as UTC. No attempt is made to disambiguate
// the US month/day order beyond this priority.
var timeFormats = []string{
	time.RFC3339,          // 2023-05-01T12:00:00Z, fractional seconds accepted
	"2006-01-02T15:04:05", // ISO without zone
	"2006-01-02 15:04:05", // space separated
	"01/02/2006 15:04:05", // US style
}

// ExtractTime pulls an epoch-second timestamp out of the record's createdAt
// field. A missing field is not an error; an unparseable value is logged at
// warning level and the record proceeds without a timestamp.
func ExtractTime(record map[string]any, logger *logging.Logger) (int64, bool) {
	raw, present := record[TimeField]
	if !present {
		return 0, false
	}
	s, isString := raw.(string)
	if !isString {
		logger.Plain().WithField(TimeField, raw).Warn("timestamp field is not a string, sending without time")
		return 0, false
	}

	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix(), true
		}
	}

	logger.Plain().WithField(TimeField, s).Warn("timestamp did not match any known format, sending without time")
	return 0, false
}
