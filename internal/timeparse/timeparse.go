package timeparse

import (
	"time"
)

var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Parse accepts the timestamp shapes the provider has been seen to emit.
// Values without an offset are read as wall-clock time in UTC so that
// arithmetic between two legs stays consistent.
func Parse(s string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &time.ParseError{
		Value:   s,
		Message: ": unable to parse time string",
	}
}
