// Package timeutil converts feed time text to store ticks. A tick is one
// microsecond since the Unix epoch.
package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/wxstore-client/internal/wxerr"
	"github.com/jonboulle/clockwork"
)

// FeedLayout is the fixed UTC timestamp format used by upstream feeds.
const FeedLayout = "2006-01-02T15:04:05+00:00"

var (
	clockMu sync.RWMutex
	clock   = clockwork.NewRealClock()
)

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	clockMu.Lock()
	defer clockMu.Unlock()
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time of the configured clock.
func Now() time.Time {
	clockMu.RLock()
	defer clockMu.RUnlock()
	return clock.Now()
}

// CurrentTimeMicros returns the current time in ticks.
func CurrentTimeMicros() uint64 {
	return ToMicros(Now())
}

// CurrentTimeMillis returns the current time in milliseconds since the epoch.
func CurrentTimeMillis() uint64 {
	return CurrentTimeMicros() / 1000
}

// ToMicros converts t to ticks. Instants before the epoch map to zero.
func ToMicros(t time.Time) uint64 {
	us := t.UnixMicro()
	if us < 0 {
		return 0
	}
	return uint64(us)
}

// FromMicros converts ticks to a UTC time.
func FromMicros(ticks uint64) time.Time {
	return time.UnixMicro(int64(ticks)).UTC()
}

var errBeforeEpoch = errors.New("time is before the Unix epoch")

// ParseTimestamp parses text with layout (FeedLayout when empty) and returns
// ticks. Text without a zone is read as UTC.
func ParseTimestamp(text, layout string) (uint64, error) {
	if layout == "" {
		layout = FeedLayout
	}
	t, err := time.Parse(layout, strings.TrimSpace(text))
	if err != nil {
		return 0, wxerr.Parse("parse timestamp", err)
	}
	if t.Before(time.Unix(0, 0)) {
		return 0, wxerr.Parse("parse timestamp", fmt.Errorf("%q: %w", text, errBeforeEpoch))
	}
	return ToMicros(t), nil
}

// zoneOffsets maps North American zone abbreviations to UTC offsets.
var zoneOffsets = map[string]string{
	"HST":  "-1000",
	"HDT":  "-0900",
	"AKST": "-0900",
	"AKDT": "-0800",
	"PST":  "-0800",
	"PDT":  "-0700",
	"MST":  "-0700",
	"MDT":  "-0600",
	"CST":  "-0600",
	"CDT":  "-0500",
	"EST":  "-0500",
	"EDT":  "-0400",
	"AST":  "-0400",
	"ADT":  "-0300",
}

// TimezoneOffset returns the "±HHMM" offset for a zone abbreviation such as
// "CDT". Unknown abbreviations are an error, never a default.
func TimezoneOffset(abbrev string) (string, error) {
	offset, ok := zoneOffsets[strings.ToUpper(strings.TrimSpace(abbrev))]
	if !ok {
		return "", wxerr.Parse("timezone offset", fmt.Errorf("unknown time zone abbreviation %q", abbrev))
	}
	return offset, nil
}

// Zone returns a fixed-offset location for a zone abbreviation.
func Zone(abbrev string) (*time.Location, error) {
	offset, err := TimezoneOffset(abbrev)
	if err != nil {
		return nil, err
	}
	t, err := time.Parse("-0700", offset)
	if err != nil {
		return nil, wxerr.Parse("timezone offset", err)
	}
	_, seconds := t.Zone()
	return time.FixedZone(strings.ToUpper(strings.TrimSpace(abbrev)), seconds), nil
}
