package feed

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/couchcryptid/wxstore-client/internal/domain"
	"github.com/couchcryptid/wxstore-client/internal/timeutil"
	"github.com/couchcryptid/wxstore-client/internal/wxerr"
)

// issuanceLayout matches the issuance line of NWS text products once the
// time is padded to four digits and the zone is removed.
const issuanceLayout = "0304 PM Mon Jan 2 2006"

// ParseIssuanceTime parses an NWS product issuance line such as
// "1045 PM CDT MON MAY 20 2019" and returns ticks.
func ParseIssuanceTime(line string) (uint64, error) {
	const op = "parse issuance time"

	fields := strings.Fields(line)
	if len(fields) != 7 {
		return 0, wxerr.Parse(op, fmt.Errorf("%q: want 7 fields, got %d", line, len(fields)))
	}
	hhmm, ampm, zone := fields[0], fields[1], fields[2]
	switch len(hhmm) {
	case 3:
		hhmm = "0" + hhmm
	case 4:
	default:
		return 0, wxerr.Parse(op, fmt.Errorf("%q: invalid time %q", line, fields[0]))
	}

	loc, err := timeutil.Zone(zone)
	if err != nil {
		return 0, err
	}

	text := strings.Join(append([]string{hhmm, strings.ToUpper(ampm)}, fields[3:]...), " ")
	t, err := time.ParseInLocation(issuanceLayout, text, loc)
	if err != nil {
		return 0, wxerr.Parse(op, err)
	}
	return timeutil.ToMicros(t), nil
}

// ReadProduct reads an NWS text product and returns it as an event of the
// given type without payload. The event time is taken from the first
// issuance line and the title from the non-empty line above it, e.g.
//
//	Area Forecast Discussion
//	National Weather Service Norman OK
//	1045 PM CDT MON MAY 20 2019
//
// gives the title "National Weather Service Norman OK".
func ReadProduct(r io.Reader, eventType domain.EventType) (domain.Event, error) {
	const op = "read product"

	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Event{}, wxerr.IO(op, err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	var title string
	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ts, err := ParseIssuanceTime(line)
		if err != nil {
			title = line
			continue
		}
		if title == "" {
			return domain.Event{}, wxerr.Parse(op, errors.New("issuance line has no title above it"))
		}
		ev := domain.NewEvent(ts, eventType, title)
		ev.Text = &text
		return ev, nil
	}
	return domain.Event{}, wxerr.Parse(op, errors.New("no issuance line found"))
}
