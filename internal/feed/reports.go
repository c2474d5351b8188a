// Package feed turns upstream feed text into store events.
//
// SPC storm report files are CSV with one header line per report class:
//
//	Time,Size,Location,County,State,Lat,Lon,Comments      (hail, hundredths of an inch)
//	Time,Speed,Location,County,State,Lat,Lon,Comments     (wind, mph)
//	Time,F_Scale,Location,County,State,Lat,Lon,Comments   (tornado, EF rating)
//
// The combined daily file repeats the header before each class, so the class
// is taken from the most recent header rather than from the file name.
package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/wxstore-client/internal/domain"
	"github.com/couchcryptid/wxstore-client/internal/timeutil"
	"github.com/couchcryptid/wxstore-client/internal/wxerr"
)

// ReportClass is the kind of rows in a storm report section.
type ReportClass string

const (
	ClassHail    ReportClass = "hail"
	ClassWind    ReportClass = "wind"
	ClassTornado ReportClass = "tornado"
)

// magnitudeColumns maps the magnitude header of each section to its class.
var magnitudeColumns = map[string]ReportClass{
	"Size":    ClassHail,
	"Speed":   ClassWind,
	"F_Scale": ClassTornado,
}

var (
	// sourceOfficeRe matches a 3-5 letter NWS office code in parentheses at the
	// end of a comment, e.g. "Quarter hail reported. (FWD)" -> "FWD".
	sourceOfficeRe = regexp.MustCompile(`\(([A-Z]{3,5})\)\s*$`)

	// locationRe parses NWS-style relative locations: "<distance> <compass> <name>",
	// e.g. "8 ESE Chappel" -> distance=8, direction=ESE, name=Chappel.
	locationRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s+([NSEW]{1,3})\s+(.+)$`)

	// reportFileRe matches SPC file names such as "240426_rpts_hail.csv".
	reportFileRe = regexp.MustCompile(`^(\d{6})_rpts`)
)

// ErrNoHeader is returned when data rows appear before any header.
var ErrNoHeader = errors.New("storm report row before header")

// Row is one storm report line with its section class.
type Row struct {
	Class     ReportClass
	Time      string
	Magnitude string
	Location  string
	County    string
	State     string
	Lat       string
	Lon       string
	Comments  string
}

// ReadRows reads every data row of an SPC storm report file.
func ReadRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		rows   []Row
		class  ReportClass
		colIdx map[string]int
		line   int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		line++
		if err != nil {
			return nil, wxerr.IO("read storm reports", err)
		}
		if len(record) > 0 && strings.TrimSpace(record[0]) == "Time" {
			class, colIdx, err = parseHeader(record)
			if err != nil {
				return nil, wxerr.Parse(fmt.Sprintf("storm reports line %d", line), err)
			}
			continue
		}
		if colIdx == nil {
			return nil, wxerr.Parse(fmt.Sprintf("storm reports line %d", line), ErrNoHeader)
		}
		if len(record) < len(colIdx) {
			continue
		}
		rows = append(rows, Row{
			Class:     class,
			Time:      get(record, colIdx, "Time"),
			Magnitude: get(record, colIdx, "Magnitude"),
			Location:  get(record, colIdx, "Location"),
			County:    get(record, colIdx, "County"),
			State:     get(record, colIdx, "State"),
			Lat:       get(record, colIdx, "Lat"),
			Lon:       get(record, colIdx, "Lon"),
			Comments:  get(record, colIdx, "Comments"),
		})
	}
}

func parseHeader(header []string) (ReportClass, map[string]int, error) {
	idx := make(map[string]int, len(header))
	var class ReportClass
	for i, h := range header {
		h = strings.TrimSpace(h)
		if c, ok := magnitudeColumns[h]; ok {
			class = c
			h = "Magnitude"
		}
		idx[h] = i
	}
	if class == "" {
		return "", nil, fmt.Errorf("header %q has no magnitude column", strings.Join(header, ","))
	}
	return class, idx, nil
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ReportDay returns the convective day encoded in an SPC report file name,
// e.g. "240426_rpts_torn.csv" -> 2024-04-26.
func ReportDay(path string) (time.Time, error) {
	m := reportFileRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return time.Time{}, wxerr.Parse("report day", fmt.Errorf("%q is not an SPC report file name", filepath.Base(path)))
	}
	day, err := time.Parse("060102", m[1])
	if err != nil {
		return time.Time{}, wxerr.Parse("report day", err)
	}
	return day, nil
}

// ToEvent converts a row to a local storm report event. day is the
// convective day of the file; reports run from 12Z on day to 12Z the next
// day, so times before 1200 fall on the following calendar date.
func (r Row) ToEvent(day time.Time) (domain.Event, error) {
	ts, err := reportTime(day, r.Time)
	if err != nil {
		return domain.Event{}, err
	}
	lat, err := parseCoord("lat", r.Lat)
	if err != nil {
		return domain.Event{}, err
	}
	lon, err := parseCoord("lon", r.Lon)
	if err != nil {
		return domain.Event{}, err
	}
	report, err := r.report()
	if err != nil {
		return domain.Event{}, err
	}
	report.ReportTS = &ts

	loc := &domain.Location{Point: &domain.Coordinates{Lat: lat, Lon: lon}}
	if r.County != "" {
		county := r.County
		loc.County = &county
	}
	if office := extractSourceOffice(r.Comments); office != "" {
		loc.WFO = &office
		report.Reporter = office
	}

	ev := domain.NewEvent(ts, domain.EventNwsLsr, r.title(report))
	if r.Comments != "" {
		text := r.Comments
		ev.Text = &text
	}
	if name, miles, dir, ok := PlaceName(r.Location); ok {
		summary := fmt.Sprintf("%g mi %s of %s", miles, dir, name)
		if r.State != "" {
			summary += ", " + r.State
		}
		ev.Summary = &summary
	}
	ev.Payload = &domain.ReportPayload{Report: report, Location: loc}
	return ev, nil
}

func (r Row) report() (domain.Report, error) {
	rep := domain.Report{Reporter: "SPC"}
	switch r.Class {
	case ClassHail:
		rep.Hazard = domain.Hazard{Type: domain.HazardHail}
	case ClassWind:
		rep.Hazard = domain.Hazard{Type: domain.HazardWind}
	case ClassTornado:
		rep.Hazard = domain.Hazard{Type: domain.HazardTornado}
	default:
		return rep, wxerr.Parse("storm report", fmt.Errorf("unknown report class %q", r.Class))
	}

	mag, err := parseMagnitude(r.Class, r.Magnitude)
	if err != nil {
		return rep, err
	}
	if mag == nil {
		return rep, nil
	}
	rep.Magnitude = mag
	switch r.Class {
	case ClassHail:
		u := domain.UnitsInches
		rep.Units = &u
	case ClassWind:
		u := domain.UnitsMph
		rep.Units = &u
	}
	return rep, nil
}

func (r Row) title(rep domain.Report) string {
	var b strings.Builder
	b.WriteString(rep.Hazard.String())
	if rep.Magnitude != nil {
		switch r.Class {
		case ClassHail:
			fmt.Fprintf(&b, " %.2fin", *rep.Magnitude)
		case ClassWind:
			fmt.Fprintf(&b, " %.0fmph", *rep.Magnitude)
		case ClassTornado:
			fmt.Fprintf(&b, " EF%.0f", *rep.Magnitude)
		}
	}
	if place := r.Location; place != "" {
		b.WriteString(" ")
		b.WriteString(place)
		if r.State != "" {
			b.WriteString(", ")
			b.WriteString(r.State)
		}
	}
	return b.String()
}

// reportTime combines the convective day with an HHMM UTC time string.
func reportTime(day time.Time, hhmm string) (uint64, error) {
	hhmm = strings.TrimSpace(hhmm)
	if len(hhmm) == 3 {
		hhmm = "0" + hhmm
	}
	if len(hhmm) != 4 {
		return 0, wxerr.Parse("report time", fmt.Errorf("invalid time %q", hhmm))
	}
	hour, err := strconv.Atoi(hhmm[:2])
	if err != nil {
		return 0, wxerr.Parse("report time", err)
	}
	mins, err := strconv.Atoi(hhmm[2:])
	if err != nil {
		return 0, wxerr.Parse("report time", err)
	}
	if hour > 23 || mins > 59 || hour < 0 || mins < 0 {
		return 0, wxerr.Parse("report time", fmt.Errorf("time %q out of range", hhmm))
	}

	t := time.Date(day.Year(), day.Month(), day.Day(), hour, mins, 0, 0, time.UTC)
	if hour < 12 {
		t = t.AddDate(0, 0, 1)
	}
	return timeutil.ToMicros(t), nil
}

func parseCoord(name, s string) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, wxerr.Parse("parse "+name, err)
	}
	return float32(v), nil
}

// parseMagnitude returns nil for unknown values like "UNK". Some hail reports
// encode diameter in hundredths of inches (175 = 1.75in); values >= 10 are
// assumed to use that encoding.
func parseMagnitude(class ReportClass, raw string) (*float32, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "UNK") {
		return nil, nil
	}
	raw = strings.TrimPrefix(raw, "EF")
	raw = strings.TrimPrefix(raw, "F")

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, wxerr.Parse("parse magnitude", err)
	}
	if class == ClassHail && v >= 10 {
		v /= 100
	}
	f := float32(v)
	return &f, nil
}

// extractSourceOffice pulls the WFO code from the end of a comment string,
// e.g. "Large hail reported. (OUN)" -> "OUN".
func extractSourceOffice(comments string) string {
	m := sourceOfficeRe.FindStringSubmatch(strings.TrimSpace(comments))
	if len(m) == 2 {
		return m[1]
	}
	return ""
}

// PlaceName splits an NWS relative location into its place name, distance
// in miles and compass direction. ok is false when the text is only a name.
func PlaceName(location string) (name string, miles float64, direction string, ok bool) {
	location = strings.TrimSpace(location)
	m := locationRe.FindStringSubmatch(location)
	if len(m) != 4 {
		return location, 0, "", false
	}
	miles, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return location, 0, "", false
	}
	return strings.TrimSpace(m[3]), miles, m[2], true
}

// ReadEvents reads an SPC storm report file and converts every row. The first
// bad row stops the read.
func ReadEvents(r io.Reader, day time.Time) ([]domain.Event, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	events := make([]domain.Event, 0, len(rows))
	for i, row := range rows {
		ev, err := row.ToEvent(day)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		events = append(events, ev)
	}
	return events, nil
}
