package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/wxstore-client/internal/domain"
	"github.com/couchcryptid/wxstore-client/internal/wxerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC)

const combined = `Time,F_Scale,Location,County,State,Lat,Lon,Comments
1510,EF1,8 ESE Chappel,San Saba,TX,31.02,-98.44,Brief tornado touchdown. (SJT)
0105,UNK,Elkhorn,Douglas,NE,41.28,-96.23,Tornado reported by emergency management. (OAX)
Time,Speed,Location,County,State,Lat,Lon,Comments
1830,65,2 N Dallas,Dallas,TX,32.81,-96.80,"Trees down, power lines damaged. (FWD)"
1900,UNK,Plano,Collin,TX,33.02,-96.70,Fence blown over.
Time,Size,Location,County,State,Lat,Lon,Comments
1200,175,3 W Lubbock,Lubbock,TX,33.58,-101.93,Quarter to golf ball hail. (LUB)
2015,1.25,Norman,Cleveland,OK,35.22,-97.44,
`

func TestReadRows_Combined(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(combined))
	require.NoError(t, err)
	require.Len(t, rows, 6)

	assert.Equal(t, ClassTornado, rows[0].Class)
	assert.Equal(t, "EF1", rows[0].Magnitude)
	assert.Equal(t, ClassWind, rows[2].Class)
	assert.Equal(t, "Trees down, power lines damaged. (FWD)", rows[2].Comments)
	assert.Equal(t, ClassHail, rows[5].Class)
	assert.Equal(t, "", rows[5].Comments)
}

func TestReadRows_DataBeforeHeader(t *testing.T) {
	_, err := ReadRows(strings.NewReader("1510,EF1,Somewhere,X,TX,31,-98,\n"))
	require.ErrorIs(t, err, ErrNoHeader)
	assert.ErrorIs(t, err, wxerr.ErrParse)
}

func TestReadRows_HeaderWithoutMagnitude(t *testing.T) {
	_, err := ReadRows(strings.NewReader("Time,Location,County\n"))
	assert.ErrorIs(t, err, wxerr.ErrParse)
}

func TestReadEvents(t *testing.T) {
	events, err := ReadEvents(strings.NewReader(combined), day)
	require.NoError(t, err)
	require.Len(t, events, 6)

	for _, ev := range events {
		assert.Equal(t, domain.EventNwsLsr, ev.Type)
		assert.NoError(t, ev.Validate(), ev.Title)
	}
}

func TestToEvent_Tornado(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(combined))
	require.NoError(t, err)

	ev, err := rows[0].ToEvent(day)
	require.NoError(t, err)

	// 2024-04-26T15:10:00Z
	assert.Equal(t, uint64(1714144200000000), ev.EventTS)
	assert.Equal(t, "Tornado EF1 8 ESE Chappel, TX", ev.Title)
	require.NotNil(t, ev.Summary)
	assert.Equal(t, "8 mi ESE of Chappel, TX", *ev.Summary)

	p, ok := ev.Payload.(*domain.ReportPayload)
	require.True(t, ok)
	assert.Equal(t, domain.HazardTornado, p.Report.Hazard.Type)
	assert.Equal(t, "SJT", p.Report.Reporter)
	require.NotNil(t, p.Report.Magnitude)
	assert.InDelta(t, 1.0, *p.Report.Magnitude, 0.001)
	assert.Nil(t, p.Report.Units)
	require.NotNil(t, p.Report.ReportTS)
	assert.Equal(t, ev.EventTS, *p.Report.ReportTS)

	require.NotNil(t, p.Location)
	assert.Equal(t, "SJT", *p.Location.WFO)
	assert.Equal(t, "San Saba", *p.Location.County)
	assert.InDelta(t, 31.02, p.Location.Point.Lat, 0.0001)
	assert.InDelta(t, -98.44, p.Location.Point.Lon, 0.0001)
}

func TestToEvent_EarlyMorningRollsToNextDay(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(combined))
	require.NoError(t, err)

	ev, err := rows[1].ToEvent(day)
	require.NoError(t, err)

	// 0105Z belongs to the convective day that started at 12Z the day before.
	assert.Equal(t, uint64(1714179900000000), ev.EventTS)

	p := ev.Payload.(*domain.ReportPayload)
	assert.Nil(t, p.Report.Magnitude)
	assert.Nil(t, ev.Summary, "bare place names have no relative summary")
}

func TestToEvent_Wind(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(combined))
	require.NoError(t, err)

	ev, err := rows[2].ToEvent(day)
	require.NoError(t, err)
	p := ev.Payload.(*domain.ReportPayload)
	assert.Equal(t, domain.HazardWind, p.Report.Hazard.Type)
	assert.Equal(t, domain.UnitsMph, *p.Report.Units)
	assert.InDelta(t, 65, *p.Report.Magnitude, 0.001)
	assert.Equal(t, "Wind 65mph 2 N Dallas, TX", ev.Title)

	ev, err = rows[3].ToEvent(day)
	require.NoError(t, err)
	p = ev.Payload.(*domain.ReportPayload)
	assert.Equal(t, "SPC", p.Report.Reporter)
	assert.Nil(t, p.Location.WFO)
	assert.Nil(t, p.Report.Units)
}

func TestToEvent_HailHundredths(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(combined))
	require.NoError(t, err)

	ev, err := rows[4].ToEvent(day)
	require.NoError(t, err)
	p := ev.Payload.(*domain.ReportPayload)
	assert.InDelta(t, 1.75, *p.Report.Magnitude, 0.0001)
	assert.Equal(t, domain.UnitsInches, *p.Report.Units)
	assert.Equal(t, "Hail 1.75in 3 W Lubbock, TX", ev.Title)

	ev, err = rows[5].ToEvent(day)
	require.NoError(t, err)
	p = ev.Payload.(*domain.ReportPayload)
	assert.InDelta(t, 1.25, *p.Report.Magnitude, 0.0001)
	assert.Nil(t, ev.Text)
}

func TestToEvent_ParseErrors(t *testing.T) {
	base := Row{Class: ClassHail, Time: "1510", Magnitude: "100", Lat: "35.1", Lon: "-97.2"}

	tests := []struct {
		name   string
		mutate func(*Row)
	}{
		{"bad lat", func(r *Row) { r.Lat = "north" }},
		{"empty lon", func(r *Row) { r.Lon = "" }},
		{"bad magnitude", func(r *Row) { r.Magnitude = "big" }},
		{"short time", func(r *Row) { r.Time = "15" }},
		{"bad hour", func(r *Row) { r.Time = "2510" }},
		{"bad minute", func(r *Row) { r.Time = "1575" }},
		{"letters in time", func(r *Row) { r.Time = "12ab" }},
		{"unknown class", func(r *Row) { r.Class = "hurricane" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := base
			tt.mutate(&row)
			_, err := row.ToEvent(day)
			require.Error(t, err)
			assert.ErrorIs(t, err, wxerr.ErrParse)
		})
	}
}

func TestReadEvents_StopsAtBadRow(t *testing.T) {
	data := "Time,Size,Location,County,State,Lat,Lon,Comments\n1510,100,A,B,TX,north,-97,\n"
	_, err := ReadEvents(strings.NewReader(data), day)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
	assert.ErrorIs(t, err, wxerr.ErrParse)
}

func TestReportDay(t *testing.T) {
	got, err := ReportDay("/data/spc/240426_rpts_hail.csv")
	require.NoError(t, err)
	assert.Equal(t, day, got)

	_, err = ReportDay("reports.csv")
	assert.ErrorIs(t, err, wxerr.ErrParse)
}

func TestPlaceName(t *testing.T) {
	tests := []struct {
		in        string
		name      string
		miles     float64
		direction string
		ok        bool
	}{
		{"8 ESE Chappel", "Chappel", 8, "ESE", true},
		{"1.5 N Mount Vernon", "Mount Vernon", 1.5, "N", true},
		{"Norman", "Norman", 0, "", false},
		{"", "", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, miles, dir, ok := PlaceName(tt.in)
			assert.Equal(t, tt.name, name)
			assert.InDelta(t, tt.miles, miles, 0.0001)
			assert.Equal(t, tt.direction, dir)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestExtractSourceOffice(t *testing.T) {
	assert.Equal(t, "OUN", extractSourceOffice("Large hail reported. (OUN)"))
	assert.Equal(t, "OUN", extractSourceOffice("Large hail reported. (OUN)   "))
	assert.Equal(t, "", extractSourceOffice("No office here"))
	assert.Equal(t, "", extractSourceOffice("(OUN) at start"))
}
