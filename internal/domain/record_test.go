package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/couchcryptid/wxstore-client/internal/domain"
	"github.com/couchcryptid/wxstore-client/internal/domain/domaintest"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_RoundTrip(t *testing.T) {
	for _, ev := range domaintest.All() {
		t.Run(ev.Title, func(t *testing.T) {
			rec := ev.Record()
			assert.Equal(t, domain.SchemaVersion, rec.Version)

			got, err := domain.EventFromRecord(rec)
			require.NoError(t, err)
			if diff := cmp.Diff(ev, got); diff != "" {
				t.Fatalf("record round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecord_SlotLayout(t *testing.T) {
	rec := domaintest.TornadoWarning().Record()
	require.NotNil(t, rec.Warning)
	require.NotNil(t, rec.Location)
	assert.Nil(t, rec.Report)
	assert.Nil(t, rec.Watch)
	assert.Nil(t, rec.Outlook)
	assert.Nil(t, rec.MD)

	rec = domaintest.FloodWatch().Record()
	assert.Nil(t, rec.Location)
	assert.Nil(t, rec.Warning)
}

func TestRecord_DoesNotAliasPayload(t *testing.T) {
	ev := domaintest.SpotterReport()
	rec := ev.Record()
	rec.Report.Reporter = "changed"
	rec.Location.WFO = domaintest.Ptr("XXX")

	p := ev.Payload.(*domain.ReportPayload)
	assert.Equal(t, "J. Spotter", p.Report.Reporter)
	assert.Nil(t, p.Location.WFO)
}

func TestEventFromRecord_RejectsMultipleSlots(t *testing.T) {
	rec := domaintest.TornadoWarning().Record()
	rec.Watch = &domain.Watch{ID: 1}

	_, err := domain.EventFromRecord(rec)
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestEventFromRecord_RejectsLocationWithOutlook(t *testing.T) {
	rec := domaintest.Day1Outlook().Record()
	rec.Location = &domain.Location{WFO: domaintest.Ptr("SPC")}

	_, err := domain.EventFromRecord(rec)
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestEventFromRecord_RejectsSlotForWrongType(t *testing.T) {
	rec := domaintest.SpotterReport().Record()
	rec.EventType = domain.EventNwsTor

	_, err := domain.EventFromRecord(rec)
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestEventFromRecord_ChecksShapeOnly(t *testing.T) {
	rec := domaintest.SpotterReport().Record()
	rec.Title = ""

	ev, err := domain.EventFromRecord(rec)
	require.NoError(t, err, "a stored record without a title is still readable")
	assert.Equal(t, domain.PayloadReport, ev.Payload.Kind())
	assert.ErrorIs(t, ev.Validate(), domain.ErrInvalid)
}

func TestEventFromRecord_UpgradesVersion1(t *testing.T) {
	rec := domaintest.SevereThunderstormWarning().Record()
	rec.Version = 1
	rec.Warning.IsTorEmergency = domaintest.Ptr(false)
	rec.Warning.WasObserved = domaintest.Ptr(false)

	ev, err := domain.EventFromRecord(rec)
	require.NoError(t, err)

	w := ev.Payload.(*domain.WarningPayload).Warning
	assert.Nil(t, w.IsTorEmergency)
	assert.Nil(t, w.WasObserved)
}

func TestEventFromRecord_UnversionedIsVersion1(t *testing.T) {
	rec := domaintest.TornadoWarning().Record()
	rec.Version = 0

	ev, err := domain.EventFromRecord(rec)
	require.NoError(t, err)

	w := ev.Payload.(*domain.WarningPayload).Warning
	require.NotNil(t, w.WasObserved, "tornado warnings keep their flags")
	assert.True(t, *w.WasObserved)
}

func TestEventFromRecord_RejectsNewerSchema(t *testing.T) {
	rec := domaintest.FloodWatch().Record()
	rec.Version = domain.SchemaVersion + 1

	_, err := domain.EventFromRecord(rec)
	require.ErrorIs(t, err, domain.ErrInvalid)
	assert.Contains(t, err.Error(), "newer")
}

func TestEvent_JSONRoundTrip(t *testing.T) {
	for _, ev := range domaintest.All() {
		t.Run(ev.Title, func(t *testing.T) {
			data, err := json.Marshal(ev)
			require.NoError(t, err)

			var got domain.Event
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, ev.Type, got.Type)
			assert.Equal(t, ev.IngestTS, got.IngestTS)
			assert.Equal(t, ev.Payload.Kind(), got.Payload.Kind())
		})
	}
}

func TestEvent_JSONUsesNames(t *testing.T) {
	data, err := json.Marshal(domaintest.Day1Outlook())
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"event_type":"NwsSwo"`)
	assert.Contains(t, s, `"swo_type":"Day1"`)
	assert.Contains(t, s, `"max_risk":"HIGH"`)
	assert.Contains(t, s, `"MDT":[`)
}

func TestEvent_Location(t *testing.T) {
	assert.Equal(t, "LUB", *domaintest.DustStormReport().Location().WFO)
	assert.Equal(t, "OUN", *domaintest.AreaForecastDiscussion().Location().WFO)
	assert.Nil(t, domaintest.Day1Outlook().Location())
	assert.Nil(t, domaintest.FloodWatch().Location())
}
