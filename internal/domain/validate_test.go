package domain_test

import (
	"testing"

	"github.com/couchcryptid/wxstore-client/internal/domain"
	"github.com/couchcryptid/wxstore-client/internal/domain/domaintest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Samples(t *testing.T) {
	for _, ev := range domaintest.All() {
		t.Run(ev.Title, func(t *testing.T) {
			assert.NoError(t, ev.Validate())
		})
	}
}

func TestValidate_PayloadMustMatchType(t *testing.T) {
	tests := []struct {
		name    string
		typ     domain.EventType
		payload domain.Payload
		ok      bool
	}{
		{"report on spotter report", domain.EventSnReport, &domain.ReportPayload{Report: domain.Report{Hazard: domain.Hazard{Type: domain.HazardHail}}}, true},
		{"warning on spotter report", domain.EventSnReport, &domain.WarningPayload{}, false},
		{"missing report", domain.EventNwsLsr, nil, false},
		{"warning on tornado warning", domain.EventNwsTor, &domain.WarningPayload{}, true},
		{"outlook on tornado warning", domain.EventNwsTor, &domain.OutlookPayload{}, false},
		{"watch on SEL", domain.EventNwsSel, &domain.WatchPayload{}, true},
		{"outlook on SEL", domain.EventNwsSel, &domain.OutlookPayload{}, true},
		{"outlook on SWO", domain.EventNwsSwo, &domain.OutlookPayload{}, true},
		{"discussion on SWO", domain.EventNwsSwo, &domain.DiscussionPayload{}, true},
		{"discussion on PTS", domain.EventNwsPts, &domain.DiscussionPayload{}, false},
		{"nothing on AFD", domain.EventNwsAfd, nil, true},
		{"area on AFD", domain.EventNwsAfd, &domain.AreaPayload{}, true},
		{"report on AFD", domain.EventNwsAfd, &domain.ReportPayload{}, false},
		{"typed nil counts as none", domain.EventNwsFla, (*domain.ReportPayload)(nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := domain.NewEvent(1, tt.typ, "title")
			ev.Payload = tt.payload
			err := ev.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalid)
			}
		})
	}
}

func TestValidate_RequiresTitleAndKnownType(t *testing.T) {
	ev := domain.NewEvent(1, domain.EventNwsAfd, "")
	assert.ErrorIs(t, ev.Validate(), domain.ErrInvalid)

	ev = domain.NewEvent(1, domain.EventType(99), "x")
	assert.ErrorIs(t, ev.Validate(), domain.ErrInvalid)
}

func TestValidate_ReportTimestampOnlyOnLSR(t *testing.T) {
	report := domain.Report{Hazard: domain.Hazard{Type: domain.HazardWind}, ReportTS: domaintest.Ptr(uint64(10))}

	lsr := domain.NewEvent(1, domain.EventNwsLsr, "lsr")
	lsr.Payload = &domain.ReportPayload{Report: report}
	assert.NoError(t, lsr.Validate())

	sn := domain.NewEvent(1, domain.EventSnReport, "sn")
	sn.Payload = &domain.ReportPayload{Report: report}
	assert.ErrorIs(t, sn.Validate(), domain.ErrInvalid)
}

func TestValidate_TorFlagsOnlyOnTornadoWarnings(t *testing.T) {
	w := domain.Warning{IssuedFor: "x", IsTorEmergency: domaintest.Ptr(false)}

	tor := domain.NewEvent(1, domain.EventNwsTor, "tor")
	tor.Payload = &domain.WarningPayload{Warning: w}
	assert.NoError(t, tor.Validate())

	svr := domain.NewEvent(1, domain.EventNwsSvr, "svr")
	svr.Payload = &domain.WarningPayload{Warning: w}
	assert.ErrorIs(t, svr.Validate(), domain.ErrInvalid)
}

func TestHazard_Validate(t *testing.T) {
	assert.NoError(t, domain.OtherHazard("dust storm").Validate())
	assert.NoError(t, domain.Hazard{Type: domain.HazardWaterspout}.Validate())
	assert.ErrorIs(t, domain.Hazard{Type: domain.HazardOther}.Validate(), domain.ErrInvalid)
	assert.ErrorIs(t, domain.Hazard{Type: domain.HazardHail, Kind: "big"}.Validate(), domain.ErrInvalid)
	assert.ErrorIs(t, domain.Hazard{Type: domain.HazardType(42)}.Validate(), domain.ErrInvalid)
}

func TestOutlook_MaxRiskMustMatchPolygons(t *testing.T) {
	polys := map[domain.OutlookRisk][]domain.Coordinates{
		domain.RiskSLGT: {{Lat: 1, Lon: 1}},
		domain.RiskENH:  {{Lat: 2, Lon: 2}},
	}

	bad := domain.Outlook{SwoType: domain.SwoDay2, MaxRisk: domain.RiskMDT, Polys: polys}
	err := bad.Validate()
	require.ErrorIs(t, err, domain.ErrInvalid)
	assert.Contains(t, err.Error(), "ENH")

	good := domain.NewOutlook(domain.SwoDay2, polys)
	assert.Equal(t, domain.RiskENH, good.MaxRisk)
	assert.NoError(t, good.Validate())

	ev := domain.NewEvent(1, domain.EventNwsSwo, "outlook")
	ev.Payload = &domain.OutlookPayload{Outlook: bad}
	assert.ErrorIs(t, ev.Validate(), domain.ErrInvalid)
}

func TestOutlook_EmptyPolygonsAllowAnyRisk(t *testing.T) {
	o := domain.Outlook{SwoType: domain.SwoDay48, MaxRisk: domain.RiskSLGT}
	assert.NoError(t, o.Validate())

	_, ok := o.HighestPolyRisk()
	assert.False(t, ok)
	assert.Equal(t, domain.RiskTSTM, domain.NewOutlook(domain.SwoDay3, nil).MaxRisk)
}

func TestDiscussion_ProbabilityRange(t *testing.T) {
	md := domain.MesoscaleDiscussion{Concerning: domain.MdUnknown, WatchIssuanceProbability: domaintest.Ptr(uint16(100))}
	assert.NoError(t, md.Validate())

	md.WatchIssuanceProbability = domaintest.Ptr(uint16(101))
	assert.ErrorIs(t, md.Validate(), domain.ErrInvalid)
}

func TestWatch_Transitions(t *testing.T) {
	tests := []struct {
		from, to domain.WatchStatus
		legal    bool
	}{
		{domain.WatchIssued, domain.WatchCancelled, true},
		{domain.WatchStatusUnknown, domain.WatchIssued, true},
		{domain.WatchStatusUnknown, domain.WatchCancelled, true},
		{domain.WatchCancelled, domain.WatchIssued, false},
		{domain.WatchIssued, domain.WatchStatusUnknown, false},
		{domain.WatchIssued, domain.WatchIssued, false},
		{domain.WatchCancelled, domain.WatchCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.legal, domain.CanTransition(tt.from, tt.to))

			w := domain.Watch{ID: 7, Status: tt.from}
			next, err := w.Transition(tt.to)
			if tt.legal {
				require.NoError(t, err)
				assert.Equal(t, tt.to, next.Status)
				assert.Equal(t, tt.from, w.Status, "original value is not modified")
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalid)
			}
		})
	}
}

func TestAllowedPayloads_ReturnsCopy(t *testing.T) {
	kinds := domain.AllowedPayloads(domain.EventNwsSwo)
	require.Len(t, kinds, 2)
	kinds[0] = domain.PayloadReport

	assert.Equal(t, []domain.PayloadKind{domain.PayloadOutlook, domain.PayloadDiscussion}, domain.AllowedPayloads(domain.EventNwsSwo))
}
