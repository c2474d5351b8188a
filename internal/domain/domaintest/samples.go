// Package domaintest provides fully populated sample events for tests that
// need to exercise every payload shape.
package domaintest

import "github.com/couchcryptid/wxstore-client/internal/domain"

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// Base ingest time for samples: 2019-05-20T22:45:00Z in microseconds.
const BaseTS uint64 = 1558392300000000

// SpotterReport is a spotter network hail report with a point location.
func SpotterReport() domain.Event {
	ev := domain.NewEvent(BaseTS, domain.EventSnReport, "Hail 1.75in near Norman, OK")
	ev.IngestTS = BaseTS + 10
	ev.Text = Ptr("Quarter to golf ball hail")
	ev.Payload = &domain.ReportPayload{
		Report: domain.Report{
			Reporter:    "J. Spotter",
			Hazard:      domain.Hazard{Type: domain.HazardHail},
			Magnitude:   Ptr(float32(1.75)),
			Units:       Ptr(domain.UnitsInches),
			WasMeasured: Ptr(true),
		},
		Location: &domain.Location{
			Point: &domain.Coordinates{Lat: 35.2226, Lon: -97.4395},
		},
	}
	return ev
}

// DustStormReport is a local storm report with a free-form hazard.
func DustStormReport() domain.Event {
	ev := domain.NewEvent(BaseTS+1, domain.EventNwsLsr, "Dust storm 3 W Lubbock")
	ev.IngestTS = BaseTS + 11
	ev.Payload = &domain.ReportPayload{
		Report: domain.Report{
			Reporter: "LUB",
			Hazard:   domain.OtherHazard("dust storm"),
			ReportTS: Ptr(BaseTS - 600_000_000),
		},
		Location: &domain.Location{
			WFO:    Ptr("LUB"),
			Point:  &domain.Coordinates{Lat: 33.58, Lon: -101.93},
			County: Ptr("Lubbock"),
		},
	}
	return ev
}

// TornadoWarning is a PDS tornado warning with a storm-based polygon.
func TornadoWarning() domain.Event {
	ev := domain.NewEvent(BaseTS+2, domain.EventNwsTor, "Tornado Warning for Cleveland County")
	ev.IngestTS = BaseTS + 12
	ev.ExpiresTS = Ptr(BaseTS + 2_700_000_000)
	ev.ExtURI = Ptr("https://api.weather.gov/alerts/urn:oid:2.49.0.1.840.0.1")
	ev.Payload = &domain.WarningPayload{
		Warning: domain.Warning{
			IsPDS:          true,
			IsTorEmergency: Ptr(false),
			WasObserved:    Ptr(true),
			IssuedFor:      "Central Cleveland County",
			MotionDeg:      Ptr(uint16(235)),
			MotionKt:       Ptr(uint16(30)),
			Source:         Ptr("radar confirmed tornado"),
			Time:           "2019-05-20T22:45:00-05:00",
		},
		Location: &domain.Location{
			WFO: Ptr("OUN"),
			Poly: []domain.Coordinates{
				{Lat: 35.19, Lon: -97.52},
				{Lat: 35.30, Lon: -97.31},
				{Lat: 35.21, Lon: -97.22},
				{Lat: 35.11, Lon: -97.44},
			},
		},
	}
	return ev
}

// SevereThunderstormWarning carries no TOR-only flags.
func SevereThunderstormWarning() domain.Event {
	ev := domain.NewEvent(BaseTS+3, domain.EventNwsSvr, "Severe Thunderstorm Warning for Grady County")
	ev.IngestTS = BaseTS + 13
	ev.Payload = &domain.WarningPayload{
		Warning: domain.Warning{
			IssuedFor: "Northern Grady County",
			Time:      "2019-05-20T22:50:00-05:00",
		},
	}
	return ev
}

// TornadoWatch is an issued PDS tornado watch.
func TornadoWatch() domain.Event {
	ev := domain.NewEvent(BaseTS+4, domain.EventNwsSel, "Tornado Watch 199")
	ev.IngestTS = BaseTS + 14
	ev.Payload = &domain.WatchPayload{
		Watch: domain.Watch{
			ID:        199,
			IsPDS:     true,
			WatchType: domain.WatchTornado,
			Status:    domain.WatchIssued,
			IssuedFor: Ptr("Central and Eastern Oklahoma"),
		},
	}
	return ev
}

// Day1Outlook is a high-risk day 1 convective outlook.
func Day1Outlook() domain.Event {
	ev := domain.NewEvent(BaseTS+5, domain.EventNwsSwo, "SPC Day 1 Convective Outlook")
	ev.IngestTS = BaseTS + 15
	ev.ValidTS = Ptr(BaseTS)
	ev.ImageURI = Ptr("https://www.spc.noaa.gov/products/outlook/day1otlk.gif")
	ev.Payload = &domain.OutlookPayload{
		Outlook: domain.NewOutlook(domain.SwoDay1, map[domain.OutlookRisk][]domain.Coordinates{
			domain.RiskSLGT: {{Lat: 37.0, Lon: -100.0}, {Lat: 32.0, Lon: -95.0}, {Lat: 30.0, Lon: -99.0}},
			domain.RiskMDT:  {{Lat: 36.0, Lon: -98.5}, {Lat: 34.0, Lon: -96.0}, {Lat: 33.5, Lon: -98.0}},
			domain.RiskHIGH: {{Lat: 35.5, Lon: -98.0}, {Lat: 34.5, Lon: -96.8}, {Lat: 34.2, Lon: -97.9}},
		}),
	}
	return ev
}

// Discussion is a mesoscale discussion concerning a new tornado watch.
func Discussion() domain.Event {
	ev := domain.NewEvent(BaseTS+6, domain.EventNwsSwo, "Mesoscale Discussion 0734")
	ev.IngestTS = BaseTS + 16
	ev.Summary = Ptr("Tornado watch likely within the hour")
	ev.Payload = &domain.DiscussionPayload{
		Discussion: domain.MesoscaleDiscussion{
			ID:                       734,
			Affected:                 "Central Oklahoma",
			Concerning:               domain.MdNewTorWatch,
			WatchIssuanceProbability: Ptr(uint16(95)),
			WFOs:                     []string{"OUN", "TSA"},
		},
	}
	return ev
}

// AreaForecastDiscussion is a text product with an office-only location.
func AreaForecastDiscussion() domain.Event {
	ev := domain.NewEvent(BaseTS+7, domain.EventNwsAfd, "Area Forecast Discussion")
	ev.IngestTS = BaseTS + 17
	ev.Text = Ptr(".SHORT TERM... Storms expected this afternoon.")
	ev.Payload = &domain.AreaPayload{Location: domain.Location{WFO: Ptr("OUN")}}
	return ev
}

// FloodWatch is a text-only product.
func FloodWatch() domain.Event {
	ev := domain.NewEvent(BaseTS+8, domain.EventNwsFfa, "Flood Watch")
	ev.IngestTS = BaseTS + 18
	ev.Text = Ptr("Flood watch in effect through Tuesday morning")
	return ev
}

// All returns one sample of every payload shape.
func All() []domain.Event {
	return []domain.Event{
		SpotterReport(),
		DustStormReport(),
		TornadoWarning(),
		SevereThunderstormWarning(),
		TornadoWatch(),
		Day1Outlook(),
		Discussion(),
		AreaForecastDiscussion(),
		FloodWatch(),
	}
}
