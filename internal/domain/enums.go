package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Enumeration values are wire codes. New variants are only ever appended;
// an existing code is never reassigned.

// EventType identifies the source feed product of an event and selects which
// payload the event may carry.
type EventType uint8

const (
	EventSnReport EventType = iota // spotter network report
	EventSpcSfcoa                  // SPC surface objective analysis
	EventNwsAfd                    // area forecast discussion
	EventNwsFfa                    // flood watch
	EventNwsFla                    // flood advisory
	EventNwsFfw                    // flash flood warning
	EventNwsFlw                    // flood warning
	EventNwsLsr                    // local storm report
	EventNwsPts                    // convective outlook points
	EventNwsSel                    // severe local storm watch
	EventNwsSev                    // watch status
	EventNwsSvr                    // severe thunderstorm warning
	EventNwsSvs                    // severe weather statement
	EventNwsSwo                    // convective outlook / mesoscale discussion
	EventNwsTor                    // tornado warning
)

var eventTypeNames = []string{
	"SnReport", "SpcSfcoa", "NwsAfd", "NwsFfa", "NwsFla", "NwsFfw", "NwsFlw",
	"NwsLsr", "NwsPts", "NwsSel", "NwsSev", "NwsSvr", "NwsSvs", "NwsSwo", "NwsTor",
}

func (t EventType) String() string { return enumString(t, eventTypeNames) }
func (t EventType) Valid() bool    { return int(t) < len(eventTypeNames) }

// ParseEventType resolves a name such as "NwsTor" (case-insensitive).
func ParseEventType(s string) (EventType, error) { return parseEnum[EventType](s, eventTypeNames) }

func (t EventType) MarshalJSON() ([]byte, error) { return marshalEnum(t, eventTypeNames) }
func (t *EventType) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, t, eventTypeNames)
}

// HazardType classifies a spotter or local storm report.
type HazardType uint8

const (
	HazardTornado HazardType = iota
	HazardFunnel
	HazardWallCloud
	HazardHail
	HazardWind
	HazardFlood
	HazardFlashFlood
	HazardOther
	HazardFreezingRain
	HazardSnow
	HazardDownburst
	HazardHeavyRain
	HazardMarineWind
	HazardLightning
	HazardWaterspout
	HazardWildfire
)

var hazardTypeNames = []string{
	"Tornado", "Funnel", "WallCloud", "Hail", "Wind", "Flood", "FlashFlood", "Other",
	"FreezingRain", "Snow", "Downburst", "HeavyRain", "MarineWind", "Lightning",
	"Waterspout", "Wildfire",
}

func (h HazardType) String() string { return enumString(h, hazardTypeNames) }
func (h HazardType) Valid() bool    { return int(h) < len(hazardTypeNames) }

func ParseHazardType(s string) (HazardType, error) { return parseEnum[HazardType](s, hazardTypeNames) }

func (h HazardType) MarshalJSON() ([]byte, error) { return marshalEnum(h, hazardTypeNames) }
func (h *HazardType) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, h, hazardTypeNames)
}

// Units of a report magnitude.
type Units uint8

const (
	UnitsKnots Units = iota
	UnitsMph
	UnitsInches
)

var unitsNames = []string{"Knots", "Mph", "Inches"}

func (u Units) String() string { return enumString(u, unitsNames) }
func (u Units) Valid() bool    { return int(u) < len(unitsNames) }

func ParseUnits(s string) (Units, error) { return parseEnum[Units](s, unitsNames) }

func (u Units) MarshalJSON() ([]byte, error) { return marshalEnum(u, unitsNames) }
func (u *Units) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, u, unitsNames)
}

// WatchType is the kind of SPC watch.
type WatchType uint8

const (
	WatchTornado WatchType = iota
	WatchSevereThunderstorm
	WatchOther
)

var watchTypeNames = []string{"Tornado", "SevereThunderstorm", "Other"}

func (w WatchType) String() string { return enumString(w, watchTypeNames) }
func (w WatchType) Valid() bool    { return int(w) < len(watchTypeNames) }

func ParseWatchType(s string) (WatchType, error) { return parseEnum[WatchType](s, watchTypeNames) }

func (w WatchType) MarshalJSON() ([]byte, error) { return marshalEnum(w, watchTypeNames) }
func (w *WatchType) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, w, watchTypeNames)
}

// WatchStatus is the lifecycle state of a watch. See CanTransition.
type WatchStatus uint8

const (
	WatchIssued WatchStatus = iota
	WatchCancelled
	WatchStatusUnknown
)

var watchStatusNames = []string{"Issued", "Cancelled", "Unknown"}

func (s WatchStatus) String() string { return enumString(s, watchStatusNames) }
func (s WatchStatus) Valid() bool    { return int(s) < len(watchStatusNames) }

func ParseWatchStatus(s string) (WatchStatus, error) {
	return parseEnum[WatchStatus](s, watchStatusNames)
}

func (s WatchStatus) MarshalJSON() ([]byte, error) { return marshalEnum(s, watchStatusNames) }
func (s *WatchStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, s, watchStatusNames)
}

// SwoType is the convective outlook product.
type SwoType uint8

const (
	SwoDay1 SwoType = iota
	SwoDay2
	SwoDay3
	SwoDay48
	SwoMesoscaleDiscussion
	SwoUnknown
)

var swoTypeNames = []string{"Day1", "Day2", "Day3", "Day48", "MesoscaleDiscussion", "Unknown"}

func (s SwoType) String() string { return enumString(s, swoTypeNames) }
func (s SwoType) Valid() bool    { return int(s) < len(swoTypeNames) }

func ParseSwoType(s string) (SwoType, error) { return parseEnum[SwoType](s, swoTypeNames) }

func (s SwoType) MarshalJSON() ([]byte, error) { return marshalEnum(s, swoTypeNames) }
func (s *SwoType) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, s, swoTypeNames)
}

// OutlookRisk is a categorical risk level. Values are totally ordered:
// TSTM < MRGL < SLGT < ENH < MDT < HIGH, so ordinary integer comparison applies.
type OutlookRisk uint8

const (
	RiskTSTM OutlookRisk = iota
	RiskMRGL
	RiskSLGT
	RiskENH
	RiskMDT
	RiskHIGH
)

var outlookRiskNames = []string{"TSTM", "MRGL", "SLGT", "ENH", "MDT", "HIGH"}

func (r OutlookRisk) String() string { return enumString(r, outlookRiskNames) }
func (r OutlookRisk) Valid() bool    { return int(r) < len(outlookRiskNames) }

func ParseOutlookRisk(s string) (OutlookRisk, error) {
	return parseEnum[OutlookRisk](s, outlookRiskNames)
}

func (r OutlookRisk) MarshalJSON() ([]byte, error) { return marshalEnum(r, outlookRiskNames) }
func (r *OutlookRisk) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, r, outlookRiskNames)
}

// MdConcerning is what a mesoscale discussion is about.
type MdConcerning uint8

const (
	MdExistingTorWatch MdConcerning = iota
	MdExistingSvrWatch
	MdNewTorWatch
	MdNewSvrWatch
	MdUnknown
)

var mdConcerningNames = []string{
	"ExistingTorWatch", "ExistingSvrWatch", "NewTorWatch", "NewSvrWatch", "Unknown",
}

func (c MdConcerning) String() string { return enumString(c, mdConcerningNames) }
func (c MdConcerning) Valid() bool    { return int(c) < len(mdConcerningNames) }

func ParseMdConcerning(s string) (MdConcerning, error) {
	return parseEnum[MdConcerning](s, mdConcerningNames)
}

func (c MdConcerning) MarshalJSON() ([]byte, error) { return marshalEnum(c, mdConcerningNames) }
func (c *MdConcerning) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, c, mdConcerningNames)
}

// WxApp names a producer process that records fetch failures.
type WxApp uint8

const (
	AppSpotterNetworkLoader WxApp = iota
	AppNwsAPILoader
	AppSpcSfcoaLoader
	AppFetchFailureLoader
	AppAdmin
)

var wxAppNames = []string{
	"SpotterNetworkLoader", "NwsApiLoader", "SpcSfcoaLoader", "FetchFailureLoader", "Admin",
}

func (a WxApp) String() string { return enumString(a, wxAppNames) }
func (a WxApp) Valid() bool    { return int(a) < len(wxAppNames) }

func ParseWxApp(s string) (WxApp, error) { return parseEnum[WxApp](s, wxAppNames) }

func (a WxApp) MarshalJSON() ([]byte, error) { return marshalEnum(a, wxAppNames) }
func (a *WxApp) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, a, wxAppNames)
}

// --- shared enum plumbing ---

func enumString[T ~uint8](v T, names []string) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%T(%d)", v, uint8(v))
}

func parseEnum[T ~uint8](s string, names []string) (T, error) {
	s = strings.TrimSpace(s)
	for i, name := range names {
		if strings.EqualFold(name, s) {
			return T(i), nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %T %q", zero, s)
}

func marshalEnum[T ~uint8](v T, names []string) ([]byte, error) {
	if int(v) >= len(names) {
		return nil, fmt.Errorf("marshal %T: invalid value %d", v, uint8(v))
	}
	return json.Marshal(names[v])
}

func unmarshalEnum[T ~uint8](b []byte, dst *T, names []string) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := parseEnum[T](s, names)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
