package domain

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	recordEncMode cbor.EncMode
	recordDecMode cbor.DecMode
)

func init() {
	var err error
	recordEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("domain: build record encoder: %v", err))
	}
	recordDecMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("domain: build record decoder: %v", err))
	}
}

// Event is a single weather alert or report held by the store.
//
// Events are values: the store never mutates one after it is recorded, and a
// correction arrives as a new event with a new IngestTS. Timestamps are
// microseconds since the Unix epoch.
type Event struct {
	EventTS  uint64
	Type     EventType
	Title    string
	IngestTS uint64

	ExpiresTS *uint64
	ValidTS   *uint64
	Text      *string
	Summary   *string
	ExtURI    *string
	ImageURI  *string

	// Payload holds the structured data for Type. A nil payload is valid
	// only for text products (see AllowedPayloads).
	Payload Payload
}

// NewEvent returns an event without payload or optional fields. IngestTS is
// left at zero; the store assigns it.
func NewEvent(eventTS uint64, eventType EventType, title string) Event {
	return Event{EventTS: eventTS, Type: eventType, Title: title}
}

// Location returns the location carried by the payload, if any.
func (e Event) Location() *Location {
	switch p := e.Payload.(type) {
	case *ReportPayload:
		if p != nil {
			return p.Location
		}
	case *WarningPayload:
		if p != nil {
			return p.Location
		}
	case *WatchPayload:
		if p != nil {
			return p.Location
		}
	case *DiscussionPayload:
		if p != nil {
			return p.Location
		}
	case *AreaPayload:
		if p != nil {
			return &p.Location
		}
	}
	return nil
}

// MarshalCBOR encodes e in its EventRecord layout, so an Event stored as an
// opaque value reads back exactly like one returned by the event commands.
func (e Event) MarshalCBOR() ([]byte, error) {
	return recordEncMode.Marshal(e.Record())
}

func (e *Event) UnmarshalCBOR(b []byte) error {
	var rec EventRecord
	if err := recordDecMode.Unmarshal(b, &rec); err != nil {
		return err
	}
	ev, err := EventFromRecord(rec)
	if err != nil {
		return err
	}
	*e = ev
	return nil
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Record())
}

func (e *Event) UnmarshalJSON(b []byte) error {
	var rec EventRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	ev, err := EventFromRecord(rec)
	if err != nil {
		return err
	}
	*e = ev
	return nil
}

// PayloadKind discriminates the Payload union.
type PayloadKind uint8

const (
	PayloadNone PayloadKind = iota
	PayloadReport
	PayloadWarning
	PayloadWatch
	PayloadOutlook
	PayloadDiscussion
	PayloadArea
)

var payloadKindNames = []string{"none", "report", "warning", "watch", "outlook", "discussion", "area"}

func (k PayloadKind) String() string { return enumString(k, payloadKindNames) }

// Payload is the type-specific part of an event. The set of implementations
// is closed to this package.
type Payload interface {
	Kind() PayloadKind
	isNil() bool
}

// ReportPayload carries a spotter report or local storm report.
type ReportPayload struct {
	Report   Report
	Location *Location
}

// WarningPayload carries a warning or statement product.
type WarningPayload struct {
	Warning  Warning
	Location *Location
}

// WatchPayload carries an SPC watch.
type WatchPayload struct {
	Watch    Watch
	Location *Location
}

// OutlookPayload carries a convective outlook.
type OutlookPayload struct {
	Outlook Outlook
}

// DiscussionPayload carries a mesoscale discussion.
type DiscussionPayload struct {
	Discussion MesoscaleDiscussion
	Location   *Location
}

// AreaPayload attaches only a location to a text product.
type AreaPayload struct {
	Location Location
}

func (*ReportPayload) Kind() PayloadKind     { return PayloadReport }
func (*WarningPayload) Kind() PayloadKind    { return PayloadWarning }
func (*WatchPayload) Kind() PayloadKind      { return PayloadWatch }
func (*OutlookPayload) Kind() PayloadKind    { return PayloadOutlook }
func (*DiscussionPayload) Kind() PayloadKind { return PayloadDiscussion }
func (*AreaPayload) Kind() PayloadKind       { return PayloadArea }

func (p *ReportPayload) isNil() bool     { return p == nil }
func (p *WarningPayload) isNil() bool    { return p == nil }
func (p *WatchPayload) isNil() bool      { return p == nil }
func (p *OutlookPayload) isNil() bool    { return p == nil }
func (p *DiscussionPayload) isNil() bool { return p == nil }
func (p *AreaPayload) isNil() bool       { return p == nil }

// Location is where an event applies. All parts are optional.
type Location struct {
	WFO    *string       `cbor:"wfo,omitempty" json:"wfo,omitempty"`
	Point  *Coordinates  `cbor:"point,omitempty" json:"point,omitempty"`
	Poly   []Coordinates `cbor:"poly" json:"poly,omitempty"`
	County *string       `cbor:"county,omitempty" json:"county,omitempty"`
}

// Coordinates are WGS-84 degrees. No range validation is applied.
type Coordinates struct {
	Lat float32 `cbor:"lat" json:"lat"`
	Lon float32 `cbor:"lon" json:"lon"`
}

// Hazard is a report's hazard. Kind names the hazard when Type is
// HazardOther and is empty for every other type.
type Hazard struct {
	Type HazardType `cbor:"type" json:"type"`
	Kind string     `cbor:"kind,omitempty" json:"kind,omitempty"`
}

// OtherHazard returns a HazardOther with the given description.
func OtherHazard(kind string) Hazard {
	return Hazard{Type: HazardOther, Kind: kind}
}

func (h Hazard) String() string {
	if h.Type == HazardOther {
		return fmt.Sprintf("Other(%s)", h.Kind)
	}
	return h.Type.String()
}

// Report is a spotter network report or an NWS local storm report.
type Report struct {
	Reporter    string   `cbor:"reporter" json:"reporter"`
	Hazard      Hazard   `cbor:"hazard" json:"hazard"`
	Magnitude   *float32 `cbor:"magnitude,omitempty" json:"magnitude,omitempty"`
	Units       *Units   `cbor:"units,omitempty" json:"units,omitempty"`
	WasMeasured *bool    `cbor:"was_measured,omitempty" json:"was_measured,omitempty"`
	// ReportTS is set only for local storm reports.
	ReportTS *uint64 `cbor:"report_ts,omitempty" json:"report_ts,omitempty"`
}

// Warning holds the text fields of a warning product.
type Warning struct {
	IsPDS bool `cbor:"is_pds" json:"is_pds"`
	// IsTorEmergency and WasObserved are meaningful only for tornado
	// warnings and must be nil otherwise.
	IsTorEmergency *bool   `cbor:"is_tor_emergency,omitempty" json:"is_tor_emergency,omitempty"`
	WasObserved    *bool   `cbor:"was_observed,omitempty" json:"was_observed,omitempty"`
	IssuedFor      string  `cbor:"issued_for" json:"issued_for"`
	MotionDeg      *uint16 `cbor:"motion_deg,omitempty" json:"motion_deg,omitempty"`
	MotionKt       *uint16 `cbor:"motion_kt,omitempty" json:"motion_kt,omitempty"`
	Source         *string `cbor:"source,omitempty" json:"source,omitempty"`
	// Time is the literal timestamp string from the feed.
	Time string `cbor:"time" json:"time"`
}

// Watch is an SPC tornado or severe thunderstorm watch.
type Watch struct {
	ID        uint16      `cbor:"id" json:"id"`
	IsPDS     bool        `cbor:"is_pds" json:"is_pds"`
	WatchType WatchType   `cbor:"watch_type" json:"watch_type"`
	Status    WatchStatus `cbor:"status" json:"status"`
	IssuedFor *string     `cbor:"issued_for,omitempty" json:"issued_for,omitempty"`
}

// CanTransition reports whether a watch may move from one status to another.
// Issued may become Cancelled. Unknown, the degraded state produced by feed
// parsing, may resolve to Issued or Cancelled. Nothing else is legal.
func CanTransition(from, to WatchStatus) bool {
	switch from {
	case WatchIssued:
		return to == WatchCancelled
	case WatchStatusUnknown:
		return to == WatchIssued || to == WatchCancelled
	default:
		return false
	}
}

// Transition returns a copy of w with the new status.
func (w Watch) Transition(to WatchStatus) (Watch, error) {
	if !CanTransition(w.Status, to) {
		return w, fmt.Errorf("%w: watch %d cannot move from %s to %s", ErrInvalid, w.ID, w.Status, to)
	}
	w.Status = to
	return w, nil
}

// Outlook is a convective outlook with one boundary polygon per risk level.
type Outlook struct {
	SwoType SwoType                       `cbor:"swo_type"`
	MaxRisk OutlookRisk                   `cbor:"max_risk"`
	Polys   map[OutlookRisk][]Coordinates `cbor:"polys"`
}

// NewOutlook builds an outlook whose MaxRisk is derived from polys. With no
// polygons MaxRisk is TSTM.
func NewOutlook(swoType SwoType, polys map[OutlookRisk][]Coordinates) Outlook {
	o := Outlook{SwoType: swoType, Polys: polys}
	if risk, ok := o.HighestPolyRisk(); ok {
		o.MaxRisk = risk
	}
	return o
}

// HighestPolyRisk returns the greatest risk level that has a polygon.
func (o Outlook) HighestPolyRisk() (OutlookRisk, bool) {
	var (
		highest OutlookRisk
		found   bool
	)
	for risk := range o.Polys {
		if !found || risk > highest {
			highest = risk
			found = true
		}
	}
	return highest, found
}

type outlookJSON struct {
	SwoType SwoType                  `json:"swo_type"`
	MaxRisk OutlookRisk              `json:"max_risk"`
	Polys   map[string][]Coordinates `json:"polys,omitempty"`
}

// MarshalJSON keys the polygon map by risk name ("SLGT") instead of code.
func (o Outlook) MarshalJSON() ([]byte, error) {
	out := outlookJSON{SwoType: o.SwoType, MaxRisk: o.MaxRisk}
	if o.Polys != nil {
		out.Polys = make(map[string][]Coordinates, len(o.Polys))
		for risk, poly := range o.Polys {
			if !risk.Valid() {
				return nil, fmt.Errorf("marshal outlook: invalid risk %d", uint8(risk))
			}
			out.Polys[risk.String()] = poly
		}
	}
	return json.Marshal(out)
}

func (o *Outlook) UnmarshalJSON(b []byte) error {
	var in outlookJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	o.SwoType = in.SwoType
	o.MaxRisk = in.MaxRisk
	o.Polys = nil
	if in.Polys != nil {
		o.Polys = make(map[OutlookRisk][]Coordinates, len(in.Polys))
		for name, poly := range in.Polys {
			risk, err := ParseOutlookRisk(name)
			if err != nil {
				return err
			}
			o.Polys[risk] = poly
		}
	}
	return nil
}

// MesoscaleDiscussion is an SPC mesoscale discussion.
type MesoscaleDiscussion struct {
	ID         uint16       `cbor:"id" json:"id"`
	Affected   string       `cbor:"affected" json:"affected"`
	Concerning MdConcerning `cbor:"concerning" json:"concerning"`
	// WatchIssuanceProbability is a percentage, 0-100.
	WatchIssuanceProbability *uint16  `cbor:"watch_issuance_probability,omitempty" json:"watch_issuance_probability,omitempty"`
	WFOs                     []string `cbor:"wfos" json:"wfos"`
}

// FetchFailure records that a producer failed to retrieve upstream data.
// The store keeps these append-only; clients only aggregate them.
type FetchFailure struct {
	App      WxApp  `cbor:"app" json:"app"`
	IngestTS uint64 `cbor:"ingest_ts" json:"ingest_ts"`
}
