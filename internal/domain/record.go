package domain

import (
	"fmt"
)

// SchemaVersion is the version of EventRecord written by this module.
//
// History:
//
//	1: warnings carried IsTorEmergency/WasObserved as plain booleans on every
//	   warning type (false meant "not applicable"). Records without a
//	   version field are version 1.
//	2: TOR-only warning flags are absent for non-TOR events; Summary and
//	   ImageURI added.
const SchemaVersion uint8 = 2

// EventRecord is the slot layout an Event takes on the wire. At most one of
// Report, Warning, Watch, Outlook and MD is set; Location accompanies any of
// them except Outlook, or stands alone for area-only text products.
type EventRecord struct {
	Version   uint8     `cbor:"v,omitempty" json:"v,omitempty"`
	EventTS   uint64    `cbor:"event_ts" json:"event_ts"`
	EventType EventType `cbor:"event_type" json:"event_type"`
	Title     string    `cbor:"title" json:"title"`
	IngestTS  uint64    `cbor:"ingest_ts" json:"ingest_ts"`

	ExpiresTS *uint64 `cbor:"expires_ts,omitempty" json:"expires_ts,omitempty"`
	ValidTS   *uint64 `cbor:"valid_ts,omitempty" json:"valid_ts,omitempty"`
	Text      *string `cbor:"text,omitempty" json:"text,omitempty"`
	Summary   *string `cbor:"summary,omitempty" json:"summary,omitempty"`
	ExtURI    *string `cbor:"ext_uri,omitempty" json:"ext_uri,omitempty"`
	ImageURI  *string `cbor:"image_uri,omitempty" json:"image_uri,omitempty"`

	Location *Location            `cbor:"location,omitempty" json:"location,omitempty"`
	Report   *Report              `cbor:"report,omitempty" json:"report,omitempty"`
	Warning  *Warning             `cbor:"warning,omitempty" json:"warning,omitempty"`
	Watch    *Watch               `cbor:"watch,omitempty" json:"watch,omitempty"`
	Outlook  *Outlook             `cbor:"outlook,omitempty" json:"outlook,omitempty"`
	MD       *MesoscaleDiscussion `cbor:"md,omitempty" json:"md,omitempty"`
}

// Record converts e to the current wire layout. Payload values are copied so
// the record shares no structs with e.
func (e Event) Record() EventRecord {
	r := EventRecord{
		Version:   SchemaVersion,
		EventTS:   e.EventTS,
		EventType: e.Type,
		Title:     e.Title,
		IngestTS:  e.IngestTS,
		ExpiresTS: e.ExpiresTS,
		ValidTS:   e.ValidTS,
		Text:      e.Text,
		Summary:   e.Summary,
		ExtURI:    e.ExtURI,
		ImageURI:  e.ImageURI,
	}

	switch p := e.Payload.(type) {
	case *ReportPayload:
		if p != nil {
			rep := p.Report
			r.Report, r.Location = &rep, copyLocation(p.Location)
		}
	case *WarningPayload:
		if p != nil {
			w := p.Warning
			r.Warning, r.Location = &w, copyLocation(p.Location)
		}
	case *WatchPayload:
		if p != nil {
			w := p.Watch
			r.Watch, r.Location = &w, copyLocation(p.Location)
		}
	case *OutlookPayload:
		if p != nil {
			o := p.Outlook
			r.Outlook = &o
		}
	case *DiscussionPayload:
		if p != nil {
			md := p.Discussion
			r.MD, r.Location = &md, copyLocation(p.Location)
		}
	case *AreaPayload:
		if p != nil {
			r.Location = copyLocation(&p.Location)
		}
	}
	return r
}

// EventFromRecord upgrades r to the current schema and rebuilds the payload
// from its slots. Only the record's shape is checked: the event type must be
// known and its filled slot must be one the type allows. Field rules such as
// a non-empty title are left to Validate, so events that were accepted under
// older rules can still be read back.
func EventFromRecord(r EventRecord) (Event, error) {
	if err := upgradeRecord(&r); err != nil {
		return Event{}, err
	}

	payload, err := payloadFromSlots(r)
	if err != nil {
		return Event{}, err
	}

	ev := Event{
		EventTS:   r.EventTS,
		Type:      r.EventType,
		Title:     r.Title,
		IngestTS:  r.IngestTS,
		ExpiresTS: r.ExpiresTS,
		ValidTS:   r.ValidTS,
		Text:      r.Text,
		Summary:   r.Summary,
		ExtURI:    r.ExtURI,
		ImageURI:  r.ImageURI,
		Payload:   payload,
	}
	if err := ev.checkShape(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func payloadFromSlots(r EventRecord) (Payload, error) {
	filled := 0
	for _, set := range []bool{r.Report != nil, r.Warning != nil, r.Watch != nil, r.Outlook != nil, r.MD != nil} {
		if set {
			filled++
		}
	}
	if filled > 1 {
		return nil, fmt.Errorf("%w: %s record has %d payload slots", ErrInvalid, r.EventType, filled)
	}

	switch {
	case r.Report != nil:
		return &ReportPayload{Report: *r.Report, Location: r.Location}, nil
	case r.Warning != nil:
		return &WarningPayload{Warning: *r.Warning, Location: r.Location}, nil
	case r.Watch != nil:
		return &WatchPayload{Watch: *r.Watch, Location: r.Location}, nil
	case r.MD != nil:
		return &DiscussionPayload{Discussion: *r.MD, Location: r.Location}, nil
	case r.Outlook != nil:
		if r.Location != nil {
			return nil, fmt.Errorf("%w: outlook record carries a location", ErrInvalid)
		}
		return &OutlookPayload{Outlook: *r.Outlook}, nil
	case r.Location != nil:
		return &AreaPayload{Location: *r.Location}, nil
	default:
		return nil, nil
	}
}

// migrations upgrade a record from the keyed version to the next one.
var migrations = map[uint8]func(*EventRecord){
	0: upgradeV1,
	1: upgradeV1,
}

func upgradeRecord(r *EventRecord) error {
	if r.Version > SchemaVersion {
		return fmt.Errorf("%w: schema version %d is newer than supported %d", ErrInvalid, r.Version, SchemaVersion)
	}
	for r.Version < SchemaVersion {
		migrate, ok := migrations[r.Version]
		if !ok {
			return fmt.Errorf("%w: no migration from schema version %d", ErrInvalid, r.Version)
		}
		migrate(r)
	}
	return nil
}

// upgradeV1 drops the not-applicable TOR flags that version 1 wrote on every
// warning.
func upgradeV1(r *EventRecord) {
	if r.Warning != nil && r.EventType != EventNwsTor {
		w := *r.Warning
		w.IsTorEmergency = nil
		w.WasObserved = nil
		r.Warning = &w
	}
	r.Version = 2
}

func copyLocation(l *Location) *Location {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}
