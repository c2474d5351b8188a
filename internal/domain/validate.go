package domain

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalid marks an event or record that breaks a domain rule.
var ErrInvalid = errors.New("invalid event")

// allowedPayloads lists which payload kinds each event type may carry.
var allowedPayloads = map[EventType][]PayloadKind{
	EventSnReport: {PayloadReport},
	EventNwsLsr:   {PayloadReport},
	EventNwsTor:   {PayloadWarning},
	EventNwsSvr:   {PayloadWarning},
	EventNwsSvs:   {PayloadWarning},
	EventNwsFfw:   {PayloadWarning},
	EventNwsFlw:   {PayloadWarning},
	EventNwsSel:   {PayloadWatch, PayloadOutlook},
	EventNwsSev:   {PayloadWatch},
	EventNwsSwo:   {PayloadOutlook, PayloadDiscussion},
	EventNwsPts:   {PayloadOutlook},
	EventSpcSfcoa: {PayloadNone, PayloadArea},
	EventNwsAfd:   {PayloadNone, PayloadArea},
	EventNwsFfa:   {PayloadNone, PayloadArea},
	EventNwsFla:   {PayloadNone, PayloadArea},
}

// AllowedPayloads returns the payload kinds valid for t.
func AllowedPayloads(t EventType) []PayloadKind {
	return slices.Clone(allowedPayloads[t])
}

func payloadKind(p Payload) PayloadKind {
	if p == nil || p.isNil() {
		return PayloadNone
	}
	return p.Kind()
}

// Validate checks the cross-field rules of an event: the payload matches the
// event type and every nested value is consistent.
func (e Event) Validate() error {
	if err := e.checkShape(); err != nil {
		return err
	}
	if e.Title == "" {
		return fmt.Errorf("%w: %s event has no title", ErrInvalid, e.Type)
	}
	if payloadKind(e.Payload) == PayloadNone {
		return nil
	}

	switch p := e.Payload.(type) {
	case *ReportPayload:
		return p.Report.validate(e.Type)
	case *WarningPayload:
		return p.Warning.validate(e.Type)
	case *WatchPayload:
		return p.Watch.Validate()
	case *OutlookPayload:
		return p.Outlook.Validate()
	case *DiscussionPayload:
		return p.Discussion.Validate()
	}
	return nil
}

// checkShape checks only that the type is known and the payload kind is one
// the type may carry.
func (e Event) checkShape() error {
	if !e.Type.Valid() {
		return fmt.Errorf("%w: unknown event type %d", ErrInvalid, uint8(e.Type))
	}
	kind := payloadKind(e.Payload)
	if !slices.Contains(allowedPayloads[e.Type], kind) {
		return fmt.Errorf("%w: %s event cannot carry a %s payload", ErrInvalid, e.Type, kind)
	}
	return nil
}

func (r Report) validate(t EventType) error {
	if err := r.Hazard.Validate(); err != nil {
		return err
	}
	if r.Units != nil && !r.Units.Valid() {
		return fmt.Errorf("%w: unknown units %d", ErrInvalid, uint8(*r.Units))
	}
	if r.ReportTS != nil && t != EventNwsLsr {
		return fmt.Errorf("%w: report_ts is only valid on local storm reports, got %s", ErrInvalid, t)
	}
	return nil
}

// Validate checks that Kind is set exactly when the hazard is HazardOther.
func (h Hazard) Validate() error {
	if !h.Type.Valid() {
		return fmt.Errorf("%w: unknown hazard type %d", ErrInvalid, uint8(h.Type))
	}
	if h.Type == HazardOther && h.Kind == "" {
		return fmt.Errorf("%w: other hazard needs a kind", ErrInvalid)
	}
	if h.Type != HazardOther && h.Kind != "" {
		return fmt.Errorf("%w: %s hazard cannot carry kind %q", ErrInvalid, h.Type, h.Kind)
	}
	return nil
}

func (w Warning) validate(t EventType) error {
	if t != EventNwsTor && (w.IsTorEmergency != nil || w.WasObserved != nil) {
		return fmt.Errorf("%w: tornado emergency and observed flags are only valid on tornado warnings, got %s", ErrInvalid, t)
	}
	return nil
}

// Validate checks the enumerations of a watch.
func (w Watch) Validate() error {
	if !w.WatchType.Valid() {
		return fmt.Errorf("%w: unknown watch type %d", ErrInvalid, uint8(w.WatchType))
	}
	if !w.Status.Valid() {
		return fmt.Errorf("%w: unknown watch status %d", ErrInvalid, uint8(w.Status))
	}
	return nil
}

// Validate checks that MaxRisk equals the greatest risk with a polygon.
func (o Outlook) Validate() error {
	if !o.SwoType.Valid() {
		return fmt.Errorf("%w: unknown outlook type %d", ErrInvalid, uint8(o.SwoType))
	}
	if !o.MaxRisk.Valid() {
		return fmt.Errorf("%w: unknown risk %d", ErrInvalid, uint8(o.MaxRisk))
	}
	for risk := range o.Polys {
		if !risk.Valid() {
			return fmt.Errorf("%w: unknown polygon risk %d", ErrInvalid, uint8(risk))
		}
	}
	if highest, ok := o.HighestPolyRisk(); ok && highest != o.MaxRisk {
		return fmt.Errorf("%w: max risk %s does not match highest polygon risk %s", ErrInvalid, o.MaxRisk, highest)
	}
	return nil
}

// Validate checks the classification and the watch probability range.
func (md MesoscaleDiscussion) Validate() error {
	if !md.Concerning.Valid() {
		return fmt.Errorf("%w: unknown discussion classification %d", ErrInvalid, uint8(md.Concerning))
	}
	if p := md.WatchIssuanceProbability; p != nil && *p > 100 {
		return fmt.Errorf("%w: watch issuance probability %d exceeds 100", ErrInvalid, *p)
	}
	return nil
}

// Validate checks the producer enumeration.
func (f FetchFailure) Validate() error {
	if !f.App.Valid() {
		return fmt.Errorf("%w: unknown app %d", ErrInvalid, uint8(f.App))
	}
	return nil
}
