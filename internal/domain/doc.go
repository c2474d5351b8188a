// Package domain models the severe-weather events held by the event store.
//
// # Events
//
// An [Event] is one product from an upstream feed: a spotter network report,
// an NWS warning, an SPC watch, outlook or mesoscale discussion, and so on.
// The [EventType] is the discriminator; it selects which [Payload] the event
// may carry:
//
//	SnReport, NwsLsr                       report
//	NwsTor, NwsSvr, NwsSvs, NwsFfw, NwsFlw warning
//	NwsSel                                 watch or outlook
//	NwsSev                                 watch
//	NwsSwo                                 outlook or mesoscale discussion
//	NwsPts                                 outlook
//	SpcSfcoa, NwsAfd, NwsFfa, NwsFla       area location or nothing
//
// [Event.Validate] enforces this table together with the cross-field rules of
// each payload: report timestamps only on local storm reports, tornado
// emergency flags only on tornado warnings, outlook max risk equal to the
// highest risk that has a polygon.
//
// # Time
//
// All timestamps are microseconds since the Unix epoch ("ticks"). EventTS is
// the logical time of the weather event; IngestTS is assigned by the store
// when it records the event and is the ordering key for incremental reads.
//
// # Wire schema
//
// Events cross the wire as an [EventRecord]: a flat slot layout (location,
// report, warning, watch, outlook, md) tagged with a schema version. Records
// written by older producers are upgraded by [EventFromRecord] through an
// explicit migration chain before validation, so stored data never has to be
// rewritten when the schema moves on. Enumeration codes are append-only.
package domain
