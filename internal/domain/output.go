package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// OutputEvent is the serialized form of a relayed event, ready for a sink.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// RelayMessage is the JSON document published for each relayed event.
type RelayMessage struct {
	Event EventRecord      `json:"event"`
	Place *GeocodingResult `json:"place,omitempty"`
}

// EventKey identifies an event by type and store ingest time. The store
// assigns distinct ingest timestamps, so the key is stable across replays.
func EventKey(event Event) string {
	return fmt.Sprintf("%s-%d", event.Type, event.IngestTS)
}

// SerializeEvent builds the sink message for an event with optional place
// enrichment.
func SerializeEvent(event Event, place *GeocodingResult) (OutputEvent, error) {
	data, err := json.Marshal(RelayMessage{Event: event.Record(), Place: place})
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize event: %w", err)
	}
	return OutputEvent{
		Key:   []byte(EventKey(event)),
		Value: data,
		Headers: map[string]string{
			"event_type": event.Type.String(),
			"event_ts":   strconv.FormatUint(event.EventTS, 10),
			"ingest_ts":  strconv.FormatUint(event.IngestTS, 10),
		},
	}, nil
}
