package rpc

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/couchcryptid/wxstore-client/internal/codec"
	"github.com/couchcryptid/wxstore-client/internal/domain"
	"github.com/couchcryptid/wxstore-client/internal/wxerr"
)

// PutRequest is the outer envelope of a put: the key and the separately
// encoded value.
type PutRequest struct {
	_     struct{} `cbor:",toarray"`
	Key   string
	Value []byte
}

// Handler executes store commands on the responder side.
type Handler interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	PutEvent(ctx context.Context, event domain.Event) (uint64, error)
	// GetEvents returns events with IngestTS > since.
	GetEvents(ctx context.Context, since uint64) ([]domain.Event, error)
	GetAllEvents(ctx context.Context) ([]domain.Event, error)
	PutFetchFailure(ctx context.Context, failure domain.FetchFailure) error
	GetFetchFailures(ctx context.Context) ([]domain.FetchFailure, error)
}

// ack is the success payload of commands without a result: an encoded null,
// which keeps every reply at least two bytes long.
var ack = []byte{0xf6}

// HandleRequest decodes one request, runs it against h and returns the
// framed reply. It never fails; every problem becomes an error reply.
func HandleRequest(ctx context.Context, h Handler, request []byte) []byte {
	if len(request) == 0 {
		return errorReply(errors.New("empty request"))
	}
	cmd, ok := codec.ParseCommand(request[0])
	if !ok {
		return errorReply(fmt.Errorf("unknown command %d", request[0]))
	}
	payload, err := dispatch(ctx, h, cmd, request[1:])
	if err != nil {
		return errorReply(err)
	}
	return append([]byte{codec.StatusOK.Byte()}, payload...)
}

func dispatch(ctx context.Context, h Handler, cmd codec.Command, payload []byte) ([]byte, error) {
	switch cmd {
	case codec.CmdPut:
		req, err := codec.Decode[PutRequest](payload)
		if err != nil {
			return nil, err
		}
		if err := codec.Valid(req.Value); err != nil {
			return nil, err
		}
		return ack, h.Put(ctx, req.Key, req.Value)

	case codec.CmdGet:
		key, err := codec.Decode[string](payload)
		if err != nil {
			return nil, err
		}
		return h.Get(ctx, key)

	case codec.CmdPutEvent:
		rec, err := codec.Decode[domain.EventRecord](payload)
		if err != nil {
			return nil, err
		}
		event, err := domain.EventFromRecord(rec)
		if err != nil {
			return nil, err
		}
		if err := event.Validate(); err != nil {
			return nil, err
		}
		ts, err := h.PutEvent(ctx, event)
		if err != nil {
			return nil, err
		}
		return codec.Encode(ts)

	case codec.CmdGetEvents:
		since, err := parseSince(payload)
		if err != nil {
			return nil, err
		}
		events, err := h.GetEvents(ctx, since)
		if err != nil {
			return nil, err
		}
		return encodeEvents(events)

	case codec.CmdGetAllEvents:
		events, err := h.GetAllEvents(ctx)
		if err != nil {
			return nil, err
		}
		return encodeEvents(events)

	case codec.CmdPutFetchFailure:
		failure, err := codec.Decode[domain.FetchFailure](payload)
		if err != nil {
			return nil, err
		}
		if err := failure.Validate(); err != nil {
			return nil, err
		}
		return ack, h.PutFetchFailure(ctx, failure)

	case codec.CmdGetFetchFailures:
		failures, err := h.GetFetchFailures(ctx)
		if err != nil {
			return nil, err
		}
		if failures == nil {
			failures = []domain.FetchFailure{}
		}
		return codec.Encode(failures)
	}
	return nil, fmt.Errorf("unhandled command %s", cmd)
}

// parseSince reads the GetEvents lower bound: empty means zero, otherwise an
// encoded decimal string.
func parseSince(payload []byte) (uint64, error) {
	if len(payload) == 0 {
		return 0, nil
	}
	s, err := codec.Decode[string](payload)
	if err != nil {
		return 0, err
	}
	since, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, wxerr.Parse("get_events since", err)
	}
	return since, nil
}

func encodeEvents(events []domain.Event) ([]byte, error) {
	records := make([]domain.EventRecord, len(events))
	for i, ev := range events {
		records[i] = ev.Record()
	}
	return codec.Encode(records)
}

func errorReply(err error) []byte {
	msg := err.Error()
	var e *wxerr.Error
	if errors.As(err, &e) && e.Kind == wxerr.KindApplication {
		msg = e.Msg
	}
	if msg == "" {
		msg = "request failed"
	}
	return append([]byte{codec.StatusError.Byte()}, msg...)
}

// LocalTransport serves requests in process by calling HandleRequest on
// Handler. It is used by tests and by tools that embed a store.
type LocalTransport struct {
	Handler Handler
}

func (t LocalTransport) RoundTrip(ctx context.Context, request []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, wxerr.Transport("local round trip", err)
	}
	return HandleRequest(ctx, t.Handler, request), nil
}

func (LocalTransport) Close() error { return nil }
