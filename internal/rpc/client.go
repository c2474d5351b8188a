// Package rpc implements the store's command/status protocol.
//
// A request is one message: a command byte followed by the codec-encoded
// request payload (possibly empty). The reply is one message: a status byte
// followed by the codec-encoded result, or by a raw UTF-8 error message when
// the status is StatusError.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/couchcryptid/wxstore-client/internal/codec"
	"github.com/couchcryptid/wxstore-client/internal/domain"
	"github.com/couchcryptid/wxstore-client/internal/wxerr"
)

// DefaultTimeout bounds the wait for each reply.
const DefaultTimeout = time.Second

const (
	msgInvalidResponse = "invalid response payload"
	msgUnknownResponse = "unknown response payload"
)

var errInvalidUTF8 = errors.New("error message is not valid UTF-8")

// Transport carries one request message and returns exactly one reply.
// Implementations must honor the context deadline.
type Transport interface {
	RoundTrip(ctx context.Context, request []byte) ([]byte, error)
	Close() error
}

// Observer is notified after every call. outcome is "ok" or the error kind.
type Observer interface {
	ObserveCall(command, outcome string, elapsed time.Duration)
}

// Client is a synchronous store client. It is safe for concurrent use; calls
// are serialized so at most one request is outstanding on the transport.
type Client struct {
	mu        sync.Mutex
	transport Transport
	timeout   time.Duration
	observer  Observer
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-call reply timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithObserver reports each call to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New returns a client that owns transport.
func New(transport Transport, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, errors.New("rpc: nil transport")
	}
	c := &Client{transport: transport, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout <= 0 {
		return nil, fmt.Errorf("rpc: timeout must be positive, got %s", c.timeout)
	}
	return c, nil
}

// Close releases the transport.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport.Close()
}

// Put stores value under key. The value is encoded on its own and the
// resulting bytes are wrapped in a second envelope with the key, so the store
// keeps values of any shape as opaque blobs.
func (c *Client) Put(ctx context.Context, key string, value any) error {
	const op = "rpc.put"
	inner, err := codec.Encode(value)
	if err != nil {
		return wxerr.Serialization(op, err)
	}
	payload, err := codec.Encode(PutRequest{Key: key, Value: inner})
	if err != nil {
		return wxerr.Serialization(op, err)
	}
	_, err = c.call(ctx, codec.CmdPut, payload)
	return err
}

// Get returns the bytes stored under key exactly as the store replied with
// them after the status byte. Use GetAs to decode them.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := codec.Encode(key)
	if err != nil {
		return nil, wxerr.Serialization("rpc.get", err)
	}
	return c.call(ctx, codec.CmdGet, payload)
}

// GetAs fetches key and decodes the stored value as a T.
func GetAs[T any](ctx context.Context, c *Client, key string) (T, error) {
	raw, err := c.Get(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	return codec.Decode[T](raw)
}

// PutEvent validates and submits one event. It returns the ingest timestamp
// the store recorded it under; any IngestTS set on event is ignored.
func (c *Client) PutEvent(ctx context.Context, event domain.Event) (uint64, error) {
	const op = "rpc.put_event"
	if err := event.Validate(); err != nil {
		return 0, wxerr.Serialization(op, err)
	}
	payload, err := codec.Encode(event.Record())
	if err != nil {
		return 0, err
	}
	reply, err := c.call(ctx, codec.CmdPutEvent, payload)
	if err != nil {
		return 0, err
	}
	return codec.Decode[uint64](reply)
}

// GetEvents returns events ingested strictly after since. A since of zero
// means no lower bound.
//
// The bound travels as the encoded decimal string of since. Stores that
// expect the raw integer form are not supported.
func (c *Client) GetEvents(ctx context.Context, since uint64) ([]domain.Event, error) {
	var payload []byte
	if since != 0 {
		var err error
		payload, err = codec.Encode(strconv.FormatUint(since, 10))
		if err != nil {
			return nil, err
		}
	}
	reply, err := c.call(ctx, codec.CmdGetEvents, payload)
	if err != nil {
		return nil, err
	}
	return decodeEvents("rpc.get_events", reply)
}

// GetAllEvents returns every event the store retains.
func (c *Client) GetAllEvents(ctx context.Context) ([]domain.Event, error) {
	reply, err := c.call(ctx, codec.CmdGetAllEvents, nil)
	if err != nil {
		return nil, err
	}
	return decodeEvents("rpc.get_all_events", reply)
}

// PutFetchFailure records that a producer failed to fetch upstream data.
func (c *Client) PutFetchFailure(ctx context.Context, failure domain.FetchFailure) error {
	const op = "rpc.put_fetch_failure"
	if err := failure.Validate(); err != nil {
		return wxerr.Serialization(op, err)
	}
	payload, err := codec.Encode(failure)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, codec.CmdPutFetchFailure, payload)
	return err
}

// GetFetchFailures returns the number of recorded failures per producer.
// The store returns raw records; counting happens here.
func (c *Client) GetFetchFailures(ctx context.Context) (map[domain.WxApp]uint16, error) {
	reply, err := c.call(ctx, codec.CmdGetFetchFailures, nil)
	if err != nil {
		return nil, err
	}
	failures, err := codec.Decode[[]domain.FetchFailure](reply)
	if err != nil {
		return nil, err
	}
	return domain.CountFailures(failures), nil
}

func decodeEvents(op string, reply []byte) ([]domain.Event, error) {
	records, err := codec.Decode[[]domain.EventRecord](reply)
	if err != nil {
		return nil, err
	}
	events := make([]domain.Event, 0, len(records))
	for i, rec := range records {
		ev, err := domain.EventFromRecord(rec)
		if err != nil {
			return nil, wxerr.Serialization(fmt.Sprintf("%s: record %d", op, i), err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// call sends one framed request and returns the success payload.
func (c *Client) call(ctx context.Context, cmd codec.Command, payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	reply, err := c.roundTrip(ctx, cmd, payload)
	if c.observer != nil {
		outcome := "ok"
		if err != nil {
			outcome = wxerr.KindOf(err).String()
		}
		c.observer.ObserveCall(cmd.String(), outcome, time.Since(start))
	}
	return reply, err
}

func (c *Client) roundTrip(ctx context.Context, cmd codec.Command, payload []byte) ([]byte, error) {
	op := "rpc." + cmd.String()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	request := make([]byte, 0, 1+len(payload))
	request = append(request, cmd.Byte())
	request = append(request, payload...)

	reply, err := c.transport.RoundTrip(ctx, request)
	if err != nil {
		if wxerr.KindOf(err) != wxerr.KindUnknown {
			return nil, err
		}
		return nil, wxerr.Transport(op, err)
	}
	return ParseReply(op, reply)
}

// ParseReply checks the framing of a reply and returns its success payload,
// or the error the reply describes.
func ParseReply(op string, reply []byte) ([]byte, error) {
	if len(reply) < 2 {
		return nil, wxerr.Protocol(op, msgInvalidResponse)
	}
	status, err := codec.ParseStatus(reply[0])
	if err != nil {
		return nil, wxerr.Protocol(op, msgUnknownResponse)
	}
	body := reply[1:]
	switch status {
	case codec.StatusOK:
		return body, nil
	case codec.StatusError:
		if !utf8.Valid(body) {
			return nil, wxerr.Encoding(op, errInvalidUTF8)
		}
		return nil, wxerr.Application(op, string(body))
	default:
		return nil, wxerr.Protocol(op, msgUnknownResponse)
	}
}
