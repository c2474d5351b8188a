// Package natsrpc carries the store protocol over NATS request/reply.
package natsrpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/wxstore-client/internal/wxerr"
	"github.com/nats-io/nats.go"
)

// Transport implements rpc.Transport with one NATS request per call.
type Transport struct {
	nc      *nats.Conn
	subject string
	owned   bool
}

// Dial connects to the NATS server at url. Construction fails when the server
// is unreachable; the connection is not retried in the background. A nil
// logger means slog.Default().
func Dial(url, subject string, logger *slog.Logger, opts ...nats.Option) (*Transport, error) {
	if subject == "" {
		return nil, errors.New("natsrpc: empty subject")
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]nats.Option{
		nats.Name("wxstore-client"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("store connection lost", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("store connection restored", "url", nc.ConnectedUrl())
		}),
	}, opts...)

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, wxerr.Transport("natsrpc.dial", fmt.Errorf("connect %s: %w", url, err))
	}
	return &Transport{nc: nc, subject: subject, owned: true}, nil
}

// NewTransport sends requests on an existing connection. Close leaves the
// connection open.
func NewTransport(nc *nats.Conn, subject string) *Transport {
	return &Transport{nc: nc, subject: subject}
}

// RoundTrip publishes request and waits for the single reply. Timeouts, a
// missing responder and a closed connection are all transport errors.
func (t *Transport) RoundTrip(ctx context.Context, request []byte) ([]byte, error) {
	msg, err := t.nc.RequestWithContext(ctx, t.subject, request)
	if err != nil {
		return nil, wxerr.Transport("natsrpc.request", requestError(err))
	}
	return msg.Data, nil
}

func requestError(err error) error {
	switch {
	case errors.Is(err, nats.ErrNoResponders):
		return fmt.Errorf("no store listening: %w", err)
	case errors.Is(err, nats.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("no reply in time: %w", err)
	default:
		return err
	}
}

// Close closes the connection if Dial opened it.
func (t *Transport) Close() error {
	if t.owned {
		t.nc.Close()
	}
	return nil
}
