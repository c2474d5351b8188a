package natsrpc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/wxstore-client/internal/codec"
	"github.com/couchcryptid/wxstore-client/internal/rpc"
	"github.com/nats-io/nats.go"
)

// QueueGroup is the queue group responders join, so a request reaches exactly
// one responder when several are running.
const QueueGroup = "wxstore"

// Serve answers store requests on subject with handler until ctx is done or
// the returned subscription is drained. A nil logger means slog.Default().
func Serve(ctx context.Context, nc *nats.Conn, subject string, handler rpc.Handler, logger *slog.Logger) (*nats.Subscription, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sub, err := nc.QueueSubscribe(subject, QueueGroup, func(msg *nats.Msg) {
		reply := rpc.HandleRequest(ctx, handler, msg.Data)
		if len(reply) > 0 && reply[0] != codec.StatusOK.Byte() {
			logger.Debug("request failed", "command", commandName(msg.Data), "reason", string(reply[1:]))
		}
		if err := msg.Respond(reply); err != nil {
			logger.Warn("failed to send reply", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			logger.Warn("failed to drain subscription", "error", err)
		}
	}()
	return sub, nil
}

func commandName(request []byte) string {
	if len(request) == 0 {
		return "none"
	}
	if cmd, ok := codec.ParseCommand(request[0]); ok {
		return cmd.String()
	}
	return fmt.Sprintf("unknown(%d)", request[0])
}
