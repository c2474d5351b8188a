package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/wxstore-client/internal/domain/domaintest"
	"github.com/couchcryptid/wxstore-client/internal/rpc"
	"github.com/couchcryptid/wxstore-client/internal/storetest"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ rpc.Observer = (*Metrics)(nil)

func TestObserveCall(t *testing.T) {
	m := NewMetricsForTesting()

	m.ObserveCall("get", "ok", 3*time.Millisecond)
	m.ObserveCall("get", "ok", 5*time.Millisecond)
	m.ObserveCall("get", "application", time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.RPCCalls.WithLabelValues("get", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RPCCalls.WithLabelValues("get", "application")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.RPCDuration))
}

func TestObserveCall_FromClient(t *testing.T) {
	m := NewMetricsForTesting()
	client, err := rpc.New(rpc.LocalTransport{Handler: storetest.New(nil)}, rpc.WithObserver(m))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = client.PutEvent(ctx, domaintest.SpotterReport())
	require.NoError(t, err)
	_, err = client.Get(ctx, "missing")
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(m.RPCCalls.WithLabelValues("put_event", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RPCCalls.WithLabelValues("get", "application")), 0)
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.EventsProduced.Add(3)
	assert.InDelta(t, 3, testutil.ToFloat64(a.EventsProduced), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.EventsProduced), 0)
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")

	logger.Info("dropped")
	logger.Warn("kept", "command", "get")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "get", line["command"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "TEXT")

	logger.Debug("poll", "cursor", 42)
	assert.Contains(t, buf.String(), "msg=poll")
	assert.Contains(t, buf.String(), "cursor=42")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
