package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitToleratesNilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit(context.Background(), nil, Info(EventTaskExecutionStarted, nil))
	})
}

func TestEmitRecoversPanickingSink(t *testing.T) {
	panicking := sinkFunc(func(context.Context, Event) { panic("broken sink") })
	assert.NotPanics(t, func() {
		Emit(context.Background(), panicking, Info(EventTaskExecutionStarted, nil))
	})
}

func TestEmitStampsTime(t *testing.T) {
	capture := NewCaptureSink()
	Emit(context.Background(), capture, Info(EventPIIDetected, map[string]any{"kinds": []string{"email"}}))

	events := capture.Events()
	require.Len(t, events, 1)
	assert.False(t, events[0].Time.IsZero())
	assert.Equal(t, slog.LevelInfo, events[0].Level)
}

func TestMultiSinkFansOut(t *testing.T) {
	a := NewCaptureSink()
	b := NewCaptureSink()
	panicking := sinkFunc(func(context.Context, Event) { panic("broken sink") })

	// A failing member must not stop delivery to the others.
	multi := MultiSink{a, panicking, b}
	Emit(context.Background(), multi, Warn(EventTaskExecutionFailed, nil))

	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}

func TestSlogSinkWritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sink := NewSlogSink(logger)

	Emit(context.Background(), sink, Warn(EventTaskExecutionTimeout, map[string]any{
		"task_id":    "t-1",
		"agent_name": "worker",
	}))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, EventTaskExecutionTimeout, record["msg"])
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "t-1", record["task_id"])
	assert.Equal(t, "worker", record["agent_name"])
}

func TestCaptureSinkByName(t *testing.T) {
	capture := NewCaptureSink()
	Emit(context.Background(), capture, Info(EventAgentRegistered, nil))
	Emit(context.Background(), capture, Info(EventAgentUnregistered, nil))
	Emit(context.Background(), capture, Info(EventAgentRegistered, nil))

	assert.Len(t, capture.ByName(EventAgentRegistered), 2)
	assert.Equal(t, []string{EventAgentRegistered, EventAgentUnregistered, EventAgentRegistered}, capture.Names())
}

// sinkFunc adapts a function into a Sink for tests.
type sinkFunc func(ctx context.Context, ev Event)

func (f sinkFunc) Emit(ctx context.Context, ev Event) { f(ctx, ev) }
