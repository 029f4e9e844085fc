package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "gocbcorex", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Should be able to call shutdown without error
	err = shutdown(ctx)
	assert.NoError(t, err)

	// Should not be enabled
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	// Reset state
	tracer = nil
	enabled = false

	// Without initialization, should return no-op tracer
	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	// Even without initialization, StartSpan should work (no-op)
	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)

	// Should be able to end the span
	span.End()
}

func TestSpanFromContext(t *testing.T) {
	ctx := context.Background()

	// Should return a span even without active span
	span := SpanFromContext(ctx)
	require.NotNil(t, span)
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()

	// Should not panic with no active span
	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()

	// Should not panic with nil error
	require.NotPanics(t, func() {
		RecordError(ctx, nil)
	})

	// Should not panic with error
	require.NotPanics(t, func() {
		RecordError(ctx, errors.New("test error"))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Ok, "success")
	})

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Error, "failed")
	})
}

func TestSetAttributes(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetAttributes(ctx, Endpoint("node1:11210"))
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	traceID := TraceID(ctx)
	assert.Equal(t, "", traceID)
}

func TestSpanID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	spanID := SpanID(ctx)
	assert.Equal(t, "", spanID)
}

func TestAttributeHelpers(t *testing.T) {
	t.Run("Endpoint", func(t *testing.T) {
		attr := Endpoint("node1:11210")
		assert.Equal(t, AttrEndpoint, string(attr.Key))
		assert.Equal(t, "node1:11210", attr.Value.AsString())
	})

	t.Run("ConnID", func(t *testing.T) {
		attr := ConnID("conn-1")
		assert.Equal(t, AttrConnID, string(attr.Key))
		assert.Equal(t, "conn-1", attr.Value.AsString())
	})

	t.Run("Bucket", func(t *testing.T) {
		attr := Bucket("default")
		assert.Equal(t, AttrBucket, string(attr.Key))
		assert.Equal(t, "default", attr.Value.AsString())
	})

	t.Run("OpCode", func(t *testing.T) {
		attr := OpCode("Get")
		assert.Equal(t, AttrOpCode, string(attr.Key))
		assert.Equal(t, "Get", attr.Value.AsString())
	})

	t.Run("Opaque", func(t *testing.T) {
		attr := Opaque(0x12345678)
		assert.Equal(t, AttrOpaque, string(attr.Key))
		assert.Equal(t, int64(0x12345678), attr.Value.AsInt64())
	})

	t.Run("VBucket", func(t *testing.T) {
		attr := VBucket(42)
		assert.Equal(t, AttrVBucket, string(attr.Key))
		assert.Equal(t, int64(42), attr.Value.AsInt64())
	})

	t.Run("CAS", func(t *testing.T) {
		attr := CAS(1048576)
		assert.Equal(t, AttrCAS, string(attr.Key))
		assert.Equal(t, int64(1048576), attr.Value.AsInt64())
	})

	t.Run("Status", func(t *testing.T) {
		attr := Status(0)
		assert.Equal(t, AttrStatus, string(attr.Key))
		assert.Equal(t, int64(0), attr.Value.AsInt64())
	})

	t.Run("Path", func(t *testing.T) {
		attr := Path("a.b.c")
		assert.Equal(t, AttrPath, string(attr.Key))
		assert.Equal(t, "a.b.c", attr.Value.AsString())
	})

	t.Run("Mechanism", func(t *testing.T) {
		attr := Mechanism("SCRAM-SHA512")
		assert.Equal(t, AttrMechanism, string(attr.Key))
		assert.Equal(t, "SCRAM-SHA512", attr.Value.AsString())
	})

	t.Run("Revision", func(t *testing.T) {
		attr := Revision(7)
		assert.Equal(t, AttrRevision, string(attr.Key))
		assert.Equal(t, int64(7), attr.Value.AsInt64())
	})

	t.Run("Attempt", func(t *testing.T) {
		attr := Attempt(2)
		assert.Equal(t, AttrAttempt, string(attr.Key))
		assert.Equal(t, int64(2), attr.Value.AsInt64())
	})

	t.Run("ServerDuration", func(t *testing.T) {
		attr := ServerDuration(1500)
		assert.Equal(t, AttrServerDuration, string(attr.Key))
		assert.Equal(t, int64(1500), attr.Value.AsInt64())
	})
}

func TestStartDispatchSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartDispatchSpan(ctx, "Get", 42)
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// With additional attributes
	newCtx2, span2 := StartDispatchSpan(ctx, "MutateIn", 7, Path("a.b.c"))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartConnectSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartConnectSpan(ctx, "node1:11210")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	newCtx2, span2 := StartConnectSpan(ctx, "node2:11210", Mechanism("PLAIN"))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartConfigRefreshSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartConfigRefreshSpan(ctx, Revision(3))
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}
