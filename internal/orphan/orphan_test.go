package orphan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchbase/gocbcorex/internal/memdx"
)

func sampleContext() memdx.OrphanContext {
	return memdx.OrphanContext{
		ConnID:         "conn-1",
		OpCode:         memdx.OpCodeGet,
		Opaque:         42,
		LocalAddr:      "127.0.0.1:54321",
		PeerAddr:       "127.0.0.1:11210",
		ServerDuration: 1500 * time.Microsecond,
	}
}

func TestReporterFunc(t *testing.T) {
	var got memdx.OrphanContext
	f := ReporterFunc(func(ctx memdx.OrphanContext) { got = ctx })

	f.Report(sampleContext())

	assert.Equal(t, "conn-1", got.ConnID)
	assert.Equal(t, uint32(42), got.Opaque)
}

func TestMultiSinkFansOutToEvery(t *testing.T) {
	var calls int
	rec := ReporterFunc(func(memdx.OrphanContext) { calls++ })
	multi := MultiSink{rec, rec, rec}

	multi.Report(sampleContext())

	assert.Equal(t, 3, calls)
}

func TestLogSinkDoesNotPanic(t *testing.T) {
	sink := NewLogSink(nil)
	require.NotPanics(t, func() {
		sink.Report(sampleContext())
	})
}

func TestHandlerNilReporterReturnsNilHandler(t *testing.T) {
	h := Handler(nil)
	assert.Nil(t, h)
}

func TestHandlerWrapsReporter(t *testing.T) {
	var got memdx.OrphanContext
	rec := ReporterFunc(func(ctx memdx.OrphanContext) { got = ctx })

	h := Handler(rec)
	require.NotNil(t, h)

	h(sampleContext())
	assert.Equal(t, "conn-1", got.ConnID)
}
