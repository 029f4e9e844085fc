package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for KV operations, connections, and topology changes.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Endpoint / connection attributes
	// ========================================================================
	AttrEndpoint = "kv.endpoint" // Node address a connection targets
	AttrConnID   = "kv.conn_id"  // Babysitter/dispatcher connection identifier
	AttrBucket   = "kv.bucket"   // Selected bucket name

	// ========================================================================
	// Wire protocol attributes
	// ========================================================================
	AttrOpCode  = "kv.op_code" // Memcached binary protocol opcode
	AttrOpaque  = "kv.opaque"  // Wire protocol opaque
	AttrVBucket = "kv.vbucket" // Target vBucket id
	AttrCAS     = "kv.cas"     // Compare-and-swap value
	AttrStatus  = "kv.status"  // Raw memcached status code
	AttrPath    = "kv.path"    // Subdocument path

	// ========================================================================
	// Authentication attributes
	// ========================================================================
	AttrMechanism = "kv.sasl.mechanism" // SASL mechanism negotiated or attempted

	// ========================================================================
	// Topology attributes
	// ========================================================================
	AttrRevision  = "kv.config.revision"   // Cluster config revision
	AttrRevEpoch  = "kv.config.rev_epoch"  // Cluster config revision epoch
	AttrNodeCount = "kv.config.node_count" // Number of nodes in a topology

	// ========================================================================
	// Retry attributes
	// ========================================================================
	AttrAttempt    = "kv.retry.attempt"
	AttrMaxRetries = "kv.retry.max_attempts"

	// ========================================================================
	// Server-side timing
	// ========================================================================
	AttrServerDuration = "kv.server_duration_us"
)

// Span names for KV operations.
const (
	// Generic dispatch span name. StartDispatchSpan does not use it; each
	// attempt's span is named after the operation (the names below).
	SpanDispatch = "kv.dispatch"

	// Per-opcode spans, named after the binary protocol operation.
	SpanGet       = "kv.Get"
	SpanSet       = "kv.Set"
	SpanAdd       = "kv.Add"
	SpanReplace   = "kv.Replace"
	SpanDelete    = "kv.Delete"
	SpanAppend    = "kv.Append"
	SpanPrepend   = "kv.Prepend"
	SpanIncrement = "kv.Increment"
	SpanDecrement = "kv.Decrement"
	SpanTouch     = "kv.Touch"
	SpanGetAndLock  = "kv.GetAndLock"
	SpanGetAndTouch = "kv.GetAndTouch"
	SpanUnlock      = "kv.Unlock"
	SpanLookupIn    = "kv.LookupIn"
	SpanMutateIn    = "kv.MutateIn"

	// Connection lifecycle spans.
	SpanConnect  = "kv.connect"
	SpanBootstrap = "kv.bootstrap"
	SpanReauth    = "kv.reauth"

	// Topology spans.
	SpanConfigRefresh = "kv.config.refresh"
)

// Endpoint returns an attribute for a node address.
func Endpoint(addr string) attribute.KeyValue { return attribute.String(AttrEndpoint, addr) }

// ConnID returns an attribute for a connection identifier.
func ConnID(id string) attribute.KeyValue { return attribute.String(AttrConnID, id) }

// Bucket returns an attribute for a selected bucket name.
func Bucket(name string) attribute.KeyValue { return attribute.String(AttrBucket, name) }

// OpCode returns an attribute for a memcached binary protocol opcode.
func OpCode(op string) attribute.KeyValue { return attribute.String(AttrOpCode, op) }

// Opaque returns an attribute for a wire protocol opaque value.
func Opaque(opaque uint32) attribute.KeyValue { return attribute.Int64(AttrOpaque, int64(opaque)) }

// VBucket returns an attribute for a target vBucket id.
func VBucket(id uint16) attribute.KeyValue { return attribute.Int64(AttrVBucket, int64(id)) }

// CAS returns an attribute for a compare-and-swap value.
func CAS(cas uint64) attribute.KeyValue { return attribute.Int64(AttrCAS, int64(cas)) }

// Status returns an attribute for a raw memcached status code.
func Status(code uint16) attribute.KeyValue { return attribute.Int64(AttrStatus, int64(code)) }

// Path returns an attribute for a subdocument path.
func Path(path string) attribute.KeyValue { return attribute.String(AttrPath, path) }

// Mechanism returns an attribute for a SASL mechanism name.
func Mechanism(name string) attribute.KeyValue { return attribute.String(AttrMechanism, name) }

// Revision returns an attribute for a cluster config revision number.
func Revision(rev uint64) attribute.KeyValue { return attribute.Int64(AttrRevision, int64(rev)) }

// RevEpoch returns an attribute for a cluster config revision epoch.
func RevEpoch(epoch uint64) attribute.KeyValue { return attribute.Int64(AttrRevEpoch, int64(epoch)) }

// NodeCount returns an attribute for the number of nodes in a topology.
func NodeCount(n int) attribute.KeyValue { return attribute.Int(AttrNodeCount, n) }

// Attempt returns an attribute for a retry attempt number.
func Attempt(n int) attribute.KeyValue { return attribute.Int(AttrAttempt, n) }

// MaxRetries returns an attribute for the maximum retry attempts allowed.
func MaxRetries(n int) attribute.KeyValue { return attribute.Int(AttrMaxRetries, n) }

// ServerDuration returns an attribute for server-reported processing time.
func ServerDuration(us int64) attribute.KeyValue {
	return attribute.Int64(AttrServerDuration, us)
}

// StartDispatchSpan starts a span for one dispatch attempt of a KV
// operation against vbID, named after the logical opcode.
func StartDispatchSpan(ctx context.Context, opcode string, vbID uint16, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		OpCode(opcode),
		VBucket(vbID),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "kv."+opcode, trace.WithAttributes(allAttrs...))
}

// StartConnectSpan starts a span for establishing and bootstrapping a
// connection to endpoint.
func StartConnectSpan(ctx context.Context, endpoint string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Endpoint(endpoint),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanConnect, trace.WithAttributes(allAttrs...))
}

// StartConfigRefreshSpan starts a span for a cluster config refresh
// triggered by a NotMyVBucket response or an unsolicited push.
func StartConfigRefreshSpan(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanConfigRefresh, trace.WithAttributes(attrs...))
}
