package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the KV engine
// (Operation Router, Connection Babysitter, Protocol Dispatcher, Bootstrap
// Sequencer). Use these keys consistently across all log statements for
// log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Wire Protocol
	// ========================================================================
	KeyOpCode       = "op_code"       // Memcached binary protocol opcode
	KeyOpaque       = "opaque"        // Wire protocol opaque correlating request/response
	KeyMagic        = "magic"         // Packet magic byte (req/res/flexible framing)
	KeyStatus       = "status"        // Raw memcached status code
	KeyStatusMsg    = "status_msg"    // Human-readable status name
	KeyCAS          = "cas"           // Compare-and-swap value
	KeyVBucket      = "vbucket"       // Target vBucket id
	KeyDatatype     = "datatype"      // Datatype flags byte (JSON, snappy, XATTR)

	// ========================================================================
	// Connection & Endpoint
	// ========================================================================
	KeyConnID   = "conn_id"   // Babysitter/dispatcher connection identifier
	KeyEndpoint = "endpoint"  // Node address a connection targets
	KeyBucket   = "bucket"    // Selected bucket name
	KeyLocalAddr = "local_addr" // Local socket address of a connection

	// ========================================================================
	// Authentication
	// ========================================================================
	KeyMechanism = "mechanism" // SASL mechanism negotiated or attempted
	KeyAuthUser  = "auth_user" // Username/principal presented during SASL

	// ========================================================================
	// Bootstrap & Topology
	// ========================================================================
	KeyBootstrapStep = "bootstrap_step" // Bootstrap Sequencer step name
	KeyRevision      = "config_revision" // Cluster config revision
	KeyRevEpoch      = "config_rev_epoch" // Cluster config revision epoch
	KeyNodeCount     = "node_count"      // Number of nodes in a topology

	// ========================================================================
	// Retry / Reconnect
	// ========================================================================
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts allowed
	KeyBackoff    = "backoff_ms"  // Backoff duration before next attempt

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs     = "duration_ms"        // Operation duration in milliseconds
	KeyServerDuration = "server_duration_us" // Server-reported processing time
	KeyError          = "error"              // Error message
	KeyErrorKind      = "error_kind"         // kverrors.Kind of a failed operation
	KeyOperation      = "operation"          // Logical operation name (Get, MutateIn, ...)

	// ========================================================================
	// Document / Subdoc
	// ========================================================================
	KeyPath      = "path"      // Subdocument path
	KeyValueSize = "value_size" // Document/value size in bytes
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID.
func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }

// SpanID returns a slog.Attr for OpenTelemetry span ID.
func SpanID(id string) slog.Attr { return slog.String(KeySpanID, id) }

// ----------------------------------------------------------------------------
// Wire Protocol
// ----------------------------------------------------------------------------

// OpCode returns a slog.Attr for a memcached binary protocol opcode.
func OpCode(op string) slog.Attr { return slog.String(KeyOpCode, op) }

// Opaque returns a slog.Attr for a wire protocol opaque value.
func Opaque(opaque uint32) slog.Attr { return slog.Any(KeyOpaque, opaque) }

// Magic returns a slog.Attr for a packet magic byte.
func Magic(m uint8) slog.Attr { return slog.Any(KeyMagic, m) }

// Status returns a slog.Attr for a raw memcached status code.
func Status(code uint16) slog.Attr { return slog.Any(KeyStatus, code) }

// StatusMsg returns a slog.Attr for a human-readable status name.
func StatusMsg(msg string) slog.Attr { return slog.String(KeyStatusMsg, msg) }

// CAS returns a slog.Attr for a compare-and-swap value.
func CAS(cas uint64) slog.Attr { return slog.Uint64(KeyCAS, cas) }

// VBucket returns a slog.Attr for a target vBucket id.
func VBucket(id uint16) slog.Attr { return slog.Any(KeyVBucket, id) }

// Datatype returns a slog.Attr for a datatype flags byte.
func Datatype(dt uint8) slog.Attr { return slog.Any(KeyDatatype, dt) }

// ----------------------------------------------------------------------------
// Connection & Endpoint
// ----------------------------------------------------------------------------

// ConnID returns a slog.Attr for a connection identifier.
func ConnID(id string) slog.Attr { return slog.String(KeyConnID, id) }

// Endpoint returns a slog.Attr for a node address.
func Endpoint(addr string) slog.Attr { return slog.String(KeyEndpoint, addr) }

// Bucket returns a slog.Attr for a selected bucket name.
func Bucket(name string) slog.Attr { return slog.String(KeyBucket, name) }

// LocalAddr returns a slog.Attr for a connection's local socket address.
func LocalAddr(addr string) slog.Attr { return slog.String(KeyLocalAddr, addr) }

// ----------------------------------------------------------------------------
// Authentication
// ----------------------------------------------------------------------------

// Mechanism returns a slog.Attr for a SASL mechanism name.
func Mechanism(name string) slog.Attr { return slog.String(KeyMechanism, name) }

// AuthUser returns a slog.Attr for the username/principal presented
// during SASL, never the password or token.
func AuthUser(name string) slog.Attr { return slog.String(KeyAuthUser, name) }

// ----------------------------------------------------------------------------
// Bootstrap & Topology
// ----------------------------------------------------------------------------

// BootstrapStep returns a slog.Attr for the bootstrap step under way.
func BootstrapStep(step string) slog.Attr { return slog.String(KeyBootstrapStep, step) }

// Revision returns a slog.Attr for a cluster config revision number.
func Revision(rev uint64) slog.Attr { return slog.Uint64(KeyRevision, rev) }

// RevEpoch returns a slog.Attr for a cluster config revision epoch.
func RevEpoch(epoch uint64) slog.Attr { return slog.Uint64(KeyRevEpoch, epoch) }

// NodeCount returns a slog.Attr for the number of nodes in a topology.
func NodeCount(n int) slog.Attr { return slog.Int(KeyNodeCount, n) }

// ----------------------------------------------------------------------------
// Retry / Reconnect
// ----------------------------------------------------------------------------

// Attempt returns a slog.Attr for a retry attempt number.
func Attempt(n int) slog.Attr { return slog.Int(KeyAttempt, n) }

// MaxRetries returns a slog.Attr for the maximum retry attempts allowed.
func MaxRetries(n int) slog.Attr { return slog.Int(KeyMaxRetries, n) }

// Backoff returns a slog.Attr for a backoff duration in milliseconds.
func Backoff(ms int64) slog.Attr { return slog.Int64(KeyBackoff, ms) }

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// ServerDuration returns a slog.Attr for the server-reported processing
// time, decoded from the ServerDuration extension frame.
func ServerDuration(us int64) slog.Attr { return slog.Int64(KeyServerDuration, us) }

// Err returns a slog.Attr for an error, or a zero Attr for nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorKind returns a slog.Attr for an error's Kind.
func ErrorKind(kind string) slog.Attr { return slog.String(KeyErrorKind, kind) }

// Operation returns a slog.Attr for a logical operation name.
func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }

// ----------------------------------------------------------------------------
// Document / Subdoc
// ----------------------------------------------------------------------------

// Path returns a slog.Attr for a subdocument path.
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }

// ValueSize returns a slog.Attr for a document/value size in bytes.
func ValueSize(n int) slog.Attr { return slog.Int(KeyValueSize, n) }
