// Package kverrors implements the typed error taxonomy the key/value
// engine returns to callers. Every error the engine surfaces is one of
// the Kind values below; raw memcached status codes never leak past the
// response decoders in internal/memdx.
package kverrors

// Kind classifies an error returned by the key/value engine.
//
// Callers should switch on Kind (via errors.As into *Error and reading
// its Kind field) rather than comparing against sentinel error values,
// since most Kinds carry additional context (Op, Status, Step).
type Kind int

const (
	// KindUnknown is the zero value guard; KindOf reports it for an error
	// that is not (and does not wrap) an *Error.
	KindUnknown Kind = iota

	// KindKeyNotFound indicates the document is absent.
	KindKeyNotFound
	// KindKeyExists indicates an Add or add-only subdoc op targeted an
	// existing document.
	KindKeyExists
	// KindCasMismatch indicates the request's CAS no longer matches.
	KindCasMismatch
	// KindLocked indicates the key is locked by another holder.
	KindLocked
	// KindNotLocked indicates Unlock was called on a key that isn't locked.
	KindNotLocked
	// KindTooBig indicates the value exceeds the server's size limit.
	KindTooBig
	// KindTemporaryFailure indicates a transient, retryable server condition.
	KindTemporaryFailure
	// KindUnknownBucketName indicates SelectBucket failed.
	KindUnknownBucketName
	// KindUnknownCollectionID indicates a collection-id has no mapping.
	KindUnknownCollectionID
	// KindUnknownScopeName indicates a scope lookup failed.
	KindUnknownScopeName
	// KindAccess indicates the server denied the operation on authorization grounds.
	KindAccess
	// KindCollectionsNotEnabled indicates a non-zero collection id was used
	// without negotiating collections during HELLO.
	KindCollectionsNotEnabled

	// KindDurabilityImpossible indicates the requested durability level
	// cannot be satisfied by the current cluster topology.
	KindDurabilityImpossible
	// KindDurabilityAmbiguous indicates a durable write's outcome could not
	// be confirmed.
	KindDurabilityAmbiguous
	// KindSyncWriteInProgress indicates a conflicting durable write is pending.
	KindSyncWriteInProgress

	// KindSubdocPathNotFound indicates a subdocument path does not exist.
	KindSubdocPathNotFound
	// KindSubdocPathMismatch indicates a subdocument path does not match
	// the document's structure.
	KindSubdocPathMismatch
	// KindSubdocPathInvalid indicates a subdocument path could not be parsed.
	KindSubdocPathInvalid
	// KindSubdocPathTooBig indicates a subdocument path exceeds server limits.
	KindSubdocPathTooBig
	// KindSubdocValueTooDeep indicates a subdocument value would nest too deeply.
	KindSubdocValueTooDeep
	// KindSubdocInvalidCombo indicates conflicting ops within one multi-op request.
	KindSubdocInvalidCombo
	// KindSubdocXattrInvalid indicates a malformed xattr flag combination or key.
	KindSubdocXattrInvalid
	// KindSubdocDocNotJSON indicates a subdoc op targeted a non-JSON document.
	KindSubdocDocNotJSON

	// KindTimeout indicates the operation's deadline elapsed. Ambiguous()
	// reports whether the operation may have executed on the server.
	KindTimeout
	// KindConnectionClosed indicates the underlying connection closed
	// before a response arrived.
	KindConnectionClosed
	// KindShutdown indicates the engine (dispatcher/babysitter) was shut
	// down while the operation was in flight.
	KindShutdown
	// KindCancelled indicates the caller's context was cancelled.
	KindCancelled

	// KindBootstrapFailed indicates the ordered handshake failed; the
	// Error's Step field names the failing step.
	KindBootstrapFailed
	// KindProtocol indicates a packet could not be parsed; the connection
	// is no longer usable.
	KindProtocol
	// KindInvalidArgument indicates the caller misused the API (e.g. an
	// extension frame requested without the matching HELLO negotiation).
	KindInvalidArgument
)

var kindNames = map[Kind]string{
	KindUnknown: "Unknown",
	KindKeyNotFound: "KeyNotFound",
	KindKeyExists: "KeyExists",
	KindCasMismatch: "CasMismatch",
	KindLocked: "Locked",
	KindNotLocked: "NotLocked",
	KindTooBig: "TooBig",
	KindTemporaryFailure: "TemporaryFailure",
	KindUnknownBucketName: "UnknownBucketName",
	KindUnknownCollectionID: "UnknownCollectionID",
	KindUnknownScopeName: "UnknownScopeName",
	KindAccess: "Access",
	KindCollectionsNotEnabled: "CollectionsNotEnabled",
	KindDurabilityImpossible: "DurabilityImpossible",
	KindDurabilityAmbiguous: "DurabilityAmbiguous",
	KindSyncWriteInProgress: "SyncWriteInProgress",
	KindSubdocPathNotFound: "SubdocPathNotFound",
	KindSubdocPathMismatch: "SubdocPathMismatch",
	KindSubdocPathInvalid: "SubdocPathInvalid",
	KindSubdocPathTooBig: "SubdocPathTooBig",
	KindSubdocValueTooDeep: "SubdocValueTooDeep",
	KindSubdocInvalidCombo: "SubdocInvalidCombo",
	KindSubdocXattrInvalid: "SubdocXattrInvalid",
	KindSubdocDocNotJSON: "SubdocDocNotJSON",
	KindTimeout: "Timeout",
	KindConnectionClosed: "ConnectionClosed",
	KindShutdown: "Shutdown",
	KindCancelled: "Cancelled",
	KindBootstrapFailed: "BootstrapFailed",
	KindProtocol: "Protocol",
	KindInvalidArgument: "InvalidArgument",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// retryableByDefault lists Kinds the router hands to the caller-supplied
// retry strategy rather than surfacing immediately.
var retryableByDefault = map[Kind]bool{
	KindTemporaryFailure: true,
	KindLocked: true,
	KindSyncWriteInProgress: true,
}

// RetryableByDefault reports whether Kind belongs to the retryable-by-default
// class. NotMyVBucket is handled separately by the router since it triggers a
// topology refresh rather than a blind retry, but it is also retryable.
func (k Kind) RetryableByDefault() bool {
	return retryableByDefault[k]
}
