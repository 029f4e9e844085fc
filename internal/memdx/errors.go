package memdx

import "github.com/couchbase/gocbcorex/internal/kverrors"

// ClassifyOpts carries the contextual bits needed to resolve a handful of
// status codes that map to different Kinds depending on what the request
// actually asked for.
type ClassifyOpts struct {
	// HadCAS is true when the request carried a non-zero CAS (Replace,
	// Append, Prepend, Delete, MutateIn).
	HadCAS bool

	// IsAddOnly is true for an MutateIn whose doc-level flag requested
	// insert-only (AddDoc) semantics.
	IsAddOnly bool

	// IsAppendPrepend is true for Append and Prepend requests, whose
	// NotStored status means the target key does not exist rather than a
	// CAS conflict.
	IsAppendPrepend bool
}

// ClassifyStatus converts a raw response status into the typed error taken
// by callers, resolving the few statuses whose meaning depends on what the
// request asked for rather than on the status code alone.
func ClassifyStatus(status Status, op string, opts ClassifyOpts) *kverrors.Error {
	switch status {
	case StatusSuccess, StatusSubDocSuccessDeleted:
		return nil

	case StatusKeyNotFound:
		return kverrors.FromStatus(kverrors.KindKeyNotFound, op, uint16(status))

	case StatusKeyExists:
		if opts.HadCAS {
			return kverrors.FromStatus(kverrors.KindCasMismatch, op, uint16(status))
		}
		return kverrors.FromStatus(kverrors.KindKeyExists, op, uint16(status))

	case StatusNotStored:
		switch {
		case opts.IsAddOnly:
			return kverrors.FromStatus(kverrors.KindKeyExists, op, uint16(status))
		case opts.IsAppendPrepend:
			return kverrors.FromStatus(kverrors.KindKeyNotFound, op, uint16(status))
		default:
			return kverrors.FromStatus(kverrors.KindCasMismatch, op, uint16(status))
		}

	case StatusLocked:
		return kverrors.FromStatus(kverrors.KindLocked, op, uint16(status))
	case StatusNotLocked:
		return kverrors.FromStatus(kverrors.KindNotLocked, op, uint16(status))
	case StatusTooBig, StatusSubDocPathTooBig:
		return kverrors.FromStatus(kverrors.KindTooBig, op, uint16(status))

	case StatusOutOfMemory, StatusBusy, StatusTmpFail, StatusNoBucket:
		return kverrors.FromStatus(kverrors.KindTemporaryFailure, op, uint16(status))

	case StatusUnknownCollection, StatusManifestAhead, StatusNoCollectionsMf:
		return kverrors.FromStatus(kverrors.KindUnknownCollectionID, op, uint16(status))
	case StatusUnknownScope:
		return kverrors.FromStatus(kverrors.KindUnknownScopeName, op, uint16(status))

	case StatusAccessError, StatusAuthError:
		return kverrors.FromStatus(kverrors.KindAccess, op, uint16(status))

	case StatusDurabilityImpossible, StatusDurabilityInvalidLevel:
		return kverrors.FromStatus(kverrors.KindDurabilityImpossible, op, uint16(status))
	case StatusSyncWriteAmbiguous, StatusSyncWriteReCommitInProgress:
		return kverrors.FromStatus(kverrors.KindDurabilityAmbiguous, op, uint16(status))
	case StatusSyncWriteInProgress:
		return kverrors.FromStatus(kverrors.KindSyncWriteInProgress, op, uint16(status))

	case StatusSubDocPathNotFound:
		return kverrors.FromStatus(kverrors.KindSubdocPathNotFound, op, uint16(status))
	case StatusSubDocPathMismatch:
		return kverrors.FromStatus(kverrors.KindSubdocPathMismatch, op, uint16(status))
	case StatusSubDocPathInvalid, StatusSubDocBadRange, StatusSubDocBadDelta:
		return kverrors.FromStatus(kverrors.KindSubdocPathInvalid, op, uint16(status))
	case StatusSubDocDocTooDeep, StatusSubDocValueTooDeep:
		return kverrors.FromStatus(kverrors.KindSubdocValueTooDeep, op, uint16(status))
	case StatusSubDocCantInsert, StatusSubDocBadCombo, StatusSubDocPathExists, StatusSubDocInvalidXattrOrder:
		return kverrors.FromStatus(kverrors.KindSubdocInvalidCombo, op, uint16(status))
	case StatusSubDocXattrInvalidFlagCombo, StatusSubDocXattrInvalidKeyCombo,
		StatusSubDocXattrUnknownMacro, StatusSubDocXattrUnknownVAttr, StatusSubDocXattrCannotModifyVAttr:
		return kverrors.FromStatus(kverrors.KindSubdocXattrInvalid, op, uint16(status))
	case StatusSubDocNotJSON:
		return kverrors.FromStatus(kverrors.KindSubdocDocNotJSON, op, uint16(status))

	case StatusNotMyVBucket:
		// Handled by the router (topology refresh + retry); classified here
		// only so a caller bypassing the router still gets a typed error.
		return kverrors.FromStatus(kverrors.KindTemporaryFailure, op, uint16(status))

	case StatusInvalidArgs:
		return kverrors.FromStatus(kverrors.KindInvalidArgument, op, uint16(status))

	case StatusNotSupported, StatusUnknownCommand, StatusInternalError:
		return kverrors.FromStatus(kverrors.KindProtocol, op, uint16(status))

	default:
		return kverrors.FromStatus(kverrors.KindProtocol, op, uint16(status))
	}
}
