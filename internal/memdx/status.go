package memdx

// Status is a memcached binary protocol response status code.
type Status uint16

// Status codes, matching the values used by the Couchbase Server KV engine.
// Values are grouped the way the protocol documentation groups them:
// generic, access/auth, and subdocument.
const (
	StatusSuccess        = Status(0x00)
	StatusKeyNotFound    = Status(0x01)
	StatusKeyExists      = Status(0x02)
	StatusTooBig         = Status(0x03)
	StatusInvalidArgs    = Status(0x04)
	StatusNotStored      = Status(0x05)
	StatusBadDelta       = Status(0x06)
	StatusNotMyVBucket   = Status(0x07)
	StatusNoBucket       = Status(0x08)
	StatusLocked         = Status(0x09)
	StatusNotLocked      = Status(0x0e)
	StatusAuthStale      = Status(0x1f)
	StatusAuthError      = Status(0x20)
	StatusAuthContinue   = Status(0x21)
	StatusRangeError     = Status(0x22)
	StatusRollback       = Status(0x23)
	StatusAccessError    = Status(0x24)
	StatusNotInitialized = Status(0x25)

	StatusUnknownCommand = Status(0x81)
	StatusOutOfMemory    = Status(0x82)
	StatusNotSupported   = Status(0x83)
	StatusInternalError  = Status(0x84)
	StatusBusy           = Status(0x85)
	StatusTmpFail        = Status(0x86)

	StatusUnknownCollection = Status(0x88)
	StatusManifestAhead     = Status(0x89)
	StatusNoCollectionsMf   = Status(0x8a)
	StatusUnknownScope      = Status(0x8c)

	StatusDurabilityInvalidLevel       = Status(0xa0)
	StatusDurabilityImpossible         = Status(0xa1)
	StatusSyncWriteInProgress          = Status(0xa2)
	StatusSyncWriteAmbiguous           = Status(0xa3)
	StatusSyncWriteReCommitInProgress  = Status(0xa4)

	StatusSubDocPathNotFound            = Status(0xc0)
	StatusSubDocPathMismatch            = Status(0xc1)
	StatusSubDocPathInvalid             = Status(0xc2)
	StatusSubDocPathTooBig              = Status(0xc3)
	StatusSubDocDocTooDeep              = Status(0xc4)
	StatusSubDocCantInsert              = Status(0xc5)
	StatusSubDocNotJSON                 = Status(0xc6)
	StatusSubDocBadRange                = Status(0xc7)
	StatusSubDocBadDelta                = Status(0xc8)
	StatusSubDocPathExists               = Status(0xc9)
	StatusSubDocValueTooDeep            = Status(0xca)
	StatusSubDocBadCombo                = Status(0xcb)
	StatusSubDocMultiPathFailure        = Status(0xcc)
	StatusSubDocSuccessDeleted          = Status(0xcd)
	StatusSubDocXattrInvalidFlagCombo   = Status(0xce)
	StatusSubDocXattrInvalidKeyCombo    = Status(0xcf)
	StatusSubDocXattrUnknownMacro       = Status(0xd0)
	StatusSubDocXattrUnknownVAttr       = Status(0xd1)
	StatusSubDocXattrCannotModifyVAttr  = Status(0xd2)
	StatusSubDocMultiPathFailureDeleted = Status(0xd3)
	StatusSubDocInvalidXattrOrder       = Status(0xd4)
)

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

var statusNames = map[Status]string{
	StatusSuccess:        "Success",
	StatusKeyNotFound:    "KeyNotFound",
	StatusKeyExists:      "KeyExists",
	StatusTooBig:         "TooBig",
	StatusInvalidArgs:    "InvalidArgs",
	StatusNotStored:      "NotStored",
	StatusBadDelta:       "BadDelta",
	StatusNotMyVBucket:   "NotMyVBucket",
	StatusNoBucket:       "NoBucket",
	StatusLocked:         "Locked",
	StatusNotLocked:      "NotLocked",
	StatusAuthStale:      "AuthStale",
	StatusAuthError:      "AuthError",
	StatusAuthContinue:   "AuthContinue",
	StatusRangeError:     "RangeError",
	StatusRollback:       "Rollback",
	StatusAccessError:    "AccessError",
	StatusNotInitialized: "NotInitialized",

	StatusUnknownCommand: "UnknownCommand",
	StatusOutOfMemory:    "OutOfMemory",
	StatusNotSupported:   "NotSupported",
	StatusInternalError:  "InternalError",
	StatusBusy:           "Busy",
	StatusTmpFail:        "TmpFail",

	StatusUnknownCollection: "UnknownCollection",
	StatusManifestAhead:     "ManifestAhead",
	StatusNoCollectionsMf:   "NoCollectionsManifest",
	StatusUnknownScope:      "UnknownScope",

	StatusDurabilityInvalidLevel:      "DurabilityInvalidLevel",
	StatusDurabilityImpossible:        "DurabilityImpossible",
	StatusSyncWriteInProgress:         "SyncWriteInProgress",
	StatusSyncWriteAmbiguous:          "SyncWriteAmbiguous",
	StatusSyncWriteReCommitInProgress: "SyncWriteReCommitInProgress",

	StatusSubDocPathNotFound:            "SubDocPathNotFound",
	StatusSubDocPathMismatch:            "SubDocPathMismatch",
	StatusSubDocPathInvalid:             "SubDocPathInvalid",
	StatusSubDocPathTooBig:              "SubDocPathTooBig",
	StatusSubDocDocTooDeep:              "SubDocDocTooDeep",
	StatusSubDocCantInsert:              "SubDocCantInsert",
	StatusSubDocNotJSON:                 "SubDocNotJSON",
	StatusSubDocBadRange:                "SubDocBadRange",
	StatusSubDocBadDelta:                "SubDocBadDelta",
	StatusSubDocPathExists:              "SubDocPathExists",
	StatusSubDocValueTooDeep:            "SubDocValueTooDeep",
	StatusSubDocBadCombo:                "SubDocBadCombo",
	StatusSubDocMultiPathFailure:        "SubDocMultiPathFailure",
	StatusSubDocSuccessDeleted:          "SubDocSuccessDeleted",
	StatusSubDocXattrInvalidFlagCombo:   "SubDocXattrInvalidFlagCombo",
	StatusSubDocXattrInvalidKeyCombo:    "SubDocXattrInvalidKeyCombo",
	StatusSubDocXattrUnknownMacro:       "SubDocXattrUnknownMacro",
	StatusSubDocXattrUnknownVAttr:       "SubDocXattrUnknownVAttr",
	StatusSubDocXattrCannotModifyVAttr:  "SubDocXattrCannotModifyVAttr",
	StatusSubDocMultiPathFailureDeleted: "SubDocMultiPathFailureDeleted",
	StatusSubDocInvalidXattrOrder:       "SubDocInvalidXattrOrder",
}
