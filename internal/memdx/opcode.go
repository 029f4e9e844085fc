package memdx

// OpCode identifies a memcached binary protocol command.
type OpCode uint8

const (
	OpCodeGet       = OpCode(0x00)
	OpCodeSet       = OpCode(0x01)
	OpCodeAdd       = OpCode(0x02)
	OpCodeReplace   = OpCode(0x03)
	OpCodeDelete    = OpCode(0x04)
	OpCodeIncrement = OpCode(0x05)
	OpCodeDecrement = OpCode(0x06)
	OpCodeNoop      = OpCode(0x0a)
	OpCodeAppend    = OpCode(0x0e)
	OpCodePrepend   = OpCode(0x0f)
	OpCodeStat      = OpCode(0x10)
	OpCodeTouch     = OpCode(0x1c)
	OpCodeGAT       = OpCode(0x1d)

	OpCodeHello         = OpCode(0x1f)
	OpCodeSASLListMechs = OpCode(0x20)
	OpCodeSASLAuth      = OpCode(0x21)
	OpCodeSASLStep      = OpCode(0x22)

	OpCodeGetAllVBSeqnos = OpCode(0x48)

	OpCodeGetReplica  = OpCode(0x83)
	OpCodeSelectBucket = OpCode(0x89)

	OpCodeGetLocked = OpCode(0x94)
	OpCodeUnlockKey = OpCode(0x95)

	OpCodeGetMeta = OpCode(0xa0)

	OpCodeGetClusterConfig = OpCode(0xb5)
	OpCodeGetRandom        = OpCode(0xb6)
	OpCodeGetCollectionID  = OpCode(0xbb)

	OpCodeSubDocGet            = OpCode(0xc5)
	OpCodeSubDocExists         = OpCode(0xc6)
	OpCodeSubDocDictAdd        = OpCode(0xc7)
	OpCodeSubDocDictSet        = OpCode(0xc8)
	OpCodeSubDocDelete         = OpCode(0xc9)
	OpCodeSubDocReplace        = OpCode(0xca)
	OpCodeSubDocArrayPushLast  = OpCode(0xcb)
	OpCodeSubDocArrayPushFirst = OpCode(0xcc)
	OpCodeSubDocArrayInsert    = OpCode(0xcd)
	OpCodeSubDocArrayAddUnique = OpCode(0xce)
	OpCodeSubDocCounter        = OpCode(0xcf)
	OpCodeSubDocMultiLookup    = OpCode(0xd0)
	OpCodeSubDocMultiMutation  = OpCode(0xd1)
	OpCodeSubDocGetCount       = OpCode(0xd2)

	// OpCodeClusterMapChangeNotification is the server-initiated-request
	// opcode used to unsolicited-push an updated cluster configuration.
	OpCodeClusterMapChangeNotification = OpCode(0x01)

	OpCodeGetErrorMap = OpCode(0xfe)
)

var opCodeNames = map[OpCode]string{
	OpCodeGet:              "Get",
	OpCodeSet:               "Set",
	OpCodeAdd:               "Add",
	OpCodeReplace:           "Replace",
	OpCodeDelete:            "Delete",
	OpCodeIncrement:         "Increment",
	OpCodeDecrement:         "Decrement",
	OpCodeNoop:              "Noop",
	OpCodeAppend:            "Append",
	OpCodePrepend:           "Prepend",
	OpCodeStat:              "Stat",
	OpCodeTouch:             "Touch",
	OpCodeGAT:               "GetAndTouch",
	OpCodeHello:             "Hello",
	OpCodeSASLListMechs:     "SASLListMechs",
	OpCodeSASLAuth:          "SASLAuth",
	OpCodeSASLStep:          "SASLStep",
	OpCodeGetAllVBSeqnos:    "GetAllVBSeqnos",
	OpCodeGetReplica:        "GetReplica",
	OpCodeSelectBucket:      "SelectBucket",
	OpCodeGetLocked:         "GetAndLock",
	OpCodeUnlockKey:         "Unlock",
	OpCodeGetMeta:           "GetMeta",
	OpCodeGetClusterConfig:  "GetClusterConfig",
	OpCodeGetRandom:         "GetRandom",
	OpCodeGetCollectionID:   "GetCollectionID",
	OpCodeSubDocGet:         "SubDocGet",
	OpCodeSubDocExists:      "SubDocExists",
	OpCodeSubDocDictAdd:     "SubDocDictAdd",
	OpCodeSubDocDictSet:     "SubDocDictSet",
	OpCodeSubDocDelete:      "SubDocDelete",
	OpCodeSubDocReplace:     "SubDocReplace",
	OpCodeSubDocArrayPushLast:  "SubDocArrayPushLast",
	OpCodeSubDocArrayPushFirst: "SubDocArrayPushFirst",
	OpCodeSubDocArrayInsert:    "SubDocArrayInsert",
	OpCodeSubDocArrayAddUnique: "SubDocArrayAddUnique",
	OpCodeSubDocCounter:        "SubDocCounter",
	OpCodeSubDocMultiLookup:    "SubDocMultiLookup",
	OpCodeSubDocMultiMutation:  "SubDocMultiMutation",
	OpCodeSubDocGetCount:       "SubDocGetCount",
	OpCodeGetErrorMap:          "GetErrorMap",
}

func (c OpCode) String() string {
	if n, ok := opCodeNames[c]; ok {
		return n
	}
	return "Unknown"
}

// IsSubDoc reports whether c is one of the single-path subdocument opcodes.
func (c OpCode) IsSubDoc() bool {
	switch c {
	case OpCodeSubDocGet, OpCodeSubDocExists, OpCodeSubDocDictAdd, OpCodeSubDocDictSet,
		OpCodeSubDocDelete, OpCodeSubDocReplace, OpCodeSubDocArrayPushLast,
		OpCodeSubDocArrayPushFirst, OpCodeSubDocArrayInsert, OpCodeSubDocArrayAddUnique,
		OpCodeSubDocCounter, OpCodeSubDocGetCount:
		return true
	}
	return false
}
