package memdx

import (
	"encoding/binary"

	"github.com/couchbase/gocbcorex/internal/kverrors"
)

// SubDocOpType is one path-level subdocument operation within a multi-op
// request.
type SubDocOpType uint8

const (
	SubDocOpGet = SubDocOpType(OpCodeSubDocGet)
	SubDocOpExists = SubDocOpType(OpCodeSubDocExists)
	SubDocOpDictAdd = SubDocOpType(OpCodeSubDocDictAdd)
	SubDocOpDictSet = SubDocOpType(OpCodeSubDocDictSet)
	SubDocOpDelete = SubDocOpType(OpCodeSubDocDelete)
	SubDocOpReplace = SubDocOpType(OpCodeSubDocReplace)
	SubDocOpArrayPushLast = SubDocOpType(OpCodeSubDocArrayPushLast)
	SubDocOpArrayPushFirst = SubDocOpType(OpCodeSubDocArrayPushFirst)
	SubDocOpArrayInsert = SubDocOpType(OpCodeSubDocArrayInsert)
	SubDocOpArrayAddUnique = SubDocOpType(OpCodeSubDocArrayAddUnique)
	SubDocOpCounter = SubDocOpType(OpCodeSubDocCounter)
	SubDocOpGetCount = SubDocOpType(OpCodeSubDocGetCount)
)

// SubDocPathFlagXattr marks a path as addressing an extended attribute
// rather than the document body.
const SubDocPathFlagXattr = 0x01

// SubDocDocFlagMkDoc creates the document if it does not exist.
const SubDocDocFlagMkDoc = 0x01

// SubDocDocFlagAddDoc requires the document not already exist (used to
// detect KeyExists via MutateIn rather than NotStored).
const SubDocDocFlagAddDoc = 0x02

// SubDocDocFlagAccessDeleted allows operating on a soft-deleted document.
const SubDocDocFlagAccessDeleted = 0x04

// SubDocPathOp is one entry of a LookupIn or MutateIn multi-op request.
type SubDocPathOp struct {
	OpType SubDocOpType
	Flags uint8
	Path string
	Value []byte
}

// encodeSubDocOps serializes MutateIn path ops as
// {opcode(8), flags(8), path-len(16), value-len(32), path-bytes, value-bytes}
// per op.
func encodeSubDocOps(ops []SubDocPathOp) []byte {
	var out []byte
	for _, op := range ops {
		header := make([]byte, 8)
		header[0] = byte(op.OpType)
		header[1] = op.Flags
		binary.BigEndian.PutUint16(header[2:4], uint16(len(op.Path)))
		binary.BigEndian.PutUint32(header[4:8], uint32(len(op.Value)))
		out = append(out, header...)
		out = append(out, op.Path...)
		out = append(out, op.Value...)
	}
	return out
}

// LookupInRequest reads one or more paths from a document in a single
// round trip.
type LookupInRequest struct {
	CollectionID uint32
	Key []byte
	VbucketID uint16
	DocFlags uint8
	Ops []SubDocPathOp
}

func (r LookupInRequest) Encode(opaque uint32) Packet {
	// LookupIn path ops never carry a value length prefix.
	var value []byte
	for _, op := range r.Ops {
		header := make([]byte, 4)
		header[0] = byte(op.OpType)
		header[1] = op.Flags
		binary.BigEndian.PutUint16(header[2:4], uint16(len(op.Path)))
		value = append(value, header...)
		value = append(value, op.Path...)
	}
	extras := []byte{r.DocFlags}
	return Packet{
		Magic: MagicReq, OpCode: OpCodeSubDocMultiLookup, Opaque: opaque,
		VbucketID: r.VbucketID, Key: EncodeCollectionID(r.CollectionID, r.Key),
		Extras: extras, Value: value,
	}
}

// SubDocLookupResult is one path's outcome within a LookupIn response.
type SubDocLookupResult struct {
	Status Status
	Value []byte
}

type LookupInResponse struct {
	CAS uint64
	Results []SubDocLookupResult
}

// DecodeLookupInResponse decodes a multi-path lookup response. A top-level
// StatusSubDocMultiPathFailure still carries per-path results and is not
// itself surfaced as an error; callers must inspect each result's Status.
func DecodeLookupInResponse(p Packet) (LookupInResponse, *kverrors.Error) {
	if p.Status != StatusSuccess && p.Status != StatusSubDocMultiPathFailure {
		if err := responseError(p, "LookupIn", ClassifyOpts{}); err != nil {
			return LookupInResponse{}, err
		}
	}

	var results []SubDocLookupResult
	off := 0
	for off < len(p.Value) {
		if off+6 > len(p.Value) {
			return LookupInResponse{}, kverrors.FromStatus(kverrors.KindProtocol, "LookupIn", uint16(p.Status))
		}
		status := Status(binary.BigEndian.Uint16(p.Value[off : off+2]))
		valLen := int(binary.BigEndian.Uint32(p.Value[off+2 : off+6]))
		off += 6
		if off+valLen > len(p.Value) {
			return LookupInResponse{}, kverrors.FromStatus(kverrors.KindProtocol, "LookupIn", uint16(p.Status))
		}
		results = append(results, SubDocLookupResult{Status: status, Value: p.Value[off : off+valLen]})
		off += valLen
	}

	return LookupInResponse{CAS: p.CAS, Results: results}, nil
}

// MutateInRequest mutates one or more paths in a document in a single
// round trip.
type MutateInRequest struct {
	CollectionID uint32
	Key []byte
	VbucketID uint16
	CAS uint64
	DocFlags uint8
	Expiry uint32
	Ops []SubDocPathOp
	OnBehalfOf string
	Durability DurabilityLevel
	DurabilityMS uint16
}

func (r MutateInRequest) Encode(opaque uint32) Packet {
	extras := make([]byte, 0, 5)
	extras = append(extras, r.DocFlags)
	if r.Expiry != 0 {
		expBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(expBuf, r.Expiry)
		extras = append(extras, expBuf...)
	}

	p := Packet{
		Magic: MagicReq, OpCode: OpCodeSubDocMultiMutation, Opaque: opaque,
		VbucketID: r.VbucketID, Key: EncodeCollectionID(r.CollectionID, r.Key),
		Extras: extras, Value: encodeSubDocOps(r.Ops), CAS: r.CAS,
	}
	applyFrames(&p, r.OnBehalfOf, false, r.Durability, r.DurabilityMS)
	return p
}

// SubDocMutateResult is one path's outcome within a MutateIn response;
// only counter and array-insert-with-reply ops carry a body.
type SubDocMutateResult struct {
	OpIndex int
	Status Status
	Value []byte
}

type MutateInResponse struct {
	CAS uint64
	MutationToken MutationToken
	HasToken bool
	Results []SubDocMutateResult
}

// DecodeMutateInResponse decodes a multi-path mutation response. On
// StatusSubDocMultiPathFailure the response value is the 3-byte payload
// {failing op index, status}; on success it is zero or more
// {op index, value length, value} entries for ops that return a body.
// isAddOnly must reflect whether the originating request carried
// SubDocDocFlagAddDoc, so a NotStored status classifies as KeyExists rather
// than CasMismatch.
func DecodeMutateInResponse(p Packet, isAddOnly bool) (MutateInResponse, *kverrors.Error) {
	if p.Status == StatusSubDocMultiPathFailure || p.Status == StatusSubDocMultiPathFailureDeleted {
		if len(p.Value) < 3 {
			return MutateInResponse{}, kverrors.FromStatus(kverrors.KindProtocol, "MutateIn", uint16(p.Status))
		}
		opIndex := int(p.Value[0])
		failStatus := Status(binary.BigEndian.Uint16(p.Value[1:3]))
		return MutateInResponse{}, kverrors.SubdocPath(
			kindForSubDocStatus(failStatus, isAddOnly), "MutateIn", opIndex, uint16(failStatus))
	}

	if err := responseError(p, "MutateIn", ClassifyOpts{HadCAS: p.CAS != 0, IsAddOnly: isAddOnly}); err != nil {
		return MutateInResponse{}, err
	}

	token, hasToken := decodeMutationToken(p.Extras)

	var results []SubDocMutateResult
	off := 0
	for off < len(p.Value) {
		if off+5 > len(p.Value) {
			break
		}
		opIndex := int(p.Value[off])
		valLen := int(binary.BigEndian.Uint32(p.Value[off+1 : off+5]))
		off += 5
		if off+valLen > len(p.Value) {
			break
		}
		results = append(results, SubDocMutateResult{OpIndex: opIndex, Status: StatusSuccess, Value: p.Value[off : off+valLen]})
		off += valLen
	}

	return MutateInResponse{CAS: p.CAS, MutationToken: token, HasToken: hasToken, Results: results}, nil
}

func kindForSubDocStatus(status Status, isAddOnly bool) kverrors.Kind {
	err := ClassifyStatus(status, "MutateIn", ClassifyOpts{IsAddOnly: isAddOnly})
	if err == nil {
		return kverrors.KindUnknown
	}
	return err.Kind
}
