package memdx

import (
	"encoding/binary"

	"github.com/couchbase/gocbcorex/internal/kverrors"
)

// HelloFeature is a client/server capability negotiated during HELLO.
type HelloFeature uint16

const (
	HelloFeatureTLS = HelloFeature(0x02)
	HelloFeatureTCPNoDelay = HelloFeature(0x03)
	HelloFeatureMutationSeqno = HelloFeature(0x04)
	HelloFeatureXATTR = HelloFeature(0x06)
	HelloFeatureXError = HelloFeature(0x07)
	HelloFeatureSelectBucket = HelloFeature(0x08)
	HelloFeatureSnappy = HelloFeature(0x0a)
	HelloFeatureJSON = HelloFeature(0x0b)
	HelloFeatureDuplex = HelloFeature(0x0c)
	HelloFeatureClusterMapNotify = HelloFeature(0x0e)
	HelloFeatureAltRequests = HelloFeature(0x10)
	HelloFeatureSyncReplication = HelloFeature(0x11)
	HelloFeatureCollections = HelloFeature(0x12)
	HelloFeaturePreserveTTL = HelloFeature(0x14)
)

// HelloRequest negotiates the connection's feature set.
type HelloRequest struct {
	ClientName string
	Features []HelloFeature
}

func (r HelloRequest) Encode(opaque uint32) Packet {
	value := make([]byte, len(r.Features)*2)
	for i, f := range r.Features {
		binary.BigEndian.PutUint16(value[i*2:], uint16(f))
	}
	return Packet{
		Magic: MagicReq,
		OpCode: OpCodeHello,
		Opaque: opaque,
		Key: []byte(r.ClientName),
		Value: value,
	}
}

type HelloResponse struct {
	Features []HelloFeature
}

func DecodeHelloResponse(p Packet) (HelloResponse, *kverrors.Error) {
	if err := responseError(p, "Hello", ClassifyOpts{}); err != nil {
		return HelloResponse{}, err
	}
	if len(p.Value)%2 != 0 {
		return HelloResponse{}, kverrors.FromStatus(kverrors.KindProtocol, "Hello", uint16(p.Status))
	}
	features := make([]HelloFeature, len(p.Value)/2)
	for i := range features {
		features[i] = HelloFeature(binary.BigEndian.Uint16(p.Value[i*2:]))
	}
	return HelloResponse{Features: features}, nil
}

// GetErrorMapRequest fetches the server's KV error map for the given
// protocol version (bootstrap step "GetErrorMap").
type GetErrorMapRequest struct {
	Version uint16
}

func (r GetErrorMapRequest) Encode(opaque uint32) Packet {
	value := make([]byte, 2)
	binary.BigEndian.PutUint16(value, r.Version)
	return Packet{Magic: MagicReq, OpCode: OpCodeGetErrorMap, Opaque: opaque, Value: value}
}

type GetErrorMapResponse struct {
	ErrorMap []byte
}

func DecodeGetErrorMapResponse(p Packet) (GetErrorMapResponse, *kverrors.Error) {
	if err := responseError(p, "GetErrorMap", ClassifyOpts{}); err != nil {
		return GetErrorMapResponse{}, err
	}
	return GetErrorMapResponse{ErrorMap: p.Value}, nil
}

// SelectBucketRequest selects the bucket to operate against for the
// remaining lifetime of the connection (bootstrap step "SelectBucket").
type SelectBucketRequest struct {
	BucketName string
}

func (r SelectBucketRequest) Encode(opaque uint32) Packet {
	return Packet{Magic: MagicReq, OpCode: OpCodeSelectBucket, Opaque: opaque, Key: []byte(r.BucketName)}
}

func DecodeSelectBucketResponse(p Packet) *kverrors.Error {
	return responseError(p, "SelectBucket", ClassifyOpts{})
}

// GetClusterConfigRequest fetches the current cluster map (bootstrap step
// "GetClusterConfig", also used by the router on NotMyVBucket).
type GetClusterConfigRequest struct{}

func (r GetClusterConfigRequest) Encode(opaque uint32) Packet {
	return Packet{Magic: MagicReq, OpCode: OpCodeGetClusterConfig, Opaque: opaque}
}

type GetClusterConfigResponse struct {
	ConfigJSON []byte
}

func DecodeGetClusterConfigResponse(p Packet) (GetClusterConfigResponse, *kverrors.Error) {
	if err := responseError(p, "GetClusterConfig", ClassifyOpts{}); err != nil {
		return GetClusterConfigResponse{}, err
	}
	return GetClusterConfigResponse{ConfigJSON: p.Value}, nil
}

// GetCollectionIDRequest resolves a "scope.collection" path to a numeric
// collection id, used by the router's collection resolution cache
// (Supplemented Feature: collection-ID resolution cache).
type GetCollectionIDRequest struct {
	ScopeName string
	CollectionName string
}

func (r GetCollectionIDRequest) Encode(opaque uint32) Packet {
	path := r.ScopeName + "." + r.CollectionName
	return Packet{Magic: MagicReq, OpCode: OpCodeGetCollectionID, Opaque: opaque, Key: []byte(path)}
}

type GetCollectionIDResponse struct {
	ManifestRev uint64
	CollectionID uint32
}

func DecodeGetCollectionIDResponse(p Packet) (GetCollectionIDResponse, *kverrors.Error) {
	if err := responseError(p, "GetCollectionID", ClassifyOpts{}); err != nil {
		return GetCollectionIDResponse{}, err
	}
	if len(p.Extras) != 12 {
		return GetCollectionIDResponse{}, kverrors.FromStatus(kverrors.KindProtocol, "GetCollectionID", uint16(p.Status))
	}
	return GetCollectionIDResponse{
		ManifestRev: binary.BigEndian.Uint64(p.Extras[0:8]),
		CollectionID: binary.BigEndian.Uint32(p.Extras[8:12]),
	}, nil
}

// responseError classifies a non-success response status into the typed
// error taxonomy, returning nil on success.
func responseError(p Packet, op string, opts ClassifyOpts) *kverrors.Error {
	return ClassifyStatus(p.Status, op, opts)
}

// MutationToken is the vbuuid+seqno pair returned by a mutation when
// HelloFeatureMutationSeqno was negotiated, used by callers that need
// read-your-own-write consistency.
type MutationToken struct {
	VbUUID uint64
	Seqno uint64
}

func decodeMutationToken(extras []byte) (MutationToken, bool) {
	if len(extras) != 16 {
		return MutationToken{}, false
	}
	return MutationToken{
		VbUUID: binary.BigEndian.Uint64(extras[0:8]),
		Seqno: binary.BigEndian.Uint64(extras[8:16]),
	}, true
}

// GetRequest fetches a document's value, flags and CAS.
type GetRequest struct {
	CollectionID uint32
	Key []byte
	VbucketID uint16
}

func (r GetRequest) Encode(opaque uint32) Packet {
	return Packet{
		Magic: MagicReq,
		OpCode: OpCodeGet,
		Opaque: opaque,
		VbucketID: r.VbucketID,
		Key: EncodeCollectionID(r.CollectionID, r.Key),
	}
}

type GetResponse struct {
	Value []byte
	Flags uint32
	CAS uint64
	Datatype Datatype
}

func DecodeGetResponse(p Packet) (GetResponse, *kverrors.Error) {
	if err := responseError(p, "Get", ClassifyOpts{}); err != nil {
		return GetResponse{}, err
	}
	if len(p.Extras) != 4 {
		return GetResponse{}, kverrors.FromStatus(kverrors.KindProtocol, "Get", uint16(p.Status))
	}
	return GetResponse{
		Value: p.Value,
		Flags: binary.BigEndian.Uint32(p.Extras),
		CAS: p.CAS,
		Datatype: p.Datatype,
	}, nil
}

// GetMetaRequest fetches a document's metadata without its value.
type GetMetaRequest struct {
	CollectionID uint32
	Key []byte
	VbucketID uint16
}

func (r GetMetaRequest) Encode(opaque uint32) Packet {
	return Packet{
		Magic: MagicReq,
		OpCode: OpCodeGetMeta,
		Opaque: opaque,
		VbucketID: r.VbucketID,
		Key: EncodeCollectionID(r.CollectionID, r.Key),
		Extras: []byte{0x02}, // request extended meta (deleted flag + expiry)
	}
}

type GetMetaResponse struct {
	CAS uint64
	Flags uint32
	Expiry uint32
	SeqNo uint64
	Deleted bool
	Datatype Datatype
}

func DecodeGetMetaResponse(p Packet) (GetMetaResponse, *kverrors.Error) {
	if err := responseError(p, "GetMeta", ClassifyOpts{}); err != nil {
		return GetMetaResponse{}, err
	}
	if len(p.Extras) < 21 {
		return GetMetaResponse{}, kverrors.FromStatus(kverrors.KindProtocol, "GetMeta", uint16(p.Status))
	}
	return GetMetaResponse{
		Deleted: binary.BigEndian.Uint32(p.Extras[0:4]) != 0,
		Flags: binary.BigEndian.Uint32(p.Extras[4:8]),
		Expiry: binary.BigEndian.Uint32(p.Extras[8:12]),
		SeqNo: binary.BigEndian.Uint64(p.Extras[12:20]),
		CAS: p.CAS,
	}, nil
}

// GetAndLockRequest fetches a document's value and acquires the advisory
// write lock for the given duration.
type GetAndLockRequest struct {
	CollectionID uint32
	Key []byte
	VbucketID uint16
	LockTime uint32
}

func (r GetAndLockRequest) Encode(opaque uint32) Packet {
	extras := make([]byte, 4)
	binary.BigEndian.PutUint32(extras, r.LockTime)
	return Packet{
		Magic: MagicReq, OpCode: OpCodeGetLocked, Opaque: opaque,
		VbucketID: r.VbucketID, Key: EncodeCollectionID(r.CollectionID, r.Key), Extras: extras,
	}
}

func DecodeGetAndLockResponse(p Packet) (GetResponse, *kverrors.Error) {
	return DecodeGetResponse(p)
}

// GetAndTouchRequest fetches a document's value and updates its expiry.
type GetAndTouchRequest struct {
	CollectionID uint32
	Key []byte
	VbucketID uint16
	Expiry uint32
}

func (r GetAndTouchRequest) Encode(opaque uint32) Packet {
	extras := make([]byte, 4)
	binary.BigEndian.PutUint32(extras, r.Expiry)
	return Packet{
		Magic: MagicReq, OpCode: OpCodeGAT, Opaque: opaque,
		VbucketID: r.VbucketID, Key: EncodeCollectionID(r.CollectionID, r.Key), Extras: extras,
	}
}

func DecodeGetAndTouchResponse(p Packet) (GetResponse, *kverrors.Error) {
	return DecodeGetResponse(p)
}

// TouchRequest updates a document's expiry without returning its value.
type TouchRequest struct {
	CollectionID uint32
	Key []byte
	VbucketID uint16
	Expiry uint32
}

func (r TouchRequest) Encode(opaque uint32) Packet {
	extras := make([]byte, 4)
	binary.BigEndian.PutUint32(extras, r.Expiry)
	return Packet{
		Magic: MagicReq, OpCode: OpCodeTouch, Opaque: opaque,
		VbucketID: r.VbucketID, Key: EncodeCollectionID(r.CollectionID, r.Key), Extras: extras,
	}
}

type TouchResponse struct{ CAS uint64 }

func DecodeTouchResponse(p Packet) (TouchResponse, *kverrors.Error) {
	if err := responseError(p, "Touch", ClassifyOpts{}); err != nil {
		return TouchResponse{}, err
	}
	return TouchResponse{CAS: p.CAS}, nil
}

// UnlockRequest releases a key's advisory write lock.
type UnlockRequest struct {
	CollectionID uint32
	Key []byte
	VbucketID uint16
	CAS uint64
}

func (r UnlockRequest) Encode(opaque uint32) Packet {
	return Packet{
		Magic: MagicReq, OpCode: OpCodeUnlockKey, Opaque: opaque,
		VbucketID: r.VbucketID, Key: EncodeCollectionID(r.CollectionID, r.Key), CAS: r.CAS,
	}
}

func DecodeUnlockResponse(p Packet) *kverrors.Error {
	return responseError(p, "Unlock", ClassifyOpts{HadCAS: true})
}

// StoreRequest is the shared shape of Set/Add/Replace, which differ only
// in opcode and CAS semantics.
type StoreRequest struct {
	CollectionID uint32
	Key []byte
	VbucketID uint16
	Value []byte
	Datatype Datatype
	Flags uint32
	Expiry uint32
	CAS uint64
	PreserveExpiry bool
	OnBehalfOf string
	Durability DurabilityLevel
	DurabilityMS uint16
}

func (r StoreRequest) encode(opaque uint32, op OpCode) Packet {
	extras := make([]byte, 8)
	binary.BigEndian.PutUint32(extras[0:4], r.Flags)
	binary.BigEndian.PutUint32(extras[4:8], r.Expiry)

	p := Packet{
		Magic: MagicReq,
		OpCode: op,
		Opaque: opaque,
		VbucketID: r.VbucketID,
		Key: EncodeCollectionID(r.CollectionID, r.Key),
		Extras: extras,
		Value: r.Value,
		Datatype: r.Datatype,
		CAS: r.CAS,
	}
	applyFrames(&p, r.OnBehalfOf, r.PreserveExpiry, r.Durability, r.DurabilityMS)
	return p
}

func applyFrames(p *Packet, onBehalfOf string, preserveExpiry bool, durability DurabilityLevel, durabilityMS uint16) {
	var frames []Frame
	if onBehalfOf != "" {
		frames = append(frames, EncodeOnBehalfOf(onBehalfOf))
	}
	if durability != 0 {
		frames = append(frames, EncodeDurability(durability, durabilityMS))
	}
	if preserveExpiry {
		frames = append(frames, EncodePreserveTTL())
	}
	if len(frames) == 0 {
		return
	}
	p.Magic = MagicReqExt
	p.FramingExtras = EncodeFrames(frames)
}

func (r StoreRequest) EncodeSet(opaque uint32) Packet { return r.encode(opaque, OpCodeSet) }
func (r StoreRequest) EncodeAdd(opaque uint32) Packet { return r.encode(opaque, OpCodeAdd) }
func (r StoreRequest) EncodeReplace(opaque uint32) Packet { return r.encode(opaque, OpCodeReplace) }

type StoreResponse struct {
	CAS uint64
	MutationToken MutationToken
	HasToken bool
}

func decodeStoreResponse(p Packet, op string, hadCAS bool, isAddOnly bool, isAppendPrepend bool) (StoreResponse, *kverrors.Error) {
	if err := responseError(p, op, ClassifyOpts{HadCAS: hadCAS, IsAddOnly: isAddOnly, IsAppendPrepend: isAppendPrepend}); err != nil {
		return StoreResponse{}, err
	}
	token, ok := decodeMutationToken(p.Extras)
	return StoreResponse{CAS: p.CAS, MutationToken: token, HasToken: ok}, nil
}

func DecodeSetResponse(p Packet) (StoreResponse, *kverrors.Error) {
	return decodeStoreResponse(p, "Set", false, false, false)
}
func DecodeAddResponse(p Packet) (StoreResponse, *kverrors.Error) {
	return decodeStoreResponse(p, "Add", false, true, false)
}
func DecodeReplaceResponse(p Packet) (StoreResponse, *kverrors.Error) {
	return decodeStoreResponse(p, "Replace", true, false, false)
}

// DeleteRequest removes a document.
type DeleteRequest struct {
	CollectionID uint32
	Key []byte
	VbucketID uint16
	CAS uint64
	OnBehalfOf string
	Durability DurabilityLevel
	DurabilityMS uint16
}

func (r DeleteRequest) Encode(opaque uint32) Packet {
	p := Packet{
		Magic: MagicReq, OpCode: OpCodeDelete, Opaque: opaque,
		VbucketID: r.VbucketID, Key: EncodeCollectionID(r.CollectionID, r.Key), CAS: r.CAS,
	}
	applyFrames(&p, r.OnBehalfOf, false, r.Durability, r.DurabilityMS)
	return p
}

func DecodeDeleteResponse(p Packet) (StoreResponse, *kverrors.Error) {
	return decodeStoreResponse(p, "Delete", true, false, false)
}

// AppendRequest appends bytes to an existing document's value.
type AppendRequest struct {
	CollectionID uint32
	Key []byte
	VbucketID uint16
	Value []byte
	CAS uint64
}

func (r AppendRequest) Encode(opaque uint32) Packet {
	return Packet{
		Magic: MagicReq, OpCode: OpCodeAppend, Opaque: opaque,
		VbucketID: r.VbucketID, Key: EncodeCollectionID(r.CollectionID, r.Key), Value: r.Value, CAS: r.CAS,
	}
}

func DecodeAppendResponse(p Packet) (StoreResponse, *kverrors.Error) {
	return decodeStoreResponse(p, "Append", true, false, true)
}

// PrependRequest prepends bytes to an existing document's value.
type PrependRequest struct {
	CollectionID uint32
	Key []byte
	VbucketID uint16
	Value []byte
	CAS uint64
}

func (r PrependRequest) Encode(opaque uint32) Packet {
	return Packet{
		Magic: MagicReq, OpCode: OpCodePrepend, Opaque: opaque,
		VbucketID: r.VbucketID, Key: EncodeCollectionID(r.CollectionID, r.Key), Value: r.Value, CAS: r.CAS,
	}
}

func DecodePrependResponse(p Packet) (StoreResponse, *kverrors.Error) {
	return decodeStoreResponse(p, "Prepend", true, false, true)
}

// CounterRequest is the shared shape of Increment/Decrement.
type CounterRequest struct {
	CollectionID uint32
	Key []byte
	VbucketID uint16
	Delta uint64
	Initial uint64
	Expiry uint32
}

func (r CounterRequest) encode(opaque uint32, op OpCode) Packet {
	extras := make([]byte, 20)
	binary.BigEndian.PutUint64(extras[0:8], r.Delta)
	binary.BigEndian.PutUint64(extras[8:16], r.Initial)
	binary.BigEndian.PutUint32(extras[16:20], r.Expiry)
	return Packet{
		Magic: MagicReq, OpCode: op, Opaque: opaque,
		VbucketID: r.VbucketID, Key: EncodeCollectionID(r.CollectionID, r.Key), Extras: extras,
	}
}

func (r CounterRequest) EncodeIncrement(opaque uint32) Packet { return r.encode(opaque, OpCodeIncrement) }
func (r CounterRequest) EncodeDecrement(opaque uint32) Packet { return r.encode(opaque, OpCodeDecrement) }

type CounterResponse struct {
	Value uint64
	CAS uint64
}

func decodeCounterResponse(p Packet, op string) (CounterResponse, *kverrors.Error) {
	if err := responseError(p, op, ClassifyOpts{}); err != nil {
		return CounterResponse{}, err
	}
	if len(p.Value) != 8 {
		return CounterResponse{}, kverrors.FromStatus(kverrors.KindProtocol, op, uint16(p.Status))
	}
	return CounterResponse{Value: binary.BigEndian.Uint64(p.Value), CAS: p.CAS}, nil
}

func DecodeIncrementResponse(p Packet) (CounterResponse, *kverrors.Error) { return decodeCounterResponse(p, "Increment") }
func DecodeDecrementResponse(p Packet) (CounterResponse, *kverrors.Error) { return decodeCounterResponse(p, "Decrement") }

// GetRandomRequest fetches an arbitrary document from the bucket, used by
// diagnostic tooling and sampling-based consumers (Supplemented Feature).
type GetRandomRequest struct {
	CollectionID uint32
}

func (r GetRandomRequest) Encode(opaque uint32) Packet {
	return Packet{Magic: MagicReq, OpCode: OpCodeGetRandom, Opaque: opaque, Extras: appendUvarint(nil, r.CollectionID)}
}

func DecodeGetRandomResponse(p Packet) (GetResponse, *kverrors.Error) {
	return DecodeGetResponse(p)
}

// GetAllVBSeqnosRequest fetches the current high-seqno of every vbucket
// this connection's node owns, used for bootstrap consistency checks
// (Supplemented Feature).
type GetAllVBSeqnosRequest struct{}

func (r GetAllVBSeqnosRequest) Encode(opaque uint32) Packet {
	return Packet{Magic: MagicReq, OpCode: OpCodeGetAllVBSeqnos, Opaque: opaque}
}

type VBSeqno struct {
	VbucketID uint16
	Seqno uint64
}

func DecodeGetAllVBSeqnosResponse(p Packet) ([]VBSeqno, *kverrors.Error) {
	if err := responseError(p, "GetAllVBSeqnos", ClassifyOpts{}); err != nil {
		return nil, err
	}
	if len(p.Value)%10 != 0 {
		return nil, kverrors.FromStatus(kverrors.KindProtocol, "GetAllVBSeqnos", uint16(p.Status))
	}
	out := make([]VBSeqno, len(p.Value)/10)
	for i := range out {
		off := i * 10
		out[i] = VBSeqno{
			VbucketID: binary.BigEndian.Uint16(p.Value[off : off+2]),
			Seqno: binary.BigEndian.Uint64(p.Value[off+2 : off+10]),
		}
	}
	return out, nil
}
