package gocbcorex

import (
	"context"
	"time"

	"github.com/couchbase/gocbcorex/internal/memdx"
	"github.com/couchbase/gocbcorex/internal/router"
)

// defaultOpTimeout bounds a single dispatch attempt when ctx carries no
// deadline of its own.
const defaultOpTimeout = 2500 * time.Millisecond

func deadlineFrom(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		return dl
	}
	return time.Now().Add(defaultOpTimeout)
}

// MutationToken identifies the vbuuid+seqno a mutation landed at, usable
// for read-your-own-write consistency on a subsequent request.
type MutationToken struct {
	VbUUID uint64
	Seqno  uint64
}

func mutationTokenOf(t memdx.MutationToken, has bool) *MutationToken {
	if !has {
		return nil
	}
	return &MutationToken{VbUUID: t.VbUUID, Seqno: t.Seqno}
}

// GetOptions configures a Get call. The zero value addresses the default
// collection.
type GetOptions struct {
	CollectionID uint32
}

// GetResult is the outcome of a successful Get.
type GetResult struct {
	Value    []byte
	Flags    uint32
	CAS      uint64
	Datatype memdx.Datatype
}

// Get fetches a document's value, flags, and CAS.
func (a *Agent) Get(ctx context.Context, key []byte, opts GetOptions) (*GetResult, error) {
	req := memdx.GetRequest{CollectionID: opts.CollectionID, Key: key}
	resp, err := a.router.Dispatch(ctx, "Get", key, router.ReplicaModePrimary, 0,
		memdx.ResponseContext{}, deadlineFrom(ctx),
		func(vbID uint16) memdx.Packet { req.VbucketID = vbID; return req.Encode(0) })
	if err != nil {
		return nil, err
	}
	decoded, derr := memdx.DecodeGetResponse(resp)
	if derr != nil {
		return nil, derr
	}
	return &GetResult{Value: decoded.Value, Flags: decoded.Flags, CAS: decoded.CAS, Datatype: decoded.Datatype}, nil
}

// GetAndLockOptions configures a GetAndLock call.
type GetAndLockOptions struct {
	CollectionID uint32
	LockTime     uint32
}

// GetAndLock fetches a document's value and acquires its advisory write
// lock for LockTime seconds.
func (a *Agent) GetAndLock(ctx context.Context, key []byte, opts GetAndLockOptions) (*GetResult, error) {
	req := memdx.GetAndLockRequest{CollectionID: opts.CollectionID, Key: key, LockTime: opts.LockTime}
	resp, err := a.router.Dispatch(ctx, "GetAndLock", key, router.ReplicaModePrimary, 0,
		memdx.ResponseContext{}, deadlineFrom(ctx),
		func(vbID uint16) memdx.Packet { req.VbucketID = vbID; return req.Encode(0) })
	if err != nil {
		return nil, err
	}
	decoded, derr := memdx.DecodeGetAndLockResponse(resp)
	if derr != nil {
		return nil, derr
	}
	return &GetResult{Value: decoded.Value, Flags: decoded.Flags, CAS: decoded.CAS, Datatype: decoded.Datatype}, nil
}

// GetAndTouchOptions configures a GetAndTouch call.
type GetAndTouchOptions struct {
	CollectionID uint32
	Expiry       uint32
}

// GetAndTouch fetches a document's value and updates its expiry.
func (a *Agent) GetAndTouch(ctx context.Context, key []byte, opts GetAndTouchOptions) (*GetResult, error) {
	req := memdx.GetAndTouchRequest{CollectionID: opts.CollectionID, Key: key, Expiry: opts.Expiry}
	resp, err := a.router.Dispatch(ctx, "GetAndTouch", key, router.ReplicaModePrimary, 0,
		memdx.ResponseContext{}, deadlineFrom(ctx),
		func(vbID uint16) memdx.Packet { req.VbucketID = vbID; return req.Encode(0) })
	if err != nil {
		return nil, err
	}
	decoded, derr := memdx.DecodeGetAndTouchResponse(resp)
	if derr != nil {
		return nil, derr
	}
	return &GetResult{Value: decoded.Value, Flags: decoded.Flags, CAS: decoded.CAS, Datatype: decoded.Datatype}, nil
}

// TouchOptions configures a Touch call.
type TouchOptions struct {
	CollectionID uint32
	Expiry       uint32
}

// TouchResult is the outcome of a successful Touch.
type TouchResult struct {
	CAS uint64
}

// Touch updates a document's expiry without fetching its value.
func (a *Agent) Touch(ctx context.Context, key []byte, opts TouchOptions) (*TouchResult, error) {
	req := memdx.TouchRequest{CollectionID: opts.CollectionID, Key: key, Expiry: opts.Expiry}
	resp, err := a.router.Dispatch(ctx, "Touch", key, router.ReplicaModePrimary, 0,
		memdx.ResponseContext{}, deadlineFrom(ctx),
		func(vbID uint16) memdx.Packet { req.VbucketID = vbID; return req.Encode(0) })
	if err != nil {
		return nil, err
	}
	decoded, derr := memdx.DecodeTouchResponse(resp)
	if derr != nil {
		return nil, derr
	}
	return &TouchResult{CAS: decoded.CAS}, nil
}

// UnlockOptions configures an Unlock call.
type UnlockOptions struct {
	CollectionID uint32
}

// Unlock releases a key's advisory write lock, which must currently be
// held under CAS.
func (a *Agent) Unlock(ctx context.Context, key []byte, cas uint64, opts UnlockOptions) error {
	req := memdx.UnlockRequest{CollectionID: opts.CollectionID, Key: key, CAS: cas}
	_, err := a.router.Dispatch(ctx, "Unlock", key, router.ReplicaModePrimary, 0,
		memdx.ResponseContext{HadCAS: true}, deadlineFrom(ctx),
		func(vbID uint16) memdx.Packet { req.VbucketID = vbID; return req.Encode(0) })
	return kvError(err)
}

// StoreOptions configures Set/Add/Replace.
type StoreOptions struct {
	CollectionID   uint32
	Flags          uint32
	Expiry         uint32
	Datatype       memdx.Datatype
	CAS            uint64
	PreserveExpiry bool
	OnBehalfOf     string
	Durability     memdx.DurabilityLevel
	DurabilityMS   uint16
}

// StoreResult is the outcome of a successful Set/Add/Replace/Delete/
// Append/Prepend.
type StoreResult struct {
	CAS           uint64
	MutationToken *MutationToken
}

func (a *Agent) store(ctx context.Context, opName string, key []byte, value []byte, opts StoreOptions,
	encode func(memdx.StoreRequest) memdx.Packet,
	decode func(memdx.Packet) (memdx.StoreResponse, *kverrors.Error),
	hadCAS bool) (*StoreResult, error) {

	req := memdx.StoreRequest{
		CollectionID: opts.CollectionID, Key: key, Value: value,
		Datatype: opts.Datatype, Flags: opts.Flags, Expiry: opts.Expiry, CAS: opts.CAS,
		PreserveExpiry: opts.PreserveExpiry, OnBehalfOf: opts.OnBehalfOf,
		Durability: opts.Durability, DurabilityMS: opts.DurabilityMS,
	}
	resp, err := a.router.Dispatch(ctx, opName, key, router.ReplicaModePrimary, 0,
		memdx.ResponseContext{HadCAS: hadCAS}, deadlineFrom(ctx),
		func(vbID uint16) memdx.Packet { req.VbucketID = vbID; return encode(req) })
	if err != nil {
		return nil, err
	}

	decoded, derr := decode(resp)
	if derr != nil {
		return nil, derr
	}
	return &StoreResult{CAS: decoded.CAS, MutationToken: mutationTokenOf(decoded.MutationToken, decoded.HasToken)}, nil
}

// Set creates or overwrites a document unconditionally.
func (a *Agent) Set(ctx context.Context, key []byte, value []byte, opts StoreOptions) (*StoreResult, error) {
	return a.store(ctx, "Set", key, value, opts,
		func(r memdx.StoreRequest) memdx.Packet { return r.EncodeSet(0) },
		memdx.DecodeSetResponse, false)
}

// Add creates a document, failing with KeyExists if it already exists.
func (a *Agent) Add(ctx context.Context, key []byte, value []byte, opts StoreOptions) (*StoreResult, error) {
	return a.store(ctx, "Add", key, value, opts,
		func(r memdx.StoreRequest) memdx.Packet { return r.EncodeAdd(0) },
		memdx.DecodeAddResponse, false)
}

// Replace overwrites an existing document, failing with KeyNotFound if it
// does not exist, and with KeyExists (CAS mismatch) if opts.CAS is stale.
func (a *Agent) Replace(ctx context.Context, key []byte, value []byte, opts StoreOptions) (*StoreResult, error) {
	return a.store(ctx, "Replace", key, value, opts,
		func(r memdx.StoreRequest) memdx.Packet { return r.EncodeReplace(0) },
		memdx.DecodeReplaceResponse, opts.CAS != 0)
}

// DeleteOptions configures a Delete call.
type DeleteOptions struct {
	CollectionID uint32
	CAS          uint64
	OnBehalfOf   string
	Durability   memdx.DurabilityLevel
	DurabilityMS uint16
}

// Delete removes a document.
func (a *Agent) Delete(ctx context.Context, key []byte, opts DeleteOptions) (*StoreResult, error) {
	req := memdx.DeleteRequest{
		CollectionID: opts.CollectionID, Key: key, CAS: opts.CAS,
		OnBehalfOf: opts.OnBehalfOf, Durability: opts.Durability, DurabilityMS: opts.DurabilityMS,
	}
	resp, err := a.router.Dispatch(ctx, "Delete", key, router.ReplicaModePrimary, 0,
		memdx.ResponseContext{HadCAS: opts.CAS != 0}, deadlineFrom(ctx),
		func(vbID uint16) memdx.Packet { req.VbucketID = vbID; return req.Encode(0) })
	if err != nil {
		return nil, err
	}
	decoded, derr := memdx.DecodeDeleteResponse(resp)
	if derr != nil {
		return nil, derr
	}
	return &StoreResult{CAS: decoded.CAS, MutationToken: mutationTokenOf(decoded.MutationToken, decoded.HasToken)}, nil
}

// AppendPrependOptions configures Append/Prepend.
type AppendPrependOptions struct {
	CollectionID uint32
	CAS          uint64
}

// Append appends value to an existing document's body.
func (a *Agent) Append(ctx context.Context, key []byte, value []byte, opts AppendPrependOptions) (*StoreResult, error) {
	req := memdx.AppendRequest{CollectionID: opts.CollectionID, Key: key, Value: value, CAS: opts.CAS}
	resp, err := a.router.Dispatch(ctx, "Append", key, router.ReplicaModePrimary, 0,
		memdx.ResponseContext{HadCAS: opts.CAS != 0}, deadlineFrom(ctx),
		func(vbID uint16) memdx.Packet { req.VbucketID = vbID; return req.Encode(0) })
	if err != nil {
		return nil, err
	}
	decoded, derr := memdx.DecodeAppendResponse(resp)
	if derr != nil {
		return nil, derr
	}
	return &StoreResult{CAS: decoded.CAS, MutationToken: mutationTokenOf(decoded.MutationToken, decoded.HasToken)}, nil
}

// Prepend prepends value to an existing document's body.
func (a *Agent) Prepend(ctx context.Context, key []byte, value []byte, opts AppendPrependOptions) (*StoreResult, error) {
	req := memdx.PrependRequest{CollectionID: opts.CollectionID, Key: key, Value: value, CAS: opts.CAS}
	resp, err := a.router.Dispatch(ctx, "Prepend", key, router.ReplicaModePrimary, 0,
		memdx.ResponseContext{HadCAS: opts.CAS != 0}, deadlineFrom(ctx),
		func(vbID uint16) memdx.Packet { req.VbucketID = vbID; return req.Encode(0) })
	if err != nil {
		return nil, err
	}
	decoded, derr := memdx.DecodePrependResponse(resp)
	if derr != nil {
		return nil, derr
	}
	return &StoreResult{CAS: decoded.CAS, MutationToken: mutationTokenOf(decoded.MutationToken, decoded.HasToken)}, nil
}

// CounterOptions configures Increment/Decrement.
type CounterOptions struct {
	CollectionID uint32
	Delta        uint64
	Initial      uint64
	Expiry       uint32
}

// CounterResult is the outcome of a successful Increment/Decrement.
type CounterResult struct {
	Value uint64
	CAS   uint64
}

// Increment adds Delta to a counter document, creating it at Initial if
// it does not exist.
func (a *Agent) Increment(ctx context.Context, key []byte, opts CounterOptions) (*CounterResult, error) {
	req := memdx.CounterRequest{CollectionID: opts.CollectionID, Key: key, Delta: opts.Delta, Initial: opts.Initial, Expiry: opts.Expiry}
	resp, err := a.router.Dispatch(ctx, "Increment", key, router.ReplicaModePrimary, 0,
		memdx.ResponseContext{}, deadlineFrom(ctx),
		func(vbID uint16) memdx.Packet { req.VbucketID = vbID; return req.EncodeIncrement(0) })
	if err != nil {
		return nil, err
	}
	decoded, derr := memdx.DecodeIncrementResponse(resp)
	if derr != nil {
		return nil, derr
	}
	return &CounterResult{Value: decoded.Value, CAS: decoded.CAS}, nil
}

// Decrement subtracts Delta from a counter document, creating it at
// Initial if it does not exist. A counter never underflows below zero.
func (a *Agent) Decrement(ctx context.Context, key []byte, opts CounterOptions) (*CounterResult, error) {
	req := memdx.CounterRequest{CollectionID: opts.CollectionID, Key: key, Delta: opts.Delta, Initial: opts.Initial, Expiry: opts.Expiry}
	resp, err := a.router.Dispatch(ctx, "Decrement", key, router.ReplicaModePrimary, 0,
		memdx.ResponseContext{}, deadlineFrom(ctx),
		func(vbID uint16) memdx.Packet { req.VbucketID = vbID; return req.EncodeDecrement(0) })
	if err != nil {
		return nil, err
	}
	decoded, derr := memdx.DecodeDecrementResponse(resp)
	if derr != nil {
		return nil, derr
	}
	return &CounterResult{Value: decoded.Value, CAS: decoded.CAS}, nil
}
