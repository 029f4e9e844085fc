package gocbcorex

import (
	"context"

	"github.com/couchbase/gocbcorex/internal/memdx"
	"github.com/couchbase/gocbcorex/internal/router"
)

// LookupInSpec is one path read within a LookupIn call.
type LookupInSpec struct {
	Path  string
	IsXattr bool
	Op    memdx.SubDocOpType
}

func (s LookupInSpec) toPathOp() memdx.SubDocPathOp {
	var flags uint8
	if s.IsXattr {
		flags |= memdx.SubDocPathFlagXattr
	}
	op := s.Op
	if op == 0 {
		op = memdx.SubDocOpGet
	}
	return memdx.SubDocPathOp{OpType: op, Flags: flags, Path: s.Path}
}

// LookupInPathGet reads the value at path.
func LookupInPathGet(path string) LookupInSpec { return LookupInSpec{Path: path, Op: memdx.SubDocOpGet} }

// LookupInPathExists checks only whether path exists.
func LookupInPathExists(path string) LookupInSpec { return LookupInSpec{Path: path, Op: memdx.SubDocOpExists} }

// LookupInOptions configures a LookupIn call.
type LookupInOptions struct {
	CollectionID   uint32
	AccessDeleted  bool
}

// LookupInPathResult is one spec's outcome within a LookupIn call.
type LookupInPathResult struct {
	Value []byte
	Err   error
}

// LookupInResult is the outcome of a successful LookupIn.
type LookupInResult struct {
	CAS     uint64
	Results []LookupInPathResult
}

// LookupIn reads one or more paths of a document in a single round trip.
// A per-path failure (e.g. PathNotFound) does not fail the call as a
// whole; inspect each LookupInPathResult.Err.
func (a *Agent) LookupIn(ctx context.Context, key []byte, specs []LookupInSpec, opts LookupInOptions) (*LookupInResult, error) {
	ops := make([]memdx.SubDocPathOp, len(specs))
	for i, s := range specs {
		ops[i] = s.toPathOp()
	}

	var docFlags uint8
	if opts.AccessDeleted {
		docFlags |= memdx.SubDocDocFlagAccessDeleted
	}

	req := memdx.LookupInRequest{CollectionID: opts.CollectionID, Key: key, DocFlags: docFlags, Ops: ops}
	resp, err := a.router.Dispatch(ctx, "LookupIn", key, router.ReplicaModePrimary, 0,
		memdx.ResponseContext{}, deadlineFrom(ctx),
		func(vbID uint16) memdx.Packet { req.VbucketID = vbID; return req.Encode(0) })
	if err != nil {
		return nil, err
	}

	decoded, derr := memdx.DecodeLookupInResponse(resp)
	if derr != nil {
		return nil, derr
	}

	results := make([]LookupInPathResult, len(decoded.Results))
	for i, r := range decoded.Results {
		pr := LookupInPathResult{Value: r.Value}
		if r.Status != memdx.StatusSuccess {
			pr.Err = memdx.ClassifyStatus(r.Status, "LookupIn", memdx.ClassifyOpts{})
		}
		results[i] = pr
	}
	return &LookupInResult{CAS: decoded.CAS, Results: results}, nil
}

// MutateInSpec is one path mutation within a MutateIn call.
type MutateInSpec struct {
	Path    string
	Value   []byte
	IsXattr bool
	Op      memdx.SubDocOpType
}

func (s MutateInSpec) toPathOp() memdx.SubDocPathOp {
	var flags uint8
	if s.IsXattr {
		flags |= memdx.SubDocPathFlagXattr
	}
	return memdx.SubDocPathOp{OpType: s.Op, Flags: flags, Path: s.Path, Value: s.Value}
}

// MutateInPathUpsert sets path to value, creating it if absent.
func MutateInPathUpsert(path string, value []byte) MutateInSpec {
	return MutateInSpec{Path: path, Value: value, Op: memdx.SubDocOpDictSet}
}

// MutateInPathInsert creates path, failing with PathExists if present.
func MutateInPathInsert(path string, value []byte) MutateInSpec {
	return MutateInSpec{Path: path, Value: value, Op: memdx.SubDocOpDictAdd}
}

// MutateInPathRemove removes path.
func MutateInPathRemove(path string) MutateInSpec {
	return MutateInSpec{Path: path, Op: memdx.SubDocOpDelete}
}

// MutateInPathCounter applies delta (encoded as value, a JSON integer) to
// the numeric value at path.
func MutateInPathCounter(path string, delta []byte) MutateInSpec {
	return MutateInSpec{Path: path, Value: delta, Op: memdx.SubDocOpCounter}
}

// MutateInOptions configures a MutateIn call.
type MutateInOptions struct {
	CollectionID uint32
	CAS          uint64
	Expiry       uint32
	CreateDoc    bool
	// InsertOnly requires that the document not already exist; a document
	// that does exist fails with a KeyExists error rather than being
	// mutated. Mutually exclusive with CreateDoc in practice, since the
	// server rejects a request that sets both doc flags.
	InsertOnly   bool
	OnBehalfOf   string
	Durability   memdx.DurabilityLevel
	DurabilityMS uint16
}

// MutateInPathResult is one spec's outcome within a successful MutateIn
// call; only counter and array-insert-with-reply specs carry a Value.
type MutateInPathResult struct {
	OpIndex int
	Value   []byte
}

// MutateInResult is the outcome of a successful MutateIn.
type MutateInResult struct {
	CAS           uint64
	MutationToken *MutationToken
	Results       []MutateInPathResult
}

// MutateIn mutates one or more paths of a document in a single round
// trip, applying all of them atomically: if any path fails, the whole
// call fails and no path is changed.
func (a *Agent) MutateIn(ctx context.Context, key []byte, specs []MutateInSpec, opts MutateInOptions) (*MutateInResult, error) {
	ops := make([]memdx.SubDocPathOp, len(specs))
	for i, s := range specs {
		ops[i] = s.toPathOp()
	}

	var docFlags uint8
	if opts.CreateDoc {
		docFlags |= memdx.SubDocDocFlagMkDoc
	}
	if opts.InsertOnly {
		docFlags |= memdx.SubDocDocFlagAddDoc
	}

	req := memdx.MutateInRequest{
		CollectionID: opts.CollectionID, Key: key, CAS: opts.CAS, DocFlags: docFlags,
		Expiry: opts.Expiry, Ops: ops, OnBehalfOf: opts.OnBehalfOf,
		Durability: opts.Durability, DurabilityMS: opts.DurabilityMS,
	}
	resp, err := a.router.Dispatch(ctx, "MutateIn", key, router.ReplicaModePrimary, 0,
		memdx.ResponseContext{HadCAS: opts.CAS != 0, IsAddOnly: opts.InsertOnly}, deadlineFrom(ctx),
		func(vbID uint16) memdx.Packet { req.VbucketID = vbID; return req.Encode(0) })
	if err != nil {
		return nil, err
	}

	decoded, derr := memdx.DecodeMutateInResponse(resp, opts.InsertOnly)
	if derr != nil {
		return nil, derr
	}

	results := make([]MutateInPathResult, len(decoded.Results))
	for i, r := range decoded.Results {
		results[i] = MutateInPathResult{OpIndex: r.OpIndex, Value: r.Value}
	}
	return &MutateInResult{
		CAS:           decoded.CAS,
		MutationToken: mutationTokenOf(decoded.MutationToken, decoded.HasToken),
		Results:       results,
	}, nil
}
