package gocbcorex

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchbase/gocbcorex/internal/memdx"
)

func TestLookupInPathGetDefaultsToGetOp(t *testing.T) {
	spec := LookupInPathGet("foo.bar")
	op := spec.toPathOp()
	assert.Equal(t, memdx.SubDocOpGet, op.OpType)
	assert.Equal(t, "foo.bar", op.Path)
	assert.Equal(t, uint8(0), op.Flags)
}

func TestLookupInPathExistsSetsOp(t *testing.T) {
	spec := LookupInPathExists("foo.bar")
	op := spec.toPathOp()
	assert.Equal(t, memdx.SubDocOpExists, op.OpType)
}

func TestLookupInSpecXattrSetsFlag(t *testing.T) {
	spec := LookupInSpec{Path: "$document", Op: memdx.SubDocOpGet, IsXattr: true}
	op := spec.toPathOp()
	assert.Equal(t, uint8(memdx.SubDocPathFlagXattr), op.Flags)
}

func TestMutateInPathUpsertBuildsDictSetOp(t *testing.T) {
	spec := MutateInPathUpsert("foo", []byte(`"bar"`))
	op := spec.toPathOp()
	assert.Equal(t, memdx.SubDocOpDictSet, op.OpType)
	assert.Equal(t, []byte(`"bar"`), op.Value)
}

func TestMutateInPathInsertBuildsDictAddOp(t *testing.T) {
	spec := MutateInPathInsert("foo", []byte(`"bar"`))
	op := spec.toPathOp()
	assert.Equal(t, memdx.SubDocOpDictAdd, op.OpType)
}

func TestMutateInPathRemoveBuildsDeleteOp(t *testing.T) {
	spec := MutateInPathRemove("foo")
	op := spec.toPathOp()
	assert.Equal(t, memdx.SubDocOpDelete, op.OpType)
	assert.Nil(t, op.Value)
}

func TestMutateInPathCounterBuildsCounterOp(t *testing.T) {
	spec := MutateInPathCounter("count", []byte("1"))
	op := spec.toPathOp()
	assert.Equal(t, memdx.SubDocOpCounter, op.OpType)
	assert.Equal(t, []byte("1"), op.Value)
}

func TestMutationTokenOfAbsent(t *testing.T) {
	assert.Nil(t, mutationTokenOf(memdx.MutationToken{}, false))
}

func TestMutationTokenOfPresent(t *testing.T) {
	tok := mutationTokenOf(memdx.MutationToken{VbUUID: 42, Seqno: 7}, true)
	assert.NotNil(t, tok)
	assert.Equal(t, uint64(42), tok.VbUUID)
	assert.Equal(t, uint64(7), tok.Seqno)
}
