package router

import (
	"log/slog"
	"testing"
	"time"

	"github.com/couchbase/gocbcorex/internal/kverrors"
	"github.com/couchbase/gocbcorex/internal/kvmetrics"
	"github.com/couchbase/gocbcorex/internal/vbucket"
)

func TestHostOf(t *testing.T) {
	cases := map[string]string{
		"node1.local:11210":      "node1.local",
		"10.0.0.1:11207":         "10.0.0.1",
		"[::1]:11210":            "[::1]",
		"no-port-at-all":         "no-port-at-all",
	}
	for addr, want := range cases {
		if got := hostOf(addr); got != want {
			t.Errorf("hostOf(%q) = %q, want %q", addr, got, want)
		}
	}
}

func TestBestEffortRetryStrategyShouldRetry(t *testing.T) {
	s := BestEffortRetryStrategy{MaxAttempts: 2, BaseDelay: 10 * time.Millisecond}

	if _, retry := s.ShouldRetry(1, kverrors.KindTemporaryFailure); !retry {
		t.Error("attempt 1 of 2 on a retryable kind should retry")
	}
	if delay, retry := s.ShouldRetry(2, kverrors.KindTemporaryFailure); !retry || delay != 20*time.Millisecond {
		t.Errorf("attempt 2: retry=%v delay=%v, want retry=true delay=20ms", retry, delay)
	}
	if _, retry := s.ShouldRetry(3, kverrors.KindTemporaryFailure); retry {
		t.Error("attempt 3 exceeds MaxAttempts, should not retry")
	}
	if _, retry := s.ShouldRetry(1, kverrors.KindInvalidArgument); retry {
		t.Error("a non-retryable kind should never retry")
	}
}

func TestApplyConfigAcceptsOnlyNewerRevisions(t *testing.T) {
	r := &Router{logger: slog.Default(), metrics: kvmetrics.Noop}

	first := vbucket.Map{Revision: vbucket.Revision{Rev: 1}, Nodes: []vbucket.NodeEntry{{Hostname: "a"}}}
	r.applyConfig(first)
	if r.vbMap.Revision.Rev != 1 {
		t.Fatalf("vbMap.Revision.Rev = %d, want 1", r.vbMap.Revision.Rev)
	}

	stale := vbucket.Map{Revision: vbucket.Revision{Rev: 0}, Nodes: []vbucket.NodeEntry{{Hostname: "stale"}}}
	r.applyConfig(stale)
	if r.vbMap.Revision.Rev != 1 || r.vbMap.Nodes[0].Hostname != "a" {
		t.Error("a stale revision must not replace the current map")
	}

	newer := vbucket.Map{Revision: vbucket.Revision{Rev: 2}, Nodes: []vbucket.NodeEntry{{Hostname: "b"}}}
	r.applyConfig(newer)
	if r.vbMap.Revision.Rev != 2 || r.vbMap.Nodes[0].Hostname != "b" {
		t.Error("a strictly greater revision must replace the current map")
	}
}

func TestTargetNodesPrimaryMode(t *testing.T) {
	r := &Router{logger: slog.Default(), metrics: kvmetrics.Noop}
	r.vbMap = vbucket.Map{
		VBuckets: []vbucket.VBucketEntry{{Primary: 0, Replicas: []int{1, 2}}},
	}

	nodes := r.targetNodes(0, ReplicaModePrimary, 0)
	if len(nodes) != 1 || nodes[0] != 0 {
		t.Errorf("primary mode nodes = %v, want [0]", nodes)
	}
}

func TestTargetNodesSpecificReplica(t *testing.T) {
	r := &Router{logger: slog.Default(), metrics: kvmetrics.Noop}
	r.vbMap = vbucket.Map{
		VBuckets: []vbucket.VBucketEntry{{Primary: 0, Replicas: []int{1, 2}}},
	}

	if nodes := r.targetNodes(0, ReplicaModeSpecific, 1); len(nodes) != 1 || nodes[0] != 2 {
		t.Errorf("specific replica 1 nodes = %v, want [2]", nodes)
	}
	if nodes := r.targetNodes(0, ReplicaModeSpecific, 5); nodes != nil {
		t.Errorf("out-of-range replica index should return nil, got %v", nodes)
	}
}

func TestTargetNodesAnyMode(t *testing.T) {
	r := &Router{logger: slog.Default(), metrics: kvmetrics.Noop}
	r.vbMap = vbucket.Map{
		VBuckets: []vbucket.VBucketEntry{{Primary: 0, Replicas: []int{1, 2}}},
	}

	nodes := r.targetNodes(0, ReplicaModeAny, 0)
	if len(nodes) != 3 || nodes[0] != 0 {
		t.Errorf("any mode nodes = %v, want [0 1 2]", nodes)
	}
}

func TestPeerHostHint(t *testing.T) {
	r := &Router{logger: slog.Default(), metrics: kvmetrics.Noop}
	if got := r.peerHostHint(); got != "" {
		t.Errorf("peerHostHint on empty map = %q, want empty", got)
	}

	r.vbMap = vbucket.Map{Nodes: []vbucket.NodeEntry{{Hostname: "node1"}, {Hostname: "node2"}}}
	if got := r.peerHostHint(); got != "node1" {
		t.Errorf("peerHostHint = %q, want %q", got, "node1")
	}
}
