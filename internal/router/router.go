// Package router implements the Operation Router: given a logical KV
// operation, it selects the target endpoint via the vBucket map, acquires
// a connection from that endpoint's babysitter, and dispatches the request,
// retrying on topology changes and other retryable errors.
package router

import (
	"context"
	"crypto/tls"
	"log/slog"
	"sync"
	"time"

	"github.com/couchbase/gocbcorex/internal/kvclient"
	"github.com/couchbase/gocbcorex/internal/kverrors"
	"github.com/couchbase/gocbcorex/internal/kvmetrics"
	"github.com/couchbase/gocbcorex/internal/memdx"
	"github.com/couchbase/gocbcorex/internal/telemetry"
	"github.com/couchbase/gocbcorex/internal/vbucket"
)

// ReplicaMode selects which copies of a vBucket a read targets.
type ReplicaMode int

const (
	// ReplicaModePrimary targets only the primary node.
	ReplicaModePrimary ReplicaMode = iota
	// ReplicaModeSpecific targets one specific replica index.
	ReplicaModeSpecific
	// ReplicaModeAny concurrently issues to every replica and the primary,
	// taking the first non-error result.
	ReplicaModeAny
)

// RetryStrategy decides, for a retryable error, whether and after how long
// to retry an operation.
type RetryStrategy interface {
	// ShouldRetry is called once per failed attempt. attempt is 1 on the
	// first failure. It returns the delay before the next attempt and
	// whether a retry should happen at all.
	ShouldRetry(attempt int, kind kverrors.Kind) (time.Duration, bool)
}

// BestEffortRetryStrategy retries retryable-by-default errors a bounded
// number of times with linearly increasing backoff.
type BestEffortRetryStrategy struct {
	MaxAttempts int
	BaseDelay time.Duration
}

// NewBestEffortRetryStrategy returns the default retry policy: up to 3
// retries, 50ms base backoff.
func NewBestEffortRetryStrategy() BestEffortRetryStrategy {
	return BestEffortRetryStrategy{MaxAttempts: 3, BaseDelay: 50 * time.Millisecond}
}

func (s BestEffortRetryStrategy) ShouldRetry(attempt int, kind kverrors.Kind) (time.Duration, bool) {
	if attempt > s.MaxAttempts {
		return 0, false
	}
	if !kind.RetryableByDefault() && kind != kverrors.KindTemporaryFailure {
		return 0, false
	}
	return time.Duration(attempt) * s.BaseDelay, true
}

// NodeOpts builds the per-node babysitter options not derivable from the
// cluster config alone (credentials, TLS, bucket name).
type NodeOpts struct {
	TLSConfig *tls.Config
	Auth *memdx.Credentials
	Bucket string
}

// Opts configures a Router.
type Opts struct {
	Seed []string
	Node NodeOpts
	RetryStrategy RetryStrategy
	Logger *slog.Logger
	Unsolicited memdx.UnsolicitedHandler
	Orphan memdx.OrphanHandler
	Metrics kvmetrics.Recorder

	// Snapshots, if set, persists every accepted cluster config to disk and
	// seeds the Router's initial vBucket map from the last persisted one,
	// so operations can be routed (possibly against a stale topology) even
	// if every seed is unreachable at startup.
	Snapshots *vbucket.SnapshotStore
}

// Router maps keys to vBuckets to endpoints and dispatches operations,
// refreshing its topology on NotMyVBucket and unsolicited config pushes.
type Router struct {
	node NodeOpts
	retry RetryStrategy
	logger *slog.Logger
	unsolicited memdx.UnsolicitedHandler
	orphan memdx.OrphanHandler
	metrics kvmetrics.Recorder

	mu sync.RWMutex
	vbMap vbucket.Map
	babysitters map[string]*kvclient.Babysitter

	snapshots *vbucket.SnapshotStore
}

// New constructs a Router and bootstraps its initial topology from one of
// the seed addresses.
func New(ctx context.Context, opts Opts) (*Router, *kverrors.Error) {
	if opts.RetryStrategy == nil {
		opts.RetryStrategy = NewBestEffortRetryStrategy()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = kvmetrics.Noop
	}

	r := &Router{
		node: opts.Node,
		retry: opts.RetryStrategy,
		logger: opts.Logger,
		unsolicited: opts.Unsolicited,
		orphan: opts.Orphan,
		metrics: opts.Metrics,
		babysitters: make(map[string]*kvclient.Babysitter),
		snapshots: opts.Snapshots,
	}

	if r.snapshots != nil {
		if cached, ok, err := r.snapshots.Load(); err != nil {
			r.logger.Warn("vbucket snapshot load failed", slog.Any("error", err))
		} else if ok {
			r.vbMap = cached
			r.logger.Info("seeded vbucket map from disk snapshot", slog.Uint64("rev", cached.Revision.Rev))
		}
	}

	var lastErr *kverrors.Error
	for _, seed := range opts.Seed {
		b := r.babysitterFor(seed)
		client, err := b.GetClient(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if len(client.Bootstrap.ClusterConfig) > 0 {
			cfg := memdx.SubstituteHost(client.Bootstrap.ClusterConfig, hostOf(seed))
			if m, perr := vbucket.Parse(cfg); perr == nil {
				r.applyConfig(m)
			}
		}
		return r, nil
	}

	if lastErr == nil {
		lastErr = kverrors.New(kverrors.KindConnectionClosed, "Bootstrap")
	}
	if len(r.vbMap.Nodes) > 0 {
		// A map restored from the snapshot cache still lets operations be
		// routed while every seed is unreachable.
		r.logger.Warn("no seed reachable, routing against cached vbucket map", slog.Any("error", lastErr))
		return r, nil
	}
	return nil, lastErr
}

func hostOf(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}

func (r *Router) babysitterFor(addr string) *kvclient.Babysitter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.babysitters[addr]; ok {
		return b
	}
	b := kvclient.New(kvclient.Opts{
		Initial: kvclient.Target{Address: addr, TLSConfig: r.node.TLSConfig},
		Auth: r.node.Auth,
		Bucket: r.node.Bucket,
		Unsolicited: r.unsolicited,
		Orphan: r.orphan,
		Logger: r.logger,
		Metrics: r.metrics,
		HelloFeatures: defaultHelloFeatures(),
	})
	r.babysitters[addr] = b
	return b
}

func defaultHelloFeatures() []memdx.HelloFeature {
	return []memdx.HelloFeature{
		memdx.HelloFeatureTCPNoDelay,
		memdx.HelloFeatureMutationSeqno,
		memdx.HelloFeatureXATTR,
		memdx.HelloFeatureXError,
		memdx.HelloFeatureSelectBucket,
		memdx.HelloFeatureJSON,
		memdx.HelloFeatureDuplex,
		memdx.HelloFeatureClusterMapNotify,
		memdx.HelloFeatureAltRequests,
		memdx.HelloFeatureSyncReplication,
		memdx.HelloFeatureCollections,
		memdx.HelloFeaturePreserveTTL,
	}
}

// applyConfig accepts m only if its revision strictly exceeds the current
// one, so a stale or duplicate config push never regresses the map.
func (r *Router) applyConfig(m vbucket.Map) {
	r.mu.Lock()
	accepted := m.Revision.Greater(r.vbMap.Revision)
	if accepted {
		r.vbMap = m
	}
	r.mu.Unlock()

	if !accepted {
		return
	}
	r.metrics.SetVBucketMapRevision(m.Revision.Rev)
	if r.snapshots != nil {
		if err := r.snapshots.Save(m); err != nil {
			r.logger.Warn("vbucket snapshot save failed", slog.Any("error", err))
		}
	}
}

// OnUnsolicitedConfig feeds a server-pushed cluster config change
// notification through the same update path a NotMyVBucket triggers.
func (r *Router) OnUnsolicitedConfig(ctx context.Context, configJSON []byte, observedHost string) {
	_, span := telemetry.StartConfigRefreshSpan(ctx)
	defer span.End()

	r.metrics.ObserveConfigRefresh("unsolicited")
	cfg := memdx.SubstituteHost(configJSON, observedHost)
	if m, err := vbucket.Parse(cfg); err == nil {
		r.applyConfig(m)
	}
}

// Encoder produces the request packet once the router knows which opaque
// and vbucket to embed.
type Encoder func(vbID uint16) memdx.Packet

// TODO: GetRandom and GetAllVBSeqnos (internal/memdx encoders already
// exist) need an "any owned vbucket" routing mode this Router doesn't
// define yet — they're not reachable from Dispatch until that mode exists.

// Dispatch resolves key's vBucket, selects the target node(s) per mode,
// dispatches via the node's babysitter, and retries NotMyVBucket / other
// retryable errors per the configured RetryStrategy. opName labels the
// logical operation (e.g. "Get", "MutateIn") for tracing and metrics.
func (r *Router) Dispatch(ctx context.Context, opName string, key []byte, mode ReplicaMode, replicaIdx int, respCtx memdx.ResponseContext, deadline time.Time, encode Encoder) (memdx.Packet, *kverrors.Error) {
	attempt := 0
	for {
		attempt++

		r.mu.RLock()
		vbID := r.vbMap.VBucketForKey(key)
		nodes := r.targetNodes(vbID, mode, replicaIdx)
		addrsByIdx := make([]string, len(r.vbMap.Nodes))
		for i, n := range r.vbMap.Nodes {
			addrsByIdx[i] = n.Hostname
		}
		r.mu.RUnlock()

		if len(nodes) == 0 {
			return memdx.Packet{}, kverrors.New(kverrors.KindTemporaryFailure, "Dispatch")
		}

		spanCtx, span := telemetry.StartDispatchSpan(ctx, opName, vbID, telemetry.Attempt(attempt))
		start := time.Now()

		var resp memdx.Packet
		var dispatchErr *kverrors.Error
		if mode == ReplicaModeAny && len(nodes) > 1 {
			resp, dispatchErr = r.dispatchAny(spanCtx, nodes, addrsByIdx, vbID, respCtx, deadline, encode)
		} else {
			resp, dispatchErr = r.dispatchOne(spanCtx, addrsByIdx[nodes[0]], vbID, respCtx, deadline, encode)
		}

		r.metrics.ObserveDispatch(opName, kvmetrics.StatusLabel(dispatchErr == nil), time.Since(start))
		if dispatchErr != nil {
			telemetry.RecordError(spanCtx, dispatchErr)
		} else if us, ok := decodeServerDuration(resp); ok {
			r.metrics.ObserveServerDuration(opName, us)
			telemetry.SetAttributes(spanCtx, telemetry.ServerDuration(us))
		}
		span.End()

		if dispatchErr == nil {
			return resp, nil
		}

		if dispatchErr.Kind == kverrors.KindTemporaryFailure && dispatchErr.Status == uint16(memdx.StatusNotMyVBucket) {
			r.handleNotMyVBucket(ctx, resp)
		}

		r.metrics.ObserveRetry(dispatchErr.Kind.String())
		delay, retry := r.retry.ShouldRetry(attempt, dispatchErr.Kind)
		if !retry {
			return memdx.Packet{}, dispatchErr
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return memdx.Packet{}, kverrors.New(kverrors.KindCancelled, "Dispatch")
		}
	}
}

func (r *Router) targetNodes(vbID uint16, mode ReplicaMode, replicaIdx int) []int {
	switch mode {
	case ReplicaModeSpecific:
		replicas := r.vbMap.Replicas(vbID)
		if replicaIdx < 0 || replicaIdx >= len(replicas) {
			return nil
		}
		return []int{replicas[replicaIdx]}
	case ReplicaModeAny:
		return r.vbMap.AllNodesForKey(vbID)
	default:
		p := r.vbMap.Primary(vbID)
		if p < 0 {
			return nil
		}
		return []int{p}
	}
}

// decodeServerDuration extracts the ServerDuration framing-extras frame from
// a successful response, if the server sent one.
func decodeServerDuration(p memdx.Packet) (int64, bool) {
	if !p.Magic.HasFramingExtras() {
		return 0, false
	}
	frames, err := memdx.DecodeFrames(p.FramingExtras)
	if err != nil {
		return 0, false
	}
	for _, f := range frames {
		if f.Code == memdx.FrameCodeResServerDuration {
			if micros, derr := memdx.DecodeServerDuration(f.Payload); derr == nil {
				return int64(micros), true
			}
		}
	}
	return 0, false
}

func (r *Router) dispatchOne(ctx context.Context, addr string, vbID uint16, respCtx memdx.ResponseContext, deadline time.Time, encode Encoder) (memdx.Packet, *kverrors.Error) {
	b := r.babysitterFor(addr)
	client, err := b.GetClient(ctx)
	if err != nil {
		return memdx.Packet{}, err
	}
	return client.Dispatcher.Dispatch(ctx, encode(vbID), respCtx, deadline)
}

// dispatchAny fans out to every candidate node concurrently and returns
// the first non-error result.
func (r *Router) dispatchAny(ctx context.Context, nodeIdxs []int, addrsByIdx []string, vbID uint16, respCtx memdx.ResponseContext, deadline time.Time, encode Encoder) (memdx.Packet, *kverrors.Error) {
	type result struct {
		packet memdx.Packet
		err *kverrors.Error
	}

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan result, len(nodeIdxs))
	for _, idx := range nodeIdxs {
		addr := addrsByIdx[idx]
		go func(addr string) {
			p, err := r.dispatchOne(subCtx, addr, vbID, respCtx, deadline, encode)
			results <- result{packet: p, err: err}
		}(addr)
	}

	var lastErr *kverrors.Error
	for range nodeIdxs {
		res := <-results
		if res.err == nil {
			return res.packet, nil
		}
		lastErr = res.err
	}
	return memdx.Packet{}, lastErr
}

// handleNotMyVBucket parses the updated config carried in a NotMyVBucket
// response's value and applies it if newer.
func (r *Router) handleNotMyVBucket(ctx context.Context, resp memdx.Packet) {
	if len(resp.Value) == 0 {
		return
	}
	_, span := telemetry.StartConfigRefreshSpan(ctx)
	defer span.End()

	r.metrics.ObserveConfigRefresh("not_my_vbucket")
	r.mu.RLock()
	host := r.peerHostHint()
	r.mu.RUnlock()
	cfg := memdx.SubstituteHost(resp.Value, host)
	if m, err := vbucket.Parse(cfg); err == nil {
		r.applyConfig(m)
	}
}

func (r *Router) peerHostHint() string {
	for _, n := range r.vbMap.Nodes {
		return n.Hostname
	}
	return ""
}

// Close shuts down every babysitter this router owns.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.babysitters {
		b.Close()
	}
}
