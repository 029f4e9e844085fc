// Package kvclient implements the Connection Babysitter: it owns exactly
// one logical connection per endpoint and keeps it alive according to
// policy, grounded on the fast-path/slow-path split in the
// original implementation's StdKvClientBabysitter.
package kvclient

import (
	"context"
	"crypto/tls"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchbase/gocbcorex/internal/kverrors"
	"github.com/couchbase/gocbcorex/internal/kvmetrics"
	"github.com/couchbase/gocbcorex/internal/memdx"
)

// Target is the address and transport policy a babysitter connects to.
type Target struct {
	Address string
	TLSConfig *tls.Config
}

// DesiredConfig is the mutable record a babysitter uses to build its next
// connection: target address and credentials, changeable at any time via
// UpdateTarget/UpdateAuth without touching the connection currently in use.
type DesiredConfig struct {
	Target Target
	Auth *memdx.Credentials
	BucketName string
}

// Client is the ready-to-use handle a babysitter hands back from
// GetClient: a dispatcher plus the bootstrap result it negotiated.
type Client struct {
	Dispatcher *memdx.Dispatcher
	Bootstrap memdx.BootstrapResult
	builtAt time.Time
}

// ConnectionState is the babysitter's lifecycle state for diagnostics.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	default:
		return "Disconnected"
	}
}

// Diagnostics is the snapshot returned by EndpointDiagnostics.
type Diagnostics struct {
	State ConnectionState
	RemoteAddr string
	LastActivity time.Time
}

// Opts configures a Babysitter.
type Opts struct {
	Initial Target
	Auth *memdx.Credentials
	Bucket string

	ConnectThrottlePeriod time.Duration
	BootstrapTimeout time.Duration
	OnDemandConnect bool
	ClientName string
	HelloFeatures []memdx.HelloFeature

	Unsolicited memdx.UnsolicitedHandler
	Orphan memdx.OrphanHandler
	Logger *slog.Logger
	Metrics kvmetrics.Recorder
}

// Babysitter owns exactly one logical connection to one endpoint and keeps
// it alive per the throttled build/reconnect loop below.
type Babysitter struct {
	logger *slog.Logger

	connectThrottle time.Duration
	bootstrapTimeout time.Duration
	onDemandConnect bool
	clientName string
	helloFeatures []memdx.HelloFeature
	unsolicited memdx.UnsolicitedHandler
	orphan memdx.OrphanHandler
	metrics kvmetrics.Recorder

	desiredMu sync.Mutex
	desired DesiredConfig

	// fastClient is the atomic-replace cell readers check without locking
	// before falling back to the slow waiting path.
	fastClient atomic.Pointer[Client]

	slowMu sync.Mutex
	isBuilding bool
	lastFailure time.Time
	lastActivity time.Time
	waiters []chan struct{}

	closed atomic.Bool
	connID atomic.Uint64
}

// New constructs a Babysitter with the given initial desired configuration.
// It does not build a connection eagerly; the first GetClient call does,
// unless opts.OnDemandConnect requests lazy building (same behavior either
// way, since this constructor never starts a background build loop on its
// own — reconnect loop is driven by GetClient/connection-close
// observations, not a timer).
func New(opts Opts) *Babysitter {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ConnectThrottlePeriod <= 0 {
		opts.ConnectThrottlePeriod = time.Second
	}
	if opts.BootstrapTimeout <= 0 {
		opts.BootstrapTimeout = 10 * time.Second
	}
	if opts.ClientName == "" {
		opts.ClientName = "gocbcorex"
	}
	if opts.Metrics == nil {
		opts.Metrics = kvmetrics.Noop
	}

	return &Babysitter{
		logger: opts.Logger,
		connectThrottle: opts.ConnectThrottlePeriod,
		bootstrapTimeout: opts.BootstrapTimeout,
		onDemandConnect: opts.OnDemandConnect,
		clientName: opts.ClientName,
		helloFeatures: opts.HelloFeatures,
		unsolicited: opts.Unsolicited,
		orphan: opts.Orphan,
		metrics: opts.Metrics,
		desired: DesiredConfig{
			Target: opts.Initial,
			Auth: opts.Auth,
			BucketName: opts.Bucket,
		},
	}
}

// GetClient returns a ready connection, building one if necessary; it
// blocks the caller until one is available or the babysitter is shut down.
func (b *Babysitter) GetClient(ctx context.Context) (*Client, *kverrors.Error) {
	// Fast path: lock-free read of the current cell.
	if c := b.fastClient.Load(); c != nil {
		return c, nil
	}

	if b.closed.Load() {
		return nil, kverrors.New(kverrors.KindShutdown, "GetClient")
	}

	b.maybeBeginBuild()

	wait := b.addWaiter()
	defer b.removeWaiter(wait)

	for {
		if c := b.fastClient.Load(); c != nil {
			return c, nil
		}
		if b.closed.Load() {
			return nil, kverrors.New(kverrors.KindShutdown, "GetClient")
		}
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, kverrors.New(kverrors.KindCancelled, "GetClient")
		}
	}
}

func (b *Babysitter) addWaiter() chan struct{} {
	ch := make(chan struct{}, 1)
	b.slowMu.Lock()
	b.waiters = append(b.waiters, ch)
	b.slowMu.Unlock()
	return ch
}

func (b *Babysitter) removeWaiter(target chan struct{}) {
	b.slowMu.Lock()
	defer b.slowMu.Unlock()
	for i, ch := range b.waiters {
		if ch == target {
			b.waiters = append(b.waiters[:i], b.waiters[i+1:]...)
			return
		}
	}
}

func (b *Babysitter) notifyWaiters() {
	b.slowMu.Lock()
	waiters := b.waiters
	b.waiters = nil
	b.slowMu.Unlock()
	for _, ch := range waiters {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// maybeBeginBuild enters the is_building guard (yielding if a build is
// already in progress) and, if it wins the guard, runs the build loop in
// the background.
func (b *Babysitter) maybeBeginBuild() {
	b.slowMu.Lock()
	if b.isBuilding || b.closed.Load() {
		b.slowMu.Unlock()
		return
	}
	b.isBuilding = true
	b.slowMu.Unlock()

	go b.buildLoop()
}

func (b *Babysitter) buildLoop() {
	defer func() {
		b.slowMu.Lock()
		b.isBuilding = false
		b.slowMu.Unlock()
	}()

	for {
		if b.closed.Load() {
			return
		}

		b.throttleIfRecentFailure()
		if b.closed.Load() {
			return
		}

		endpoint := b.targetAddress()
		start := time.Now()
		client, err := b.buildOne()
		b.metrics.ObserveConnect(endpoint, time.Since(start), err == nil)
		if err != nil {
			b.logger.Debug("connection build failed", slog.Any("error", err))
			b.slowMu.Lock()
			b.lastFailure = time.Now()
			b.slowMu.Unlock()
			b.metrics.SetConnectionState(endpoint, StateDisconnected.String())

			if b.onDemandConnect {
				return
			}
			continue
		}

		b.fastClient.Store(client)
		b.slowMu.Lock()
		b.lastActivity = time.Now()
		b.slowMu.Unlock()
		b.metrics.SetConnectionState(endpoint, StateConnected.String())
		b.notifyWaiters()

		b.watchForClose(client)
		return
	}
}

// throttleIfRecentFailure waits out the remainder of connect_throttle_period
// if the most recent build attempt failed inside that window.
func (b *Babysitter) throttleIfRecentFailure() {
	b.slowMu.Lock()
	lastFailure := b.lastFailure
	b.slowMu.Unlock()

	if lastFailure.IsZero() {
		return
	}
	elapsed := time.Since(lastFailure)
	if elapsed >= b.connectThrottle {
		return
	}
	time.Sleep(b.connectThrottle - elapsed)
}

// targetAddress returns the endpoint address currently selected for the
// next connection build, for labeling metrics and diagnostics.
func (b *Babysitter) targetAddress() string {
	b.desiredMu.Lock()
	defer b.desiredMu.Unlock()
	return b.desired.Target.Address
}

func (b *Babysitter) buildOne() (*Client, *kverrors.Error) {
	b.desiredMu.Lock()
	desired := b.desired
	b.desiredMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), b.bootstrapTimeout)
	defer cancel()

	conn, err := memdx.Dial(ctx, memdx.DialOpts{Address: desired.Target.Address, TLSConfig: desired.Target.TLSConfig})
	if err != nil {
		return nil, kverrors.Wrap(kverrors.KindConnectionClosed, "Dial", err)
	}

	connID := b.connID.Add(1)
	dispatcher := memdx.NewDispatcher(conn, memdx.DispatcherOpts{
		ConnID: connIDString(connID),
		Unsolicited: b.unsolicited,
		Orphan: b.orphan,
		Logger: b.logger,
	})

	result, bootErr := memdx.Bootstrap(ctx, dispatcher, memdx.BootstrapOpts{
		ClientName: b.clientName,
		Features: b.helloFeatures,
		Auth: desired.Auth,
		BucketName: desired.BucketName,
		GetClusterConfig: true,
		Deadline: time.Now().Add(b.bootstrapTimeout),
	})
	if bootErr != nil {
		dispatcher.Close(bootErr)
		return nil, bootErr
	}

	return &Client{Dispatcher: dispatcher, Bootstrap: result, builtAt: time.Now()}, nil
}

// watchForClose blocks until the dispatcher observes its connection close,
// then clears the fast-path cell and either begins a new build (unless
// on-demand) or leaves the babysitter disconnected.
func (b *Babysitter) watchForClose(c *Client) {
	<-c.Dispatcher.ClosedSignal()

	if b.fastClient.CompareAndSwap(c, nil) {
		b.notifyWaiters()
	}
	b.metrics.SetConnectionState(b.targetAddress(), StateDisconnected.String())

	if b.closed.Load() || b.onDemandConnect {
		return
	}

	// The buildLoop that called this method still holds the is-building
	// guard, so the rebuild runs here rather than through maybeBeginBuild.
	b.buildLoop()
}

// UpdateAuth replaces the desired credentials. JWT credentials trigger a
// hot reauth on the current connection; other credential types apply only
// to the next connection build.
func (b *Babysitter) UpdateAuth(ctx context.Context, auth *memdx.Credentials) *kverrors.Error {
	b.desiredMu.Lock()
	b.desired.Auth = auth
	b.desiredMu.Unlock()

	if auth == nil || auth.BearerToken == "" {
		return nil
	}

	client := b.fastClient.Load()
	if client == nil {
		return nil
	}

	err := b.reauth(ctx, client, auth)
	b.metrics.ObserveReauth(b.targetAddress(), err == nil)
	if err != nil {
		// Reauth failure closes the connection so the reconnect loop
		// re-bootstraps with the new credentials.
		client.Dispatcher.Close(err)
		return err
	}
	return nil
}

// reauth drives a fresh SASL exchange on an already-bootstrapped
// dispatcher, the hot-reauthentication path used for JWT token refresh.
func (b *Babysitter) reauth(ctx context.Context, client *Client, auth *memdx.Credentials) *kverrors.Error {
	_, err := memdx.Bootstrap(ctx, client.Dispatcher, memdx.BootstrapOpts{
		ClientName: b.clientName,
		Auth: auth,
		Deadline: time.Now().Add(b.bootstrapTimeout),
	})
	return err
}

// UpdateTarget replaces the desired address/TLS config; it applies only to
// the next connection build.
func (b *Babysitter) UpdateTarget(target Target) {
	b.desiredMu.Lock()
	b.desired.Target = target
	b.desiredMu.Unlock()
}

// EndpointDiagnostics returns the current state, last-activity time, and
// remote address.
func (b *Babysitter) EndpointDiagnostics() Diagnostics {
	if c := b.fastClient.Load(); c != nil {
		b.slowMu.Lock()
		lastActivity := b.lastActivity
		b.slowMu.Unlock()
		return Diagnostics{
			State: StateConnected,
			RemoteAddr: c.Dispatcher.RemoteAddr().String(),
			LastActivity: lastActivity,
		}
	}

	b.slowMu.Lock()
	building := b.isBuilding
	b.slowMu.Unlock()
	if building {
		return Diagnostics{State: StateConnecting}
	}
	return Diagnostics{State: StateDisconnected}
}

// Close terminates the connection and forbids further builds.
func (b *Babysitter) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	if c := b.fastClient.Swap(nil); c != nil {
		c.Dispatcher.Close(kverrors.New(kverrors.KindShutdown, "Close"))
	}
	b.notifyWaiters()
}

func connIDString(n uint64) string {
	const hextable = "0123456789abcdef"
	if n == 0 {
		return "0"
	}
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = hextable[n&0xf]
		n >>= 4
	}
	return string(buf[i:])
}
