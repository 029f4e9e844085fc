package memdx

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchbase/gocbcorex/internal/kverrors"
	"github.com/couchbase/gocbcorex/pkg/bufpool"
)

// ResponseContext carries the per-request information a response cannot be
// decoded without: the request's CAS (for contextual status classification)
// and, for subdocument multi-ops, the flags the caller used to build the
// request.
type ResponseContext struct {
	HadCAS bool
	IsAddOnly bool
}

// UnsolicitedHandler receives server-pushed notifications that are not
// correlated to any pending operation, such as cluster config change
// pushes.
type UnsolicitedHandler func(p Packet)

// OrphanContext describes a response that arrived with no matching pending
// operation, either because it timed out, was cancelled, or the opaque was
// never ours.
type OrphanContext struct {
	ConnID string
	LocalAddr string
	PeerAddr string
	Opaque uint32
	OpCode OpCode
	ServerDuration time.Duration
}

// OrphanHandler receives responses that could not be correlated to a
// pending operation.
type OrphanHandler func(ctx OrphanContext)

type pendingOp struct {
	opCode OpCode
	respCtx ResponseContext
	done chan pendingResult
	deadline time.Time
	createdAt time.Time
	completed atomic.Bool
}

type pendingResult struct {
	packet Packet
	err *kverrors.Error
}

// DispatcherOpts configures a Dispatcher.
type DispatcherOpts struct {
	ConnID string
	Unsolicited UnsolicitedHandler
	Orphan OrphanHandler
	Logger *slog.Logger
	ReaperInterval time.Duration
	WriteQueueDepth int
}

// Dispatcher owns one bidirectional socket: it serializes outgoing packets,
// demultiplexes incoming ones by opaque, and enforces per-request deadlines.
type Dispatcher struct {
	conn net.Conn
	connID string
	logger *slog.Logger

	unsolicited UnsolicitedHandler
	orphan OrphanHandler

	writeCh chan []byte

	mu sync.Mutex
	pending map[uint32]*pendingOp
	nextOpaque uint32

	closed atomic.Bool
	closeOnce sync.Once
	closeErr *kverrors.Error

	readerDone chan struct{}
	writerDone chan struct{}
	reaperDone chan struct{}
	stopReaper chan struct{}
	closedCh chan struct{}
}

// NewDispatcher starts the reader, writer and reaper tasks for conn and
// returns a Dispatcher ready to accept Dispatch calls.
func NewDispatcher(conn net.Conn, opts DispatcherOpts) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ReaperInterval <= 0 {
		opts.ReaperInterval = 100 * time.Millisecond
	}
	if opts.WriteQueueDepth <= 0 {
		opts.WriteQueueDepth = 2048
	}

	d := &Dispatcher{
		conn: conn,
		connID: opts.ConnID,
		logger: opts.Logger.With(slog.String("conn_id", opts.ConnID)),
		unsolicited: opts.Unsolicited,
		orphan: opts.Orphan,
		writeCh: make(chan []byte, opts.WriteQueueDepth),
		pending: make(map[uint32]*pendingOp),
		readerDone: make(chan struct{}),
		writerDone: make(chan struct{}),
		reaperDone: make(chan struct{}),
		stopReaper: make(chan struct{}),
		closedCh: make(chan struct{}),
	}

	go d.writeLoop()
	go d.readLoop()
	go d.reapLoop(opts.ReaperInterval)

	return d
}

// Dispatch encodes and sends a request, returning the parsed response once
// it arrives, or a typed error on timeout, cancellation, or connection
// closure.
func (d *Dispatcher) Dispatch(ctx context.Context, p Packet, respCtx ResponseContext, deadline time.Time) (Packet, *kverrors.Error) {
	if d.closed.Load() {
		return Packet{}, kverrors.New(kverrors.KindConnectionClosed, p.OpCode.String())
	}

	op := &pendingOp{
		opCode: p.OpCode,
		respCtx: respCtx,
		done: make(chan pendingResult, 1),
		deadline: deadline,
		createdAt: time.Now(),
	}

	d.mu.Lock()
	opaque := d.nextOpaque
	d.nextOpaque++
	p.Opaque = opaque
	d.pending[opaque] = op
	d.mu.Unlock()

	encoded := p.Encode()
	select {
	case d.writeCh <- encoded:
	case <-ctx.Done():
		d.removePending(opaque)
		return Packet{}, kverrors.New(kverrors.KindCancelled, p.OpCode.String())
	case <-d.closedCh:
		if d.removePending(opaque) {
			return Packet{}, kverrors.New(kverrors.KindConnectionClosed, p.OpCode.String())
		}
		res := <-op.done
		return res.packet, res.err
	}

	select {
	case res := <-op.done:
		return res.packet, res.err
	case <-ctx.Done():
		if d.removePending(opaque) {
			return Packet{}, kverrors.New(kverrors.KindCancelled, p.OpCode.String())
		}
		// The response (or reaper) already won the race; wait for its result.
		res := <-op.done
		return res.packet, res.err
	}
}

func (d *Dispatcher) removePending(opaque uint32) bool {
	d.mu.Lock()
	op, ok := d.pending[opaque]
	if ok {
		delete(d.pending, opaque)
	}
	d.mu.Unlock()
	if !ok {
		return false
	}
	return op.completed.CompareAndSwap(false, true)
}

func (d *Dispatcher) writeLoop() {
	defer close(d.writerDone)
	for {
		select {
		case buf := <-d.writeCh:
			if _, err := d.conn.Write(buf); err != nil {
				d.logger.Debug("write failed, closing dispatcher", slog.Any("error", err))
				d.Close(kverrors.Wrap(kverrors.KindConnectionClosed, "Dispatch", err))
				return
			}
		case <-d.closedCh:
			return
		}
	}
}

func (d *Dispatcher) readLoop() {
	defer close(d.readerDone)
	hdr := make([]byte, HeaderSize)
	for {
		if _, err := io.ReadFull(d.conn, hdr); err != nil {
			d.Close(kverrors.Wrap(kverrors.KindConnectionClosed, "read", err))
			return
		}

		p, bodyLen, err := DecodeHeader(hdr)
		if err != nil {
			d.Close(kverrors.Wrap(kverrors.KindProtocol, "read", err))
			return
		}

		body := bufpool.GetUint32(bodyLen)
		if _, err := io.ReadFull(d.conn, body); err != nil {
			bufpool.Put(body)
			d.Close(kverrors.Wrap(kverrors.KindConnectionClosed, "read", err))
			return
		}
		if err := DecodeBody(&p, body); err != nil {
			bufpool.Put(body)
			d.Close(kverrors.Wrap(kverrors.KindProtocol, "read", err))
			return
		}

		d.route(p)
		bufpool.Put(body)
	}
}

func (d *Dispatcher) route(p Packet) {
	if p.Magic == MagicServerReq {
		if d.unsolicited != nil {
			d.unsolicited(p)
		}
		return
	}

	d.mu.Lock()
	op, ok := d.pending[p.Opaque]
	if ok {
		delete(d.pending, p.Opaque)
	}
	d.mu.Unlock()

	if !ok {
		if d.orphan != nil {
			d.orphan(d.orphanContext(p))
		}
		return
	}

	if !op.completed.CompareAndSwap(false, true) {
		// The reaper already timed this entry out; this response is an orphan.
		if d.orphan != nil {
			d.orphan(d.orphanContext(p))
		}
		return
	}

	classifyErr := ClassifyStatus(p.Status, op.opCode.String(), ClassifyOpts{
		HadCAS: op.respCtx.HadCAS,
		IsAddOnly: op.respCtx.IsAddOnly,
		IsAppendPrepend: op.opCode == OpCodeAppend || op.opCode == OpCodePrepend,
	})
	if p.Status == StatusSubDocMultiPathFailure || p.Status == StatusSubDocMultiPathFailureDeleted {
		classifyErr = nil // partial multi-path failure is not a dispatch-level error
	}
	op.done <- pendingResult{packet: p, err: classifyErr}
}

func (d *Dispatcher) orphanContext(p Packet) OrphanContext {
	ctx := OrphanContext{
		ConnID: d.connID,
		Opaque: p.Opaque,
		OpCode: p.OpCode,
	}
	if d.conn != nil {
		ctx.LocalAddr = d.conn.LocalAddr().String()
		ctx.PeerAddr = d.conn.RemoteAddr().String()
	}
	if p.Magic.HasFramingExtras() {
		if frames, err := DecodeFrames(p.FramingExtras); err == nil {
			for _, f := range frames {
				if f.Code == FrameCodeResServerDuration {
					if micros, derr := DecodeServerDuration(f.Payload); derr == nil {
						ctx.ServerDuration = time.Duration(micros) * time.Microsecond
					}
				}
			}
		}
	}
	return ctx
}

func (d *Dispatcher) reapLoop(interval time.Duration) {
	defer close(d.reaperDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.reapExpired()
		case <-d.stopReaper:
			return
		}
	}
}

func (d *Dispatcher) reapExpired() {
	now := time.Now()
	var expired []*pendingOp
	d.mu.Lock()
	for opaque, op := range d.pending {
		if !op.deadline.IsZero() && now.After(op.deadline) {
			delete(d.pending, opaque)
			expired = append(expired, op)
		}
	}
	d.mu.Unlock()

	for _, op := range expired {
		if op.completed.CompareAndSwap(false, true) {
			// Reads and other requests that change no document state are
			// never ambiguous. Every other expired operation is reported as
			// ambiguous whether or not its bytes left the write queue; the
			// dispatcher does not track which requests were written.
			ambiguous := true
			switch op.opCode {
			case OpCodeGet, OpCodeGetReplica, OpCodeGetMeta, OpCodeGetRandom,
				OpCodeSubDocGet, OpCodeSubDocExists, OpCodeSubDocGetCount, OpCodeSubDocMultiLookup,
				OpCodeNoop, OpCodeStat, OpCodeHello, OpCodeGetErrorMap, OpCodeSASLListMechs,
				OpCodeGetClusterConfig, OpCodeGetCollectionID, OpCodeGetAllVBSeqnos:
				ambiguous = false
			}
			op.done <- pendingResult{err: kverrors.Timeout(op.opCode.String(), ambiguous)}
		}
	}
}

// Close fails every pending operation with cause (defaulting to Shutdown)
// and releases the underlying socket.
func (d *Dispatcher) Close(cause *kverrors.Error) {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		if cause == nil {
			cause = kverrors.New(kverrors.KindShutdown, "Close")
		}
		d.closeErr = cause

		close(d.stopReaper)
		_ = d.conn.Close()

		d.mu.Lock()
		pending := d.pending
		d.pending = make(map[uint32]*pendingOp)
		d.mu.Unlock()

		for _, op := range pending {
			if op.completed.CompareAndSwap(false, true) {
				op.done <- pendingResult{err: cause}
			}
		}

		close(d.closedCh)
	})
}

// ClosedSignal returns a channel that is closed once this dispatcher's
// connection has been torn down, for the babysitter's close-notification
// watch.
func (d *Dispatcher) ClosedSignal() <-chan struct{} { return d.closedCh }

// LocalAddr returns the dispatcher's local socket address.
func (d *Dispatcher) LocalAddr() net.Addr { return d.conn.LocalAddr() }

// RemoteAddr returns the dispatcher's peer socket address.
func (d *Dispatcher) RemoteAddr() net.Addr { return d.conn.RemoteAddr() }
