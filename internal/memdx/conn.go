package memdx

import (
	"context"
	"crypto/tls"
	"net"
	"time"
)

// DialOpts configures how Dial reaches a KV node.
type DialOpts struct {
	Address string
	TLSConfig *tls.Config

	// KeepAlivePeriod, when non-zero, enables TCP keepalives (important
	// for detecting half-open connections through load balancers).
	KeepAlivePeriod time.Duration
}

// Dial opens a raw (non-TLS) or TLS connection to a KV node, depending on
// whether opts.TLSConfig is set. The returned net.Conn is the transport the
// Protocol Dispatcher reads and writes framed packets over.
func Dial(ctx context.Context, opts DialOpts) (net.Conn, error) {
	dialer := &net.Dialer{
		KeepAlive: opts.KeepAlivePeriod,
	}

	if opts.TLSConfig != nil {
		tlsDialer := &tls.Dialer{
			NetDialer: dialer,
			Config: opts.TLSConfig,
		}
		return tlsDialer.DialContext(ctx, "tcp", opts.Address)
	}

	return dialer.DialContext(ctx, "tcp", opts.Address)
}
