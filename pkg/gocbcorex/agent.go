// Package gocbcorex is the public entry point: Agent wires the Operation
// Router, Connection Babysitter, and Protocol Dispatcher behind a
// document-oriented CRUD and subdocument API, configured from a
// kvconfig.Config.
package gocbcorex

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchbase/gocbcorex/internal/kverrors"
	"github.com/couchbase/gocbcorex/internal/kvmetrics"
	"github.com/couchbase/gocbcorex/internal/memdx"
	"github.com/couchbase/gocbcorex/internal/orphan"
	"github.com/couchbase/gocbcorex/internal/router"
	"github.com/couchbase/gocbcorex/internal/vbucket"
	"github.com/couchbase/gocbcorex/pkg/kvconfig"
)

// Agent is a connected handle to one bucket across a cluster. It is safe
// for concurrent use by multiple goroutines.
type Agent struct {
	router    *router.Router
	snapshots *vbucket.SnapshotStore
	logger    *slog.Logger
}

// CreateOptions configures a new Agent beyond what kvconfig.Config already
// captures: the orphan Reporter (nil uses the always-on log sink) and a
// logger override.
type CreateOptions struct {
	Logger      *slog.Logger
	OrphanSink  orphan.Reporter
	Metrics     kvmetrics.Recorder
	Unsolicited memdx.UnsolicitedHandler
}

// CreateAgent bootstraps a Router against cfg.Connection.Seeds and returns
// an Agent ready to dispatch operations against cfg.Connection.Bucket.
func CreateAgent(ctx context.Context, cfg *kvconfig.Config, opts CreateOptions) (*Agent, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = kvmetrics.Noop
	}
	if opts.OrphanSink == nil {
		logSink := orphan.NewLogSink(opts.Logger)
		if cfg.Orphan.Durable {
			dbSink, derr := orphan.NewDBSink(orphan.DBSinkConfig{ConnString: cfg.Orphan.PostgresDSN})
			if derr != nil {
				return nil, fmt.Errorf("gocbcorex: durable orphan sink: %w", derr)
			}
			opts.OrphanSink = orphan.MultiSink{logSink, dbSink}
		} else {
			opts.OrphanSink = logSink
		}
	}

	tlsConfig, err := kvconfig.BuildTLSConfig(cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("gocbcorex: %w", err)
	}

	authProvider, err := kvconfig.BuildAuthProvider(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("gocbcorex: %w", err)
	}
	creds, err := authProvider.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("gocbcorex: resolve credentials: %w", err)
	}

	orphanHandler := orphan.Handler(opts.OrphanSink)

	var snapshots *vbucket.SnapshotStore
	if cfg.TopologyCache.Enabled {
		snapshots, err = vbucket.OpenSnapshotStore(cfg.TopologyCache.Path)
		if err != nil {
			return nil, fmt.Errorf("gocbcorex: open vbucket snapshot cache: %w", err)
		}
	}

	r, kvErr := router.New(ctx, router.Opts{
		Seed: cfg.Connection.Seeds,
		Node: router.NodeOpts{
			TLSConfig: tlsConfig,
			Auth:      creds,
			Bucket:    cfg.Connection.Bucket,
		},
		RetryStrategy: router.BestEffortRetryStrategy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
		},
		Logger:      opts.Logger,
		Unsolicited: opts.Unsolicited,
		Orphan:      orphanHandler,
		Metrics:     opts.Metrics,
		Snapshots:   snapshots,
	})
	if kvErr != nil {
		if snapshots != nil {
			_ = snapshots.Close()
		}
		return nil, kvErr
	}

	return &Agent{router: r, snapshots: snapshots, logger: opts.Logger}, nil
}

// Close releases every connection this Agent holds and, if a topology
// snapshot cache was configured, closes its database handle.
func (a *Agent) Close() error {
	a.router.Close()
	if a.snapshots != nil {
		return a.snapshots.Close()
	}
	return nil
}

// kvError narrows a *kverrors.Error to the error interface, returning a
// plain nil (not a typed-nil interface) on success.
func kvError(err *kverrors.Error) error {
	if err == nil {
		return nil
	}
	return err
}
