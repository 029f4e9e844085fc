package kvclient

import (
	"context"
	"testing"
	"time"

	"github.com/couchbase/gocbcorex/internal/kverrors"
)

func TestConnectionStateString(t *testing.T) {
	cases := map[ConnectionState]string{
		StateDisconnected: "Disconnected",
		StateConnecting:   "Connecting",
		StateConnected:    "Connected",
		ConnectionState(99): "Disconnected",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("ConnectionState(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	b := New(Opts{Initial: Target{Address: "127.0.0.1:11210"}})

	if b.connectThrottle != time.Second {
		t.Errorf("connectThrottle = %v, want 1s", b.connectThrottle)
	}
	if b.bootstrapTimeout != 10*time.Second {
		t.Errorf("bootstrapTimeout = %v, want 10s", b.bootstrapTimeout)
	}
	if b.clientName != "gocbcorex" {
		t.Errorf("clientName = %q, want %q", b.clientName, "gocbcorex")
	}
	if b.metrics == nil {
		t.Error("metrics should default to a non-nil recorder")
	}
}

func TestEndpointDiagnosticsFreshBabysitter(t *testing.T) {
	b := New(Opts{Initial: Target{Address: "127.0.0.1:11210"}})

	diag := b.EndpointDiagnostics()
	if diag.State != StateDisconnected {
		t.Errorf("State = %v, want Disconnected", diag.State)
	}
}

func TestUpdateTargetChangesDesiredAddress(t *testing.T) {
	b := New(Opts{Initial: Target{Address: "node-a:11210"}})

	if got := b.targetAddress(); got != "node-a:11210" {
		t.Fatalf("targetAddress = %q, want %q", got, "node-a:11210")
	}

	b.UpdateTarget(Target{Address: "node-b:11210"})

	if got := b.targetAddress(); got != "node-b:11210" {
		t.Errorf("targetAddress after UpdateTarget = %q, want %q", got, "node-b:11210")
	}
}

func TestGetClientAfterCloseReturnsShutdown(t *testing.T) {
	b := New(Opts{Initial: Target{Address: "127.0.0.1:11210"}})
	b.Close()

	_, err := b.GetClient(context.Background())
	if err == nil {
		t.Fatal("expected an error after Close")
	}
	if err.Kind != kverrors.KindShutdown {
		t.Errorf("Kind = %v, want KindShutdown", err.Kind)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b := New(Opts{Initial: Target{Address: "127.0.0.1:11210"}})
	b.Close()
	b.Close() // must not panic or double-close a nil client
}

func TestConnIDString(t *testing.T) {
	cases := map[uint64]string{
		0:   "0",
		1:   "1",
		15:  "f",
		16:  "10",
		255: "ff",
	}
	for n, want := range cases {
		if got := connIDString(n); got != want {
			t.Errorf("connIDString(%d) = %q, want %q", n, got, want)
		}
	}
}
