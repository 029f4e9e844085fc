// Package kvmetrics provides optional observability for the Operation
// Router, Connection Babysitter and Protocol Dispatcher. It mirrors the
// nil-safe, interface-then-Prometheus-implementation split used for cache
// and storage metrics elsewhere in this codebase: the Prometheus
// implementation's methods are safe on a nil receiver, and Noop lets
// components hold a Recorder unconditionally when metrics are disabled.
package kvmetrics

import "time"

// Recorder observes the KV engine's connection, bootstrap and dispatch
// behavior. A nil Recorder interface value cannot be called; kvclient.New
// substitutes Noop when Opts.Metrics is nil.
//
// Outcomes are passed as bool rather than error: callers hold concrete
// *kverrors.Error results, and converting a nil *kverrors.Error to the
// error interface produces a non-nil interface value, so an error-typed
// parameter here would misclassify every success as a failure.
type Recorder interface {
	// ObserveConnect records the outcome and duration of one connection
	// build attempt (dial + bootstrap) against endpoint.
	ObserveConnect(endpoint string, duration time.Duration, ok bool)

	// ObserveReauth records the outcome of a hot-reauthentication attempt
	// against an already-bootstrapped connection.
	ObserveReauth(endpoint string, ok bool)

	// SetConnectionState updates the current connection-state gauge for
	// endpoint; state is one of kvclient's ConnectionState.String() values.
	SetConnectionState(endpoint, state string)

	// ObserveDispatch records one completed operation dispatch: its
	// opcode, resulting status (or "error"), and wall-clock duration.
	ObserveDispatch(opcode, status string, duration time.Duration)

	// ObserveServerDuration records the server-reported processing time
	// decoded from a response's ServerDuration extension frame.
	ObserveServerDuration(opcode string, us int64)

	// ObserveRetry records one retry attempt taken by the Operation
	// Router, keyed by the error kind that triggered it.
	ObserveRetry(errorKind string)

	// ObserveConfigRefresh records one cluster config update, keyed by
	// trigger ("not_my_vbucket" or "unsolicited").
	ObserveConfigRefresh(trigger string)

	// SetVBucketMapRevision records the currently applied cluster config
	// revision, for detecting stalled topology refreshes.
	SetVBucketMapRevision(revision uint64)
}

// noopRecorder implements Recorder as a pure no-op. It backs Noop, which
// callers hold when metrics collection has not been configured, so they
// never need to nil-check the Recorder they hold.
type noopRecorder struct{}

func (noopRecorder) ObserveConnect(string, time.Duration, bool)    {}
func (noopRecorder) ObserveReauth(string, bool)                   {}
func (noopRecorder) SetConnectionState(string, string)            {}
func (noopRecorder) ObserveDispatch(string, string, time.Duration) {}
func (noopRecorder) ObserveServerDuration(string, int64)          {}
func (noopRecorder) ObserveRetry(string)                          {}
func (noopRecorder) ObserveConfigRefresh(string)                  {}
func (noopRecorder) SetVBucketMapRevision(uint64)                 {}

// Noop is a Recorder that discards every observation.
var Noop Recorder = noopRecorder{}

// StatusLabel maps a boolean outcome to the label ObserveDispatch and
// ObserveConnect expect: "ok" or "error". Callers that want status-code
// granularity should pass the decoded status name directly instead.
func StatusLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
