// Package health provides shared types for reporting per-node liveness
// checks against a Couchbase cluster.
package health

// NodeHealth is the outcome of probing one seed node with a lightweight
// operation (a Get against a throwaway key, classified by its response).
type NodeHealth struct {
	Host      string `json:"host"`
	Reachable bool   `json:"reachable"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}
