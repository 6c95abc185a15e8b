// Package balancer implements load-balancing node selection across a
// streaming-replication cluster: weighted-random node choice honoring
// per-database and per-application redirect preferences.
package balancer

import "poolcore/transport"

// BackendNodeView is a read-only snapshot of one backend node's routing
// eligibility, supplied by the cluster manager (out of scope for this
// core — the balancer only ever consumes it).
type BackendNodeView struct {
	Endpoint transport.Endpoint
	Weight   float64
	// ValidRaw reports the node is nominally up.
	ValidRaw bool
	// Valid reports the node is up and allowed to serve the current
	// session mode (e.g. a standby-only session excludes the primary).
	Valid bool
}

// ClusterView is the read-only cluster-wide state the balancer consults
// for one selection. Callers take a snapshot at call entry; the balancer
// never re-reads it mid-walk.
type ClusterView struct {
	Nodes []BackendNodeView

	// PrimaryNodeID is -1 if the cluster has no primary (e.g. it isn't in
	// streaming-replication mode).
	PrimaryNodeID int32
	// MasterNodeID is the nominal "first" backend, always defined, used
	// as the safety-net return value when no eligible node exists.
	MasterNodeID int32

	StreamingReplicationMode bool
}

// NumBackends returns the number of nodes in the view.
func (c *ClusterView) NumBackends() int32 { return int32(len(c.Nodes)) }
