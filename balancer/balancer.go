package balancer

import (
	"math/rand"
	"strconv"

	"poolcore/log"
	"poolcore/metrics"
)

// SessionContext carries the per-client routing inputs the balancer
// matches redirect rules against.
type SessionContext struct {
	Database        string
	ApplicationName string
}

// Config is the subset of pool configuration the balancer consults.
type Config struct {
	RedirectDBNames  *RuleList
	RedirectAppNames *RuleList
}

// SelectNode chooses a backend node id from cluster honoring any
// configured database- or application-name redirect preference, falling
// back to a weighted random draw across all validly-up nodes. It is a
// closed function: the return value is always MasterNodeID or the id of
// a node with ValidRaw true.
//
// The cluster view is a snapshot taken at call entry; SelectNode does not
// re-read it mid-walk, so a concurrent update to the underlying cluster
// state is invisible to this call.
func SelectNode(cluster *ClusterView, session SessionContext, cfg Config) int32 {
	r := rand.Float64()

	suggested := int32(noPreference)
	weight := 0.0

	if cluster.StreamingReplicationMode && cfg.RedirectDBNames != nil {
		if rule, _ := cfg.RedirectDBNames.Match(session.Database); rule != nil {
			suggested = ResolveToken(rule.TargetToken, cluster)
			weight = rule.Weight
		}
	}

	if cfg.RedirectAppNames != nil && session.ApplicationName != "" {
		if rule, _ := cfg.RedirectAppNames.Match(session.ApplicationName); rule != nil {
			// An application-name match overrides any database match.
			suggested = ResolveToken(rule.TargetToken, cluster)
			weight = rule.Weight
		}
	}

	var noLoadBalanceNodeID int32 = noPreference

	if suggested >= 0 && r <= weight {
		log.WithComponent("balancer").Debug().Int32("node_id", suggested).Msg("redirect rule accepted by weighted draw")
		return recordSelection(suggested)
	}
	noLoadBalanceNodeID = suggested

	if suggested == -1 && r > weight {
		primary := cluster.PrimaryNodeID
		if primary < 0 {
			// No primary to fall back to (e.g. not in streaming-replication
			// mode); mirror ResolveToken's own "primary" case.
			primary = cluster.MasterNodeID
		}
		log.WithComponent("balancer").Debug().Int32("node_id", primary).Msg("standby preference weight test failed, using primary")
		return recordSelection(primary)
	}

	return recordSelection(fallbackDraw(cluster, suggested, noLoadBalanceNodeID))
}

func recordSelection(nodeID int32) int32 {
	metrics.LoadBalanceSelectionsTotal.WithLabelValues(strconv.Itoa(int(nodeID))).Inc()
	return nodeID
}

// fallbackDraw performs the weighted random walk across all valid_raw
// nodes, excluding noLoadBalanceNodeID and, when the original preference
// was "standby" (suggested == -1), also excluding the primary so a
// standby-only preference never resolves to the primary in fallback.
func fallbackDraw(cluster *ClusterView, suggested, noLoadBalanceNodeID int32) int32 {
	excludePrimary := suggested == -1

	var totalWeight float64
	for i, node := range cluster.Nodes {
		id := int32(i)
		if !eligible(id, node, noLoadBalanceNodeID, excludePrimary, cluster.PrimaryNodeID) {
			continue
		}
		totalWeight += node.Weight
	}

	selected := cluster.MasterNodeID

	if totalWeight == 0 {
		return selected
	}

	draw := rand.Float64() * totalWeight

	var cursor float64
	for i, node := range cluster.Nodes {
		id := int32(i)
		if !eligible(id, node, noLoadBalanceNodeID, excludePrimary, cluster.PrimaryNodeID) {
			continue
		}
		if node.Weight <= 0 {
			continue
		}
		if draw >= cursor {
			selected = id
		} else {
			break
		}
		cursor += node.Weight
	}

	return selected
}

func eligible(id int32, node BackendNodeView, noLoadBalanceNodeID int32, excludePrimary bool, primaryNodeID int32) bool {
	if !node.ValidRaw {
		return false
	}
	if id == noLoadBalanceNodeID {
		return false
	}
	if excludePrimary && id == primaryNodeID {
		return false
	}
	return true
}
