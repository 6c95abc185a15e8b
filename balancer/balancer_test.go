package balancer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"poolcore/transport"
)

func twoNodeCluster(w0, w1 float64, valid0, valid1 bool) *ClusterView {
	return &ClusterView{
		Nodes: []BackendNodeView{
			{Endpoint: transport.NewEndpoint("n0", 5432), Weight: w0, ValidRaw: valid0, Valid: valid0},
			{Endpoint: transport.NewEndpoint("n1", 5432), Weight: w1, ValidRaw: valid1, Valid: valid1},
		},
		PrimaryNodeID:            1,
		MasterNodeID:             0,
		StreamingReplicationMode: true,
	}
}

func TestSelectNode_NoPreferenceWeightedDistribution(t *testing.T) {
	cluster := twoNodeCluster(1.0, 3.0, true, true)

	const trials = 20000
	var node0, node1 int
	for i := 0; i < trials; i++ {
		switch SelectNode(cluster, SessionContext{Database: "app"}, Config{}) {
		case 0:
			node0++
		case 1:
			node1++
		default:
			t.Fatalf("unexpected node id")
		}
	}

	frac0 := float64(node0) / trials
	frac1 := float64(node1) / trials

	assert.InDelta(t, 0.25, frac0, 0.03, "node 0 selection fraction")
	assert.InDelta(t, 0.75, frac1, 0.03, "node 1 selection fraction")
}

func TestSelectNode_StandbyPreference(t *testing.T) {
	cluster := twoNodeCluster(1.0, 1.0, true, true)
	rules, err := NewRuleList([]string{"^app$"}, []string{"standby"}, []float64{0.8})
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{RedirectDBNames: rules}

	const trials = 20000
	var primary, nonPrimary int
	for i := 0; i < trials; i++ {
		id := SelectNode(cluster, SessionContext{Database: "app"}, cfg)
		if id == cluster.PrimaryNodeID {
			primary++
		} else {
			nonPrimary++
		}
	}

	fracNonPrimary := float64(nonPrimary) / trials
	assert.InDelta(t, 0.8, fracNonPrimary, 0.03, "non-primary selection fraction")
}

func TestSelectNode_StandbyPreferenceOnlyPrimaryValid(t *testing.T) {
	cluster := &ClusterView{
		Nodes: []BackendNodeView{
			{Weight: 1.0, ValidRaw: true, Valid: true},
			{Weight: 1.0, ValidRaw: false, Valid: false},
		},
		PrimaryNodeID:            0,
		MasterNodeID:             0,
		StreamingReplicationMode: true,
	}
	rules, err := NewRuleList([]string{"^app$"}, []string{"standby"}, []float64{1.0})
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{RedirectDBNames: rules}

	id := SelectNode(cluster, SessionContext{Database: "app"}, cfg)
	assert.Equal(t, cluster.MasterNodeID, id)
}

func TestSelectNode_ClosedFunction(t *testing.T) {
	cluster := twoNodeCluster(1.0, 2.0, true, false)

	for i := 0; i < 5000; i++ {
		id := SelectNode(cluster, SessionContext{Database: "anything"}, Config{})
		if id == cluster.MasterNodeID {
			continue
		}
		assert.True(t, id >= 0 && int(id) < len(cluster.Nodes) && cluster.Nodes[id].ValidRaw,
			"selected node %d must be master or valid_raw", id)
	}
}

func TestSelectNode_AppNameOverridesDatabase(t *testing.T) {
	cluster := twoNodeCluster(1.0, 1.0, true, true)
	dbRules, err := NewRuleList([]string{".*"}, []string{"0"}, []float64{1.0})
	if err != nil {
		t.Fatal(err)
	}
	appRules, err := NewRuleList([]string{"^reporting$"}, []string{"1"}, []float64{1.0})
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{RedirectDBNames: dbRules, RedirectAppNames: appRules}

	for i := 0; i < 200; i++ {
		id := SelectNode(cluster, SessionContext{Database: "app", ApplicationName: "reporting"}, cfg)
		assert.EqualValues(t, 1, id)
	}
}

func TestResolveToken(t *testing.T) {
	cluster := &ClusterView{
		Nodes:         make([]BackendNodeView, 3),
		PrimaryNodeID: 1,
		MasterNodeID:  0,
	}

	assert.EqualValues(t, 1, ResolveToken("primary", cluster))
	assert.EqualValues(t, -1, ResolveToken("standby", cluster))
	assert.EqualValues(t, 2, ResolveToken("2", cluster))
	assert.EqualValues(t, 0, ResolveToken("5", cluster)) // out of range -> master
	assert.EqualValues(t, 0, ResolveToken("garbage", cluster))
}

func TestResolveToken_NoPrimaryFallsBackToMaster(t *testing.T) {
	cluster := &ClusterView{
		Nodes:         make([]BackendNodeView, 2),
		PrimaryNodeID: -1,
		MasterNodeID:  0,
	}
	assert.EqualValues(t, 0, ResolveToken("primary", cluster))
}
