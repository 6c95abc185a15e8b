package balancer

import (
	"regexp"
	"strconv"
)

// RedirectRule is one ordered entry of a redirect list: if Pattern matches
// the session's database (or application) name, TargetToken is resolved
// against the cluster view and accepted with probability Weight.
type RedirectRule struct {
	Pattern     *regexp.Regexp
	TargetToken string
	Weight      float64
}

// RuleList is an ordered, first-match-wins set of redirect rules.
type RuleList struct {
	Rules []RedirectRule
}

// NewRuleList compiles pattern/token/weight triples into a RuleList. Each
// pattern is an unanchored regular expression, matching pgpool-II's own
// redirect-list convention.
func NewRuleList(patterns, tokens []string, weights []float64) (*RuleList, error) {
	if len(patterns) != len(tokens) || len(patterns) != len(weights) {
		return nil, errMismatchedRuleLengths
	}
	rl := &RuleList{Rules: make([]RedirectRule, 0, len(patterns))}
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		rl.Rules = append(rl.Rules, RedirectRule{
			Pattern:     re,
			TargetToken: tokens[i],
			Weight:      weights[i],
		})
	}
	return rl, nil
}

var errMismatchedRuleLengths = ruleLengthError{}

type ruleLengthError struct{}

func (ruleLengthError) Error() string {
	return "balancer: patterns, tokens and weights must have equal length"
}

// Match returns the first rule whose pattern matches name, and its index
// in the list, or (nil, -1) if none match.
func (rl *RuleList) Match(name string) (*RedirectRule, int) {
	if rl == nil {
		return nil, -1
	}
	for i := range rl.Rules {
		if rl.Rules[i].Pattern.MatchString(name) {
			return &rl.Rules[i], i
		}
	}
	return nil, -1
}

// noPreference is the sentinel meaning "the evaluator found no applicable
// rule, leave node selection entirely to the fallback weighted draw."
const noPreference = -2

// ResolveToken resolves a redirect rule's symbolic target against the
// current cluster view:
//   - "primary"  -> PrimaryNodeID if >= 0, else MasterNodeID.
//   - "standby"  -> -1, a sentinel meaning "any standby", left for the
//     balancer's weighted fallback draw to resolve.
//   - a numeric literal n, 0 <= n < NumBackends -> n.
//   - anything else -> MasterNodeID.
func ResolveToken(token string, cluster *ClusterView) int32 {
	switch token {
	case "primary":
		if cluster.PrimaryNodeID >= 0 {
			return cluster.PrimaryNodeID
		}
		return cluster.MasterNodeID
	case "standby":
		return -1
	}

	if n, err := strconv.Atoi(token); err == nil {
		if int32(n) >= 0 && int32(n) < cluster.NumBackends() {
			return int32(n)
		}
	}
	return cluster.MasterNodeID
}
