// Package config loads the ambient configuration this core's collaborators
// need: connect/retry policy, relcache sizing, and the redirect rule lists
// the load balancer consults. Flags take precedence over environment
// variables, which take precedence over built-in defaults, matching the
// teacher's loading convention.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"poolcore/balancer"
)

// Config is the full set of knobs this core's ambient stack consumes.
type Config struct {
	ConnectTimeout  time.Duration
	Retry           bool
	RetryMaxElapsed time.Duration
	RelcacheSize    int

	RedirectDBNames  *balancer.RuleList
	RedirectAppNames *balancer.RuleList

	SSLMode string

	LogLevel        string
	JSONLogs        bool
	MetricsBindAddr string
}

// Parse loads Config from command-line flags, falling back to
// POOLCORE_*-prefixed environment variables, then built-in defaults.
func Parse() *Config {
	cfg := &Config{}

	flag.DurationVar(&cfg.ConnectTimeout, "connect-timeout", envDuration("POOLCORE_CONNECT_TIMEOUT", 5*time.Second), "per-attempt backend connect timeout")
	flag.BoolVar(&cfg.Retry, "retry", envBool("POOLCORE_RETRY", false), "retry backend connects with bounded exponential backoff")
	flag.DurationVar(&cfg.RetryMaxElapsed, "retry-max-elapsed", envDuration("POOLCORE_RETRY_MAX_ELAPSED", 30*time.Second), "total time budget for a retried connect")
	flag.IntVar(&cfg.RelcacheSize, "relcache-size", envInt("POOLCORE_RELCACHE_SIZE", 0), "relation-cache entry bound (0 = unbounded)")
	flag.StringVar(&cfg.SSLMode, "ssl-mode", envStr("POOLCORE_SSL_MODE", "disable"), "backend TLS mode: disable|require")
	flag.StringVar(&cfg.LogLevel, "log-level", envStr("POOLCORE_LOG_LEVEL", "info"), "log verbosity: debug|info|warn|error")
	flag.BoolVar(&cfg.JSONLogs, "json-logs", envBool("POOLCORE_JSON_LOGS", false), "emit logs as JSON instead of console-formatted text")
	flag.StringVar(&cfg.MetricsBindAddr, "metrics-addr", envStr("POOLCORE_METRICS_ADDR", ""), "bind address for the Prometheus /metrics endpoint (empty disables it)")

	dbRules := flag.String("redirect-dbnames", envStr("POOLCORE_REDIRECT_DBNAMES", ""), "database-name redirect rules: pattern:token:weight,...")
	appRules := flag.String("redirect-appnames", envStr("POOLCORE_REDIRECT_APPNAMES", ""), "application-name redirect rules: pattern:token:weight,...")

	flag.Parse()

	var err error
	if cfg.RedirectDBNames, err = parseRuleListSpec(*dbRules); err != nil {
		panic("config: invalid -redirect-dbnames: " + err.Error())
	}
	if cfg.RedirectAppNames, err = parseRuleListSpec(*appRules); err != nil {
		panic("config: invalid -redirect-appnames: " + err.Error())
	}

	return cfg
}

// parseRuleListSpec parses a "pattern:token:weight,pattern:token:weight"
// redirect-list specification, the flag-friendly encoding of balancer.RuleList.
// An empty spec yields a nil list (no redirect configured for that dimension).
func parseRuleListSpec(spec string) (*balancer.RuleList, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	var patterns, tokens []string
	var weights []float64

	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 {
			return nil, ruleSpecError{entry: entry}
		}
		weight, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, ruleSpecError{entry: entry}
		}
		patterns = append(patterns, parts[0])
		tokens = append(tokens, parts[1])
		weights = append(weights, weight)
	}

	if len(patterns) == 0 {
		return nil, nil
	}
	return balancer.NewRuleList(patterns, tokens, weights)
}

type ruleSpecError struct{ entry string }

func (e ruleSpecError) Error() string {
	return "malformed redirect rule entry (want pattern:token:weight): " + e.entry
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
