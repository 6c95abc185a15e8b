// Package pgversion implements the version probe: a process-wide,
// lazily-initialized cache of the backend's normalized version number,
// populated by issuing "SELECT version()" through a relation-cache adapter
// exactly once per process lifetime.
package pgversion

import (
	"fmt"
	"sync"
	"sync/atomic"

	"poolcore/log"
	"poolcore/metrics"
	"poolcore/relcache"
)

// versionQuery is the single query the probe ever issues.
const versionQuery = "SELECT version()"

const relcacheEntryKey = "version"

// Version is the process-wide memoized backend version. major == 0 means
// uninitialized; per §5's publish-last rule, major is only ever written
// after minor and rawText are fully populated.
type Version struct {
	major   int32
	minor   int32
	rawText string
}

func (v *Version) Major() int32 { return atomic.LoadInt32(&v.major) }
func (v *Version) Minor() int32 { return v.minor }
func (v *Version) String() string {
	if v.rawText != "" {
		return v.rawText
	}
	return fmt.Sprintf("major=%d minor=%d", v.Major(), v.Minor())
}

// FatalError reports a version that could not be parsed, was out of
// range, or could not be fetched because the version query failed — all
// cases the spec designates fatal. The core itself never calls os.Exit; the caller
// decides how "fatal" is enforced.
type FatalError struct {
	Reason string
}

func (e *FatalError) Error() string { return "pgversion: " + e.Reason }

// cached holds the process-wide version. Once it is non-nil, it is safe
// to read from any goroutine without locking (major is published
// last, after minor and rawText, guaranteeing full visibility).
var (
	mu     sync.Mutex
	cache  *relcache.Cache[*Version]
	cached atomic.Pointer[Version]
)

// Probe returns the process-wide version, probing the backend through exec
// on the first call and memoizing thereafter. size bounds the underlying
// relation cache (see relcache.New); it only matters on the very first
// call that creates the cache.
func Probe(exec relcache.Executor, size int) (*Version, error) {
	if v := cached.Load(); v != nil {
		log.WithComponent("pgversion").Debug().Msg("local cache returned")
		return v, nil
	}

	mu.Lock()
	defer mu.Unlock()

	// Double-checked: another goroutine may have won the race while we
	// waited for the lock.
	if v := cached.Load(); v != nil {
		return v, nil
	}

	if cache == nil {
		cache = relcache.New[*Version]("pgversion", size, versionQuery, registerVersion, nil)
	}

	v, err := cache.Search(exec, relcacheEntryKey)
	if err != nil {
		return nil, &FatalError{Reason: fmt.Sprintf("unable to search relcache while getting backend version: %v", err)}
	}

	cached.Store(v)
	metrics.PgVersionProbed.Set(1)
	log.WithComponent("pgversion").Debug().Int32("major", v.Major()).Int32("minor", v.Minor()).Msg("probed backend version")
	return v, nil
}

// registerVersion parses a "SELECT version()" result string into a
// normalized Version, publishing major last per the singleton discipline.
func registerVersion(raw string) (*Version, error) {
	major, minor, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	v := &Version{minor: minor, rawText: raw}
	atomic.StoreInt32(&v.major, major)
	return v, nil
}

// resetForTest clears the process-wide singleton. Test-only.
func resetForTest() {
	mu.Lock()
	defer mu.Unlock()
	cache = nil
	cached.Store(nil)
}
