// Package engineconfig holds the small set of tunables the reshape
// planner needs: the memory budget a fragment read must fit inside,
// and the cache geometry used to size transpose tiles. Loading these
// from a file or flags is out of scope for this module; callers
// construct a Config directly.
package engineconfig

import "github.com/sonia-oph/fragreshape/internal/ophierr"

// Config is the engine-wide tunable set, threaded through every
// fragment job via a single shared engine.Context value.
type Config struct {
	MemoryBuffer  uint64 // total bytes available for one fragment read
	CacheLineSize int    // bytes per cache line
	CacheSize     int    // bytes of usable cache for tile sizing
}

// Default matches the conservative defaults a small I/O server node
// would run with: a 256 MiB per-fragment budget, 64 B cache lines, and
// a 32 MiB working set for tile sizing.
func Default() Config {
	return Config{
		MemoryBuffer:  256 << 20,
		CacheLineSize: 64,
		CacheSize:     32 << 20,
	}
}

// Validate checks the invariants the planner and tile-size selector
// depend on.
func (c Config) Validate() error {
	if c.MemoryBuffer == 0 {
		return ophierr.New(ophierr.ExecError, "engineconfig: memory_buffer must be positive")
	}
	if c.CacheLineSize <= 0 {
		return ophierr.New(ophierr.ExecError, "engineconfig: cache_line_size must be positive")
	}
	if c.CacheSize <= 0 {
		return ophierr.New(ophierr.ExecError, "engineconfig: cache_size must be positive")
	}
	return nil
}
