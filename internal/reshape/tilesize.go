package reshape

import (
	"math"

	"github.com/sonia-oph/fragreshape/internal/engineconfig"
)

// SelectTileSizes picks the per-dimension tile (block) extent used by
// the cache-blocked transpose, regime R2.
func SelectTileSizes(counts []int, elemSize int, cfg engineconfig.Config) []int {
	n := len(counts)
	if n == 0 {
		return nil
	}
	line := cfg.CacheLineSize / elemSize
	if line < 1 {
		line = 1
	}
	maxBlocks := (cfg.CacheSize / 2) / elemSize
	if maxBlocks < 1 {
		maxBlocks = 1
	}
	b := int(math.Floor(math.Pow(float64(maxBlocks), 1.0/float64(n))))
	if b < 1 {
		b = 1
	}
	if b > line {
		b = (b / line) * line
		if b < line {
			b = line
		}
	}
	blocks := make([]int, n)
	for i, extent := range counts {
		blocks[i] = min(extent, b)
		if blocks[i] < 1 {
			blocks[i] = 1
		}
	}
	return blocks
}
