// Package reshape validates a fragment request against a dataspace
// and dimension specification, and produces a Plan describing exactly
// what to read and how (if at all) to reorder it.
package reshape

import (
	"github.com/sonia-oph/fragreshape/internal/codec"
	"github.com/sonia-oph/fragreshape/internal/dataspace"
	"github.com/sonia-oph/fragreshape/internal/engineconfig"
	"github.com/sonia-oph/fragreshape/internal/ophierr"
	"github.com/sonia-oph/fragreshape/internal/source"
)

// Plan is the output of the reshape planner: everything the
// reader/transposer needs to execute a fragment under regime R0, R1,
// or R2, without re-deriving any of the stride or dimension-order
// arithmetic itself. Regime functions are pure consumers of a Plan.
type Plan struct {
	Dims dataspace.DimSpecs

	FragKeyStart  int
	TuplesPerFrag int
	A             int
	ElemSize      int

	// Subspace is the full-fragment hyper-rectangle to bulk-read for
	// regimes R1/R2, in source dimension order (len == rank).
	Subspace source.Subspace

	// NeedsTranspose is true when the destination order (explicit
	// dims by ordinal, then implicit dims by ordinal) differs from
	// the source's natural ascending dimension order.
	NeedsTranspose bool

	// DstSourceIDs[i] is the source dimension id occupying
	// destination position i (explicit dims by ordinal first, then
	// implicit dims by ordinal). Length == rank.
	DstSourceIDs []int
	// DstCounts[i] is the per-fragment count for DstSourceIDs[i].
	DstCounts []int
	// SrcCounts[d] is the per-fragment count for source dimension d,
	// i.e. the same counts as DstCounts but indexed by source id.
	SrcCounts []int

	NumExplicit int // leading NumExplicit entries of DstSourceIDs/DstCounts are the row-key dims

	// Blocks[i] is the tile extent along destination position i,
	// selected for regime R2; empty when NeedsTranspose is false.
	Blocks []int
}

// Build validates the fragment request and computes a Plan.
// cfg.MemoryBuffer enforces the per-fragment memory bound.
func Build(dims dataspace.DimSpecs, fragKeyStart, tuplesPerFrag int, cfg engineconfig.Config) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	elemSize := dims.Dataspace.Elem.Size()
	if elemSize == 0 {
		return nil, ophierr.New(ophierr.ExecError, "unknown element type")
	}

	explicit := dims.ExplicitIndexed()
	implicit := dims.ImplicitIndexed()
	if len(explicit) == 0 {
		return nil, ophierr.New(ophierr.ExecError, "no explicit dimensions declared")
	}

	a := dims.ArrayLength(0)

	// memory bound check, before any read is attempted.
	needed := uint64(tuplesPerFrag) * uint64(elemSize) * uint64(a)
	if needed > cfg.MemoryBuffer/2 {
		return nil, ophierr.NewMemoryBudget(needed, cfg.MemoryBuffer/2)
	}

	explicitExtents := make([]int, len(explicit))
	for i, d := range explicit {
		explicitExtents[i] = d.Dim.Extent()
	}
	total := 1
	for _, e := range explicitExtents {
		total *= e
	}
	if fragKeyStart < 1 || tuplesPerFrag < 1 || fragKeyStart+tuplesPerFrag-1 > total {
		return nil, ophierr.New(ophierr.ExecError, "fragment key range out of bounds").
			WithDetail("frag_key_start", fragKeyStart).
			WithDetail("tuples_per_frag", tuplesPerFrag).
			WithDetail("explicit_total", total)
	}

	// Step 3: most external explicit dim M is the first (smallest
	// ordinal) with extent > 1.
	mIdx := len(explicit) - 1
	for i, e := range explicitExtents {
		if e > 1 {
			mIdx = i
			break
		}
	}

	// Step 4: rows contributed by dims strictly internal to M.
	currRows := 1
	for i := mIdx + 1; i < len(explicitExtents); i++ {
		currRows *= explicitExtents[i]
	}
	if tuplesPerFrag < currRows || tuplesPerFrag%currRows != 0 {
		return nil, ophierr.New(ophierr.ExecError, "internal explicit dimensions are fragmented").
			WithDetail("tuples_per_frag", tuplesPerFrag).WithDetail("curr_rows", currRows)
	}
	mCount := tuplesPerFrag / currRows

	// Step 6: starting coordinate tuple for this fragment.
	startCoord, err := codec.Decode(fragKeyStart, explicitExtents)
	if err != nil {
		return nil, err
	}

	// Step 5: per-explicit-dim count/start for the bulk subspace.
	explicitCount := make([]int, len(explicit))
	explicitStart := make([]int, len(explicit))
	for i, d := range explicit {
		switch {
		case i < mIdx:
			explicitCount[i] = 1
		case i == mIdx:
			explicitCount[i] = mCount
		default:
			explicitCount[i] = explicitExtents[i]
		}
		explicitStart[i] = d.Dim.Start + (startCoord[i] - 1)
	}

	rank := dims.Dataspace.Rank
	srcStart := make([]int, rank)
	srcCount := make([]int, rank)
	for i, d := range explicit {
		srcStart[d.SourceID] = explicitStart[i]
		srcCount[d.SourceID] = explicitCount[i]
	}
	for _, d := range implicit {
		srcStart[d.SourceID] = d.Dim.Start
		srcCount[d.SourceID] = d.Dim.Extent()
	}
	for _, c := range srcCount {
		if c < 1 {
			return nil, ophierr.New(ophierr.ExecError, "computed subspace count below 1")
		}
	}

	dstSourceIDs := make([]int, 0, rank)
	dstCounts := make([]int, 0, rank)
	for i, d := range explicit {
		dstSourceIDs = append(dstSourceIDs, d.SourceID)
		dstCounts = append(dstCounts, explicitCount[i])
	}
	for _, d := range implicit {
		dstSourceIDs = append(dstSourceIDs, d.SourceID)
		dstCounts = append(dstCounts, d.Dim.Extent())
	}

	needsTranspose := false
	for i, id := range dstSourceIDs {
		if id != i {
			needsTranspose = true
			break
		}
	}

	p := &Plan{
		Dims:          dims,
		FragKeyStart:  fragKeyStart,
		TuplesPerFrag: tuplesPerFrag,
		A:             a,
		ElemSize:      elemSize,
		Subspace:      source.Subspace{Start: srcStart, Count: srcCount},
		NeedsTranspose: needsTranspose,
		DstSourceIDs:  dstSourceIDs,
		DstCounts:     dstCounts,
		SrcCounts:     srcCount,
		NumExplicit:   len(explicit),
	}
	if needsTranspose {
		p.Blocks = SelectTileSizes(dstCounts, elemSize, cfg)
	}
	return p, nil
}

// RowSubspace builds the single-row Subspace used by regime R0 for
// the row with the 1-based absolute id absoluteID, reusing the same
// codec + dim-spec logic as Build but for one row.
func RowSubspace(dims dataspace.DimSpecs, absoluteID int) (source.Subspace, error) {
	explicit := dims.ExplicitIndexed()
	implicit := dims.ImplicitIndexed()
	explicitExtents := make([]int, len(explicit))
	for i, d := range explicit {
		explicitExtents[i] = d.Dim.Extent()
	}
	coord, err := codec.Decode(absoluteID, explicitExtents)
	if err != nil {
		return source.Subspace{}, err
	}
	rank := dims.Dataspace.Rank
	start := make([]int, rank)
	count := make([]int, rank)
	for i, d := range explicit {
		start[d.SourceID] = d.Dim.Start + (coord[i] - 1)
		count[d.SourceID] = 1
	}
	for _, d := range implicit {
		start[d.SourceID] = d.Dim.Start
		count[d.SourceID] = d.Dim.Extent()
	}
	return source.Subspace{Start: start, Count: count}, nil
}
