package reader

import "github.com/sonia-oph/fragreshape/internal/reshape"

// Transpose reorders buf (laid out row-major in ascending source
// dimension order, per plan.SrcCounts) into destination order (row-key
// dims by ordinal, then implicit dims by ordinal, per
// plan.DstSourceIDs/DstCounts), one element at a time. This is regime
// R1. When plan.NeedsTranspose is false the permutation is the
// identity and this degenerates to a straight copy, which keeps R1
// directly comparable to R0's output.
func Transpose(p *reshape.Plan, buf []byte) []byte {
	rank := len(p.DstSourceIDs)
	srcStrides := reshape.Strides(p.SrcCounts)
	dstStrides := reshape.Strides(p.DstCounts)

	total := len(buf) / p.ElemSize
	out := make([]byte, len(buf))

	dstCoord := make([]int, rank)
	for linear := 0; linear < total; linear++ {
		rem := linear
		for i := 0; i < rank; i++ {
			dstCoord[i] = rem / dstStrides[i]
			rem -= dstCoord[i] * dstStrides[i]
		}
		srcLinear := 0
		for i, sourceID := range p.DstSourceIDs {
			srcLinear += dstCoord[i] * srcStrides[sourceID]
		}
		copy(out[linear*p.ElemSize:(linear+1)*p.ElemSize], buf[srcLinear*p.ElemSize:(srcLinear+1)*p.ElemSize])
	}
	return out
}

// TransposeBlocked is the cache-blocked equivalent of Transpose
// (regime R2): it visits the same destination coordinates, tiled per
// plan.Blocks, and copies one element per coordinate; the innermost
// tile dimension is not copied as a single contiguous run. It must
// produce byte-identical output to Transpose for the same plan and
// input, regardless of tile size.
func TransposeBlocked(p *reshape.Plan, buf []byte) []byte {
	if len(p.Blocks) == 0 {
		return Transpose(p, buf)
	}
	rank := len(p.DstSourceIDs)
	srcStrides := reshape.Strides(p.SrcCounts)
	dstStrides := reshape.Strides(p.DstCounts)
	out := make([]byte, len(buf))

	tiles := reshape.GenerateTiles(p.DstCounts, p.Blocks)
	for _, tile := range tiles {
		reshape.ForEachCoord(tile.Start, tile.End, func(dstCoord []int) {
			dstLinear := 0
			srcLinear := 0
			for i, sourceID := range p.DstSourceIDs {
				dstLinear += dstCoord[i] * dstStrides[i]
				srcLinear += dstCoord[i] * srcStrides[sourceID]
			}
			copy(out[dstLinear*p.ElemSize:(dstLinear+1)*p.ElemSize], buf[srcLinear*p.ElemSize:(srcLinear+1)*p.ElemSize])
		})
	}
	return out
}
