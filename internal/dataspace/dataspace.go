// Package dataspace describes the shape and element type of an
// N-dimensional array subset, independent of any concrete array
// source.
package dataspace

import "github.com/sonia-oph/fragreshape/internal/ophierr"

// Type is one of the scalar element types the engine understands.
type Type uint8

const (
	Int8 Type = iota
	Int16
	Int32
	Int64
	Float32
	Float64
)

// Size returns the on-wire byte width of t.
func (t Type) Size() int {
	switch t {
	case Int8:
		return 1
	case Int16:
		return 2
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	default:
		return 0
	}
}

func (t Type) String() string {
	switch t {
	case Int8:
		return "i8"
	case Int16:
		return "i16"
	case Int32:
		return "i32"
	case Int64:
		return "i64"
	case Float32:
		return "f32"
	case Float64:
		return "f64"
	default:
		return "unknown"
	}
}

// Role marks whether a dimension becomes part of the row key
// (Explicit) or is folded into the per-row payload (Implicit).
type Role uint8

const (
	Explicit Role = iota
	Implicit
)

// Dim is one source-array dimension, as requested by the caller. The
// zero value is an explicit dimension at ordinal 0 covering the single
// cell 0.
type Dim struct {
	Role    Role
	Ordinal int // position in the user-requested dimension order, 0..N-1
	Start   int // inclusive, 0-based
	End     int // inclusive, 0-based
}

// Extent returns the number of cells this dimension contributes, i.e.
// end-start+1.
func (d Dim) Extent() int { return d.End - d.Start + 1 }

// Validate checks the start<=end invariant for a single dimension.
func (d Dim) Validate(sourceExtent int) error {
	if d.Start < 0 || d.End >= sourceExtent || d.Start > d.End {
		return ophierr.New(ophierr.ExecError, "dimension subset out of range").
			WithDetail("start", d.Start).WithDetail("end", d.End).WithDetail("source_extent", sourceExtent)
	}
	return nil
}

// Descriptor is the immutable dataspace for the life of one read:
// rank, per-dimension extent in the *source* array's own order, the
// element type, and an optional fill value.
type Descriptor struct {
	Rank    int
	Extents []int // len == Rank, source order
	Elem    Type
	Fill    []byte // Elem.Size() bytes, or nil
}

// FillBuffer initializes buf with repeated copies of the dataspace's
// fill value, or leaves it unchanged if none is configured. Grounded on
// the original server's block-fill behaviour ahead of a streamed,
// reduced read (see original_source/src/server/oph_io_server_esdm.c).
func (d Descriptor) FillBuffer(buf []byte) {
	if len(d.Fill) == 0 {
		return
	}
	n := copy(buf, repeatedFill(d.Fill, len(buf)))
	_ = n
}

func repeatedFill(unit []byte, total int) []byte {
	out := make([]byte, total)
	for i := 0; i < total; i += len(unit) {
		copy(out[i:], unit)
	}
	return out
}

// DimSpecs groups the per-array dimension specifications the caller
// requested, alongside the source dataspace they apply to.
type DimSpecs struct {
	Dataspace Descriptor
	Dims      []Dim // len == Dataspace.Rank, indexed by source dimension id
}

// Explicit returns the dims with Role==Explicit, ordered by Ordinal
// ascending (the "logical level" order used by the codec, not source
// order).
func (s DimSpecs) Explicit() []Dim { return plain(s.ExplicitIndexed()) }

// Implicit returns the dims with Role==Implicit, ordered by Ordinal
// ascending.
func (s DimSpecs) Implicit() []Dim { return plain(s.ImplicitIndexed()) }

// IndexedDim pairs a Dim with its source-array dimension id, needed
// whenever a result must be reassembled in source order (e.g. a
// Subspace to hand the array source adapter).
type IndexedDim struct {
	SourceID int
	Dim      Dim
}

// ExplicitIndexed is Explicit but keeps each dim's source-array id.
func (s DimSpecs) ExplicitIndexed() []IndexedDim { return byRoleIndexed(s.Dims, Explicit) }

// ImplicitIndexed is Implicit but keeps each dim's source-array id.
func (s DimSpecs) ImplicitIndexed() []IndexedDim { return byRoleIndexed(s.Dims, Implicit) }

func plain(in []IndexedDim) []Dim {
	out := make([]Dim, len(in))
	for i, d := range in {
		out[i] = d.Dim
	}
	return out
}

func byRoleIndexed(dims []Dim, role Role) []IndexedDim {
	var out []IndexedDim
	for id, d := range dims {
		if d.Role == role {
			out = append(out, IndexedDim{SourceID: id, Dim: d})
		}
	}
	// stable insertion sort by Ordinal; N is always small (array rank)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Dim.Ordinal > out[j].Dim.Ordinal; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// ArrayLength computes A, the number of implicit-dimension cells per
// row, unless overridden by a reduction kernel's declared constant.
func (s DimSpecs) ArrayLength(reductionConstant int) int {
	if reductionConstant > 0 {
		return reductionConstant
	}
	a := 1
	for _, d := range s.Implicit() {
		a *= d.Extent()
	}
	if a == 0 {
		a = 1
	}
	return a
}

// ExplicitTupleCount returns the size of the explicit cross-product,
// the upper bound on fragment key ranges.
func (s DimSpecs) ExplicitTupleCount() int {
	n := 1
	for _, d := range s.Explicit() {
		n *= d.Extent()
	}
	return n
}
