package reshape

import (
	"testing"

	"github.com/sonia-oph/fragreshape/internal/dataspace"
	"github.com/sonia-oph/fragreshape/internal/engineconfig"
	"github.com/sonia-oph/fragreshape/internal/ophierr"
)

func dims2D() dataspace.DimSpecs {
	return dataspace.DimSpecs{
		Dataspace: dataspace.Descriptor{Rank: 2, Extents: []int{4, 6}, Elem: dataspace.Float32},
		Dims: []dataspace.Dim{
			{Role: dataspace.Explicit, Ordinal: 0, Start: 0, End: 3},
			{Role: dataspace.Implicit, Ordinal: 0, Start: 0, End: 5},
		},
	}
}

func TestBuildNoTransposeWhenSourceOrderMatches(t *testing.T) {
	p, err := Build(dims2D(), 1, 4, engineconfig.Default())
	if err != nil {
		t.Fatal(err)
	}
	if p.NeedsTranspose {
		t.Fatal("expected no transpose when explicit dims are already outermost")
	}
	if p.A != 6 {
		t.Fatalf("A = %d, want 6", p.A)
	}
}

func TestBuildTransposeRequiredWhenRolesSwapped(t *testing.T) {
	d := dataspace.DimSpecs{
		Dataspace: dataspace.Descriptor{Rank: 2, Extents: []int{4, 6}, Elem: dataspace.Float32},
		Dims: []dataspace.Dim{
			{Role: dataspace.Implicit, Ordinal: 0, Start: 0, End: 3},
			{Role: dataspace.Explicit, Ordinal: 0, Start: 0, End: 5},
		},
	}
	p, err := Build(d, 1, 1, engineconfig.Default())
	if err != nil {
		t.Fatal(err)
	}
	if !p.NeedsTranspose {
		t.Fatal("expected transpose required when explicit/implicit roles are swapped")
	}
}

func TestBuildRefusesOverBudgetFragment(t *testing.T) {
	d := dataspace.DimSpecs{
		Dataspace: dataspace.Descriptor{Rank: 2, Extents: []int{1000, 1000000}, Elem: dataspace.Float64},
		Dims: []dataspace.Dim{
			{Role: dataspace.Explicit, Ordinal: 0, Start: 0, End: 999},
			{Role: dataspace.Implicit, Ordinal: 0, Start: 0, End: 999999},
		},
	}
	cfg := engineconfig.Config{MemoryBuffer: 4 << 20, CacheLineSize: 64, CacheSize: 1 << 20}
	_, err := Build(d, 1, 1000, cfg)
	if err == nil {
		t.Fatal("expected memory budget refusal")
	}
	if !ophierr.Is(err, ophierr.MemoryError) {
		t.Fatalf("expected MemoryError, got %v", err)
	}
}

func TestBuildRefusesFragmentedInternalDims(t *testing.T) {
	d := dataspace.DimSpecs{
		Dataspace: dataspace.Descriptor{Rank: 3, Extents: []int{2, 3, 4}, Elem: dataspace.Float64},
		Dims: []dataspace.Dim{
			{Role: dataspace.Explicit, Ordinal: 0, Start: 0, End: 1},
			{Role: dataspace.Explicit, Ordinal: 1, Start: 0, End: 2},
			{Role: dataspace.Explicit, Ordinal: 2, Start: 0, End: 3},
		},
	}
	_, err := Build(d, 1, 7, engineconfig.Default())
	if err == nil {
		t.Fatal("expected fragmentation refusal")
	}
	if !ophierr.Is(err, ophierr.ExecError) {
		t.Fatalf("expected ExecError, got %v", err)
	}
}

func TestBuildPartialOuterExplicitDim(t *testing.T) {
	d := dataspace.DimSpecs{
		Dataspace: dataspace.Descriptor{Rank: 3, Extents: []int{2, 3, 4}, Elem: dataspace.Float64},
		Dims: []dataspace.Dim{
			{Role: dataspace.Explicit, Ordinal: 0, Start: 0, End: 1},
			{Role: dataspace.Explicit, Ordinal: 1, Start: 0, End: 2},
			{Role: dataspace.Implicit, Ordinal: 0, Start: 0, End: 3},
		},
	}
	p, err := Build(d, 4, 3, engineconfig.Default())
	if err != nil {
		t.Fatal(err)
	}
	if p.A != 4 {
		t.Fatalf("A = %d, want 4", p.A)
	}
	if p.TuplesPerFrag != 3 {
		t.Fatalf("tuples = %d, want 3", p.TuplesPerFrag)
	}
}
