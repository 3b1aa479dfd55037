package engine

import (
	"context"
	"testing"

	"github.com/sonia-oph/fragreshape/internal/dataspace"
	"github.com/sonia-oph/fragreshape/internal/engineconfig"
	"github.com/sonia-oph/fragreshape/internal/row"
	"github.com/sonia-oph/fragreshape/internal/sourcetest"
)

func TestRunFragmentEndToEnd(t *testing.T) {
	arr := sourcetest.NewMemArrayF32([]int{4, 6}, func(c []int) float32 { return float32(c[0]*6 + c[1]) })
	adapter := sourcetest.New(map[string]*sourcetest.MemArray{"v": arr})
	ctx := NewContext(adapter, engineconfig.Default(), nil)

	job := FragmentJob{
		ContainerName: "esdm-test",
		DatasetName:   "v",
		Dims: dataspace.DimSpecs{
			Dataspace: arr.Desc,
			Dims: []dataspace.Dim{
				{Role: dataspace.Explicit, Ordinal: 0, Start: 0, End: 3},
				{Role: dataspace.Implicit, Ordinal: 0, Start: 0, End: 5},
			},
		},
		FragKeyStart:  1,
		TuplesPerFrag: 4,
		Builder:       &row.Builder{},
	}
	set, err := ctx.RunFragment(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 4 {
		t.Fatalf("got %d rows, want 4", set.Len())
	}
}

func TestRunFragmentRejectsDimsOutsideReportedDataspace(t *testing.T) {
	arr := sourcetest.NewMemArrayF32([]int{4, 6}, func(c []int) float32 { return float32(c[0]*6 + c[1]) })
	adapter := sourcetest.New(map[string]*sourcetest.MemArray{"v": arr})
	ctx := NewContext(adapter, engineconfig.Default(), nil)

	job := FragmentJob{
		ContainerName: "esdm-test",
		DatasetName:   "v",
		Dims: dataspace.DimSpecs{
			// Deliberately stale: End=9 exceeds the adapter's reported
			// extent of 6 along this dimension.
			Dataspace: dataspace.Descriptor{Rank: 2, Extents: []int{4, 9}, Elem: dataspace.Float32},
			Dims: []dataspace.Dim{
				{Role: dataspace.Explicit, Ordinal: 0, Start: 0, End: 3},
				{Role: dataspace.Implicit, Ordinal: 0, Start: 0, End: 9},
			},
		},
		FragKeyStart:  1,
		TuplesPerFrag: 24,
		Builder:       &row.Builder{},
	}
	if _, err := ctx.RunFragment(context.Background(), job); err == nil {
		t.Fatal("expected RunFragment to reject dims outside the adapter-reported dataspace")
	}
}

func TestRunFragmentsConcurrentFailureIsolated(t *testing.T) {
	arr := sourcetest.NewMemArrayF32([]int{4, 6}, func(c []int) float32 { return float32(c[0]*6 + c[1]) })
	adapter := sourcetest.New(map[string]*sourcetest.MemArray{"v": arr})
	ctx := NewContext(adapter, engineconfig.Default(), nil)

	goodDims := dataspace.DimSpecs{
		Dataspace: arr.Desc,
		Dims: []dataspace.Dim{
			{Role: dataspace.Explicit, Ordinal: 0, Start: 0, End: 3},
			{Role: dataspace.Implicit, Ordinal: 0, Start: 0, End: 5},
		},
	}
	jobs := []FragmentJob{
		{ContainerName: "c", DatasetName: "v", Dims: goodDims, FragKeyStart: 1, TuplesPerFrag: 4, Builder: &row.Builder{}},
		{ContainerName: "c", DatasetName: "missing", Dims: goodDims, FragKeyStart: 1, TuplesPerFrag: 24, Builder: &row.Builder{}},
	}
	if _, err := ctx.RunFragments(context.Background(), jobs); err == nil {
		t.Fatal("expected an error from the job referencing a missing dataset")
	}
}
