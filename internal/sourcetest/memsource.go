// Package sourcetest provides an in-memory Adapter implementation
// used to exercise the reshape planner and reader against a known
// array without a real ESDM-like backend.
package sourcetest

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/google/uuid"
	"github.com/sonia-oph/fragreshape/internal/dataspace"
	"github.com/sonia-oph/fragreshape/internal/ophierr"
	"github.com/sonia-oph/fragreshape/internal/source"
)

// MemArray is a dense, row-major (C order, last dimension fastest) in
// memory array of a single dataspace.Type, addressable by hyper
// rectangle.
type MemArray struct {
	Desc dataspace.Descriptor
	Data []byte // len == product(Extents) * Desc.Elem.Size()
}

// NewMemArrayF64 builds a row-major float64 array and fills it with
// values computed by gen(coords), coords given in source order.
func NewMemArrayF64(extents []int, gen func(coords []int) float64) *MemArray {
	total := 1
	for _, e := range extents {
		total *= e
	}
	data := make([]byte, total*8)
	coords := make([]int, len(extents))
	for lin := 0; lin < total; lin++ {
		linearToCoords(lin, extents, coords)
		v := gen(coords)
		binary.LittleEndian.PutUint64(data[lin*8:], math.Float64bits(v))
	}
	return &MemArray{
		Desc: dataspace.Descriptor{Rank: len(extents), Extents: append([]int(nil), extents...), Elem: dataspace.Float64},
		Data: data,
	}
}

// NewMemArrayF32 is the float32 analogue of NewMemArrayF64.
func NewMemArrayF32(extents []int, gen func(coords []int) float32) *MemArray {
	total := 1
	for _, e := range extents {
		total *= e
	}
	data := make([]byte, total*4)
	coords := make([]int, len(extents))
	for lin := 0; lin < total; lin++ {
		linearToCoords(lin, extents, coords)
		v := gen(coords)
		binary.LittleEndian.PutUint32(data[lin*4:], math.Float32bits(v))
	}
	return &MemArray{
		Desc: dataspace.Descriptor{Rank: len(extents), Extents: append([]int(nil), extents...), Elem: dataspace.Float32},
		Data: data,
	}
}

func linearToCoords(lin int, extents, out []int) {
	for d := len(extents) - 1; d >= 0; d-- {
		out[d] = lin % extents[d]
		lin /= extents[d]
	}
}

func coordsToLinear(coords, extents []int) int {
	lin := 0
	for d := 0; d < len(extents); d++ {
		lin = lin*extents[d] + coords[d]
	}
	return lin
}

// Adapter is a source.Adapter backed by a fixed set of named
// MemArrays, one dataset per name.
type Adapter struct {
	Arrays map[string]*MemArray
}

func New(arrays map[string]*MemArray) *Adapter {
	return &Adapter{Arrays: arrays}
}

func (a *Adapter) OpenContainer(ctx context.Context, name string) (source.Container, error) {
	return source.Container{ID: uuid.New(), Name: name}, nil
}

func (a *Adapter) CloseContainer(ctx context.Context, c source.Container) error { return nil }

func (a *Adapter) OpenDataset(ctx context.Context, c source.Container, varName string) (source.Dataset, error) {
	if _, ok := a.Arrays[varName]; !ok {
		return source.Dataset{}, ophierr.New(ophierr.SourceError, "no such dataset").WithDetail("name", varName)
	}
	return source.Dataset{ID: uuid.New(), Name: varName}, nil
}

func (a *Adapter) CloseDataset(ctx context.Context, d source.Dataset) error { return nil }

func (a *Adapter) GetDataspace(ctx context.Context, d source.Dataset) (dataspace.Descriptor, error) {
	arr, ok := a.Arrays[d.Name]
	if !ok {
		return dataspace.Descriptor{}, ophierr.New(ophierr.SourceError, "no such dataset")
	}
	return arr.Desc, nil
}

func (a *Adapter) Read(ctx context.Context, d source.Dataset, sub source.Subspace, dst []byte) error {
	arr, ok := a.Arrays[d.Name]
	if !ok {
		return ophierr.New(ophierr.SourceError, "no such dataset")
	}
	elemSize := arr.Desc.Elem.Size()
	rank := len(sub.Count)
	total := 1
	for _, c := range sub.Count {
		total *= c
	}
	if len(dst) < total*elemSize {
		return ophierr.New(ophierr.MemoryError, "destination buffer too small")
	}
	counters := make([]int, rank)
	for i := 0; i < total; i++ {
		coords := make([]int, rank)
		for d := 0; d < rank; d++ {
			coords[d] = sub.Start[d] + counters[d]
		}
		lin := coordsToLinear(coords, arr.Desc.Extents)
		copy(dst[i*elemSize:(i+1)*elemSize], arr.Data[lin*elemSize:(lin+1)*elemSize])
		for d := rank - 1; d >= 0; d-- {
			counters[d]++
			if counters[d] < sub.Count[d] {
				break
			}
			counters[d] = 0
		}
	}
	return nil
}

func (a *Adapter) ReadStream(ctx context.Context, d source.Dataset, sub source.Subspace, perBlock source.PerBlockFunc, acc []byte, reduce source.ReduceFunc) error {
	arr, ok := a.Arrays[d.Name]
	if !ok {
		return ophierr.New(ophierr.SourceError, "no such dataset")
	}
	elemSize := arr.Desc.Elem.Size()
	total := 1
	for _, c := range sub.Count {
		total *= c
	}
	buf := make([]byte, total*elemSize)
	if err := a.Read(ctx, d, sub, buf); err != nil {
		return err
	}
	if perBlock != nil {
		if err := perBlock(ctx, buf); err != nil {
			return err
		}
	}
	if reduce != nil {
		if err := reduce(ctx, acc, buf); err != nil {
			return err
		}
	}
	return nil
}
