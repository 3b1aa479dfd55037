// Package reader implements the fragment read and transpose core:
// regimes R0 (per-row), R1 (whole-fragment linear transpose), and R2
// (whole-fragment cache-blocked transpose), and their common
// plan-then-execute seam.
package reader

import (
	"context"

	"github.com/sonia-oph/fragreshape/internal/ophierr"
	"github.com/sonia-oph/fragreshape/internal/recordset"
	"github.com/sonia-oph/fragreshape/internal/reshape"
	"github.com/sonia-oph/fragreshape/internal/row"
	"github.com/sonia-oph/fragreshape/internal/source"
)

// Regime names the algorithmic path a fragment took, exposed mainly
// for logging and for the P4 transpose-invariance test that runs the
// same fragment through R1 and R2.
type Regime uint8

const (
	R0 Regime = iota
	R1
	R2
)

// ReduceKernel, when non-nil, makes every row's payload the kernel's
// folded result over the row's implicit subspace instead of the raw
// bytes, and forces regime R0 regardless of NeedsTranspose, since each
// row is computed independently under a reduction kernel.
type ReduceKernel struct {
	// OutputLen is the reduction's declared output length in bytes,
	// independent of A.
	OutputLen int
	Reduce    source.ReduceFunc
}

// Reader ties an Adapter, a row.Builder, and a chosen regime together
// to execute one fragment end to end.
type Reader struct {
	Adapter *source.Serialized
	Dataset source.Dataset
	Builder *row.Builder
}

// New builds a Reader over an already-open dataset.
func New(adapter *source.Serialized, dataset source.Dataset, builder *row.Builder) *Reader {
	return &Reader{Adapter: adapter, Dataset: dataset, Builder: builder}
}

// ChooseRegime picks the cheapest regime able to satisfy p and an
// optional reduction kernel: per-row whenever no transpose is needed
// or a kernel forces row independence, cache-blocked otherwise.
func ChooseRegime(p *reshape.Plan, kernel *ReduceKernel) Regime {
	if kernel != nil || !p.NeedsTranspose {
		return R0
	}
	return R2
}

// ReadFragment executes p against r's dataset using the regime
// ChooseRegime selects, appending rows to out in ascending id order.
// kernel may be nil.
func (r *Reader) ReadFragment(ctx context.Context, p *reshape.Plan, kernel *ReduceKernel, out *recordset.Set) error {
	switch ChooseRegime(p, kernel) {
	case R0:
		return r.RunR0(ctx, p, kernel, out)
	default:
		return r.RunR2(ctx, p, out)
	}
}

// RunR0 executes the per-row regime: one Subspace read (or
// ReadStream, under a reduction kernel) per row, under the
// source-store mutex for the whole loop.
func (r *Reader) RunR0(ctx context.Context, p *reshape.Plan, kernel *ReduceKernel, out *recordset.Set) error {
	r.Adapter.Lock()
	defer r.Adapter.Unlock()
	adapter := r.Adapter.Inner()

	payloadLen := p.A * p.ElemSize
	if kernel != nil {
		payloadLen = kernel.OutputLen
	}

	for ii := 0; ii < p.TuplesPerFrag; ii++ {
		id := p.FragKeyStart + ii
		sub, err := reshape.RowSubspace(p.Dims, id)
		if err != nil {
			return err
		}

		buf := make([]byte, payloadLen)
		if kernel != nil {
			p.Dims.Dataspace.FillBuffer(buf)
			err = adapter.ReadStream(ctx, r.Dataset, sub, nil, buf, kernel.Reduce)
			if err == source.ErrStreamingUnsupported {
				return ophierr.Wrap(err, ophierr.SourceError, "adapter cannot run reduction kernel")
			}
			if err != nil {
				return ophierr.Wrap(err, ophierr.SourceError, "read_stream failed")
			}
		} else {
			if err := adapter.Read(ctx, r.Dataset, sub, buf); err != nil {
				return ophierr.Wrap(err, ophierr.SourceError, "read failed").WithDetail("id", id)
			}
		}

		if err := r.Builder.Append(out, uint64(id), buf); err != nil {
			return err
		}
	}
	return nil
}

// bulkRead performs the single fragment-wide Read used by R1/R2,
// outside the source-store mutex so concurrent fragments can overlap
// their I/O.
func (r *Reader) bulkRead(ctx context.Context, p *reshape.Plan) ([]byte, error) {
	buf := make([]byte, p.TuplesPerFrag*p.A*p.ElemSize)
	if err := r.Adapter.Read(ctx, r.Dataset, p.Subspace, buf); err != nil {
		return nil, ophierr.Wrap(err, ophierr.SourceError, "bulk read failed")
	}
	return buf, nil
}

// RunR1 executes the whole-fragment, non-blocked transpose: one bulk
// read, then a linear element-by-element copy driven by source and
// destination stride tables.
func (r *Reader) RunR1(ctx context.Context, p *reshape.Plan, out *recordset.Set) error {
	buf, err := r.bulkRead(ctx, p)
	if err != nil {
		return err
	}
	dst := Transpose(p, buf)
	return emitRows(p, dst, r.Builder, out)
}

// RunR2 executes the whole-fragment, cache-blocked transpose: the
// same bulk read as RunR1, followed by a tiled copy using the block
// sizes the planner selected. This is the default regime whenever a
// transpose is required.
func (r *Reader) RunR2(ctx context.Context, p *reshape.Plan, out *recordset.Set) error {
	buf, err := r.bulkRead(ctx, p)
	if err != nil {
		return err
	}
	dst := TransposeBlocked(p, buf)
	return emitRows(p, dst, r.Builder, out)
}

// emitRows slices dst (already in [row][payload] dst-order layout,
// ascending id) into TuplesPerFrag rows and appends each to out in
// ascending id order.
func emitRows(p *reshape.Plan, dst []byte, builder *row.Builder, out *recordset.Set) error {
	rowLen := p.A * p.ElemSize
	for ii := 0; ii < p.TuplesPerFrag; ii++ {
		id := uint64(p.FragKeyStart + ii)
		payload := dst[ii*rowLen : (ii+1)*rowLen]
		if err := builder.Append(out, id, payload); err != nil {
			return err
		}
	}
	return nil
}
