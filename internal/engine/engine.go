// Package engine threads the engine-wide context (config, locks,
// function tables) through fragment jobs and runs them, optionally
// many at once.
package engine

import (
	"context"
	"log/slog"

	"github.com/sonia-oph/fragreshape/internal/dataspace"
	"github.com/sonia-oph/fragreshape/internal/engineconfig"
	"github.com/sonia-oph/fragreshape/internal/ophierr"
	"github.com/sonia-oph/fragreshape/internal/plugin"
	"github.com/sonia-oph/fragreshape/internal/reader"
	"github.com/sonia-oph/fragreshape/internal/recordset"
	"github.com/sonia-oph/fragreshape/internal/reshape"
	"github.com/sonia-oph/fragreshape/internal/row"
	"github.com/sonia-oph/fragreshape/internal/source"
	"golang.org/x/sync/errgroup"
)

// Context is the process-wide engine state: configuration, the
// source-store mutex (via a Serialized adapter), and the built-in
// function table the evaluator consults. One Context is shared by every
// query this process runs; it holds no per-query state.
type Context struct {
	Config   engineconfig.Config
	Source   *source.Serialized
	Builtins *plugin.Table
	Log      *slog.Logger
}

// NewContext wires a fresh engine context over adapter, with the
// built-in function table initialized once.
func NewContext(adapter source.Adapter, cfg engineconfig.Config, log *slog.Logger) *Context {
	if log == nil {
		log = slog.Default()
	}
	return &Context{
		Config:   cfg,
		Source:   source.NewSerialized(adapter),
		Builtins: plugin.NewBuiltinTable(),
		Log:      log,
	}
}

// FragmentJob is one fragment request: the dataset to read, the
// dimension specification, the fragment's key range, and the row
// builder to use when materializing output rows.
type FragmentJob struct {
	ContainerName string
	DatasetName   string
	Dims          dataspace.DimSpecs
	FragKeyStart  int
	TuplesPerFrag int
	Builder       *row.Builder
	Kernel        *reader.ReduceKernel
}

// reconcileDims validates the caller-supplied dimension specification
// against the dataspace the adapter actually reports, then returns a
// DimSpecs built on the adapter's descriptor, the source of truth for
// extents and fill value.
func reconcileDims(dims dataspace.DimSpecs, actual dataspace.Descriptor) (dataspace.DimSpecs, error) {
	if actual.Rank != len(dims.Dims) {
		return dataspace.DimSpecs{}, ophierr.New(ophierr.ExecError, "dimension spec rank does not match dataspace rank").
			WithDetail("dataspace_rank", actual.Rank).WithDetail("dims_rank", len(dims.Dims))
	}
	for sourceID, d := range dims.Dims {
		if err := d.Validate(actual.Extents[sourceID]); err != nil {
			return dataspace.DimSpecs{}, err
		}
	}
	return dataspace.DimSpecs{Dataspace: actual, Dims: dims.Dims}, nil
}

// RunFragment opens the container/dataset, plans, reads, and returns
// one fragment's record set, releasing every acquired handle on every
// exit path.
func (c *Context) RunFragment(ctx context.Context, job FragmentJob) (*recordset.Set, error) {
	if job.Builder == nil {
		return nil, ophierr.New(ophierr.NullParam, "fragment job missing a row builder")
	}

	container, err := c.Source.OpenContainer(ctx, job.ContainerName)
	if err != nil {
		return nil, ophierr.Wrap(err, ophierr.SourceError, "open_container failed")
	}
	defer c.Source.CloseContainer(ctx, container)

	dataset, err := c.Source.OpenDataset(ctx, container, job.DatasetName)
	if err != nil {
		return nil, ophierr.Wrap(err, ophierr.SourceError, "open_dataset failed")
	}
	defer c.Source.CloseDataset(ctx, dataset)

	actual, err := c.Source.GetDataspace(ctx, dataset)
	if err != nil {
		return nil, ophierr.Wrap(err, ophierr.SourceError, "get_dataspace failed")
	}
	dims, err := reconcileDims(job.Dims, actual)
	if err != nil {
		return nil, err
	}

	plan, err := reshape.Build(dims, job.FragKeyStart, job.TuplesPerFrag, c.Config)
	if err != nil {
		return nil, err
	}

	out := recordset.New(plan.TuplesPerFrag)
	rdr := reader.New(c.Source, dataset, job.Builder)
	if err := rdr.ReadFragment(ctx, plan, job.Kernel, out); err != nil {
		return nil, err
	}

	c.Log.Info("fragment complete",
		"container", job.ContainerName, "dataset", job.DatasetName,
		"frag_key_start", job.FragKeyStart, "rows", out.Len(), "bytes", out.FragSize)
	return out, nil
}

// RunFragments runs every job concurrently and returns once all of
// them have finished; the first failure cancels the context passed to
// the remaining jobs. No record sets are returned when any job fails.
func (c *Context) RunFragments(ctx context.Context, jobs []FragmentJob) ([]*recordset.Set, error) {
	results := make([]*recordset.Set, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			set, err := c.RunFragment(gctx, job)
			if err != nil {
				return err
			}
			results[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
