// Command fragreshaped is a small daemon/CLI that wires the engine
// context, parses a handful of flags, and runs one fragment job end
// to end against a source adapter and a sink. It exists for manual
// smoke-testing: no production array-store adapter ships with this
// module, so it builds a synthetic in-memory dataset.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/sonia-oph/fragreshape/internal/dataspace"
	"github.com/sonia-oph/fragreshape/internal/engine"
	"github.com/sonia-oph/fragreshape/internal/engineconfig"
	"github.com/sonia-oph/fragreshape/internal/row"
	sqlitesink "github.com/sonia-oph/fragreshape/internal/sink/sqlite"
	"github.com/sonia-oph/fragreshape/internal/sourcetest"
)

const version = "0.1.0"

func main() {
	var (
		containerName = flag.String("container", "esdm-demo", "source container name")
		datasetName   = flag.String("dataset", "v", "source dataset name")
		rows          = flag.Int("rows", 4, "synthetic dataset explicit-dim extent")
		cols          = flag.Int("cols", 6, "synthetic dataset implicit-dim extent")
		fragKeyStart  = flag.Int("frag-start", 1, "1-based fragment key start")
		tuplesPerFrag = flag.Int("tuples", 0, "rows per fragment (0 = whole dataset)")
		sinkPath      = flag.String("sink", "", "optional sqlite database path to persist the fragment into")
		showVersion   = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("fragreshaped", version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *tuplesPerFrag == 0 {
		*tuplesPerFrag = *rows
	}

	arr := sourcetest.NewMemArrayF32([]int{*rows, *cols}, func(c []int) float32 {
		return float32(c[0]**cols + c[1])
	})
	adapter := sourcetest.New(map[string]*sourcetest.MemArray{*datasetName: arr})

	ctx := engine.NewContext(adapter, engineconfig.Default(), log)

	job := engine.FragmentJob{
		ContainerName: *containerName,
		DatasetName:   *datasetName,
		Dims: dataspace.DimSpecs{
			Dataspace: arr.Desc,
			Dims: []dataspace.Dim{
				{Role: dataspace.Explicit, Ordinal: 0, Start: 0, End: *rows - 1},
				{Role: dataspace.Implicit, Ordinal: 0, Start: 0, End: *cols - 1},
			},
		},
		FragKeyStart:  *fragKeyStart,
		TuplesPerFrag: *tuplesPerFrag,
		Builder:       &row.Builder{},
	}

	set, err := ctx.RunFragment(context.Background(), job)
	if err != nil {
		log.Error("fragment run failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("fragment produced %d rows (%d bytes)\n", set.Len(), set.FragSize)

	if *sinkPath != "" {
		sink, err := sqlitesink.Open(*sinkPath)
		if err != nil {
			log.Error("open sink failed", "error", err)
			os.Exit(1)
		}
		defer sink.Close()

		table, err := sink.WriteFragment(context.Background(), set)
		if err != nil {
			log.Error("write to sink failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("wrote fragment to %s:%s\n", *sinkPath, table)
	}
}
