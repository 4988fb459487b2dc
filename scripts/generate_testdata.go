//go:build ignore

// generate_testdata.go writes forest fixtures for benchmarking and manual
// testing of the picker.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//   testdata/bench/small.json     (100 nodes, nested)
//   testdata/bench/medium.json    (1000 nodes, nested)
//   testdata/bench/large.json     (5000 nodes, parent_id records)
//   testdata/bench/deep.json      (500 node chain, nested)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/testutil"
)

type datasetSpec struct {
	name    string
	size    int
	records bool
	build   func(g *testutil.Generator, size int) *model.Forest
}

func random(g *testutil.Generator, size int) *model.Forest { return g.Random(size, 0.05) }
func chain(g *testutil.Generator, size int) *model.Forest  { return g.Chain(size) }

var datasets = []datasetSpec{
	{"small", 100, false, random},
	{"medium", 1000, false, random},
	{"large", 5000, true, random},
	{"deep", 500, false, chain},
}

func main() {
	outputDir := filepath.Join("testdata", "bench")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d nodes)...\n", ds.name, ds.size)

		gen := testutil.New(testutil.GeneratorConfig{
			Seed:              int64(ds.size),
			IDPrefix:          ds.name + "-",
			DisabledRatio:     0.03,
			UnselectableRatio: 0.02,
			Tones:             []model.Tone{model.ToneDefault, model.ToneInfo, model.ToneWarning},
		})
		forest := ds.build(gen, ds.size)

		var v any = forest.Roots
		if ds.records {
			v = testutil.Records(forest)
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal %s: %v\n", ds.name, err)
			os.Exit(1)
		}

		path := filepath.Join(outputDir, ds.name+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("  wrote %s (%d roots)\n", path, len(forest.Roots))
	}
}
