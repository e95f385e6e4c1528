//go:build ignore

// generate_testdata.go creates sample hierarchy datasets for manual
// testing and benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/small.jsonl   (1 person tree)
//	testdata/medium.jsonl  (8 people)
//	testdata/large.jsonl   (40 people)
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/canopyviz/canopy/pkg/model"
	"github.com/canopyviz/canopy/pkg/testutil"
)

type datasetSpec struct {
	name   string
	people int
}

var datasets = []datasetSpec{
	{"small", 1},
	{"medium", 8},
	{"large", 40},
}

type line struct {
	Record string      `json:"record"`
	Node   *model.Node `json:"node,omitempty"`
	Edge   *model.Edge `json:"edge,omitempty"`
}

func main() {
	outDir := "testdata"
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create %s: %v\n", outDir, err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		cfg := testutil.DefaultGeneratorConfig()
		cfg.People = ds.people
		cfg.Categories = 3
		cfg.Subcategories = 2
		cfg.Documents = 3
		nodes, edges := testutil.Generate(cfg)

		path := filepath.Join(outDir, ds.name+".jsonl")
		if err := write(path, nodes, edges); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d nodes, %d edges\n", path, len(nodes), len(edges))
	}
}

func write(path string, nodes []model.Node, edges []model.Edge) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range nodes {
		if err := enc.Encode(line{Record: "node", Node: &nodes[i]}); err != nil {
			return err
		}
	}
	for i := range edges {
		if err := enc.Encode(line{Record: "edge", Edge: &edges[i]}); err != nil {
			return err
		}
	}
	return w.Flush()
}
