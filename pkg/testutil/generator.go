// Package testutil provides fixture generators and assertion helpers for
// hierarchy graph tests.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/canopyviz/canopy/pkg/model"
)

// GeneratorConfig controls synthetic hierarchy generation.
type GeneratorConfig struct {
	People        int // level 1 nodes under the root
	Categories    int // level 2 nodes per person
	Subcategories int // level 3 nodes per category
	Documents     int // level 4 nodes per subcategory
	RootDocs      int // level 5 documents attached to the root
	Seed          int64
}

// DefaultGeneratorConfig is a small family vault: a root, a few people,
// categories with documents below them.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		People:        3,
		Categories:    2,
		Subcategories: 2,
		Documents:     2,
		RootDocs:      1,
		Seed:          1,
	}
}

// Generate builds a deterministic synthetic hierarchy with edges
// mirroring the parent relationships.
func Generate(cfg GeneratorConfig) ([]model.Node, []model.Edge) {
	rng := rand.New(rand.NewSource(cfg.Seed))

	var nodes []model.Node
	var edges []model.Edge
	edgeID := 0

	link := func(parent, child string) {
		edgeID++
		edges = append(edges, model.Edge{
			ID:       fmt.Sprintf("e%d", edgeID),
			SourceID: parent,
			TargetID: child,
		})
	}

	root := model.Node{ID: "root", Kind: model.KindRoot, Level: model.LevelRoot, Title: "Family"}
	nodes = append(nodes, root)

	kinds := []model.Kind{model.KindPerson, model.KindPet}
	for p := 0; p < cfg.People; p++ {
		pid := fmt.Sprintf("person-%d", p)
		kind := kinds[0]
		if p > 0 && rng.Intn(4) == 0 {
			kind = kinds[1]
		}
		nodes = append(nodes, model.Node{
			ID: pid, Kind: kind, Level: model.LevelPerson,
			ParentIDs: []string{"root"}, ChildCount: cfg.Categories,
			Title: fmt.Sprintf("Member %d", p),
		})
		link("root", pid)

		for c := 0; c < cfg.Categories; c++ {
			cid := fmt.Sprintf("%s-cat-%d", pid, c)
			nodes = append(nodes, model.Node{
				ID: cid, Kind: model.KindCategory, Level: model.LevelCategory,
				ParentIDs: []string{pid}, ChildCount: cfg.Subcategories,
			})
			link(pid, cid)

			for s := 0; s < cfg.Subcategories; s++ {
				sid := fmt.Sprintf("%s-sub-%d", cid, s)
				nodes = append(nodes, model.Node{
					ID: sid, Kind: model.KindFolder, Level: model.LevelSubcategory,
					ParentIDs: []string{cid}, ChildCount: cfg.Documents,
				})
				link(cid, sid)

				for d := 0; d < cfg.Documents; d++ {
					did := fmt.Sprintf("%s-doc-%d", sid, d)
					nodes = append(nodes, model.Node{
						ID: did, Kind: model.KindDocument, Level: model.LevelDocument,
						ParentIDs: []string{sid},
					})
					link(sid, did)
				}
			}
		}
	}

	for d := 0; d < cfg.RootDocs; d++ {
		did := fmt.Sprintf("rootdoc-%d", d)
		nodes = append(nodes, model.Node{
			ID: did, Kind: model.KindDocument, Level: model.LevelRootDoc,
			ParentIDs: []string{"root"},
		})
		link("root", did)
	}

	return nodes, edges
}
