// Package diagram renders a Backbone's group topology as a Graphviz DOT
// graph (spec.md §7's supplemented diagram component): one cluster per
// side, one node per GroupBlock labeled with its headers and
// softmax-normalized weights, one edge per cross-side link.
package diagram

import (
	"fmt"
	"os"
	"strings"

	"github.com/emicklei/dot"

	"github.com/seanblong/fuzzydb/internal/backbone"
	"github.com/seanblong/fuzzydb/internal/ferrors"
)

// Render builds the DOT graph for bb.
func Render(bb *backbone.Backbone) *dot.Graph {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "LR")

	refCluster := g.Subgraph("reference", dot.ClusterOption())
	tgtCluster := g.Subgraph("target", dot.ClusterOption())

	refNodes := make(map[string]dot.Node)
	for name, grp := range bb.Groups(backbone.Reference) {
		refNodes[name] = refCluster.Node("ref_" + name).Label(groupLabel(name, grp))
	}
	tgtNodes := make(map[string]dot.Node)
	for name, grp := range bb.Groups(backbone.Target) {
		tgtNodes[name] = tgtCluster.Node("tgt_" + name).Label(groupLabel(name, grp))
	}

	for name, links := range bb.LinkNames(backbone.Reference) {
		for _, other := range links {
			g.Edge(refNodes[name], tgtNodes[other])
		}
	}
	for name, links := range bb.LinkNames(backbone.Target) {
		for _, other := range links {
			g.Edge(tgtNodes[name], refNodes[other])
		}
	}

	return g
}

// WriteFile renders bb and writes the DOT source to path.
func WriteFile(path string, bb *backbone.Backbone) error {
	g := Render(bb)
	if err := os.WriteFile(path, []byte(g.String()), 0o644); err != nil {
		return ferrors.Wrap(ferrors.KindPersistence, "write backbone diagram to "+path, err)
	}
	return nil
}

func groupLabel(name string, g *backbone.GroupBlock) string {
	var b strings.Builder
	b.WriteString(name)
	for _, h := range g.Headers() {
		fmt.Fprintf(&b, "\n%s (%.2f)", h, g.WeightOf(h))
	}
	return b.String()
}
