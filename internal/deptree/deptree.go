// Package deptree renders an entity dependency graph as an ASCII tree.
// The plan command prints it so the operator can see why the migration
// order comes out the way it does.
package deptree

import (
	"sort"
	"strings"

	"github.com/sheetwise/sheetmigrate/internal/graph"
)

// RepeatMarker flags an entity type that appears under more than one
// dependency. The node is expanded at its first occurrence only.
const RepeatMarker = " *"

// Render draws the graph top-down: entity types with no dependencies are
// the roots, and each dependent is indented beneath the type it depends
// on. Output is deterministic (roots and children in lexical order).
// Render assumes an acyclic graph; callers should order it first.
func Render(g *graph.Graph) string {
	var b strings.Builder
	expanded := make(map[string]bool)

	for _, root := range rootsOf(g) {
		b.WriteString(root + "\n")
		expanded[root] = true
		writeChildren(&b, g, root, "", expanded)
	}
	return b.String()
}

// HasRepeats reports whether a rendered tree contains repeat-marked nodes,
// so callers know to print the legend.
func HasRepeats(rendered string) bool {
	return strings.Contains(rendered, RepeatMarker+"\n")
}

func rootsOf(g *graph.Graph) []string {
	var roots []string
	for _, name := range g.AllNodes() {
		if len(g.Parents(name)) == 0 {
			roots = append(roots, name)
		}
	}
	return roots
}

func writeChildren(b *strings.Builder, g *graph.Graph, parent, prefix string, expanded map[string]bool) {
	children := append([]string(nil), g.Children(parent)...)
	sort.Strings(children)

	for i, child := range children {
		connector, childPrefix := "├─ ", prefix+"│  "
		if i == len(children)-1 {
			connector, childPrefix = "└─ ", prefix+"   "
		}

		if expanded[child] {
			b.WriteString(prefix + connector + child + RepeatMarker + "\n")
			continue
		}
		expanded[child] = true
		b.WriteString(prefix + connector + child + "\n")
		writeChildren(b, g, child, childPrefix, expanded)
	}
}
