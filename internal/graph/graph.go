// Package graph provides the entity dependency graph and ordering for sheetmigrate.
package graph

import "sort"

// Graph represents the dependency structure between entity types. An edge
// from A to B means B declares a foreign key into A, so A must be migrated
// before B.
type Graph struct {
	nodes    map[string]bool
	children map[string][]string // entity -> entities that depend on it
	parents  map[string][]string // entity -> entities it depends on
}

// New creates an empty dependency graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]bool),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddNode adds an entity type to the graph.
func (g *Graph) AddNode(entityType string) {
	g.nodes[entityType] = true
}

// AddDependency records that entityType depends on dependsOn, i.e. dependsOn
// must be migrated first. Both nodes are added if not already present.
func (g *Graph) AddDependency(entityType, dependsOn string) {
	g.AddNode(entityType)
	g.AddNode(dependsOn)

	g.children[dependsOn] = append(g.children[dependsOn], entityType)
	g.parents[entityType] = append(g.parents[entityType], dependsOn)
}

// HasNode returns true if the graph contains the given entity type.
func (g *Graph) HasNode(entityType string) bool {
	return g.nodes[entityType]
}

// Children returns the entity types that depend on the given one.
func (g *Graph) Children(entityType string) []string {
	return g.children[entityType]
}

// Parents returns the entity types the given one depends on.
func (g *Graph) Parents(entityType string) []string {
	return g.parents[entityType]
}

// NodeCount returns the number of entity types in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// AllNodes returns all entity types in the graph, sorted for determinism.
func (g *Graph) AllNodes() []string {
	nodes := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		nodes = append(nodes, name)
	}
	sort.Strings(nodes)
	return nodes
}

// inDegrees computes the number of unmet dependencies for each entity type.
func (g *Graph) inDegrees() map[string]int {
	inDegree := make(map[string]int)
	for name := range g.nodes {
		inDegree[name] = len(g.parents[name])
	}
	return inDegree
}
