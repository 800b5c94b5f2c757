package graph

import (
	"fmt"
	"sort"
	"strings"
)

// CycleError is returned when the dependency graph contains a cycle,
// making a migration order impossible to compute.
type CycleError struct {
	// Unordered nodes that could not be scheduled (in a cycle or blocked by one).
	Unordered []string
	// Total number of nodes in the graph.
	Total int
}

// Error implements the error interface with a message naming the entity
// types that could not be ordered.
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %d of %d entity types could not be ordered (%s)",
		len(e.Unordered), e.Total, strings.Join(e.Unordered, ", "))
}

// MigrationOrder returns entity types in dependency order using Kahn's
// algorithm: every entity type appears after all entity types it depends on.
// Ties are broken alphabetically so the order is stable across runs.
// Returns a CycleError if the graph contains a cycle.
func (g *Graph) MigrationOrder() ([]string, error) {
	inDegree := g.inDegrees()

	// Seed the ready set with entity types that have no dependencies.
	var ready []string
	for name, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		order = append(order, node)

		var unblocked []string
		for _, child := range g.children[node] {
			inDegree[child]--
			if inDegree[child] == 0 {
				unblocked = append(unblocked, child)
			}
		}
		sort.Strings(unblocked)
		ready = append(ready, unblocked...)
	}

	if len(order) != len(g.nodes) {
		ordered := make(map[string]bool, len(order))
		for _, name := range order {
			ordered[name] = true
		}
		var unordered []string
		for name := range g.nodes {
			if !ordered[name] {
				unordered = append(unordered, name)
			}
		}
		sort.Strings(unordered)
		return nil, &CycleError{Unordered: unordered, Total: len(g.nodes)}
	}

	return order, nil
}

// Validate checks the graph for cycles without computing an order.
// Call this after building the graph to fail fast at startup.
func (g *Graph) Validate() error {
	_, err := g.MigrationOrder()
	return err
}
