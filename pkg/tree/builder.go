package tree

import (
	"github.com/Ramsey-B/sequoia/pkg/kinship"
	"github.com/Ramsey-B/sequoia/pkg/models"
)

// Builder assembles rooted family trees from a kinship graph snapshot
type Builder struct {
	graph    *kinship.Graph
	maxDepth int
}

// NewBuilder creates a builder over the given snapshot. maxDepth bounds
// expansion in each direction; values below 1 fall back to the default.
func NewBuilder(graph *kinship.Graph, maxDepth int) *Builder {
	if maxDepth < 1 {
		maxDepth = models.DefaultTreeMaxDepth
	}
	return &Builder{graph: graph, maxDepth: maxDepth}
}

// Build returns the tree rooted at rootID, expanded in the given direction.
// An unknown root yields nil rather than an error. A visited set keyed by
// person id guarantees no person appears twice and that expansion terminates
// on cyclic data.
func (b *Builder) Build(rootID string, direction models.TreeDirection) *models.TreeNode {
	if !b.graph.Has(rootID) {
		return nil
	}

	visited := make(map[string]struct{})
	root := b.buildNode(rootID, direction, 0, visited)
	return root
}

func (b *Builder) buildNode(personID string, direction models.TreeDirection, depth int, visited map[string]struct{}) *models.TreeNode {
	person, ok := b.graph.Person(personID)
	if !ok {
		return nil
	}
	if _, seen := visited[personID]; seen {
		return nil
	}
	visited[personID] = struct{}{}

	node := &models.TreeNode{
		Person: *person,
		Depth:  depth,
	}

	b.attachSpouse(node, personID, visited)

	if depth >= b.maxDepth {
		return node
	}

	if direction == models.TreeDirectionAncestors || direction == models.TreeDirectionBoth {
		for _, parentID := range b.graph.Parents(personID) {
			if parent := b.buildNode(parentID, models.TreeDirectionAncestors, depth+1, visited); parent != nil {
				node.Parents = append(node.Parents, parent)
			}
		}
	}

	if direction == models.TreeDirectionDescendants || direction == models.TreeDirectionBoth {
		for _, childID := range b.graph.Children(personID) {
			if child := b.buildNode(childID, models.TreeDirectionDescendants, depth+1, visited); child != nil {
				node.Children = append(node.Children, child)
			}
		}
	}

	return node
}

// attachSpouse records all spouse edges on the node and resolves the first
// not-yet-visited spouse as the primary one. Multi-spouse rendering stays a
// presentation concern; the full edge list is still exposed.
func (b *Builder) attachSpouse(node *models.TreeNode, personID string, visited map[string]struct{}) {
	node.SpouseEdges = b.graph.SpouseEdges(personID)

	for _, spouseID := range b.graph.Spouses(personID) {
		if _, seen := visited[spouseID]; seen {
			continue
		}
		spouse, ok := b.graph.Person(spouseID)
		if !ok {
			continue
		}
		visited[spouseID] = struct{}{}
		node.Spouse = spouse
		return
	}
}
