package models

// DefaultTreeMaxDepth bounds tree expansion when no explicit depth is given
const DefaultTreeMaxDepth = 10

// TreeDirection selects which way a tree is expanded from its root
type TreeDirection string

const (
	TreeDirectionAncestors   TreeDirection = "ancestors"
	TreeDirectionDescendants TreeDirection = "descendants"
	TreeDirectionBoth        TreeDirection = "both"
)

// IsValid reports whether the direction is a known value
func (d TreeDirection) IsValid() bool {
	return d == TreeDirectionAncestors || d == TreeDirectionDescendants || d == TreeDirectionBoth
}

// TreeNode is one person placed in a rooted hierarchical view. A person
// appears at most once per tree; the primary spouse is attached directly and
// the full spouse edge list is exposed for richer rendering.
type TreeNode struct {
	Person      Person         `json:"person"`
	Spouse      *Person        `json:"spouse,omitempty"`
	SpouseEdges []Relationship `json:"spouse_edges,omitempty"`
	Parents     []*TreeNode    `json:"parents,omitempty"`
	Children    []*TreeNode    `json:"children,omitempty"`
	Depth       int            `json:"depth"`
}

// Count returns the number of nodes in the subtree rooted at n
func (n *TreeNode) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, p := range n.Parents {
		total += p.Count()
	}
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}
