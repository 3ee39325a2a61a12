package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sequoia/pkg/kinship"
	"github.com/Ramsey-B/sequoia/pkg/models"
)

func strPtr(s string) *string {
	return &s
}

func person(id string) models.Person {
	return models.Person{ID: id, FirstName: id, LastName: "Test", IsLiving: true}
}

func parentOf(parentID, childID string) models.Relationship {
	return models.Relationship{
		ID:               parentID + "-" + childID,
		RelationshipType: models.RelationshipTypeParentChild,
		ParentID:         strPtr(parentID),
		ChildID:          strPtr(childID),
	}
}

func marriedTo(a, b string) models.Relationship {
	return models.Relationship{
		ID:               a + "-" + b,
		RelationshipType: models.RelationshipTypeSpouse,
		Spouse1ID:        strPtr(a),
		Spouse2ID:        strPtr(b),
	}
}

func TestBuilder_Build(t *testing.T) {
	t.Run("descendants with spouses attached", func(t *testing.T) {
		graph := kinship.NewGraph(
			[]models.Person{person("root"), person("child"), person("childSpouse"), person("grandchild")},
			[]models.Relationship{
				parentOf("root", "child"),
				marriedTo("child", "childSpouse"),
				parentOf("child", "grandchild"),
			},
		)

		root := NewBuilder(graph, 10).Build("root", models.TreeDirectionDescendants)
		require.NotNil(t, root)
		assert.Equal(t, "root", root.Person.ID)
		assert.Equal(t, 0, root.Depth)

		require.Len(t, root.Children, 1)
		child := root.Children[0]
		assert.Equal(t, "child", child.Person.ID)
		assert.Equal(t, 1, child.Depth)
		require.NotNil(t, child.Spouse)
		assert.Equal(t, "childSpouse", child.Spouse.ID)
		require.Len(t, child.SpouseEdges, 1)

		require.Len(t, child.Children, 1)
		assert.Equal(t, "grandchild", child.Children[0].Person.ID)
	})

	t.Run("ancestors direction walks upward only", func(t *testing.T) {
		graph := kinship.NewGraph(
			[]models.Person{person("grandparent"), person("parent"), person("me"), person("sibling")},
			[]models.Relationship{
				parentOf("grandparent", "parent"),
				parentOf("parent", "me"),
				parentOf("parent", "sibling"),
			},
		)

		root := NewBuilder(graph, 10).Build("me", models.TreeDirectionAncestors)
		require.NotNil(t, root)
		assert.Empty(t, root.Children)
		require.Len(t, root.Parents, 1)
		assert.Equal(t, "parent", root.Parents[0].Person.ID)
		require.Len(t, root.Parents[0].Parents, 1)
		assert.Equal(t, "grandparent", root.Parents[0].Parents[0].Person.ID)
	})

	t.Run("both expands only at the root", func(t *testing.T) {
		graph := kinship.NewGraph(
			[]models.Person{person("parent"), person("me"), person("child"), person("sibling")},
			[]models.Relationship{
				parentOf("parent", "me"),
				parentOf("parent", "sibling"),
				parentOf("me", "child"),
			},
		)

		root := NewBuilder(graph, 10).Build("me", models.TreeDirectionBoth)
		require.NotNil(t, root)
		require.Len(t, root.Parents, 1)
		require.Len(t, root.Children, 1)
		// the parent node expands upward only, so the sibling is not pulled
		// in as the parent's child
		assert.Empty(t, root.Parents[0].Children)
	})

	t.Run("each person appears at most once", func(t *testing.T) {
		// Both parents lead to the same child; the child node must be built
		// under exactly one of them.
		graph := kinship.NewGraph(
			[]models.Person{person("dad"), person("mom"), person("kid")},
			[]models.Relationship{
				marriedTo("dad", "mom"),
				parentOf("dad", "kid"),
				parentOf("mom", "kid"),
			},
		)

		root := NewBuilder(graph, 10).Build("dad", models.TreeDirectionDescendants)
		require.NotNil(t, root)

		seen := map[string]int{}
		var count func(n *models.TreeNode)
		count = func(n *models.TreeNode) {
			seen[n.Person.ID]++
			if n.Spouse != nil {
				seen[n.Spouse.ID]++
			}
			for _, p := range n.Parents {
				count(p)
			}
			for _, c := range n.Children {
				count(c)
			}
		}
		count(root)

		for id, n := range seen {
			assert.Equal(t, 1, n, "person %s appears %d times", id, n)
		}
	})

	t.Run("cyclic parent data terminates with each person once", func(t *testing.T) {
		graph := kinship.NewGraph(
			[]models.Person{person("a"), person("b"), person("c")},
			[]models.Relationship{
				parentOf("a", "b"),
				parentOf("b", "c"),
				parentOf("c", "a"),
			},
		)

		root := NewBuilder(graph, 10).Build("a", models.TreeDirectionDescendants)
		require.NotNil(t, root)

		nodes := 0
		var count func(n *models.TreeNode)
		count = func(n *models.TreeNode) {
			nodes++
			for _, c := range n.Children {
				count(c)
			}
		}
		count(root)
		assert.Equal(t, 3, nodes)

		require.Len(t, root.Children, 1)
		require.Len(t, root.Children[0].Children, 1)
		assert.Empty(t, root.Children[0].Children[0].Children)
	})

	t.Run("max depth truncates expansion", func(t *testing.T) {
		graph := kinship.NewGraph(
			[]models.Person{person("a"), person("b"), person("c"), person("d")},
			[]models.Relationship{
				parentOf("a", "b"),
				parentOf("b", "c"),
				parentOf("c", "d"),
			},
		)

		root := NewBuilder(graph, 2).Build("a", models.TreeDirectionDescendants)
		require.NotNil(t, root)
		require.Len(t, root.Children, 1)
		require.Len(t, root.Children[0].Children, 1)
		assert.Empty(t, root.Children[0].Children[0].Children)
	})

	t.Run("unknown root yields nil", func(t *testing.T) {
		graph := kinship.NewGraph([]models.Person{person("a")}, nil)
		assert.Nil(t, NewBuilder(graph, 10).Build("nobody", models.TreeDirectionDescendants))
	})
}
