package kinship

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sequoia/pkg/models"
)

func strPtr(s string) *string {
	return &s
}

func person(id string, opts ...func(*models.Person)) models.Person {
	p := models.Person{ID: id, FirstName: id, LastName: "Test", IsLiving: true}
	for _, opt := range opts {
		opt(&p)
	}
	return p
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

func TestFinder_FindRelatives(t *testing.T) {
	t.Run("direct family distances", func(t *testing.T) {
		// grandparent -> parent -> me, me married to spouse
		graph := NewGraph(
			[]models.Person{person("grandparent"), person("parent"), person("me"), person("spouse")},
			[]models.Relationship{
				parentOf("grandparent", "parent"),
				parentOf("parent", "me"),
				marriedTo("me", "spouse"),
			},
		)

		relatives := NewFinder(graph).FindRelatives("me", 6)

		require.Contains(t, relatives, "me")
		assert.Equal(t, 0, relatives["me"].Distance)
		assert.Equal(t, 1, relatives["parent"].Distance)
		assert.Equal(t, 1, relatives["spouse"].Distance)
		assert.Equal(t, 2, relatives["grandparent"].Distance)
		assert.Equal(t, []models.KinStep{models.KinStepParent, models.KinStepParent}, relatives["grandparent"].Path)
	})

	t.Run("shortest path wins when multiple routes exist", func(t *testing.T) {
		// Siblings share two parents, so each sibling is reachable through
		// either parent; the distance must still be 2.
		graph := NewGraph(
			[]models.Person{person("dad"), person("mom"), person("me"), person("sibling")},
			[]models.Relationship{
				marriedTo("dad", "mom"),
				parentOf("dad", "me"),
				parentOf("mom", "me"),
				parentOf("dad", "sibling"),
				parentOf("mom", "sibling"),
			},
		)

		relatives := NewFinder(graph).FindRelatives("me", 6)

		assert.Equal(t, 2, relatives["sibling"].Distance)
		// mom is a direct parent, never distance 2 via dad's marriage
		assert.Equal(t, 1, relatives["mom"].Distance)
	})

	t.Run("max distance bounds the walk", func(t *testing.T) {
		graph := NewGraph(
			[]models.Person{person("a"), person("b"), person("c"), person("d")},
			[]models.Relationship{
				parentOf("a", "b"),
				parentOf("b", "c"),
				parentOf("c", "d"),
			},
		)

		relatives := NewFinder(graph).FindRelatives("a", 2)

		assert.Contains(t, relatives, "c")
		assert.NotContains(t, relatives, "d")
	})

	t.Run("terminates on cyclic data", func(t *testing.T) {
		// Bad data: a -> b -> c -> a. The walk must not loop forever and
		// each person keeps their shortest distance.
		graph := NewGraph(
			[]models.Person{person("a"), person("b"), person("c")},
			[]models.Relationship{
				parentOf("a", "b"),
				parentOf("b", "c"),
				parentOf("c", "a"),
			},
		)

		relatives := NewFinder(graph).FindRelatives("a", 10)

		require.Len(t, relatives, 3)
		assert.Equal(t, 0, relatives["a"].Distance)
		assert.Equal(t, 1, relatives["b"].Distance)
		assert.Equal(t, 1, relatives["c"].Distance)
	})

	t.Run("unknown start yields empty result", func(t *testing.T) {
		graph := NewGraph([]models.Person{person("a")}, nil)
		relatives := NewFinder(graph).FindRelatives("nobody", 6)
		assert.Empty(t, relatives)
	})

	t.Run("paths do not share backing arrays", func(t *testing.T) {
		// Two children of the same parent branch from the same path prefix;
		// their recorded paths must stay independent.
		graph := NewGraph(
			[]models.Person{person("me"), person("parent"), person("sibling1"), person("sibling2")},
			[]models.Relationship{
				parentOf("parent", "me"),
				parentOf("parent", "sibling1"),
				parentOf("parent", "sibling2"),
			},
		)

		relatives := NewFinder(graph).FindRelatives("me", 6)

		assert.Equal(t, []models.KinStep{models.KinStepParent, models.KinStepChild}, relatives["sibling1"].Path)
		assert.Equal(t, []models.KinStep{models.KinStepParent, models.KinStepChild}, relatives["sibling2"].Path)
	})
}
