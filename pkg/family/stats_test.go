package family

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sequoia/pkg/kinship"
	"github.com/Ramsey-B/sequoia/pkg/models"
)

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
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

type stubPersonLister struct {
	persons []models.Person
}

func (s *stubPersonLister) ListAll(ctx context.Context) ([]models.Person, error) {
	return s.persons, nil
}

type stubRelationshipLister struct {
	relationships []models.Relationship
}

func (s *stubRelationshipLister) ListAll(ctx context.Context) ([]models.Relationship, error) {
	return s.relationships, nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestCountMembers(t *testing.T) {
	t.Run("counts descendants and their spouses", func(t *testing.T) {
		graph := kinship.NewGraph(
			[]models.Person{person("root"), person("rootSpouse"), person("child"), person("childSpouse"), person("grandchild")},
			[]models.Relationship{
				marriedTo("root", "rootSpouse"),
				parentOf("root", "child"),
				marriedTo("child", "childSpouse"),
				parentOf("child", "grandchild"),
			},
		)

		assert.Equal(t, 5, CountMembers(graph, "root", 10))
	})

	t.Run("remarriage chain counts each person once", func(t *testing.T) {
		// childSpouse was previously married to ex, who has a child with
		// root's child. Everyone reachable is counted exactly once.
		graph := kinship.NewGraph(
			[]models.Person{person("root"), person("child"), person("spouse"), person("ex")},
			[]models.Relationship{
				parentOf("root", "child"),
				marriedTo("child", "spouse"),
				marriedTo("spouse", "ex"),
				parentOf("root", "ex"),
			},
		)

		assert.Equal(t, 4, CountMembers(graph, "root", 10))
	})

	t.Run("depth bound stops the walk", func(t *testing.T) {
		graph := kinship.NewGraph(
			[]models.Person{person("a"), person("b"), person("c"), person("d")},
			[]models.Relationship{
				parentOf("a", "b"),
				parentOf("b", "c"),
				parentOf("c", "d"),
			},
		)

		assert.Equal(t, 3, CountMembers(graph, "a", 2))
	})

	t.Run("unknown root counts zero", func(t *testing.T) {
		graph := kinship.NewGraph(nil, nil)
		assert.Equal(t, 0, CountMembers(graph, "nobody", 10))
	})

	t.Run("cyclic parent data counts each person once", func(t *testing.T) {
		graph := kinship.NewGraph(
			[]models.Person{person("a"), person("b"), person("c")},
			[]models.Relationship{
				parentOf("a", "b"),
				parentOf("b", "c"),
				parentOf("c", "a"),
			},
		)

		assert.Equal(t, 3, CountMembers(graph, "a", 10))
	})
}

func TestCountGenerations(t *testing.T) {
	graph := kinship.NewGraph(
		[]models.Person{person("root"), person("a"), person("b"), person("deep1"), person("deep2")},
		[]models.Relationship{
			parentOf("root", "a"),
			parentOf("root", "b"),
			parentOf("a", "deep1"),
			parentOf("deep1", "deep2"),
		},
	)

	t.Run("deepest line wins", func(t *testing.T) {
		assert.Equal(t, 4, CountGenerations(graph, "root", 10))
	})

	t.Run("leaf is one generation", func(t *testing.T) {
		assert.Equal(t, 1, CountGenerations(graph, "b", 10))
	})

	t.Run("unknown root is zero", func(t *testing.T) {
		assert.Equal(t, 0, CountGenerations(graph, "nobody", 10))
	})

	t.Run("cyclic parent data stays finite", func(t *testing.T) {
		cyclic := kinship.NewGraph(
			[]models.Person{person("a"), person("b"), person("c")},
			[]models.Relationship{
				parentOf("a", "b"),
				parentOf("b", "c"),
				parentOf("c", "a"),
			},
		)

		assert.Equal(t, 3, CountGenerations(cyclic, "a", 10))
	})
}

func TestAggregator_ComputeStats(t *testing.T) {
	male := models.GenderMale
	female := models.GenderFemale
	born1930 := time.Date(1930, 1, 1, 0, 0, 0, 0, time.UTC)
	born1960 := time.Date(1960, 6, 15, 0, 0, 0, 0, time.UTC)
	born1990 := time.Date(1990, 3, 2, 0, 0, 0, 0, time.UTC)

	persons := &stubPersonLister{persons: []models.Person{
		person("elder", func(p *models.Person) {
			p.Gender = &male
			p.BirthDate = timePtr(born1930)
			p.IsLiving = false
		}),
		person("middle", func(p *models.Person) {
			p.Gender = &female
			p.BirthDate = timePtr(born1960)
		}),
		person("young", func(p *models.Person) {
			p.Gender = &male
			p.BirthDate = timePtr(born1990)
		}),
		person("undated"),
	}}
	relationships := &stubRelationshipLister{relationships: []models.Relationship{
		marriedTo("elder", "middle"),
		parentOf("elder", "young"),
	}}

	aggregator := NewAggregator(persons, relationships, testLogger(), 10)

	stats, err := aggregator.ComputeStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalMembers)
	assert.Equal(t, 3, stats.LivingCount)
	assert.Equal(t, 1, stats.DeceasedCount)
	assert.Equal(t, 2, stats.MaleCount)
	assert.Equal(t, 1, stats.FemaleCount)
	assert.Equal(t, 1, stats.MarriageCount)

	require.NotNil(t, stats.OldestMember)
	assert.Equal(t, "elder", stats.OldestMember.ID)
	require.NotNil(t, stats.YoungestLiving)
	assert.Equal(t, "young", stats.YoungestLiving.ID)
}

func TestAggregator_TreeStats(t *testing.T) {
	persons := &stubPersonLister{persons: []models.Person{
		person("root"), person("child"), person("grandchild"),
	}}
	relationships := &stubRelationshipLister{relationships: []models.Relationship{
		parentOf("root", "child"),
		parentOf("child", "grandchild"),
	}}

	aggregator := NewAggregator(persons, relationships, testLogger(), 10)

	stats, err := aggregator.TreeStats(context.Background(), "root")
	require.NoError(t, err)

	assert.Equal(t, "root", stats.RootPersonID)
	assert.Equal(t, 3, stats.MemberCount)
	assert.Equal(t, 3, stats.Generations)
}
