package tree

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sequoia/pkg/models"
)

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

type stubAncestryCounter struct {
	count  int64
	called bool
}

func (s *stubAncestryCounter) CountAncestors(ctx context.Context, personID string, maxDepth int) (int64, error) {
	s.called = true
	return s.count, nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestService_AncestorCount(t *testing.T) {
	persons := &stubPersonLister{persons: []models.Person{
		person("me"), person("mom"), person("dad"), person("gran"),
	}}
	relationships := &stubRelationshipLister{relationships: []models.Relationship{
		parentOf("mom", "me"),
		parentOf("dad", "me"),
		parentOf("gran", "mom"),
	}}

	t.Run("counts distinct ancestors over the snapshot", func(t *testing.T) {
		svc := NewService(persons, relationships, nil, testLogger(), 10)

		count, err := svc.AncestorCount(context.Background(), "me", 0)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("depth bound truncates the walk", func(t *testing.T) {
		svc := NewService(persons, relationships, nil, testLogger(), 10)

		count, err := svc.AncestorCount(context.Background(), "me", 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("unknown person has no ancestors", func(t *testing.T) {
		svc := NewService(persons, relationships, nil, testLogger(), 10)

		count, err := svc.AncestorCount(context.Background(), "ghost", 0)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("projected graph answers when available", func(t *testing.T) {
		counter := &stubAncestryCounter{count: 42}
		svc := NewService(persons, relationships, counter, testLogger(), 10)

		count, err := svc.AncestorCount(context.Background(), "me", 0)
		require.NoError(t, err)
		assert.Equal(t, int64(42), count)
		assert.True(t, counter.called)
	})

	t.Run("cyclic parent data yields a finite count", func(t *testing.T) {
		cyclic := &stubRelationshipLister{relationships: []models.Relationship{
			parentOf("a", "b"),
			parentOf("b", "c"),
			parentOf("c", "a"),
		}}
		svc := NewService(&stubPersonLister{persons: []models.Person{
			person("a"), person("b"), person("c"),
		}}, cyclic, nil, testLogger(), 10)

		count, err := svc.AncestorCount(context.Background(), "c", 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}
