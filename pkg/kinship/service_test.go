package kinship

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sequoia/pkg/models"
)

type stubPersonLister struct {
	persons []models.Person
	err     error
}

func (s *stubPersonLister) ListAll(ctx context.Context) ([]models.Person, error) {
	return s.persons, s.err
}

type stubRelationshipLister struct {
	relationships []models.Relationship
	err           error
}

func (s *stubRelationshipLister) ListAll(ctx context.Context) ([]models.Relationship, error) {
	return s.relationships, s.err
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestService_FindRelatives(t *testing.T) {
	persons := &stubPersonLister{persons: []models.Person{
		person("me"),
		person("parent"),
		person("grandparent"),
	}}
	relationships := &stubRelationshipLister{relationships: []models.Relationship{
		parentOf("grandparent", "parent"),
		parentOf("parent", "me"),
	}}

	svc := NewService(persons, relationships, testLogger(), 6, 20)

	t.Run("excludes the person themselves", func(t *testing.T) {
		got, err := svc.FindRelatives(context.Background(), "me", 0, 6, 20, nil)
		require.NoError(t, err)

		require.Len(t, got, 2)
		for _, suggestion := range got {
			assert.NotEqual(t, "me", suggestion.Person.ID)
		}
	})

	t.Run("unknown person is a 404", func(t *testing.T) {
		_, err := svc.FindRelatives(context.Background(), "nobody", 0, 6, 20, nil)
		require.Error(t, err)
		require.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, 404, httperror.GetStatusCode(err))
	})

	t.Run("out-of-range params fall back to service bounds", func(t *testing.T) {
		got, err := svc.FindRelatives(context.Background(), "me", -3, 99, 0, nil)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("contacted accounts are excluded", func(t *testing.T) {
		accounts := &stubPersonLister{persons: []models.Person{
			person("me"),
			person("parent", withAccount("user-parent")),
			person("grandparent", withAccount("user-gran")),
		}}
		svc := NewService(accounts, relationships, testLogger(), 6, 20)

		got, err := svc.FindRelatives(context.Background(), "me", 0, 6, 20, []string{"user-parent"})
		require.NoError(t, err)

		require.Len(t, got, 1)
		assert.Equal(t, "grandparent", got[0].Person.ID)
	})

	t.Run("lister failure surfaces", func(t *testing.T) {
		broken := NewService(&stubPersonLister{err: errors.New("db down")}, relationships, testLogger(), 6, 20)
		_, err := broken.FindRelatives(context.Background(), "me", 0, 6, 20, nil)
		assert.Error(t, err)
	})
}
