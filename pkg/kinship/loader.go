package kinship

import (
	"context"

	"github.com/Ramsey-B/sequoia/pkg/models"
	"github.com/Ramsey-B/sequoia/pkg/tracing"
)

// PersonLister loads the full person set
type PersonLister interface {
	ListAll(ctx context.Context) ([]models.Person, error)
}

// RelationshipLister loads the full relationship set
type RelationshipLister interface {
	ListAll(ctx context.Context) ([]models.Relationship, error)
}

// LoadGraph reads all persons and relationships and builds a point-in-time
// snapshot for traversal.
func LoadGraph(ctx context.Context, persons PersonLister, relationships RelationshipLister) (*Graph, error) {
	ctx, span := tracing.StartSpan(ctx, "kinship.LoadGraph")
	defer span.End()

	personRecords, err := persons.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	relationshipRecords, err := relationships.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	return NewGraph(personRecords, relationshipRecords), nil
}
