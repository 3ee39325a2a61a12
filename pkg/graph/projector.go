package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sequoia/pkg/tracing"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/sequoia/pkg/models"
)

// Projector mirrors persons and relationships into the graph database.
// Callers treat projection failures as non-fatal; a nil Projector is a no-op.
type Projector struct {
	client *Client
	logger ectologger.Logger
}

// NewProjector creates a projector over the given client
func NewProjector(client *Client, logger ectologger.Logger) *Projector {
	return &Projector{
		client: client,
		logger: logger,
	}
}

// ProjectPerson creates or updates a :Person node
func (p *Projector) ProjectPerson(ctx context.Context, person *models.Person) {
	if p == nil {
		return
	}
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.ProjectPerson")
	defer span.End()

	props := map[string]any{
		"id":         person.ID,
		"first_name": person.FirstName,
		"last_name":  person.LastName,
		"is_living":  person.IsLiving,
	}
	if person.Gender != nil {
		props["gender"] = *person.Gender
	}
	if person.BirthDate != nil {
		props["birth_date"] = person.BirthDate.UTC().Format("2006-01-02")
	}
	if person.DeathDate != nil {
		props["death_date"] = person.DeathDate.UTC().Format("2006-01-02")
	}

	cypher := `
		MERGE (p:Person {id: $id})
		SET p = $props
		RETURN p
	`

	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"id":    person.ID,
			"props": props,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"person_id": person.ID}).Error("Failed to project person into graph")
	}
}

// ProjectRelationship creates the edge for a relationship record: parental
// kinds become PARENT_OF, spouse becomes MARRIED_TO.
func (p *Projector) ProjectRelationship(ctx context.Context, rel *models.Relationship) {
	if p == nil {
		return
	}
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.ProjectRelationship")
	defer span.End()

	var cypher string
	var params map[string]any
	switch {
	case rel.RelationshipType.IsParental():
		cypher = `
			MATCH (parent:Person {id: $parent_id})
			MATCH (child:Person {id: $child_id})
			MERGE (parent)-[r:PARENT_OF {id: $id}]->(child)
			SET r.kind = $kind
			RETURN r
		`
		params = map[string]any{
			"id":        rel.ID,
			"parent_id": derefID(rel.ParentID),
			"child_id":  derefID(rel.ChildID),
			"kind":      string(rel.RelationshipType),
		}
	case rel.RelationshipType.IsSpousal():
		cypher = `
			MATCH (a:Person {id: $spouse1_id})
			MATCH (b:Person {id: $spouse2_id})
			MERGE (a)-[r:MARRIED_TO {id: $id}]->(b)
			RETURN r
		`
		params = map[string]any{
			"id":         rel.ID,
			"spouse1_id": derefID(rel.Spouse1ID),
			"spouse2_id": derefID(rel.Spouse2ID),
		}
	default:
		return
	}

	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"relationship_id": rel.ID}).Error("Failed to project relationship into graph")
	}
}

// RemoveRelationship deletes a projected edge by its record id
func (p *Projector) RemoveRelationship(ctx context.Context, relID string) {
	if p == nil {
		return
	}
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.RemoveRelationship")
	defer span.End()

	cypher := `
		MATCH ()-[r {id: $id}]-()
		DELETE r
	`

	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{"id": relID})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"relationship_id": relID}).Error("Failed to remove relationship from graph")
	}
}

// CountAncestors runs an in-graph ancestry count for one person
func (p *Projector) CountAncestors(ctx context.Context, personID string, maxDepth int) (int64, error) {
	if p == nil {
		return 0, nil
	}
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.CountAncestors")
	defer span.End()

	cypher := fmt.Sprintf(`
		MATCH (p:Person {id: $id})<-[:PARENT_OF*1..%d]-(ancestor:Person)
		RETURN count(DISTINCT ancestor) AS total
	`, maxDepth)

	result, err := p.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"id": personID})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		total, _ := record.Get("total")
		return total, nil
	})
	if err != nil {
		return 0, err
	}

	total, ok := result.(int64)
	if !ok {
		return 0, nil
	}
	return total, nil
}

func derefID(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
