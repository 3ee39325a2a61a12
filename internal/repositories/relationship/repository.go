package relationship

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sequoia/pkg/database"
	"github.com/Ramsey-B/sequoia/pkg/tracing"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/sequoia/pkg/models"
)

var relationshipColumns = []string{
	"id", "relationship_type", "parent_id", "child_id", "spouse1_id", "spouse2_id",
	"start_date", "end_date", "created_by_id", "created_at", "updated_at",
}

// Repository handles relationship persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new relationship repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new relationship
func (r *Repository) Create(ctx context.Context, rel *models.Relationship) (*models.Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.Create")
	defer span.End()

	if rel.ID == "" {
		rel.ID = uuid.New().String()
	}
	rel.CreatedAt = time.Now().UTC()
	rel.UpdatedAt = rel.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("relationships")
	sb.Cols(relationshipColumns...)
	sb.Values(
		rel.ID, rel.RelationshipType, rel.ParentID, rel.ChildID, rel.Spouse1ID, rel.Spouse2ID,
		rel.StartDate, rel.EndDate, rel.CreatedByID, rel.CreatedAt, rel.UpdatedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"relationship_id": rel.ID}).Error("Failed to create relationship")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create relationship")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"relationship_id": rel.ID}).Info("Created relationship")
	return rel, nil
}

// Get retrieves a relationship by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(relationshipColumns...)
	sb.From("relationships")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var rel models.Relationship
	if err := r.db.GetContext(ctx, &rel, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("relationship %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get relationship")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get relationship")
	}

	return &rel, nil
}

// ListAll retrieves every relationship for snapshot traversal
func (r *Repository) ListAll(ctx context.Context) ([]models.Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(relationshipColumns...)
	sb.From("relationships")

	query, args := sb.Build()
	var rels []models.Relationship
	if err := r.db.SelectContext(ctx, &rels, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list relationships")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list relationships")
	}

	return rels, nil
}

// ListForPerson retrieves all relationships a person participates in
func (r *Repository) ListForPerson(ctx context.Context, personID string) ([]models.Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.ListForPerson")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(relationshipColumns...)
	sb.From("relationships")
	sb.Where(sb.Or(
		sb.Equal("parent_id", personID),
		sb.Equal("child_id", personID),
		sb.Equal("spouse1_id", personID),
		sb.Equal("spouse2_id", personID),
	))

	query, args := sb.Build()
	var rels []models.Relationship
	if err := r.db.SelectContext(ctx, &rels, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"person_id": personID}).Error("Failed to list relationships for person")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list relationships")
	}

	return rels, nil
}

// Delete removes a relationship
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "relationship.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("relationships")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"relationship_id": id}).Error("Failed to delete relationship")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete relationship")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("relationship %s not found", id))
	}

	return nil
}
