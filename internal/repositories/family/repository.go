package family

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sequoia/pkg/database"
	"github.com/Ramsey-B/sequoia/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/sequoia/pkg/models"
)

var familyColumns = []string{
	"root_person_id", "name", "description", "created_by_id", "created_at", "updated_at",
}

// Repository handles registered family persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new family repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert registers a family rooted at a person, updating the name if already registered
func (r *Repository) Upsert(ctx context.Context, family *models.Family) (*models.Family, error) {
	ctx, span := tracing.StartSpan(ctx, "family.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()
	family.CreatedAt = now
	family.UpdatedAt = now

	query := `
		INSERT INTO families (root_person_id, name, description, created_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (root_person_id) DO UPDATE
		SET name = EXCLUDED.name,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query,
		family.RootPersonID, family.Name, family.Description,
		family.CreatedByID, family.CreatedAt, family.UpdatedAt,
	); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"root_person_id": family.RootPersonID}).Error("Failed to upsert family")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to register family")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"root_person_id": family.RootPersonID}).Info("Registered family")
	return family, nil
}

// Get retrieves a registered family by its root person
func (r *Repository) Get(ctx context.Context, rootPersonID string) (*models.Family, error) {
	ctx, span := tracing.StartSpan(ctx, "family.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(familyColumns...)
	sb.From("families")
	sb.Where(sb.Equal("root_person_id", rootPersonID))

	query, args := sb.Build()
	var family models.Family
	if err := r.db.GetContext(ctx, &family, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("family rooted at %s not found", rootPersonID))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get family")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get family")
	}

	return &family, nil
}

// ListAll retrieves every registered family
func (r *Repository) ListAll(ctx context.Context) ([]models.Family, error) {
	ctx, span := tracing.StartSpan(ctx, "family.Repository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(familyColumns...)
	sb.From("families")
	sb.OrderBy("name ASC")

	query, args := sb.Build()
	var families []models.Family
	if err := r.db.SelectContext(ctx, &families, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list families")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list families")
	}

	return families, nil
}

// RootIDs returns the set of registered root person ids
func (r *Repository) RootIDs(ctx context.Context) (map[string]struct{}, error) {
	ctx, span := tracing.StartSpan(ctx, "family.Repository.RootIDs")
	defer span.End()

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT root_person_id FROM families"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list family roots")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list family roots")
	}

	roots := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		roots[id] = struct{}{}
	}

	return roots, nil
}

// UpdateName renames a registered family
func (r *Repository) UpdateName(ctx context.Context, rootPersonID string, name string) error {
	ctx, span := tracing.StartSpan(ctx, "family.Repository.UpdateName")
	defer span.End()

	result, err := r.db.ExecContext(ctx,
		"UPDATE families SET name = $1, updated_at = $2 WHERE root_person_id = $3",
		name, time.Now().UTC(), rootPersonID,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"root_person_id": rootPersonID}).Error("Failed to rename family")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to rename family")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("family rooted at %s not found", rootPersonID))
	}

	return nil
}
