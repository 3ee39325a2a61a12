package person

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

var personColumns = []string{
	"id", "first_name", "last_name", "middle_name", "maiden_name", "gender",
	"birth_date", "death_date", "is_living", "is_private", "is_verified",
	"user_id", "created_by_id", "created_at", "updated_at",
}

// Repository handles person persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new person repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// DB returns the underlying database instance
func (r *Repository) DB() database.DB {
	return r.db
}

// Create inserts a new person
func (r *Repository) Create(ctx context.Context, person *models.Person) (*models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.Create")
	defer span.End()

	if person.ID == "" {
		person.ID = uuid.New().String()
	}
	person.CreatedAt = time.Now().UTC()
	person.UpdatedAt = person.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("persons")
	sb.Cols(personColumns...)
	sb.Values(
		person.ID, person.FirstName, person.LastName, person.MiddleName, person.MaidenName,
		person.Gender, person.BirthDate, person.DeathDate, person.IsLiving, person.IsPrivate,
		person.IsVerified, person.UserID, person.CreatedByID, person.CreatedAt, person.UpdatedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"person_id": person.ID}).Error("Failed to create person")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create person")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"person_id": person.ID}).Info("Created person")
	return person, nil
}

// Get retrieves a person by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(personColumns...)
	sb.From("persons")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("person %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get person")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get person")
	}

	return &person, nil
}

// List retrieves persons with pagination
func (r *Repository) List(ctx context.Context, page, pageSize int) ([]models.Person, int, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(personColumns...)
	sb.From("persons")
	sb.OrderBy("last_name ASC", "first_name ASC")
	sb.Limit(pageSize)
	sb.Offset((page - 1) * pageSize)

	query, args := sb.Build()
	var persons []models.Person
	if err := r.db.SelectContext(ctx, &persons, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list persons")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list persons")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM persons"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count persons")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count persons")
	}

	return persons, total, nil
}

// ListAll retrieves every person. Traversal components consume this as a
// point-in-time snapshot.
func (r *Repository) ListAll(ctx context.Context) ([]models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(personColumns...)
	sb.From("persons")

	query, args := sb.Build()
	var persons []models.Person
	if err := r.db.SelectContext(ctx, &persons, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list all persons")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list persons")
	}

	return persons, nil
}

// Update applies non-nil fields from the request to a person
func (r *Repository) Update(ctx context.Context, id string, req models.UpdatePersonRequest) error {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.Update")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("persons")

	assignments := []string{sb.Assign("updated_at", time.Now().UTC())}
	if req.FirstName != nil {
		assignments = append(assignments, sb.Assign("first_name", *req.FirstName))
	}
	if req.LastName != nil {
		assignments = append(assignments, sb.Assign("last_name", *req.LastName))
	}
	if req.MiddleName != nil {
		assignments = append(assignments, sb.Assign("middle_name", *req.MiddleName))
	}
	if req.MaidenName != nil {
		assignments = append(assignments, sb.Assign("maiden_name", *req.MaidenName))
	}
	if req.Gender != nil {
		assignments = append(assignments, sb.Assign("gender", *req.Gender))
	}
	if req.BirthDate != nil {
		assignments = append(assignments, sb.Assign("birth_date", *req.BirthDate))
	}
	if req.DeathDate != nil {
		assignments = append(assignments, sb.Assign("death_date", *req.DeathDate))
	}
	if req.IsLiving != nil {
		assignments = append(assignments, sb.Assign("is_living", *req.IsLiving))
	}
	if req.IsPrivate != nil {
		assignments = append(assignments, sb.Assign("is_private", *req.IsPrivate))
	}

	sb.Set(assignments...)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"person_id": id}).Error("Failed to update person")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update person")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("person %s not found", id))
	}

	return nil
}

// LinkUserAccount links a person to a contributor account (profile claim)
func (r *Repository) LinkUserAccount(ctx context.Context, personID string, userID string) error {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.LinkUserAccount")
	defer span.End()

	now := time.Now().UTC()
	query := `
		UPDATE persons
		SET user_id = $1, is_verified = true, updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, userID, now, personID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"person_id": personID, "user_id": userID}).Error("Failed to link user account")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to link user account")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("person %s not found", personID))
	}

	return nil
}

// Exists returns the subset of the given ids that are missing from the store
func (r *Repository) Exists(ctx context.Context, ids ...string) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.Exists")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id")
	sb.From("persons")
	sb.Where(sb.In("id", idsToAny(ids)...))

	query, args := sb.Build()
	var found []string
	if err := r.db.SelectContext(ctx, &found, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to check person existence")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check person existence")
	}

	foundSet := make(map[string]struct{}, len(found))
	for _, id := range found {
		foundSet[id] = struct{}{}
	}

	var missing []string
	for _, id := range ids {
		if _, ok := foundSet[id]; !ok {
			missing = append(missing, id)
		}
	}

	return missing, nil
}

func idsToAny(ids []string) []any {
	result := make([]any, len(ids))
	for i, id := range ids {
		result[i] = id
	}
	return result
}
