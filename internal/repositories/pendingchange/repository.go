package pendingchange

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

var changeColumns = []string{
	"id", "change_type", "change_data", "created_by_id", "status",
	"resolved_by_id", "resolved_at", "created_at", "updated_at",
}

// Repository handles pending change persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new pending change repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// DB returns the underlying database instance. The approval coordinator uses
// it to open the transaction that spans change and approval updates.
func (r *Repository) DB() database.DB {
	return r.db
}

// Create inserts a new pending change. Joins the caller's open transaction;
// the transaction owner commits.
func (r *Repository) Create(ctx context.Context, change *models.PendingChange) (*models.PendingChange, error) {
	ctx, span := tracing.StartSpan(ctx, "pendingchange.Repository.Create")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create change")
	}
	defer tx.Rollback(ctx)

	if change.ID == "" {
		change.ID = uuid.New().String()
	}
	change.Status = models.ChangeStatusPending
	change.CreatedAt = time.Now().UTC()
	change.UpdatedAt = change.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("pending_changes")
	sb.Cols(changeColumns...)
	sb.Values(
		change.ID, change.ChangeType, change.ChangeData, change.CreatedByID, change.Status,
		change.ResolvedByID, change.ResolvedAt, change.CreatedAt, change.UpdatedAt,
	)

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"change_id": change.ID}).Error("Failed to create pending change")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create change")
	}

	return change, nil
}

// Get retrieves a pending change by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.PendingChange, error) {
	ctx, span := tracing.StartSpan(ctx, "pendingchange.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(changeColumns...)
	sb.From("pending_changes")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var change models.PendingChange
	if err := r.db.GetContext(ctx, &change, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("change %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get pending change")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get change")
	}

	return &change, nil
}

// GetForUpdate retrieves a pending change and locks its row for the duration
// of the transaction on the context. Callers must hold an open transaction.
func (r *Repository) GetForUpdate(ctx context.Context, id string) (*models.PendingChange, error) {
	ctx, span := tracing.StartSpan(ctx, "pendingchange.Repository.GetForUpdate")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get change")
	}
	defer tx.Rollback(ctx)

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(changeColumns...)
	sb.From("pending_changes")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	query += " FOR UPDATE"

	var change models.PendingChange
	if err := tx.GetContext(ctx, &change, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("change %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to lock pending change")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get change")
	}

	return &change, nil
}

// ListByStatus retrieves changes in a given status, newest first
func (r *Repository) ListByStatus(ctx context.Context, status models.ChangeStatus, page, pageSize int) ([]models.PendingChange, int, error) {
	ctx, span := tracing.StartSpan(ctx, "pendingchange.Repository.ListByStatus")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(changeColumns...)
	sb.From("pending_changes")
	sb.Where(sb.Equal("status", status))
	sb.OrderBy("created_at DESC")
	sb.Limit(pageSize)
	sb.Offset((page - 1) * pageSize)

	query, args := sb.Build()
	var changes []models.PendingChange
	if err := r.db.SelectContext(ctx, &changes, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list changes")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list changes")
	}

	cb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	cb.Select("COUNT(*)")
	cb.From("pending_changes")
	cb.Where(cb.Equal("status", status))

	countQuery, countArgs := cb.Build()
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count changes")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list changes")
	}

	return changes, total, nil
}

// ListForApprover retrieves pending changes awaiting a vote from the given approver
func (r *Repository) ListForApprover(ctx context.Context, approverID string) ([]models.PendingChange, error) {
	ctx, span := tracing.StartSpan(ctx, "pendingchange.Repository.ListForApprover")
	defer span.End()

	query := `
		SELECT pc.id, pc.change_type, pc.change_data, pc.created_by_id, pc.status,
			pc.resolved_by_id, pc.resolved_at, pc.created_at, pc.updated_at
		FROM pending_changes pc
		JOIN approvals a ON a.pending_change_id = pc.id
		WHERE pc.status = 'pending' AND a.approver_id = $1 AND a.status = 'pending'
		ORDER BY pc.created_at ASC
	`

	var changes []models.PendingChange
	if err := r.db.SelectContext(ctx, &changes, query, approverID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"approver_id": approverID}).Error("Failed to list changes for approver")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list changes")
	}

	return changes, nil
}

// ResolveIfPending moves a change into a terminal status within the caller's
// transaction. The conditional WHERE guarantees only one caller performs the
// transition; the returned bool reports whether this caller won.
func (r *Repository) ResolveIfPending(ctx context.Context, id string, status models.ChangeStatus, resolvedByID string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "pendingchange.Repository.ResolveIfPending")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve change")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	query := `
		UPDATE pending_changes
		SET status = $1, resolved_by_id = $2, resolved_at = $3, updated_at = $3
		WHERE id = $4 AND status = 'pending'
	`

	result, err := tx.ExecContext(ctx, query, status, resolvedByID, now, id)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"change_id": id, "status": status}).Error("Failed to resolve change")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve change")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve change")
	}

	return rows > 0, nil
}
