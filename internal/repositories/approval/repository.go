package approval

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sequoia/pkg/database"
	"github.com/Ramsey-B/sequoia/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/sequoia/pkg/models"
)

var approvalColumns = []string{
	"pending_change_id", "approver_id", "status", "comment", "decided_at", "created_at",
}

// Repository handles approval slot persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new approval repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// CreateSlots inserts a pending approval slot for each designated approver.
// Joins the caller's open transaction; the transaction owner commits.
func (r *Repository) CreateSlots(ctx context.Context, changeID string, approverIDs []string) error {
	ctx, span := tracing.StartSpan(ctx, "approval.Repository.CreateSlots")
	defer span.End()

	if len(approverIDs) == 0 {
		return nil
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create approval slots")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("approvals")
	sb.Cols(approvalColumns...)
	for _, approverID := range approverIDs {
		sb.Values(changeID, approverID, models.ApprovalStatusPending, nil, nil, now)
	}

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"change_id": changeID}).Error("Failed to create approval slots")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create approval slots")
	}

	return nil
}

// ListForChange retrieves all approval slots for a change
func (r *Repository) ListForChange(ctx context.Context, changeID string) ([]models.Approval, error) {
	ctx, span := tracing.StartSpan(ctx, "approval.Repository.ListForChange")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(approvalColumns...)
	sb.From("approvals")
	sb.Where(sb.Equal("pending_change_id", changeID))
	sb.OrderBy("approver_id ASC")

	query, args := sb.Build()
	var approvals []models.Approval
	if err := r.db.SelectContext(ctx, &approvals, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"change_id": changeID}).Error("Failed to list approvals")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list approvals")
	}

	return approvals, nil
}

// RecordVote writes an approver's decision within the caller's transaction,
// overwriting any previous vote on the same change by the same approver.
func (r *Repository) RecordVote(ctx context.Context, changeID, approverID string, status models.ApprovalStatus, comment *string) error {
	ctx, span := tracing.StartSpan(ctx, "approval.Repository.RecordVote")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to record vote")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	query := `
		INSERT INTO approvals (pending_change_id, approver_id, status, comment, decided_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (pending_change_id, approver_id) DO UPDATE
		SET status = EXCLUDED.status,
			comment = EXCLUDED.comment,
			decided_at = EXCLUDED.decided_at
	`

	if _, err := tx.ExecContext(ctx, query, changeID, approverID, status, comment, now); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"change_id": changeID, "approver_id": approverID}).Error("Failed to record vote")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to record vote")
	}

	return nil
}
