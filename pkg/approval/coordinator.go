// Package approval coordinates the consensus workflow for structural changes:
// quorum-gated pending changes, admin bypass and override, and the apply
// dispatch that runs once a change is approved.
package approval

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sequoia/pkg/tracing"

	"github.com/Ramsey-B/sequoia/internal/repositories"
	"github.com/Ramsey-B/sequoia/pkg/events"
	"github.com/Ramsey-B/sequoia/pkg/graph"
	"github.com/Ramsey-B/sequoia/pkg/models"
	"github.com/Ramsey-B/sequoia/pkg/policy"
)

// Coordinator runs the change approval state machine
type Coordinator struct {
	changes       repositories.PendingChangeRepository
	approvals     repositories.ApprovalRepository
	persons       repositories.PersonRepository
	relationships repositories.RelationshipRepository
	families      repositories.FamilyRepository
	policy        *policy.Evaluator
	emitter       *events.Emitter
	projector     *graph.Projector
	logger        ectologger.Logger
}

// NewCoordinator creates an approval coordinator
func NewCoordinator(
	changes repositories.PendingChangeRepository,
	approvals repositories.ApprovalRepository,
	persons repositories.PersonRepository,
	relationships repositories.RelationshipRepository,
	families repositories.FamilyRepository,
	evaluator *policy.Evaluator,
	emitter *events.Emitter,
	projector *graph.Projector,
	logger ectologger.Logger,
) *Coordinator {
	return &Coordinator{
		changes:       changes,
		approvals:     approvals,
		persons:       persons,
		relationships: relationships,
		families:      families,
		policy:        evaluator,
		emitter:       emitter,
		projector:     projector,
		logger:        logger,
	}
}

// Submit proposes a structural change. Privileged actors apply immediately
// without entering the pending queue; everyone else needs at least one named
// approver and waits for quorum.
func (c *Coordinator) Submit(ctx context.Context, actor policy.Actor, req models.SubmitChangeRequest) (*models.SubmitChangeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "approval.Coordinator.Submit")
	defer span.End()

	payload, err := models.DecodeChangePayload(req.ChangeType, req.ChangeData)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := c.validateReferences(ctx, payload); err != nil {
		return nil, err
	}

	if c.policy.CanBypassApproval(actor) {
		if err := c.apply(ctx, payload, actor.UserID); err != nil {
			return nil, err
		}
		c.logger.WithContext(ctx).WithFields(map[string]any{
			"change_type": req.ChangeType,
			"actor_id":    actor.UserID,
		}).Info("Applied change via admin bypass")
		return &models.SubmitChangeResult{Applied: true}, nil
	}

	if len(req.ApproverIDs) == 0 {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "at least one approver is required")
	}

	change := &models.PendingChange{
		ChangeType:  req.ChangeType,
		ChangeData:  req.ChangeData,
		CreatedByID: actor.UserID,
	}

	ctxTx, tx, err := c.changes.DB().GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to submit change")
	}
	defer tx.Rollback(ctxTx)

	if change, err = c.changes.Create(ctxTx, change); err != nil {
		return nil, err
	}
	if err := c.approvals.CreateSlots(ctxTx, change.ID, req.ApproverIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctxTx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to submit change")
	}

	c.emitter.EmitChangeSubmitted(ctx, change)
	c.emitter.NotifyApprovalRequested(ctx, change, req.ApproverIDs)

	return &models.SubmitChangeResult{Applied: false, Change: change}, nil
}

// Vote records one approver's decision and resolves the change when a
// terminal condition is reached: any rejection rejects, an admin approval or
// unanimous approval approves. The row lock plus the conditional status
// update guarantee exactly one caller performs the terminal transition.
func (c *Coordinator) Vote(ctx context.Context, actor policy.Actor, changeID string, req models.VoteRequest) (*models.PendingChange, error) {
	ctx, span := tracing.StartSpan(ctx, "approval.Coordinator.Vote")
	defer span.End()

	voteStatus := models.ApprovalStatusApproved
	if req.Decision == "reject" {
		voteStatus = models.ApprovalStatusRejected
	}

	ctxTx, tx, err := c.changes.DB().GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to record vote")
	}
	defer tx.Rollback(ctxTx)

	change, err := c.changes.GetForUpdate(ctxTx, changeID)
	if err != nil {
		return nil, err
	}
	if change.Status.IsTerminal() {
		return nil, httperror.NewHTTPError(http.StatusConflict, "change is already resolved")
	}

	slots, err := c.approvals.ListForChange(ctxTx, changeID)
	if err != nil {
		return nil, err
	}

	approverIDs := make([]string, 0, len(slots))
	for _, slot := range slots {
		approverIDs = append(approverIDs, slot.ApproverID)
	}
	if !c.policy.CanVote(actor, approverIDs) {
		return nil, httperror.NewHTTPError(http.StatusForbidden, "not a designated approver for this change")
	}

	if err := c.approvals.RecordVote(ctxTx, changeID, actor.UserID, voteStatus, req.Comment); err != nil {
		return nil, err
	}

	resolution := c.resolve(overlayVote(slots, actor.UserID, voteStatus), actor, voteStatus)
	if resolution == "" {
		if err := tx.Commit(ctxTx); err != nil {
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to record vote")
		}
		return change, nil
	}

	won, err := c.changes.ResolveIfPending(ctxTx, changeID, resolution, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctxTx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to record vote")
	}

	if !won {
		// Another caller reached the terminal state first; this vote was
		// recorded but triggers no application. Re-read the row so the
		// caller sees the status the winner actually wrote, which may
		// differ from the resolution computed here.
		return c.changes.Get(ctx, changeID)
	}
	change.Status = resolution

	if resolution == models.ChangeStatusApproved {
		payload, err := models.DecodeChangePayload(change.ChangeType, change.ChangeData)
		if err != nil {
			c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"change_id": change.ID}).Error("Approved change has undecodable payload")
			return change, nil
		}
		// Application failures surface to the caller but do not revert the
		// already-terminal status.
		if err := c.apply(ctx, payload, change.CreatedByID); err != nil {
			c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"change_id": change.ID}).Error("Failed to apply approved change")
			c.emitter.EmitChangeResolved(ctx, change, actor.UserID)
			return change, err
		}
	}

	c.emitter.EmitChangeResolved(ctx, change, actor.UserID)
	c.emitter.NotifyChangeResolved(ctx, change)

	return change, nil
}

// Cancel withdraws a pending change. Only the submitter or an admin may
// cancel; cancelling an already-resolved change is a conflict.
func (c *Coordinator) Cancel(ctx context.Context, actor policy.Actor, changeID string) (*models.PendingChange, error) {
	ctx, span := tracing.StartSpan(ctx, "approval.Coordinator.Cancel")
	defer span.End()

	change, err := c.changes.Get(ctx, changeID)
	if err != nil {
		return nil, err
	}
	if !c.policy.CanCancel(actor, change.CreatedByID) {
		return nil, httperror.NewHTTPError(http.StatusForbidden, "only the submitter or an admin may cancel a change")
	}

	ctxTx, tx, err := c.changes.DB().GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to cancel change")
	}
	defer tx.Rollback(ctxTx)

	won, err := c.changes.ResolveIfPending(ctxTx, changeID, models.ChangeStatusCancelled, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctxTx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to cancel change")
	}
	if !won {
		return nil, httperror.NewHTTPError(http.StatusConflict, "change is already resolved")
	}

	change.Status = models.ChangeStatusCancelled
	c.emitter.EmitChangeResolved(ctx, change, actor.UserID)

	return change, nil
}

// Get retrieves a change with its approval slots
func (c *Coordinator) Get(ctx context.Context, changeID string) (*models.PendingChange, []models.Approval, error) {
	change, err := c.changes.Get(ctx, changeID)
	if err != nil {
		return nil, nil, err
	}
	slots, err := c.approvals.ListForChange(ctx, changeID)
	if err != nil {
		return nil, nil, err
	}
	return change, slots, nil
}

// ListByStatus retrieves changes in a given status
func (c *Coordinator) ListByStatus(ctx context.Context, status models.ChangeStatus, page, pageSize int) ([]models.PendingChange, int, error) {
	return c.changes.ListByStatus(ctx, status, page, pageSize)
}

// ListForApprover retrieves pending changes awaiting the approver's vote
func (c *Coordinator) ListForApprover(ctx context.Context, approverID string) ([]models.PendingChange, error) {
	return c.changes.ListForApprover(ctx, approverID)
}

// resolve computes the terminal status implied by the vote set, or empty when
// the change stays pending. Any rejection rejects; an admin approval forces
// approval; otherwise approval requires every slot approved.
func (c *Coordinator) resolve(slots []models.Approval, actor policy.Actor, vote models.ApprovalStatus) models.ChangeStatus {
	for _, slot := range slots {
		if slot.Status == models.ApprovalStatusRejected {
			return models.ChangeStatusRejected
		}
	}

	if vote == models.ApprovalStatusApproved && c.policy.CanForceResolve(actor) {
		return models.ChangeStatusApproved
	}

	for _, slot := range slots {
		if slot.Status != models.ApprovalStatusApproved {
			return ""
		}
	}
	return models.ChangeStatusApproved
}

// overlayVote reflects the in-transaction vote onto the slot list read from
// committed state. An admin voter who holds no slot is appended so rejection
// checks still see their vote.
func overlayVote(slots []models.Approval, approverID string, status models.ApprovalStatus) []models.Approval {
	out := make([]models.Approval, len(slots), len(slots)+1)
	copy(out, slots)
	for i := range out {
		if out[i].ApproverID == approverID {
			out[i].Status = status
			return out
		}
	}
	return append(out, models.Approval{ApproverID: approverID, Status: status})
}
