package approval

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sequoia/pkg/database"
	"github.com/Ramsey-B/sequoia/pkg/events"
	"github.com/Ramsey-B/sequoia/pkg/models"
	"github.com/Ramsey-B/sequoia/pkg/policy"
)

// fakeTx satisfies database.Tx for the lifecycle methods the coordinator
// touches; everything else panics via the embedded nil interface, which is
// exactly what we want from a unit test.
type fakeTx struct {
	database.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

func (t *fakeTx) IsOpen() bool { return !t.committed && !t.rolledBack }

type fakeDB struct {
	database.DB
	lastTx *fakeTx
}

func (db *fakeDB) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	db.lastTx = &fakeTx{}
	return ctx, db.lastTx, nil
}

type fakeChangeRepo struct {
	db      *fakeDB
	changes map[string]*models.PendingChange
	// loseResolveRace simulates another caller winning the terminal
	// transition first; the stored row takes raceWinnerStatus.
	loseResolveRace  bool
	raceWinnerStatus models.ChangeStatus
}

func newFakeChangeRepo() *fakeChangeRepo {
	return &fakeChangeRepo{db: &fakeDB{}, changes: make(map[string]*models.PendingChange)}
}

func (r *fakeChangeRepo) DB() database.DB { return r.db }

func (r *fakeChangeRepo) Create(ctx context.Context, change *models.PendingChange) (*models.PendingChange, error) {
	change.ID = uuid.New().String()
	change.Status = models.ChangeStatusPending
	change.CreatedAt = time.Now().UTC()
	r.changes[change.ID] = change
	return change, nil
}

func (r *fakeChangeRepo) Get(ctx context.Context, id string) (*models.PendingChange, error) {
	change, ok := r.changes[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "change not found")
	}
	copied := *change
	return &copied, nil
}

func (r *fakeChangeRepo) GetForUpdate(ctx context.Context, id string) (*models.PendingChange, error) {
	return r.Get(ctx, id)
}

func (r *fakeChangeRepo) ListByStatus(ctx context.Context, status models.ChangeStatus, page, pageSize int) ([]models.PendingChange, int, error) {
	var out []models.PendingChange
	for _, c := range r.changes {
		if c.Status == status {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (r *fakeChangeRepo) ListForApprover(ctx context.Context, approverID string) ([]models.PendingChange, error) {
	return nil, nil
}

func (r *fakeChangeRepo) ResolveIfPending(ctx context.Context, id string, status models.ChangeStatus, resolvedByID string) (bool, error) {
	if r.loseResolveRace {
		if change, ok := r.changes[id]; ok && r.raceWinnerStatus != "" {
			change.Status = r.raceWinnerStatus
		}
		return false, nil
	}
	change, ok := r.changes[id]
	if !ok || change.Status != models.ChangeStatusPending {
		return false, nil
	}
	change.Status = status
	change.ResolvedByID = &resolvedByID
	now := time.Now().UTC()
	change.ResolvedAt = &now
	return true, nil
}

type fakeApprovalRepo struct {
	slots map[string][]models.Approval
}

func newFakeApprovalRepo() *fakeApprovalRepo {
	return &fakeApprovalRepo{slots: make(map[string][]models.Approval)}
}

func (r *fakeApprovalRepo) CreateSlots(ctx context.Context, changeID string, approverIDs []string) error {
	for _, id := range approverIDs {
		r.slots[changeID] = append(r.slots[changeID], models.Approval{
			PendingChangeID: changeID,
			ApproverID:      id,
			Status:          models.ApprovalStatusPending,
		})
	}
	return nil
}

func (r *fakeApprovalRepo) ListForChange(ctx context.Context, changeID string) ([]models.Approval, error) {
	out := make([]models.Approval, len(r.slots[changeID]))
	copy(out, r.slots[changeID])
	return out, nil
}

func (r *fakeApprovalRepo) RecordVote(ctx context.Context, changeID, approverID string, status models.ApprovalStatus, comment *string) error {
	for i, slot := range r.slots[changeID] {
		if slot.ApproverID == approverID {
			r.slots[changeID][i].Status = status
			r.slots[changeID][i].Comment = comment
			return nil
		}
	}
	r.slots[changeID] = append(r.slots[changeID], models.Approval{
		PendingChangeID: changeID,
		ApproverID:      approverID,
		Status:          status,
		Comment:         comment,
	})
	return nil
}

type fakePersonRepo struct {
	db      *fakeDB
	persons map[string]*models.Person
	created []string
	updated []string
	linked  map[string]string
}

func newFakePersonRepo(ids ...string) *fakePersonRepo {
	r := &fakePersonRepo{db: &fakeDB{}, persons: make(map[string]*models.Person), linked: make(map[string]string)}
	for _, id := range ids {
		r.persons[id] = &models.Person{ID: id, FirstName: id, LastName: "Test", IsLiving: true}
	}
	return r
}

func (r *fakePersonRepo) DB() database.DB { return r.db }

func (r *fakePersonRepo) Create(ctx context.Context, person *models.Person) (*models.Person, error) {
	person.ID = uuid.New().String()
	r.persons[person.ID] = person
	r.created = append(r.created, person.ID)
	return person, nil
}

func (r *fakePersonRepo) Get(ctx context.Context, id string) (*models.Person, error) {
	p, ok := r.persons[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "person not found")
	}
	return p, nil
}

func (r *fakePersonRepo) List(ctx context.Context, page, pageSize int) ([]models.Person, int, error) {
	return nil, 0, nil
}

func (r *fakePersonRepo) ListAll(ctx context.Context) ([]models.Person, error) {
	out := make([]models.Person, 0, len(r.persons))
	for _, p := range r.persons {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakePersonRepo) Update(ctx context.Context, id string, req models.UpdatePersonRequest) error {
	if _, ok := r.persons[id]; !ok {
		return httperror.NewHTTPError(http.StatusNotFound, "person not found")
	}
	r.updated = append(r.updated, id)
	return nil
}

func (r *fakePersonRepo) LinkUserAccount(ctx context.Context, personID string, userID string) error {
	r.linked[personID] = userID
	return nil
}

func (r *fakePersonRepo) Exists(ctx context.Context, ids ...string) ([]string, error) {
	var missing []string
	for _, id := range ids {
		if _, ok := r.persons[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type fakeRelationshipRepo struct {
	rels    map[string]*models.Relationship
	created []*models.Relationship
	deleted []string
}

func (r *fakeRelationshipRepo) Create(ctx context.Context, rel *models.Relationship) (*models.Relationship, error) {
	rel.ID = uuid.New().String()
	r.created = append(r.created, rel)
	if r.rels == nil {
		r.rels = make(map[string]*models.Relationship)
	}
	r.rels[rel.ID] = rel
	return rel, nil
}

func (r *fakeRelationshipRepo) Get(ctx context.Context, id string) (*models.Relationship, error) {
	rel, ok := r.rels[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "relationship not found")
	}
	return rel, nil
}

func (r *fakeRelationshipRepo) ListAll(ctx context.Context) ([]models.Relationship, error) {
	return nil, nil
}

func (r *fakeRelationshipRepo) ListForPerson(ctx context.Context, personID string) ([]models.Relationship, error) {
	return nil, nil
}

func (r *fakeRelationshipRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.rels[id]; !ok {
		return httperror.NewHTTPError(http.StatusNotFound, "relationship not found")
	}
	delete(r.rels, id)
	r.deleted = append(r.deleted, id)
	return nil
}

type fakeFamilyRepo struct {
	upserted []*models.Family
}

func (r *fakeFamilyRepo) Upsert(ctx context.Context, family *models.Family) (*models.Family, error) {
	r.upserted = append(r.upserted, family)
	return family, nil
}

func (r *fakeFamilyRepo) Get(ctx context.Context, rootPersonID string) (*models.Family, error) {
	return nil, httperror.NewHTTPError(http.StatusNotFound, "family not found")
}

func (r *fakeFamilyRepo) ListAll(ctx context.Context) ([]models.Family, error) { return nil, nil }

func (r *fakeFamilyRepo) RootIDs(ctx context.Context) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (r *fakeFamilyRepo) UpdateName(ctx context.Context, rootPersonID string, name string) error {
	return nil
}

type harness struct {
	coordinator   *Coordinator
	changes       *fakeChangeRepo
	approvals     *fakeApprovalRepo
	persons       *fakePersonRepo
	relationships *fakeRelationshipRepo
	families      *fakeFamilyRepo
}

func newHarness(existingPersonIDs ...string) *harness {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	h := &harness{
		changes:       newFakeChangeRepo(),
		approvals:     newFakeApprovalRepo(),
		persons:       newFakePersonRepo(existingPersonIDs...),
		relationships: &fakeRelationshipRepo{},
		families:      &fakeFamilyRepo{},
	}
	h.coordinator = NewCoordinator(
		h.changes, h.approvals, h.persons, h.relationships, h.families,
		policy.NewEvaluator(), events.NewEmitter(nil, logger), nil, logger,
	)
	return h
}

var (
	member    = policy.Actor{UserID: "member-1", Role: policy.RoleMember}
	approver1 = policy.Actor{UserID: "approver-1", Role: policy.RoleMember}
	approver2 = policy.Actor{UserID: "approver-2", Role: policy.RoleMember}
	admin     = policy.Actor{UserID: "admin-1", Role: policy.RoleSystemAdmin}
)

func createPersonRequest(approverIDs ...string) models.SubmitChangeRequest {
	return models.SubmitChangeRequest{
		ChangeType:  models.ChangeTypeCreatePerson,
		ChangeData:  json.RawMessage(`{"first_name": "Thandiwe", "last_name": "Sithole", "is_living": true}`),
		ApproverIDs: approverIDs,
	}
}

func submitPending(t *testing.T, h *harness, approverIDs ...string) *models.PendingChange {
	t.Helper()
	result, err := h.coordinator.Submit(context.Background(), member, createPersonRequest(approverIDs...))
	require.NoError(t, err)
	require.False(t, result.Applied)
	require.NotNil(t, result.Change)
	return result.Change
}

func TestCoordinator_Submit(t *testing.T) {
	t.Run("member submission enters the pending queue", func(t *testing.T) {
		h := newHarness()

		change := submitPending(t, h, approver1.UserID, approver2.UserID)

		assert.Equal(t, models.ChangeStatusPending, change.Status)
		assert.Equal(t, member.UserID, change.CreatedByID)
		assert.Empty(t, h.persons.created)

		slots, _ := h.approvals.ListForChange(context.Background(), change.ID)
		require.Len(t, slots, 2)
		assert.True(t, h.changes.db.lastTx.committed)
	})

	t.Run("admin bypass applies immediately", func(t *testing.T) {
		h := newHarness()

		result, err := h.coordinator.Submit(context.Background(), admin, createPersonRequest())
		require.NoError(t, err)

		assert.True(t, result.Applied)
		assert.Nil(t, result.Change)
		require.Len(t, h.persons.created, 1)
		assert.Empty(t, h.changes.changes)
	})

	t.Run("member submission without approvers is rejected", func(t *testing.T) {
		h := newHarness()

		_, err := h.coordinator.Submit(context.Background(), member, createPersonRequest())
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})

	t.Run("undecodable payload is rejected", func(t *testing.T) {
		h := newHarness()

		_, err := h.coordinator.Submit(context.Background(), admin, models.SubmitChangeRequest{
			ChangeType: models.ChangeTypeCreatePerson,
			ChangeData: json.RawMessage(`{"first_name":`),
		})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})

	t.Run("references to unknown persons are rejected", func(t *testing.T) {
		h := newHarness("p1")

		data, _ := json.Marshal(map[string]any{
			"relationship_type": "parent_child",
			"parent_id":         "p1",
			"child_id":          "ghost",
		})
		_, err := h.coordinator.Submit(context.Background(), admin, models.SubmitChangeRequest{
			ChangeType: models.ChangeTypeAddRelationship,
			ChangeData: data,
		})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
		assert.Empty(t, h.relationships.created)
	})

	t.Run("relationship removal deletes the edge", func(t *testing.T) {
		h := newHarness("p1", "p2")
		parentID, childID := "p1", "p2"
		rel, err := h.relationships.Create(context.Background(), &models.Relationship{
			RelationshipType: models.RelationshipTypeParentChild,
			ParentID:         &parentID,
			ChildID:          &childID,
		})
		require.NoError(t, err)

		data, _ := json.Marshal(map[string]any{"relationship_id": rel.ID})
		result, err := h.coordinator.Submit(context.Background(), admin, models.SubmitChangeRequest{
			ChangeType: models.ChangeTypeRemoveRelationship,
			ChangeData: data,
		})
		require.NoError(t, err)

		assert.True(t, result.Applied)
		assert.Equal(t, []string{rel.ID}, h.relationships.deleted)
	})

	t.Run("removing an unknown relationship is rejected", func(t *testing.T) {
		h := newHarness()

		data, _ := json.Marshal(map[string]any{"relationship_id": "ghost"})
		_, err := h.coordinator.Submit(context.Background(), admin, models.SubmitChangeRequest{
			ChangeType: models.ChangeTypeRemoveRelationship,
			ChangeData: data,
		})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
		assert.Empty(t, h.relationships.deleted)
	})
}

func TestCoordinator_Vote(t *testing.T) {
	approve := models.VoteRequest{Decision: "approve"}
	reject := models.VoteRequest{Decision: "reject"}

	t.Run("stays pending until every approver approves", func(t *testing.T) {
		h := newHarness()
		change := submitPending(t, h, approver1.UserID, approver2.UserID)

		got, err := h.coordinator.Vote(context.Background(), approver1, change.ID, approve)
		require.NoError(t, err)
		assert.Equal(t, models.ChangeStatusPending, got.Status)
		assert.Empty(t, h.persons.created)

		got, err = h.coordinator.Vote(context.Background(), approver2, change.ID, approve)
		require.NoError(t, err)
		assert.Equal(t, models.ChangeStatusApproved, got.Status)
		assert.Len(t, h.persons.created, 1)
	})

	t.Run("any rejection rejects without applying", func(t *testing.T) {
		h := newHarness()
		change := submitPending(t, h, approver1.UserID, approver2.UserID)

		got, err := h.coordinator.Vote(context.Background(), approver1, change.ID, reject)
		require.NoError(t, err)
		assert.Equal(t, models.ChangeStatusRejected, got.Status)
		assert.Empty(t, h.persons.created)
	})

	t.Run("admin approval resolves regardless of outstanding votes", func(t *testing.T) {
		h := newHarness()
		change := submitPending(t, h, approver1.UserID, approver2.UserID)

		got, err := h.coordinator.Vote(context.Background(), admin, change.ID, approve)
		require.NoError(t, err)
		assert.Equal(t, models.ChangeStatusApproved, got.Status)
		assert.Len(t, h.persons.created, 1)
	})

	t.Run("re-vote overwrites the earlier decision", func(t *testing.T) {
		h := newHarness()
		change := submitPending(t, h, approver1.UserID, approver2.UserID)

		_, err := h.coordinator.Vote(context.Background(), approver1, change.ID, approve)
		require.NoError(t, err)

		// Changing their mind; the change must not auto-approve when the
		// second approver later approves alone.
		_, err = h.coordinator.Vote(context.Background(), approver1, change.ID, reject)
		require.NoError(t, err)

		stored, _ := h.changes.Get(context.Background(), change.ID)
		assert.Equal(t, models.ChangeStatusRejected, stored.Status)
	})

	t.Run("non-approver member is forbidden", func(t *testing.T) {
		h := newHarness()
		change := submitPending(t, h, approver1.UserID)

		_, err := h.coordinator.Vote(context.Background(), member, change.ID, approve)
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, httperror.GetStatusCode(err))
	})

	t.Run("voting on a resolved change is a conflict", func(t *testing.T) {
		h := newHarness()
		change := submitPending(t, h, approver1.UserID)

		_, err := h.coordinator.Vote(context.Background(), approver1, change.ID, approve)
		require.NoError(t, err)

		_, err = h.coordinator.Vote(context.Background(), approver1, change.ID, approve)
		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
	})

	t.Run("losing the resolve race returns the winner's status without applying", func(t *testing.T) {
		h := newHarness()
		change := submitPending(t, h, approver1.UserID)
		// The change was cancelled between this voter's quorum check and
		// their terminal update.
		h.changes.loseResolveRace = true
		h.changes.raceWinnerStatus = models.ChangeStatusCancelled

		got, err := h.coordinator.Vote(context.Background(), approver1, change.ID, models.VoteRequest{Decision: "approve"})
		require.NoError(t, err)
		assert.Equal(t, models.ChangeStatusCancelled, got.Status)
		assert.Empty(t, h.persons.created)
	})

	t.Run("approved claim links the user account", func(t *testing.T) {
		h := newHarness("p1")

		data, _ := json.Marshal(map[string]any{"person_id": "p1", "claim_user_id": "user-9"})
		result, err := h.coordinator.Submit(context.Background(), member, models.SubmitChangeRequest{
			ChangeType:  models.ChangeTypeUpdatePerson,
			ChangeData:  data,
			ApproverIDs: []string{approver1.UserID},
		})
		require.NoError(t, err)

		_, err = h.coordinator.Vote(context.Background(), approver1, result.Change.ID, approve)
		require.NoError(t, err)
		assert.Equal(t, "user-9", h.persons.linked["p1"])
	})
}

func TestCoordinator_Cancel(t *testing.T) {
	t.Run("submitter cancels their own change", func(t *testing.T) {
		h := newHarness()
		change := submitPending(t, h, approver1.UserID)

		got, err := h.coordinator.Cancel(context.Background(), member, change.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ChangeStatusCancelled, got.Status)
	})

	t.Run("other members may not cancel", func(t *testing.T) {
		h := newHarness()
		change := submitPending(t, h, approver1.UserID)

		_, err := h.coordinator.Cancel(context.Background(), approver1, change.ID)
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, httperror.GetStatusCode(err))
	})

	t.Run("cancelling a resolved change is a conflict", func(t *testing.T) {
		h := newHarness()
		change := submitPending(t, h, approver1.UserID)

		_, err := h.coordinator.Vote(context.Background(), approver1, change.ID, models.VoteRequest{Decision: "approve"})
		require.NoError(t, err)

		_, err = h.coordinator.Cancel(context.Background(), member, change.ID)
		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
	})
}

func TestRelationshipFromRequest(t *testing.T) {
	p1, p2 := "p1", "p2"

	tests := []struct {
		name    string
		req     models.CreateRelationshipRequest
		wantErr bool
	}{
		{
			name: "valid parental edge",
			req: models.CreateRelationshipRequest{
				RelationshipType: models.RelationshipTypeParentChild,
				ParentID:         &p1,
				ChildID:          &p2,
			},
		},
		{
			name: "valid spouse edge",
			req: models.CreateRelationshipRequest{
				RelationshipType: models.RelationshipTypeSpouse,
				Spouse1ID:        &p1,
				Spouse2ID:        &p2,
			},
		},
		{
			name: "parental edge missing child",
			req: models.CreateRelationshipRequest{
				RelationshipType: models.RelationshipTypeParentChild,
				ParentID:         &p1,
			},
			wantErr: true,
		},
		{
			name: "self-parenting",
			req: models.CreateRelationshipRequest{
				RelationshipType: models.RelationshipTypeAdopted,
				ParentID:         &p1,
				ChildID:          &p1,
			},
			wantErr: true,
		},
		{
			name: "self-marriage",
			req: models.CreateRelationshipRequest{
				RelationshipType: models.RelationshipTypeSpouse,
				Spouse1ID:        &p1,
				Spouse2ID:        &p1,
			},
			wantErr: true,
		},
		{
			name: "unknown type",
			req: models.CreateRelationshipRequest{
				RelationshipType: models.RelationshipType("nemesis"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, err := relationshipFromRequest(tt.req, "actor-1")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, rel)
			assert.Equal(t, tt.req.RelationshipType, rel.RelationshipType)
			require.NotNil(t, rel.CreatedByID)
			assert.Equal(t, "actor-1", *rel.CreatedByID)
		})
	}
}
