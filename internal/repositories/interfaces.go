package repositories

import (
	"context"

	"github.com/Ramsey-B/sequoia/pkg/database"
	"github.com/Ramsey-B/sequoia/pkg/models"
)

// PersonRepository defines operations for person records
type PersonRepository interface {
	DB() database.DB
	Create(ctx context.Context, person *models.Person) (*models.Person, error)
	Get(ctx context.Context, id string) (*models.Person, error)
	List(ctx context.Context, page, pageSize int) ([]models.Person, int, error)
	ListAll(ctx context.Context) ([]models.Person, error)
	Update(ctx context.Context, id string, req models.UpdatePersonRequest) error
	LinkUserAccount(ctx context.Context, personID string, userID string) error
	Exists(ctx context.Context, ids ...string) ([]string, error)
}

// RelationshipRepository defines operations for relationship records
type RelationshipRepository interface {
	Create(ctx context.Context, rel *models.Relationship) (*models.Relationship, error)
	Get(ctx context.Context, id string) (*models.Relationship, error)
	ListAll(ctx context.Context) ([]models.Relationship, error)
	ListForPerson(ctx context.Context, personID string) ([]models.Relationship, error)
	Delete(ctx context.Context, id string) error
}

// FamilyRepository defines operations for registered families
type FamilyRepository interface {
	Upsert(ctx context.Context, family *models.Family) (*models.Family, error)
	Get(ctx context.Context, rootPersonID string) (*models.Family, error)
	ListAll(ctx context.Context) ([]models.Family, error)
	RootIDs(ctx context.Context) (map[string]struct{}, error)
	UpdateName(ctx context.Context, rootPersonID string, name string) error
}

// PendingChangeRepository defines operations for the change approval queue
type PendingChangeRepository interface {
	DB() database.DB
	Create(ctx context.Context, change *models.PendingChange) (*models.PendingChange, error)
	Get(ctx context.Context, id string) (*models.PendingChange, error)
	GetForUpdate(ctx context.Context, id string) (*models.PendingChange, error)
	ListByStatus(ctx context.Context, status models.ChangeStatus, page, pageSize int) ([]models.PendingChange, int, error)
	ListForApprover(ctx context.Context, approverID string) ([]models.PendingChange, error)
	ResolveIfPending(ctx context.Context, id string, status models.ChangeStatus, resolvedByID string) (bool, error)
}

// ApprovalRepository defines operations for approval slots on pending changes
type ApprovalRepository interface {
	CreateSlots(ctx context.Context, changeID string, approverIDs []string) error
	ListForChange(ctx context.Context, changeID string) ([]models.Approval, error)
	RecordVote(ctx context.Context, changeID, approverID string, status models.ApprovalStatus, comment *string) error
}
