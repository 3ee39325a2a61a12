package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChangeStatus is the lifecycle state of a pending change
type ChangeStatus string

const (
	ChangeStatusPending   ChangeStatus = "pending"
	ChangeStatusApproved  ChangeStatus = "approved"
	ChangeStatusRejected  ChangeStatus = "rejected"
	ChangeStatusCancelled ChangeStatus = "cancelled"
)

// IsTerminal reports whether the status can no longer transition
func (s ChangeStatus) IsTerminal() bool {
	return s == ChangeStatusApproved || s == ChangeStatusRejected || s == ChangeStatusCancelled
}

// ChangeType identifies the kind of structural mutation being proposed
type ChangeType string

const (
	ChangeTypeCreatePerson       ChangeType = "create_person"
	ChangeTypeUpdatePerson       ChangeType = "update_person"
	ChangeTypeAddRelationship    ChangeType = "add_relationship"
	ChangeTypeRemoveRelationship ChangeType = "remove_relationship"
	ChangeTypeUpdateFamilyName   ChangeType = "update_family_name"
)

// PendingChange is one proposed structural mutation awaiting administrative
// bypass or approver quorum. Immutable once it leaves pending.
type PendingChange struct {
	ID           string          `json:"id" db:"id"`
	ChangeType   ChangeType      `json:"change_type" db:"change_type"`
	ChangeData   json.RawMessage `json:"change_data" db:"change_data"`
	CreatedByID  string          `json:"created_by_id" db:"created_by_id"`
	Status       ChangeStatus    `json:"status" db:"status"`
	ResolvedByID *string         `json:"resolved_by_id,omitempty" db:"resolved_by_id"`
	ResolvedAt   *time.Time      `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// ApprovalStatus is an individual approver's vote state
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// Approval is one named approver's vote on a pending change
type Approval struct {
	PendingChangeID string         `json:"pending_change_id" db:"pending_change_id"`
	ApproverID      string         `json:"approver_id" db:"approver_id"`
	Status          ApprovalStatus `json:"status" db:"status"`
	Comment         *string        `json:"comment,omitempty" db:"comment"`
	DecidedAt       *time.Time     `json:"decided_at,omitempty" db:"decided_at"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
}

// ChangePayload is the tagged union of change payloads. One concrete type per
// change kind so apply dispatch is an exhaustive type switch rather than a
// stringly-typed default branch.
type ChangePayload interface {
	Kind() ChangeType
}

// CreatePersonChange proposes inserting a new person
type CreatePersonChange struct {
	CreatePersonRequest
}

func (CreatePersonChange) Kind() ChangeType { return ChangeTypeCreatePerson }

// UpdatePersonChange proposes updating person fields, or claiming the profile
// for a contributor account when ClaimUserID is set.
type UpdatePersonChange struct {
	PersonID    string              `json:"person_id" validate:"required"`
	ClaimUserID *string             `json:"claim_user_id,omitempty"`
	Fields      UpdatePersonRequest `json:"fields"`
}

func (UpdatePersonChange) Kind() ChangeType { return ChangeTypeUpdatePerson }

// IsClaim reports whether this update links a person to a user account
func (c UpdatePersonChange) IsClaim() bool {
	return c.ClaimUserID != nil && *c.ClaimUserID != ""
}

// AddRelationshipChange proposes inserting a new relationship edge
type AddRelationshipChange struct {
	CreateRelationshipRequest
}

func (AddRelationshipChange) Kind() ChangeType { return ChangeTypeAddRelationship }

// RemoveRelationshipChange proposes deleting an existing relationship edge
type RemoveRelationshipChange struct {
	RelationshipID string `json:"relationship_id" validate:"required"`
}

func (RemoveRelationshipChange) Kind() ChangeType { return ChangeTypeRemoveRelationship }

// UpdateFamilyNameChange proposes registering or renaming a family record
type UpdateFamilyNameChange struct {
	UpsertFamilyRequest
}

func (UpdateFamilyNameChange) Kind() ChangeType { return ChangeTypeUpdateFamilyName }

// DecodeChangePayload parses raw change data into the payload type for the
// given change kind. Unknown kinds fail here, at the boundary, instead of
// being silently ignored at apply time.
func DecodeChangePayload(changeType ChangeType, data json.RawMessage) (ChangePayload, error) {
	switch changeType {
	case ChangeTypeCreatePerson:
		var p CreatePersonChange
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", changeType, err)
		}
		return p, nil
	case ChangeTypeUpdatePerson:
		var p UpdatePersonChange
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", changeType, err)
		}
		return p, nil
	case ChangeTypeAddRelationship:
		var p AddRelationshipChange
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", changeType, err)
		}
		return p, nil
	case ChangeTypeRemoveRelationship:
		var p RemoveRelationshipChange
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", changeType, err)
		}
		return p, nil
	case ChangeTypeUpdateFamilyName:
		var p UpdateFamilyNameChange
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", changeType, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown change type %q", changeType)
	}
}

// EncodeChangePayload serializes a payload alongside its change kind
func EncodeChangePayload(payload ChangePayload) (ChangeType, json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", nil, err
	}
	return payload.Kind(), data, nil
}

// SubmitChangeRequest is the request for proposing a structural mutation
type SubmitChangeRequest struct {
	ChangeType  ChangeType      `json:"change_type" validate:"required"`
	ChangeData  json.RawMessage `json:"change_data" validate:"required"`
	ApproverIDs []string        `json:"approver_ids,omitempty"`
}

// VoteRequest is the request for recording an approver's decision
type VoteRequest struct {
	Decision string  `json:"decision" validate:"required,oneof=approve reject"`
	Comment  *string `json:"comment,omitempty"`
}

// SubmitChangeResult reports the outcome of a submission: either the change
// was applied directly (bypass path) or it is pending approval.
type SubmitChangeResult struct {
	Applied bool           `json:"applied"`
	Change  *PendingChange `json:"change,omitempty"`
}

// ChangeListResponse is the response for listing pending changes
type ChangeListResponse struct {
	Items      []PendingChange `json:"items"`
	TotalCount int             `json:"total_count"`
}
