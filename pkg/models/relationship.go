package models

import "time"

// RelationshipType classifies an edge in the kinship graph
type RelationshipType string

const (
	RelationshipTypeParentChild RelationshipType = "parent_child"
	RelationshipTypeAdopted     RelationshipType = "adopted"
	RelationshipTypeStepParent  RelationshipType = "step_parent"
	RelationshipTypeStepChild   RelationshipType = "step_child"
	RelationshipTypeFoster      RelationshipType = "foster"
	RelationshipTypeSpouse      RelationshipType = "spouse"
)

// IsParental reports whether the type is a directed parent→child edge.
// All non-spouse kinds carry parent_id/child_id.
func (t RelationshipType) IsParental() bool {
	return t != RelationshipTypeSpouse && t.IsValid()
}

// IsSpousal reports whether the type is the symmetric spouse edge
func (t RelationshipType) IsSpousal() bool {
	return t == RelationshipTypeSpouse
}

// IsValid reports whether the type is a known relationship kind
func (t RelationshipType) IsValid() bool {
	switch t {
	case RelationshipTypeParentChild, RelationshipTypeAdopted, RelationshipTypeStepParent,
		RelationshipTypeStepChild, RelationshipTypeFoster, RelationshipTypeSpouse:
		return true
	}
	return false
}

// Relationship is an edge between two persons. Parental kinds are directed
// (parent_id → child_id); spouse edges are symmetric (spouse1_id, spouse2_id).
// A person may carry multiple spouse edges (sequential marriages).
type Relationship struct {
	ID               string           `json:"id" db:"id"`
	RelationshipType RelationshipType `json:"relationship_type" db:"relationship_type"`

	// Parental kinds
	ParentID *string `json:"parent_id,omitempty" db:"parent_id"`
	ChildID  *string `json:"child_id,omitempty" db:"child_id"`

	// Spouse kind
	Spouse1ID *string `json:"spouse1_id,omitempty" db:"spouse1_id"`
	Spouse2ID *string `json:"spouse2_id,omitempty" db:"spouse2_id"`

	StartDate   *time.Time `json:"start_date,omitempty" db:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty" db:"end_date"`
	CreatedByID *string    `json:"created_by_id,omitempty" db:"created_by_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// PersonIDs returns the two person ids joined by this edge
func (r *Relationship) PersonIDs() (string, string) {
	if r.RelationshipType.IsSpousal() {
		return deref(r.Spouse1ID), deref(r.Spouse2ID)
	}
	return deref(r.ParentID), deref(r.ChildID)
}

// Involves reports whether the edge touches the given person
func (r *Relationship) Involves(personID string) bool {
	a, b := r.PersonIDs()
	return a == personID || b == personID
}

// OtherSpouse returns the spouse opposite the given person, or "" for
// non-spouse edges
func (r *Relationship) OtherSpouse(personID string) string {
	if !r.RelationshipType.IsSpousal() {
		return ""
	}
	if deref(r.Spouse1ID) == personID {
		return deref(r.Spouse2ID)
	}
	if deref(r.Spouse2ID) == personID {
		return deref(r.Spouse1ID)
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CreateRelationshipRequest is the request for creating a relationship edge.
// Parental kinds require parent_id/child_id; spouse requires
// spouse1_id/spouse2_id.
type CreateRelationshipRequest struct {
	RelationshipType RelationshipType `json:"relationship_type" validate:"required"`
	ParentID         *string          `json:"parent_id,omitempty"`
	ChildID          *string          `json:"child_id,omitempty"`
	Spouse1ID        *string          `json:"spouse1_id,omitempty"`
	Spouse2ID        *string          `json:"spouse2_id,omitempty"`
	StartDate        *time.Time       `json:"start_date,omitempty"`
	EndDate          *time.Time       `json:"end_date,omitempty"`
}
