package models

import "time"

// Family registers the root of a named tree. Registration is optional; a
// branch with no Family record resolves through founder inference instead.
type Family struct {
	RootPersonID string    `json:"root_person_id" db:"root_person_id"`
	Name         string    `json:"name" db:"name"`
	Description  *string   `json:"description,omitempty" db:"description"`
	CreatedByID  string    `json:"created_by_id" db:"created_by_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UpsertFamilyRequest is the request for registering or renaming a family
type UpsertFamilyRequest struct {
	RootPersonID string  `json:"root_person_id" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	Description  *string `json:"description,omitempty"`
}

// RenameFamilyRequest is the request for renaming a registered family
type RenameFamilyRequest struct {
	Name string `json:"name" validate:"required"`
}

// FamilyStats holds store-wide aggregate counts
type FamilyStats struct {
	TotalMembers  int     `json:"total_members"`
	LivingCount   int     `json:"living_count"`
	DeceasedCount int     `json:"deceased_count"`
	MaleCount     int     `json:"male_count"`
	FemaleCount   int     `json:"female_count"`
	MarriageCount int     `json:"marriage_count"`
	OldestMember  *Person `json:"oldest_member,omitempty"`
	YoungestLiving *Person `json:"youngest_living,omitempty"`
}

// FamilyTreeStats holds per-tree counts rooted at one person
type FamilyTreeStats struct {
	RootPersonID string `json:"root_person_id"`
	MemberCount  int    `json:"member_count"`
	Generations  int    `json:"generations"`
}

// FamilyGroup approximates a family unit when no Family record exists:
// parentless founders grouped by surname, with the earliest-born founder as
// representative ancestor.
type FamilyGroup struct {
	Surname       string   `json:"surname"`
	DisplayName   string   `json:"display_name"`
	AncestorID    string   `json:"ancestor_id"`
	FounderIDs    []string `json:"founder_ids"`
	MemberCount   int      `json:"member_count"`
	Generations   int      `json:"generations"`
}
