package models

import "time"

// Person is a node in the kinship graph. Persons are created directly by
// privileged actors or through the approval workflow, and are never
// hard-deleted.
type Person struct {
	ID         string     `json:"id" db:"id"`
	FirstName  string     `json:"first_name" db:"first_name"`
	LastName   string     `json:"last_name" db:"last_name"`
	MiddleName *string    `json:"middle_name,omitempty" db:"middle_name"`
	MaidenName *string    `json:"maiden_name,omitempty" db:"maiden_name"`
	Gender     *string    `json:"gender,omitempty" db:"gender"`
	BirthDate  *time.Time `json:"birth_date,omitempty" db:"birth_date"`
	DeathDate  *time.Time `json:"death_date,omitempty" db:"death_date"`
	IsLiving   bool       `json:"is_living" db:"is_living"`
	IsPrivate  bool       `json:"is_private" db:"is_private"`
	IsVerified bool       `json:"is_verified" db:"is_verified"`

	// UserID links the person to a contributor account, if claimed
	UserID      *string   `json:"user_id,omitempty" db:"user_id"`
	CreatedByID *string   `json:"created_by_id,omitempty" db:"created_by_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// FullName returns the display name for the person
func (p *Person) FullName() string {
	if p.MiddleName != nil && *p.MiddleName != "" {
		return p.FirstName + " " + *p.MiddleName + " " + p.LastName
	}
	return p.FirstName + " " + p.LastName
}

// HasAccount reports whether the person is linked to a contributor account
func (p *Person) HasAccount() bool {
	return p.UserID != nil && *p.UserID != ""
}

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// CreatePersonRequest is the request for creating a person
type CreatePersonRequest struct {
	FirstName  string     `json:"first_name" validate:"required"`
	LastName   string     `json:"last_name" validate:"required"`
	MiddleName *string    `json:"middle_name,omitempty"`
	MaidenName *string    `json:"maiden_name,omitempty"`
	Gender     *string    `json:"gender,omitempty" validate:"omitempty,oneof=male female"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	DeathDate  *time.Time `json:"death_date,omitempty"`
	IsLiving   bool       `json:"is_living"`
	IsPrivate  bool       `json:"is_private"`
}

// UpdatePersonRequest is the request for updating person fields. Nil fields
// are left unchanged.
type UpdatePersonRequest struct {
	FirstName  *string    `json:"first_name,omitempty"`
	LastName   *string    `json:"last_name,omitempty"`
	MiddleName *string    `json:"middle_name,omitempty"`
	MaidenName *string    `json:"maiden_name,omitempty"`
	Gender     *string    `json:"gender,omitempty" validate:"omitempty,oneof=male female"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	DeathDate  *time.Time `json:"death_date,omitempty"`
	IsLiving   *bool      `json:"is_living,omitempty"`
	IsPrivate  *bool      `json:"is_private,omitempty"`
}

// PersonListResponse is the response for listing persons
type PersonListResponse struct {
	Items      []Person `json:"items"`
	TotalCount int      `json:"total_count"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
}
