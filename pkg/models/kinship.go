package models

// KinStep tags one hop on a kinship path
type KinStep string

const (
	KinStepParent KinStep = "parent"
	KinStepChild  KinStep = "child"
	KinStepSpouse KinStep = "spouse"
)

// Relative is one person found by kinship search: the shortest hop distance
// from the start person and the step tags along that path.
type Relative struct {
	PersonID string    `json:"person_id"`
	Distance int       `json:"distance"`
	Path     []KinStep `json:"path"`
}

// RelativeSuggestion is the consumer-facing view of a discovered relative
type RelativeSuggestion struct {
	Person     Person `json:"person"`
	Label      string `json:"label"`
	Distance   int    `json:"distance"`
	HasAccount bool   `json:"has_account"`
}
