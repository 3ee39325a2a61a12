package policy

// Role is a contributor's privilege level
type Role string

const (
	RoleSystemAdmin Role = "system_admin"
	RoleFamilyAdmin Role = "family_admin"
	RoleMember      Role = "member"
)

// Actor is the authenticated contributor for one request
type Actor struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the actor holds any administrative role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleSystemAdmin || a.Role == RoleFamilyAdmin
}

// Evaluator answers permission questions for the change workflow
type Evaluator struct{}

// NewEvaluator creates a policy evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// CanBypassApproval reports whether the actor may apply structural changes
// directly, skipping the pending queue. System admins bypass everywhere;
// family admins bypass within the trees they administer.
func (e *Evaluator) CanBypassApproval(actor Actor) bool {
	return actor.IsAdmin()
}

// CanVote reports whether the actor may record a vote on a change with the
// given designated approvers. Admins may always vote; others only when named.
func (e *Evaluator) CanVote(actor Actor, approverIDs []string) bool {
	if actor.IsAdmin() {
		return true
	}
	for _, id := range approverIDs {
		if id == actor.UserID {
			return true
		}
	}
	return false
}

// CanForceResolve reports whether the actor's single approval resolves a
// change immediately, regardless of outstanding votes.
func (e *Evaluator) CanForceResolve(actor Actor) bool {
	return actor.IsAdmin()
}

// CanCancel reports whether the actor may cancel a pending change: the
// submitter or an admin.
func (e *Evaluator) CanCancel(actor Actor, submitterID string) bool {
	return actor.IsAdmin() || actor.UserID == submitterID
}
