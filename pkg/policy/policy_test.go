package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluator_CanBypassApproval(t *testing.T) {
	e := NewEvaluator()

	assert.True(t, e.CanBypassApproval(Actor{UserID: "u1", Role: RoleSystemAdmin}))
	assert.True(t, e.CanBypassApproval(Actor{UserID: "u1", Role: RoleFamilyAdmin}))
	assert.False(t, e.CanBypassApproval(Actor{UserID: "u1", Role: RoleMember}))
}

func TestEvaluator_CanVote(t *testing.T) {
	e := NewEvaluator()
	approvers := []string{"u1", "u2"}

	t.Run("named approver may vote", func(t *testing.T) {
		assert.True(t, e.CanVote(Actor{UserID: "u1", Role: RoleMember}, approvers))
	})

	t.Run("unnamed member may not vote", func(t *testing.T) {
		assert.False(t, e.CanVote(Actor{UserID: "u3", Role: RoleMember}, approvers))
	})

	t.Run("admin may always vote", func(t *testing.T) {
		assert.True(t, e.CanVote(Actor{UserID: "u3", Role: RoleSystemAdmin}, approvers))
		assert.True(t, e.CanVote(Actor{UserID: "u3", Role: RoleFamilyAdmin}, nil))
	})
}

func TestEvaluator_CanForceResolve(t *testing.T) {
	e := NewEvaluator()

	assert.True(t, e.CanForceResolve(Actor{UserID: "u1", Role: RoleSystemAdmin}))
	assert.False(t, e.CanForceResolve(Actor{UserID: "u1", Role: RoleMember}))
}

func TestEvaluator_CanCancel(t *testing.T) {
	e := NewEvaluator()

	t.Run("submitter may cancel their own change", func(t *testing.T) {
		assert.True(t, e.CanCancel(Actor{UserID: "u1", Role: RoleMember}, "u1"))
	})

	t.Run("other members may not cancel", func(t *testing.T) {
		assert.False(t, e.CanCancel(Actor{UserID: "u2", Role: RoleMember}, "u1"))
	})

	t.Run("admin may cancel anything", func(t *testing.T) {
		assert.True(t, e.CanCancel(Actor{UserID: "u2", Role: RoleFamilyAdmin}, "u1"))
	})
}
