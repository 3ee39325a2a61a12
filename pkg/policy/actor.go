package policy

import (
	gocontext "context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/sequoia/pkg/context"
)

// ActorFromContext builds the acting contributor from request context. The
// user id is required; an unrecognized or missing role downgrades to member.
func ActorFromContext(ctx gocontext.Context) (Actor, error) {
	userID := context.GetUserID(ctx)
	if userID == "" {
		return Actor{}, httperror.NewHTTPError(http.StatusUnauthorized, "user identity is required")
	}

	role := Role(context.GetUserRole(ctx))
	switch role {
	case RoleSystemAdmin, RoleFamilyAdmin, RoleMember:
	default:
		role = RoleMember
	}

	return Actor{UserID: userID, Role: role}, nil
}
