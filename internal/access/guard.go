package access

import (
	"fmt"

	"jobboard/internal/apperr"
	"jobboard/internal/identity"
)

// Action names a guarded operation.
type Action string

const (
	ActionCreatePosting     Action = "posting.create"
	ActionTogglePosting     Action = "posting.toggle"
	ActionDeletePosting     Action = "posting.delete"
	ActionReadPosting       Action = "posting.read"
	ActionSubmitApplication Action = "application.submit"
	ActionListApplicants    Action = "application.list"
)

// Allow is the single capability check consulted before every mutating
// operation and the role- or ownership-gated reads. ownerID is the target
// posting's owner, empty when the action has no target relation. A failed
// check is always ErrForbidden, never a partial result.
func Allow(caller identity.Account, action Action, ownerID string) error {
	switch action {
	case ActionReadPosting:
		return nil
	case ActionCreatePosting:
		return requireRole(caller, identity.RoleEmployer)
	case ActionSubmitApplication:
		return requireRole(caller, identity.RoleStudent)
	case ActionTogglePosting, ActionDeletePosting, ActionListApplicants:
		if err := requireRole(caller, identity.RoleEmployer); err != nil {
			return err
		}
		if caller.ID != ownerID {
			return fmt.Errorf("%w: not the posting owner", apperr.ErrForbidden)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown action %q", apperr.ErrForbidden, action)
	}
}

func requireRole(caller identity.Account, role identity.Role) error {
	if caller.Role != role {
		return fmt.Errorf("%w: requires role %s", apperr.ErrForbidden, role)
	}
	return nil
}
