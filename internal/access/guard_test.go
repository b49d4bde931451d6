package access

import (
	"errors"
	"testing"

	"jobboard/internal/apperr"
	"jobboard/internal/identity"
)

func TestCapabilityTable(t *testing.T) {
	owner := identity.Account{ID: "emp-1", Role: identity.RoleEmployer}
	rival := identity.Account{ID: "emp-2", Role: identity.RoleEmployer}
	student := identity.Account{ID: "stu-1", Role: identity.RoleStudent}

	cases := []struct {
		name    string
		caller  identity.Account
		action  Action
		ownerID string
		allowed bool
	}{
		{"employer creates posting", owner, ActionCreatePosting, "", true},
		{"student cannot create posting", student, ActionCreatePosting, "", false},
		{"owner toggles", owner, ActionTogglePosting, "emp-1", true},
		{"other employer cannot toggle", rival, ActionTogglePosting, "emp-1", false},
		{"student cannot toggle own-id match", student, ActionTogglePosting, "stu-1", false},
		{"owner deletes", owner, ActionDeletePosting, "emp-1", true},
		{"other employer cannot delete", rival, ActionDeletePosting, "emp-1", false},
		{"student submits application", student, ActionSubmitApplication, "", true},
		{"employer cannot submit application", owner, ActionSubmitApplication, "", false},
		{"owner lists applicants", owner, ActionListApplicants, "emp-1", true},
		{"other employer cannot list applicants", rival, ActionListApplicants, "emp-1", false},
		{"student cannot list applicants", student, ActionListApplicants, "emp-1", false},
		{"anyone reads postings", student, ActionReadPosting, "", true},
	}
	for _, tc := range cases {
		err := Allow(tc.caller, tc.action, tc.ownerID)
		if tc.allowed && err != nil {
			t.Fatalf("%s: expected allowed, got %v", tc.name, err)
		}
		if !tc.allowed && !errors.Is(err, apperr.ErrForbidden) {
			t.Fatalf("%s: expected forbidden, got %v", tc.name, err)
		}
	}
}

func TestUnknownActionDenied(t *testing.T) {
	caller := identity.Account{ID: "emp-1", Role: identity.RoleEmployer}
	if err := Allow(caller, Action("posting.transfer"), "emp-1"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden for unknown action, got %v", err)
	}
}
