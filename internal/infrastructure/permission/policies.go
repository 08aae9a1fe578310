package permission

import "github.com/civiclens/civiclens/internal/shared/authorization"

const (
	ResourceIssue = "issue"

	ActionCreate         = "create"
	ActionCheckDuplicate = "check_duplicate"
	ActionChangeStatus   = "change_status"
	ActionTriage         = "triage"
	ActionResolve        = "resolve"
)

type Policy struct {
	Role     string
	Resource string
	Action   string
}

func DefaultPolicies() []Policy {
	citizen := authorization.RoleCitizen.String()
	officer := authorization.RoleOfficer.String()

	return []Policy{
		{citizen, ResourceIssue, ActionCreate},
		{citizen, ResourceIssue, ActionCheckDuplicate},

		{officer, ResourceIssue, ActionChangeStatus},
		{officer, ResourceIssue, ActionTriage},
		{officer, ResourceIssue, ActionResolve},
	}
}

// RoleInheritance returns [member, parent] pairs; officers can also report.
func RoleInheritance() [][2]string {
	return [][2]string{
		{authorization.RoleOfficer.String(), authorization.RoleCitizen.String()},
	}
}
