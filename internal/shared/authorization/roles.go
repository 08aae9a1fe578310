// Package authorization holds the caller identity passed from the HTTP edge into use cases.
package authorization

type UserRole string

const (
	RoleCitizen UserRole = "citizen"
	RoleOfficer UserRole = "officer"
)

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsOfficer() bool {
	return r == RoleOfficer
}

func (r UserRole) IsValid() bool {
	return r == RoleCitizen || r == RoleOfficer
}

// ParseUserRole falls back to citizen for unknown values.
func ParseUserRole(s string) UserRole {
	role := UserRole(s)
	if role.IsValid() {
		return role
	}
	return RoleCitizen
}

// Actor is an authenticated caller. A nil *Actor stands for the system itself.
type Actor struct {
	UserID string
	Role   UserRole
}

func NewActor(userID string, role UserRole) *Actor {
	return &Actor{UserID: userID, Role: role}
}

// IsOfficer is nil-safe: the system actor is not an officer.
func (a *Actor) IsOfficer() bool {
	return a != nil && a.Role.IsOfficer()
}

// ID returns nil for the system actor so it can be stored in nullable columns.
func (a *Actor) ID() *string {
	if a == nil {
		return nil
	}
	id := a.UserID
	return &id
}
