package domain

// Role is a named capability grant. An account may hold multiple roles;
// the deploying administrator holds all roles initially.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleRiskManager   Role = "risk-manager"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdministrator || r == RoleRiskManager
}

// AllRoles lists every grantable role.
func AllRoles() []Role {
	return []Role{RoleAdministrator, RoleRiskManager}
}
