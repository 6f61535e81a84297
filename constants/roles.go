package constants

// Role IDs match the seeded roles table.
const (
	RoleSustainabilityOfficer = 1
	RoleFactoryOperator       = 2
	RoleAdministrator         = 3
)

var roleNames = map[int]string{
	RoleSustainabilityOfficer: "Sustainability Officer",
	RoleFactoryOperator:       "Factory Operator",
	RoleAdministrator:         "Administrator",
}

// RoleName returns the display name for a role ID.
func RoleName(roleID int) string {
	if name, ok := roleNames[roleID]; ok {
		return name
	}
	return "Unknown"
}

// IsValidRole reports whether the role ID is one of the seeded roles.
func IsValidRole(roleID int) bool {
	_, ok := roleNames[roleID]
	return ok
}

// AllRoles returns a copy of the role ID to name mapping.
func AllRoles() map[int]string {
	all := make(map[int]string, len(roleNames))
	for id, name := range roleNames {
		all[id] = name
	}
	return all
}
