package authz

const (
	RoleMember         = 10
	RoleProjectManager = 40
	RoleAdmin          = 50
)

func RoleName(roleID int) string {
	switch roleID {
	case RoleAdmin:
		return "Admin"
	case RoleProjectManager:
		return "Project Manager"
	default:
		return "Member"
	}
}

func RoleFromName(name string) int {
	switch name {
	case "Admin":
		return RoleAdmin
	case "Project Manager":
		return RoleProjectManager
	default:
		return RoleMember
	}
}

func IsElevated(roleID int) bool {
	return roleID == RoleProjectManager || roleID == RoleAdmin
}

func IsAdmin(roleID int) bool {
	return roleID == RoleAdmin
}
