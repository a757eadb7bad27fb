package enums

import "slices"

// Permission is a fine-grained capability carried on a user and in the
// access token.
type Permission string

const (
	PermissionCreateUser           Permission = "CREATE_USER"
	PermissionReadUser             Permission = "READ_USER"
	PermissionUpdateUser           Permission = "UPDATE_USER"
	PermissionDeleteUser           Permission = "DELETE_USER"
	PermissionCreateClient         Permission = "CREATE_CLIENT"
	PermissionReadClient           Permission = "READ_CLIENT"
	PermissionUpdateClient         Permission = "UPDATE_CLIENT"
	PermissionDeleteClient         Permission = "DELETE_CLIENT"
	PermissionManageRoles          Permission = "MANAGE_ROLES"
	PermissionCreateJob            Permission = "CREATE_JOB"
	PermissionReadJob              Permission = "READ_JOB"
	PermissionUpdateJob            Permission = "UPDATE_JOB"
	PermissionDeleteJob            Permission = "DELETE_JOB"
	PermissionCreateMaintenance    Permission = "CREATE_MAINTENANCE"
	PermissionReadMaintenance      Permission = "READ_MAINTENANCE"
	PermissionUpdateMaintenance    Permission = "UPDATE_MAINTENANCE"
	PermissionDeleteMaintenance    Permission = "DELETE_MAINTENANCE"
	PermissionViewAssignments      Permission = "VIEW_ASSIGNMENTS"
	PermissionCreateAssignment     Permission = "CREATE_ASSIGNMENT"
	PermissionReadAssignment       Permission = "READ_ASSIGNMENT"
	PermissionUpdateAssignment     Permission = "UPDATE_ASSIGNMENT"
	PermissionDeleteAssignment     Permission = "DELETE_ASSIGNMENT"
	PermissionCreateEquipment      Permission = "CREATE_EQUIPMENT"
	PermissionReadEquipment        Permission = "READ_EQUIPMENT"
	PermissionUpdateEquipment      Permission = "UPDATE_EQUIPMENT"
	PermissionDeleteEquipment      Permission = "DELETE_EQUIPMENT"
	PermissionReadTransportRequest Permission = "READ_TRANSPORT_REQUEST"
)

var validPermissions = []Permission{
	PermissionCreateUser,
	PermissionReadUser,
	PermissionUpdateUser,
	PermissionDeleteUser,
	PermissionCreateClient,
	PermissionReadClient,
	PermissionUpdateClient,
	PermissionDeleteClient,
	PermissionManageRoles,
	PermissionCreateJob,
	PermissionReadJob,
	PermissionUpdateJob,
	PermissionDeleteJob,
	PermissionCreateMaintenance,
	PermissionReadMaintenance,
	PermissionUpdateMaintenance,
	PermissionDeleteMaintenance,
	PermissionViewAssignments,
	PermissionCreateAssignment,
	PermissionReadAssignment,
	PermissionUpdateAssignment,
	PermissionDeleteAssignment,
	PermissionCreateEquipment,
	PermissionReadEquipment,
	PermissionUpdateEquipment,
	PermissionDeleteEquipment,
	PermissionReadTransportRequest,
}

func (p Permission) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Permission.
func (p Permission) IsValid() bool {
	return slices.Contains(validPermissions, p)
}

// Permissions lists every known permission in declaration order.
func Permissions() []Permission {
	return slices.Clone(validPermissions)
}

// ParsePermission converts raw input into a Permission.
func ParsePermission(value string) (Permission, error) {
	return parse(value, validPermissions, "permission")
}

// ParsePermissions validates every entry and returns them in input order.
func ParsePermissions(values []string) ([]Permission, error) {
	out := make([]Permission, 0, len(values))
	for _, v := range values {
		p, err := ParsePermission(v)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
