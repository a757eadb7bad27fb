package enums

import "slices"

// Role is the single role a user holds.
type Role string

const (
	RoleAdministrator    Role = "ADMINISTRATOR"
	RoleTransportManager Role = "TRANSPORT_MANAGER"
	RoleAgent            Role = "AGENT"
	RoleDriver           Role = "DRIVER"
	RoleClientManager    Role = "CLIENT_MANAGER"
	RoleWorkshopManager  Role = "WORKSHOP_MANAGER"
)

var validRoles = []Role{
	RoleAdministrator,
	RoleTransportManager,
	RoleAgent,
	RoleDriver,
	RoleClientManager,
	RoleWorkshopManager,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	return slices.Contains(validRoles, r)
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	return parse(value, validRoles, "role")
}
