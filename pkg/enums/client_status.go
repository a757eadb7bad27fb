package enums

import "slices"

type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "ACTIVE"
	ClientStatusInactive ClientStatus = "INACTIVE"
)

var validClientStatuses = []ClientStatus{
	ClientStatusActive,
	ClientStatusInactive,
}

func (c ClientStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ClientStatus.
func (c ClientStatus) IsValid() bool {
	return slices.Contains(validClientStatuses, c)
}

// ParseClientStatus converts raw input into a ClientStatus.
func ParseClientStatus(value string) (ClientStatus, error) {
	return parse(value, validClientStatuses, "client status")
}
