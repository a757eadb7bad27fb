package enums

import "slices"

type EquipmentStatus string

const (
	EquipmentStatusAvailable        EquipmentStatus = "AVAILABLE"
	EquipmentStatusInTransit        EquipmentStatus = "IN_TRANSIT"
	EquipmentStatusInUse            EquipmentStatus = "IN_USE"
	EquipmentStatusUnderMaintenance EquipmentStatus = "UNDER_MAINTENANCE"
	EquipmentStatusOutOfService     EquipmentStatus = "OUT_OF_SERVICE"
)

var validEquipmentStatuses = []EquipmentStatus{
	EquipmentStatusAvailable,
	EquipmentStatusInTransit,
	EquipmentStatusInUse,
	EquipmentStatusUnderMaintenance,
	EquipmentStatusOutOfService,
}

func (e EquipmentStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EquipmentStatus.
func (e EquipmentStatus) IsValid() bool {
	return slices.Contains(validEquipmentStatuses, e)
}

// ParseEquipmentStatus converts raw input into a EquipmentStatus.
func ParseEquipmentStatus(value string) (EquipmentStatus, error) {
	return parse(value, validEquipmentStatuses, "equipment status")
}
