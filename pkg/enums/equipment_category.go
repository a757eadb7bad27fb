package enums

import "slices"

type EquipmentCategory string

const (
	EquipmentCategoryTrailer          EquipmentCategory = "TRAILER"
	EquipmentCategoryCrane            EquipmentCategory = "CRANE"
	EquipmentCategoryExcavator        EquipmentCategory = "EXCAVATOR"
	EquipmentCategoryDozer            EquipmentCategory = "DOZER"
	EquipmentCategoryWeighBridge      EquipmentCategory = "WEIGH_BRIDGE"
	EquipmentCategoryTelematicsDevice EquipmentCategory = "TELEMATICS_DEVICE"
	EquipmentCategoryVehicle          EquipmentCategory = "VEHICLE"
	EquipmentCategoryCrusher          EquipmentCategory = "CRUSHER"
	EquipmentCategoryMill             EquipmentCategory = "MILL"
	EquipmentCategoryLoader           EquipmentCategory = "LOADER"
	EquipmentCategoryGenerator        EquipmentCategory = "GENERATOR"
)

var validEquipmentCategorys = []EquipmentCategory{
	EquipmentCategoryTrailer,
	EquipmentCategoryCrane,
	EquipmentCategoryExcavator,
	EquipmentCategoryDozer,
	EquipmentCategoryWeighBridge,
	EquipmentCategoryTelematicsDevice,
	EquipmentCategoryVehicle,
	EquipmentCategoryCrusher,
	EquipmentCategoryMill,
	EquipmentCategoryLoader,
	EquipmentCategoryGenerator,
}

func (e EquipmentCategory) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EquipmentCategory.
func (e EquipmentCategory) IsValid() bool {
	return slices.Contains(validEquipmentCategorys, e)
}

// ParseEquipmentCategory converts raw input into a EquipmentCategory.
func ParseEquipmentCategory(value string) (EquipmentCategory, error) {
	return parse(value, validEquipmentCategorys, "equipment category")
}
