package enums

import "slices"

type CapacityUnit string

const (
	CapacityUnitTonnes      CapacityUnit = "TONNES"
	CapacityUnitMetresCubed CapacityUnit = "METRES_CUBED"
	CapacityUnitKilograms   CapacityUnit = "KILOGRAMS"
	CapacityUnitLitres      CapacityUnit = "LITRES"
	CapacityUnitKva         CapacityUnit = "KVA"
)

var validCapacityUnits = []CapacityUnit{
	CapacityUnitTonnes,
	CapacityUnitMetresCubed,
	CapacityUnitKilograms,
	CapacityUnitLitres,
	CapacityUnitKva,
}

func (c CapacityUnit) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CapacityUnit.
func (c CapacityUnit) IsValid() bool {
	return slices.Contains(validCapacityUnits, c)
}

// ParseCapacityUnit converts raw input into a CapacityUnit.
func ParseCapacityUnit(value string) (CapacityUnit, error) {
	return parse(value, validCapacityUnits, "capacity unit")
}
