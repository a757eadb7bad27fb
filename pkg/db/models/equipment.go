package models

import (
	"time"

	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type EquipmentType struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description *string   `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (e *EquipmentType) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}

// Equipment is any fleet asset that can be placed on a daily plan.
type Equipment struct {
	ID                 uuid.UUID               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Description        *string                 `gorm:"column:description" json:"description"`
	Category           enums.EquipmentCategory `gorm:"column:category;type:equipment_category_enum;not null" json:"category"`
	Make               *string                 `gorm:"column:make" json:"make"`
	Model              *string                 `gorm:"column:model" json:"model"`
	Year               *int                    `gorm:"column:year" json:"year"`
	RegistrationNumber *string                 `gorm:"column:registration_number" json:"registrationNumber"`
	Capacity           *decimal.Decimal        `gorm:"column:capacity;type:numeric(12,2)" json:"capacity"`
	CapacityUnit       *enums.CapacityUnit     `gorm:"column:capacity_unit;type:capacity_unit_enum" json:"capacityUnit"`
	TypeID             uuid.UUID               `gorm:"column:type_id;type:uuid;not null" json:"typeId"`
	Type               *EquipmentType          `gorm:"foreignKey:TypeID" json:"type,omitempty"`
	Status             enums.EquipmentStatus   `gorm:"column:status;type:equipment_status_enum;not null" json:"status"`
	Telematics         *Telematics             `gorm:"foreignKey:EquipmentID" json:"telematics,omitempty"`
	MaintenanceRecords []Maintenance           `gorm:"foreignKey:EquipmentID" json:"maintenanceRecords,omitempty"`
	CreatedAt          time.Time               `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Equipment) TableName() string { return "equipment" }

func (e *Equipment) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}

type Maintenance struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EquipmentID uuid.UUID  `gorm:"column:equipment_id;type:uuid;not null" json:"equipmentId"`
	Description string     `gorm:"column:description;not null" json:"description"`
	StartDate   time.Time  `gorm:"column:start_date;not null" json:"startDate"`
	EndDate     *time.Time `gorm:"column:end_date" json:"endDate"`
	Status      string     `gorm:"column:status;not null" json:"status"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Maintenance) TableName() string { return "maintenance_records" }

func (m *Maintenance) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// Telematics holds the latest device readings for one piece of equipment.
type Telematics struct {
	ID                  uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EquipmentID         uuid.UUID        `gorm:"column:equipment_id;type:uuid;not null;uniqueIndex" json:"equipmentId"`
	CurrentLocation     *string          `gorm:"column:current_location" json:"currentLocation"`
	FuelLevel           *decimal.Decimal `gorm:"column:fuel_level;type:numeric(8,2)" json:"fuelLevel"`
	KilometresTravelled decimal.Decimal  `gorm:"column:kilometres_travelled;type:numeric(14,2);not null" json:"kilometresTravelled"`
	TonsRelocated       *decimal.Decimal `gorm:"column:tons_relocated;type:numeric(14,2)" json:"tonsRelocated"`
	LastUpdated         time.Time        `gorm:"column:last_updated;not null" json:"lastUpdated"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Telematics) TableName() string { return "telematics" }

func (t *Telematics) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}
