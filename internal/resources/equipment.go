package resources

import (
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EquipmentTypeInput struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

func (in *EquipmentTypeInput) Build(id uuid.UUID) (*models.EquipmentType, error) {
	return &models.EquipmentType{ID: id, Name: in.Name, Description: in.Description}, nil
}

type EquipmentTypePatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Description *string `json:"description"`
}

func (p *EquipmentTypePatch) Columns() (map[string]any, error) {
	c := columns{}
	set(c, "name", p.Name)
	set(c, "description", p.Description)
	return c, nil
}

// EquipmentInput creates a fleet asset. Status defaults to AVAILABLE.
type EquipmentInput struct {
	Description        *string                 `json:"description"`
	Category           enums.EquipmentCategory `json:"category" validate:"required"`
	Make               *string                 `json:"make"`
	Model              *string                 `json:"model"`
	Year               *int                    `json:"year" validate:"omitempty,min=1900,max=2100"`
	RegistrationNumber *string                 `json:"registrationNumber"`
	Capacity           *decimal.Decimal        `json:"capacity"`
	CapacityUnit       *enums.CapacityUnit     `json:"capacityUnit"`
	TypeID             uuid.UUID               `json:"typeId" validate:"required"`
	Status             enums.EquipmentStatus   `json:"status"`
}

func (in *EquipmentInput) Build(id uuid.UUID) (*models.Equipment, error) {
	status := in.Status
	if status == "" {
		status = enums.EquipmentStatusAvailable
	}
	if err := checkEnum("category", in.Category); err != nil {
		return nil, err
	}
	if err := checkEnum("status", status); err != nil {
		return nil, err
	}
	if in.CapacityUnit != nil {
		if err := checkEnum("capacityUnit", *in.CapacityUnit); err != nil {
			return nil, err
		}
	}
	if in.Capacity != nil && in.Capacity.IsNegative() {
		return nil, invalidField("capacity", "must not be negative")
	}
	return &models.Equipment{
		ID:                 id,
		Description:        in.Description,
		Category:           in.Category,
		Make:               in.Make,
		Model:              in.Model,
		Year:               in.Year,
		RegistrationNumber: in.RegistrationNumber,
		Capacity:           in.Capacity,
		CapacityUnit:       in.CapacityUnit,
		TypeID:             in.TypeID,
		Status:             status,
	}, nil
}

type EquipmentPatch struct {
	Description        *string                  `json:"description"`
	Category           *enums.EquipmentCategory `json:"category"`
	Make               *string                  `json:"make"`
	Model              *string                  `json:"model"`
	Year               *int                     `json:"year" validate:"omitempty,min=1900,max=2100"`
	RegistrationNumber *string                  `json:"registrationNumber"`
	Capacity           *decimal.Decimal         `json:"capacity"`
	CapacityUnit       *enums.CapacityUnit      `json:"capacityUnit"`
	TypeID             *uuid.UUID               `json:"typeId"`
	Status             *enums.EquipmentStatus   `json:"status"`
}

func (p *EquipmentPatch) Columns() (map[string]any, error) {
	c := columns{}
	if p.Category != nil {
		if err := checkEnum("category", *p.Category); err != nil {
			return nil, err
		}
	}
	if p.Status != nil {
		if err := checkEnum("status", *p.Status); err != nil {
			return nil, err
		}
	}
	if p.CapacityUnit != nil {
		if err := checkEnum("capacityUnit", *p.CapacityUnit); err != nil {
			return nil, err
		}
	}
	if p.Capacity != nil && p.Capacity.IsNegative() {
		return nil, invalidField("capacity", "must not be negative")
	}
	set(c, "description", p.Description)
	set(c, "category", p.Category)
	set(c, "make", p.Make)
	set(c, "model", p.Model)
	set(c, "year", p.Year)
	set(c, "registration_number", p.RegistrationNumber)
	set(c, "capacity", p.Capacity)
	set(c, "capacity_unit", p.CapacityUnit)
	set(c, "type_id", p.TypeID)
	set(c, "status", p.Status)
	return c, nil
}
