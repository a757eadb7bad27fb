package resources

import (
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/google/uuid"
)

type SiteInput struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
}

func (in *SiteInput) Build(id uuid.UUID) (*models.Site, error) {
	return &models.Site{ID: id, Name: in.Name, Address: in.Address}, nil
}

type SitePatch struct {
	Name    *string `json:"name" validate:"omitempty,min=1"`
	Address *string `json:"address" validate:"omitempty,min=1"`
}

func (p *SitePatch) Columns() (map[string]any, error) {
	c := columns{}
	set(c, "name", p.Name)
	set(c, "address", p.Address)
	return c, nil
}

type AreaInput struct {
	Name   string    `json:"name" validate:"required"`
	SiteID uuid.UUID `json:"siteId" validate:"required"`
}

func (in *AreaInput) Build(id uuid.UUID) (*models.Area, error) {
	return &models.Area{ID: id, Name: in.Name, SiteID: in.SiteID}, nil
}

type AreaPatch struct {
	Name   *string    `json:"name" validate:"omitempty,min=1"`
	SiteID *uuid.UUID `json:"siteId"`
}

func (p *AreaPatch) Columns() (map[string]any, error) {
	c := columns{}
	set(c, "name", p.Name)
	set(c, "site_id", p.SiteID)
	return c, nil
}

type ShaftInput struct {
	Name      string    `json:"name" validate:"required"`
	AreaID    uuid.UUID `json:"areaId" validate:"required"`
	ClientID  uuid.UUID `json:"clientId" validate:"required"`
	Latitude  *float64  `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64  `json:"longitude" validate:"omitempty,min=-180,max=180"`
}

func (in *ShaftInput) Build(id uuid.UUID) (*models.Shaft, error) {
	return &models.Shaft{
		ID:        id,
		Name:      in.Name,
		AreaID:    in.AreaID,
		ClientID:  in.ClientID,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
	}, nil
}

type ShaftPatch struct {
	Name      *string    `json:"name" validate:"omitempty,min=1"`
	AreaID    *uuid.UUID `json:"areaId"`
	ClientID  *uuid.UUID `json:"clientId"`
	Latitude  *float64   `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64   `json:"longitude" validate:"omitempty,min=-180,max=180"`
}

func (p *ShaftPatch) Columns() (map[string]any, error) {
	c := columns{}
	set(c, "name", p.Name)
	set(c, "area_id", p.AreaID)
	set(c, "client_id", p.ClientID)
	set(c, "latitude", p.Latitude)
	set(c, "longitude", p.Longitude)
	return c, nil
}
