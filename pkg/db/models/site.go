package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Site struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Address   string    `gorm:"column:address;not null" json:"address"`
	Areas     []Area    `gorm:"foreignKey:SiteID" json:"areas,omitempty"`
	Loadbays  []Loadbay `gorm:"foreignKey:SiteID" json:"loadbays,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (s *Site) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

type Area struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	SiteID    uuid.UUID `gorm:"column:site_id;type:uuid;not null" json:"siteId"`
	Site      *Site     `gorm:"foreignKey:SiteID" json:"site,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (a *Area) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}

// Loadbay is a weighing/loading point at a site.
type Loadbay struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	SiteID    uuid.UUID `gorm:"column:site_id;type:uuid;not null" json:"siteId"`
	Latitude  *float64  `gorm:"column:latitude" json:"latitude"`
	Longitude *float64  `gorm:"column:longitude" json:"longitude"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (l *Loadbay) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}

// Shaft is a client-owned mine shaft inside an area; jobs collect from it.
type Shaft struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	AreaID    uuid.UUID `gorm:"column:area_id;type:uuid;not null" json:"areaId"`
	Area      *Area     `gorm:"foreignKey:AreaID" json:"area,omitempty"`
	ClientID  uuid.UUID `gorm:"column:client_id;type:uuid;not null" json:"clientId"`
	Client    *Client   `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Latitude  *float64  `gorm:"column:latitude" json:"latitude"`
	Longitude *float64  `gorm:"column:longitude" json:"longitude"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (s *Shaft) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}
