package models

import (
	"time"

	dbtypes "github.com/angelmondragon/tms-backend/pkg/db/types"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a mine-side customer that owns shafts and requests collections.
type Client struct {
	ID                      uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	FirstName               string              `gorm:"column:first_name;not null" json:"firstName"`
	MiddleName              *string             `gorm:"column:middle_name" json:"middleName"`
	LastName                string              `gorm:"column:last_name;not null" json:"lastName"`
	IDNumber                string              `gorm:"column:id_number;not null" json:"idNumber"`
	Address                 string              `gorm:"column:address;not null" json:"address"`
	ContactNumbers          dbtypes.StringArray `gorm:"column:contact_numbers;type:text[];not null" json:"contactNumber"`
	WhatsApp                dbtypes.StringArray `gorm:"column:whatsapp;type:text[];not null" json:"whatsapp"`
	Emails                  dbtypes.StringArray `gorm:"column:emails;type:text[];not null" json:"email"`
	PotentialContactNumbers bool                `gorm:"column:potential_contact_numbers;not null;default:false" json:"potentialContactNumbers"`
	Status                  enums.ClientStatus  `gorm:"column:status;type:client_status_enum;not null" json:"status"`
	CreatedByID             *uuid.UUID          `gorm:"column:created_by_id;type:uuid" json:"createdById"`
	Syndicates              []Syndicate         `gorm:"many2many:client_syndicates;joinForeignKey:ClientID;joinReferences:SyndicateID" json:"syndicates,omitempty"`
	Shafts                  []Shaft             `gorm:"foreignKey:ClientID" json:"shafts,omitempty"`
	CreatedAt               time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt               time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (c *Client) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

type Syndicate struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (s *Syndicate) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// ClientSyndicate is one row of the client/syndicate membership table.
type ClientSyndicate struct {
	ClientID    uuid.UUID `gorm:"column:client_id;type:uuid;primaryKey"`
	SyndicateID uuid.UUID `gorm:"column:syndicate_id;type:uuid;primaryKey"`
}

func (ClientSyndicate) TableName() string { return "client_syndicates" }
