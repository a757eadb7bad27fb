package resources

import (
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/tms-backend/pkg/db/types"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientInput creates a client. syndicateIds links existing syndicates.
type ClientInput struct {
	FirstName               string             `json:"firstName" validate:"required"`
	MiddleName              *string            `json:"middleName"`
	LastName                string             `json:"lastName" validate:"required"`
	IDNumber                string             `json:"idNumber" validate:"required"`
	Address                 string             `json:"address" validate:"required"`
	ContactNumber           []string           `json:"contactNumber"`
	WhatsApp                []string           `json:"whatsapp"`
	Email                   []string           `json:"email" validate:"omitempty,dive,email"`
	PotentialContactNumbers bool               `json:"potentialContactNumbers"`
	Status                  enums.ClientStatus `json:"status"`
	SyndicateIDs            []uuid.UUID        `json:"syndicateIds"`

	createdBy *uuid.UUID
}

// Stamp records the authenticated creator.
func (in *ClientInput) Stamp(actorID uuid.UUID) {
	if actorID != uuid.Nil {
		in.createdBy = &actorID
	}
}

func (in *ClientInput) Build(id uuid.UUID) (*models.Client, error) {
	status := in.Status
	if status == "" {
		status = enums.ClientStatusActive
	}
	if err := checkEnum("status", status); err != nil {
		return nil, err
	}
	return &models.Client{
		ID:                      id,
		FirstName:               in.FirstName,
		MiddleName:              in.MiddleName,
		LastName:                in.LastName,
		IDNumber:                in.IDNumber,
		Address:                 in.Address,
		ContactNumbers:          dbtypes.StringArray(orEmpty(in.ContactNumber)),
		WhatsApp:                dbtypes.StringArray(orEmpty(in.WhatsApp)),
		Emails:                  dbtypes.StringArray(orEmpty(in.Email)),
		PotentialContactNumbers: in.PotentialContactNumbers,
		Status:                  status,
		CreatedByID:             in.createdBy,
	}, nil
}

func (in *ClientInput) Associate(tx *gorm.DB, id uuid.UUID) error {
	if in.SyndicateIDs == nil {
		return nil
	}
	return replaceSyndicates(tx, id, in.SyndicateIDs)
}

// ClientPatch updates a client. A non-nil syndicateIds replaces the
// memberships.
type ClientPatch struct {
	FirstName               *string             `json:"firstName" validate:"omitempty,min=1"`
	MiddleName              *string             `json:"middleName"`
	LastName                *string             `json:"lastName" validate:"omitempty,min=1"`
	IDNumber                *string             `json:"idNumber" validate:"omitempty,min=1"`
	Address                 *string             `json:"address" validate:"omitempty,min=1"`
	ContactNumber           []string            `json:"contactNumber"`
	WhatsApp                []string            `json:"whatsapp"`
	Email                   []string            `json:"email" validate:"omitempty,dive,email"`
	PotentialContactNumbers *bool               `json:"potentialContactNumbers"`
	Status                  *enums.ClientStatus `json:"status"`
	SyndicateIDs            []uuid.UUID         `json:"syndicateIds"`
}

func (p *ClientPatch) Columns() (map[string]any, error) {
	c := columns{}
	set(c, "first_name", p.FirstName)
	set(c, "middle_name", p.MiddleName)
	set(c, "last_name", p.LastName)
	set(c, "id_number", p.IDNumber)
	set(c, "address", p.Address)
	set(c, "potential_contact_numbers", p.PotentialContactNumbers)
	if p.ContactNumber != nil {
		c["contact_numbers"] = dbtypes.StringArray(p.ContactNumber)
	}
	if p.WhatsApp != nil {
		c["whatsapp"] = dbtypes.StringArray(p.WhatsApp)
	}
	if p.Email != nil {
		c["emails"] = dbtypes.StringArray(p.Email)
	}
	if p.Status != nil {
		if err := checkEnum("status", *p.Status); err != nil {
			return nil, err
		}
		c["status"] = *p.Status
	}
	return c, nil
}

func (p *ClientPatch) Associate(tx *gorm.DB, id uuid.UUID) error {
	if p.SyndicateIDs == nil {
		return nil
	}
	return replaceSyndicates(tx, id, p.SyndicateIDs)
}

// replaceSyndicates rewrites the membership rows for one client. Unknown
// syndicate ids fail on the foreign key.
func replaceSyndicates(tx *gorm.DB, clientID uuid.UUID, syndicateIDs []uuid.UUID) error {
	if err := tx.Where("client_id = ?", clientID).Delete(&models.ClientSyndicate{}).Error; err != nil {
		return err
	}
	ids := dedupe(syndicateIDs)
	if len(ids) == 0 {
		return nil
	}
	rows := make([]models.ClientSyndicate, 0, len(ids))
	for _, sid := range ids {
		rows = append(rows, models.ClientSyndicate{ClientID: clientID, SyndicateID: sid})
	}
	return tx.Create(&rows).Error
}

type SyndicateInput struct {
	Name string `json:"name" validate:"required"`
}

func (in *SyndicateInput) Build(id uuid.UUID) (*models.Syndicate, error) {
	return &models.Syndicate{ID: id, Name: in.Name}, nil
}

type SyndicatePatch struct {
	Name *string `json:"name" validate:"omitempty,min=1"`
}

func (p *SyndicatePatch) Columns() (map[string]any, error) {
	c := columns{}
	set(c, "name", p.Name)
	return c, nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
