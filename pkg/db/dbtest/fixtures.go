package dbtest

import (
	"testing"
	"time"

	dbtypes "github.com/angelmondragon/tms-backend/pkg/db/types"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Fixtures is the minimal object graph a job needs.
type Fixtures struct {
	Admin     models.User
	Client    models.Client
	Site      models.Site
	Area      models.Area
	Shaft     models.Shaft
	Type      models.EquipmentType
	Equipment models.Equipment
}

// Seed inserts an administrator holding every permission, one client with a
// shaft and one truck.
func Seed(t testing.TB, conn *gorm.DB) Fixtures {
	t.Helper()

	var f Fixtures
	f.Admin = User(t, conn, "admin@tms.test", enums.RoleAdministrator, enums.Permissions()...)
	f.Client = models.Client{
		FirstName:      "Thabo",
		LastName:       "Mokoena",
		IDNumber:       "8001015009087",
		Address:        "12 Reef Rd",
		ContactNumbers: dbtypes.StringArray{"0820000000"},
		WhatsApp:       dbtypes.StringArray{},
		Emails:         dbtypes.StringArray{"thabo@client.test"},
		Status:         enums.ClientStatusActive,
	}
	mustCreate(t, conn, &f.Client)
	f.Site = models.Site{Name: "North Site", Address: "Mine Rd 1"}
	mustCreate(t, conn, &f.Site)
	f.Area = models.Area{Name: "Block A", SiteID: f.Site.ID}
	mustCreate(t, conn, &f.Area)
	f.Shaft = models.Shaft{Name: "Shaft 3", AreaID: f.Area.ID, ClientID: f.Client.ID}
	mustCreate(t, conn, &f.Shaft)
	f.Type = models.EquipmentType{Name: "Tipper Truck"}
	mustCreate(t, conn, &f.Type)
	f.Equipment = Equipment(t, conn, f.Type.ID, "ABC123GP")
	return f
}

// User inserts a user holding exactly perms.
func User(t testing.TB, conn *gorm.DB, email string, role enums.Role, perms ...enums.Permission) models.User {
	t.Helper()
	values := make(dbtypes.StringArray, 0, len(perms))
	for _, p := range perms {
		values = append(values, string(p))
	}
	user := models.User{
		Email:       email,
		FirstName:   "Test",
		LastName:    string(role),
		Role:        role,
		Permissions: values,
	}
	mustCreate(t, conn, &user)
	return user
}

// Equipment inserts an available truck of the given type.
func Equipment(t testing.TB, conn *gorm.DB, typeID uuid.UUID, registration string) models.Equipment {
	t.Helper()
	reg := registration
	eq := models.Equipment{
		Category:           enums.EquipmentCategoryVehicle,
		RegistrationNumber: &reg,
		TypeID:             typeID,
		Status:             enums.EquipmentStatusAvailable,
	}
	mustCreate(t, conn, &eq)
	return eq
}

// Job inserts a PENDING job on the fixture shaft. createdAt orders listings.
func (f Fixtures) Job(t testing.TB, conn *gorm.DB, title string, priority enums.JobPriority, createdAt time.Time) models.Job {
	t.Helper()
	job := models.Job{
		Title:              title,
		Description:        title + " collection",
		JobType:            enums.JobTypeCollectInternalOres,
		Priority:           priority,
		SiteClassification: enums.SiteClassificationGreen,
		Status:             enums.JobStatusPending,
		ShaftID:            f.Shaft.ID,
		ClientID:           f.Client.ID,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}
	mustCreate(t, conn, &job)
	return job
}

func mustCreate(t testing.TB, conn *gorm.DB, value any) {
	t.Helper()
	if err := conn.Create(value).Error; err != nil {
		t.Fatalf("create fixture %T: %v", value, err)
	}
}
