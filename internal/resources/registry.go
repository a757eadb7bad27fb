package resources

import (
	"fmt"

	"github.com/angelmondragon/tms-backend/internal/listing"
	"github.com/angelmondragon/tms-backend/internal/repo"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"gorm.io/gorm"
)

func byQuestionOrder(db *gorm.DB) *gorm.DB {
	return db.Order("questions.question_order ASC")
}

func byCreatedAt(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".created_at ASC")
	}
}

var (
	clientDetails = func(db *gorm.DB) *gorm.DB {
		return db.Preload("Syndicates").Preload("Shafts", byCreatedAt("shafts"))
	}
	shaftDetails = func(db *gorm.DB) *gorm.DB {
		return db.Preload("Area").Preload("Client")
	}
	siteDetails = func(db *gorm.DB) *gorm.DB {
		return db.Preload("Areas", byCreatedAt("areas")).Preload("Loadbays", byCreatedAt("loadbays"))
	}
	areaDetails = func(db *gorm.DB) *gorm.DB {
		return db.Preload("Site")
	}
	equipmentDetails = func(db *gorm.DB) *gorm.DB {
		return db.Preload("Type").
			Preload("Telematics").
			Preload("MaintenanceRecords", func(db *gorm.DB) *gorm.DB {
				return db.Order("maintenance_records.start_date DESC")
			})
	}
	procedureDetails = func(db *gorm.DB) *gorm.DB {
		return db.Preload("Questions", byQuestionOrder)
	}
	executionDetails = func(db *gorm.DB) *gorm.DB {
		return db.Preload("Procedure").Preload("User").Preload("Exceptions", byCreatedAt("exceptions"))
	}
)

// Registry holds one service per reference entity.
type Registry struct {
	Clients        *Service[models.Client]
	Syndicates     *Service[models.Syndicate]
	Sites          *Service[models.Site]
	Areas          *Service[models.Area]
	Shafts         *Service[models.Shaft]
	EquipmentTypes *Service[models.EquipmentType]
	Equipment      *Service[models.Equipment]
	Procedures     *Service[models.Procedure]
	Executions     *Service[models.Execution]
	Exceptions     *Service[models.Exception]
}

// NewRegistry builds every reference entity service over conn.
func NewRegistry(conn *gorm.DB, tx txRunner, logg *logger.Logger) (*Registry, error) {
	if conn == nil {
		return nil, fmt.Errorf("database connection required")
	}
	var (
		reg Registry
		err error
	)
	if reg.Clients, err = newService[models.Client](conn, tx, logg, "client", listing.Clients, clientDetails); err != nil {
		return nil, err
	}
	if reg.Syndicates, err = newService[models.Syndicate](conn, tx, logg, "syndicate", listing.Syndicates, nil); err != nil {
		return nil, err
	}
	if reg.Sites, err = newService[models.Site](conn, tx, logg, "site", listing.Sites, siteDetails); err != nil {
		return nil, err
	}
	if reg.Areas, err = newService[models.Area](conn, tx, logg, "area", listing.Areas, areaDetails); err != nil {
		return nil, err
	}
	if reg.Shafts, err = newService[models.Shaft](conn, tx, logg, "shaft", listing.Shafts, shaftDetails); err != nil {
		return nil, err
	}
	if reg.EquipmentTypes, err = newService[models.EquipmentType](conn, tx, logg, "equipment type", listing.EquipmentTypes, nil); err != nil {
		return nil, err
	}
	if reg.Equipment, err = newService[models.Equipment](conn, tx, logg, "equipment", listing.Equipment, equipmentDetails); err != nil {
		return nil, err
	}
	if reg.Procedures, err = newService[models.Procedure](conn, tx, logg, "procedure", listing.Procedures, procedureDetails); err != nil {
		return nil, err
	}
	if reg.Executions, err = newService[models.Execution](conn, tx, logg, "execution", listing.Executions, executionDetails); err != nil {
		return nil, err
	}
	if reg.Exceptions, err = newService[models.Exception](conn, tx, logg, "exception", listing.Exceptions, nil); err != nil {
		return nil, err
	}
	return &reg, nil
}

func newService[T any](conn *gorm.DB, tx txRunner, logg *logger.Logger, name string, spec listing.Spec, details repo.Scope) (*Service[T], error) {
	return New(Params[T]{
		Name:   name,
		Repo:   repo.NewCRUD[T](conn, spec, details),
		Tx:     tx,
		Logger: logg,
	})
}
