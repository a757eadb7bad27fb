package seed

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/angelmondragon/tms-backend/pkg/config"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/tms-backend/pkg/db/types"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/angelmondragon/tms-backend/pkg/security"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Summary counts rows created and rows that already existed, per table.
type Summary struct {
	Created  map[string]int `json:"created"`
	Existing map[string]int `json:"existing"`
}

func newSummary() Summary {
	return Summary{Created: map[string]int{}, Existing: map[string]int{}}
}

func (s Summary) record(table string, created bool) {
	if created {
		s.Created[table]++
		return
	}
	s.Existing[table]++
}

// String renders the counts in table order for CLI output.
func (s Summary) String() string {
	tables := map[string]bool{}
	for k := range s.Created {
		tables[k] = true
	}
	for k := range s.Existing {
		tables[k] = true
	}
	names := make([]string, 0, len(tables))
	for k := range tables {
		names = append(names, k)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%-16s created=%d existing=%d\n", name, s.Created[name], s.Existing[name])
	}
	return b.String()
}

type SeederParams struct {
	Tx        txRunner
	Passwords config.PasswordConfig
	Logger    *logger.Logger
}

// Seeder applies fixtures inside a single transaction.
type Seeder struct {
	tx        txRunner
	passwords config.PasswordConfig
	logg      *logger.Logger
}

func NewSeeder(params SeederParams) (*Seeder, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Seeder{tx: params.Tx, passwords: params.Passwords, logg: logg}, nil
}

// Apply writes the fixture. Any failure rolls back the whole fixture.
func (s *Seeder) Apply(ctx context.Context, f *Fixture) (Summary, error) {
	summary := newSummary()
	if f == nil {
		return summary, nil
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		st := &state{
			tx:      tx.WithContext(ctx),
			summary: summary,
			types:   map[string]uuid.UUID{},
			users:   map[string]uuid.UUID{},
			clients: map[string]uuid.UUID{},
			shafts:  map[string]models.Shaft{},
		}
		steps := []func(*Fixture) error{
			st.equipmentTypes,
			st.equipment,
			s.usersStep(st),
			st.clientRows,
			st.sites,
			st.jobs,
		}
		for _, step := range steps {
			if err := step(f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return newSummary(), fmt.Errorf("apply fixture: %w", err)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"created":  summary.Created,
		"existing": summary.Existing,
	}), "seed applied")
	return summary, nil
}

type state struct {
	tx      *gorm.DB
	summary Summary
	types   map[string]uuid.UUID
	users   map[string]uuid.UUID
	clients map[string]uuid.UUID
	shafts  map[string]models.Shaft
}

// ensure inserts value unless a row matching query already exists, in which
// case value is replaced by that row.
func ensure[T any](tx *gorm.DB, value *T, query string, args ...any) (bool, error) {
	var existing []T
	if err := tx.Where(query, args...).Limit(1).Find(&existing).Error; err != nil {
		return false, err
	}
	if len(existing) > 0 {
		*value = existing[0]
		return false, nil
	}
	if err := tx.Create(value).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (st *state) equipmentTypes(f *Fixture) error {
	for _, in := range f.EquipmentTypes {
		row := models.EquipmentType{Name: in.Name, Description: optional(in.Description)}
		created, err := ensure(st.tx, &row, "name = ?", in.Name)
		if err != nil {
			return fmt.Errorf("equipment type %q: %w", in.Name, err)
		}
		st.summary.record("equipment_types", created)
		st.types[in.Name] = row.ID
	}
	return nil
}

func (st *state) equipment(f *Fixture) error {
	for _, in := range f.Equipment {
		category, err := enums.ParseEquipmentCategory(in.Category)
		if err != nil {
			return fmt.Errorf("equipment %q: %w", in.Registration, err)
		}
		status := enums.EquipmentStatusAvailable
		if in.Status != "" {
			if status, err = enums.ParseEquipmentStatus(in.Status); err != nil {
				return fmt.Errorf("equipment %q: %w", in.Registration, err)
			}
		}
		capacity, err := optionalDecimal(in.Capacity)
		if err != nil {
			return fmt.Errorf("equipment %q capacity: %w", in.Registration, err)
		}
		row := models.Equipment{
			Category:           category,
			Make:               optional(in.Make),
			Model:              optional(in.Model),
			RegistrationNumber: optional(in.Registration),
			Capacity:           capacity,
			TypeID:             st.types[in.Type],
			Status:             status,
		}
		if in.Year > 0 {
			year := in.Year
			row.Year = &year
		}
		created, err := ensure(st.tx, &row, "registration_number = ?", in.Registration)
		if err != nil {
			return fmt.Errorf("equipment %q: %w", in.Registration, err)
		}
		st.summary.record("equipment", created)
	}
	return nil
}

func (s *Seeder) usersStep(st *state) func(*Fixture) error {
	return func(f *Fixture) error {
		for _, in := range f.Users {
			email := strings.ToLower(strings.TrimSpace(in.Email))
			role, err := enums.ParseRole(in.Role)
			if err != nil {
				return fmt.Errorf("user %q: %w", email, err)
			}
			perms, err := enums.ParsePermissions(in.Permissions)
			if err != nil {
				return fmt.Errorf("user %q: %w", email, err)
			}
			values := make(dbtypes.StringArray, 0, len(perms))
			for _, p := range perms {
				values = append(values, string(p))
			}
			row := models.User{
				Email:       email,
				FirstName:   in.FirstName,
				LastName:    in.LastName,
				Role:        role,
				Permissions: values,
			}
			if in.Password != "" {
				hash, err := security.HashPassword(in.Password, s.passwords)
				if err != nil {
					return fmt.Errorf("user %q password: %w", email, err)
				}
				row.PasswordHash = &hash
			}
			created, err := ensure(st.tx, &row, "lower(email) = ?", email)
			if err != nil {
				return fmt.Errorf("user %q: %w", email, err)
			}
			st.summary.record("users", created)
			st.users[email] = row.ID
		}
		return nil
	}
}

func (st *state) clientRows(f *Fixture) error {
	for _, in := range f.Clients {
		status := enums.ClientStatusActive
		if in.Status != "" {
			var err error
			if status, err = enums.ParseClientStatus(in.Status); err != nil {
				return fmt.Errorf("client %q: %w", in.Ref, err)
			}
		}
		row := models.Client{
			FirstName:      in.FirstName,
			LastName:       in.LastName,
			IDNumber:       in.IDNumber,
			Address:        in.Address,
			ContactNumbers: stringArray(in.ContactNumbers),
			WhatsApp:       dbtypes.StringArray{},
			Emails:         stringArray(in.Emails),
			Status:         status,
		}
		created, err := ensure(st.tx, &row, "id_number = ?", in.IDNumber)
		if err != nil {
			return fmt.Errorf("client %q: %w", in.Ref, err)
		}
		st.summary.record("clients", created)
		st.clients[in.Ref] = row.ID

		for _, name := range in.Syndicates {
			syndicate := models.Syndicate{Name: name}
			created, err := ensure(st.tx, &syndicate, "name = ?", name)
			if err != nil {
				return fmt.Errorf("syndicate %q: %w", name, err)
			}
			st.summary.record("syndicates", created)
			link := models.ClientSyndicate{ClientID: row.ID, SyndicateID: syndicate.ID}
			if _, err := ensure(st.tx, &link, "client_id = ? AND syndicate_id = ?", row.ID, syndicate.ID); err != nil {
				return fmt.Errorf("client %q syndicate %q: %w", in.Ref, name, err)
			}
		}
	}
	return nil
}

func (st *state) sites(f *Fixture) error {
	for _, in := range f.Sites {
		site := models.Site{Name: in.Name, Address: in.Address}
		created, err := ensure(st.tx, &site, "name = ?", in.Name)
		if err != nil {
			return fmt.Errorf("site %q: %w", in.Name, err)
		}
		st.summary.record("sites", created)

		for _, a := range in.Areas {
			area := models.Area{Name: a.Name, SiteID: site.ID}
			created, err := ensure(st.tx, &area, "site_id = ? AND name = ?", site.ID, a.Name)
			if err != nil {
				return fmt.Errorf("area %q: %w", a.Name, err)
			}
			st.summary.record("areas", created)

			for _, sh := range a.Shafts {
				shaft := models.Shaft{Name: sh.Name, AreaID: area.ID, ClientID: st.clients[sh.Client]}
				created, err := ensure(st.tx, &shaft, "area_id = ? AND name = ?", area.ID, sh.Name)
				if err != nil {
					return fmt.Errorf("shaft %q: %w", sh.Name, err)
				}
				st.summary.record("shafts", created)
				st.shafts[sh.Name] = shaft
			}
		}
	}
	return nil
}

func (st *state) jobs(f *Fixture) error {
	for _, in := range f.Jobs {
		jobType, err := enums.ParseJobType(in.Type)
		if err != nil {
			return fmt.Errorf("job %q: %w", in.Title, err)
		}
		priority, err := enums.ParseJobPriority(in.Priority)
		if err != nil {
			return fmt.Errorf("job %q: %w", in.Title, err)
		}
		classification, err := enums.ParseSiteClassification(in.SiteClassification)
		if err != nil {
			return fmt.Errorf("job %q: %w", in.Title, err)
		}
		status := enums.JobStatusPending
		if in.Status != "" {
			if status, err = enums.ParseJobStatus(in.Status); err != nil {
				return fmt.Errorf("job %q: %w", in.Title, err)
			}
		}
		tonnage, err := optionalDecimal(in.EstimatedTonnage)
		if err != nil {
			return fmt.Errorf("job %q tonnage: %w", in.Title, err)
		}
		shaft := st.shafts[in.Shaft]
		row := models.Job{
			Title:              in.Title,
			Description:        in.Description,
			JobType:            jobType,
			Priority:           priority,
			SiteClassification: classification,
			Status:             status,
			ShaftID:            shaft.ID,
			ClientID:           shaft.ClientID,
			Location:           optional(in.Location),
			EstimatedTonnage:   tonnage,
		}
		if row.RequesterID, err = st.userRef(in.Requester); err != nil {
			return fmt.Errorf("job %q requester: %w", in.Title, err)
		}
		if row.AssignedDriverID, err = st.userRef(in.Driver); err != nil {
			return fmt.Errorf("job %q driver: %w", in.Title, err)
		}
		created, err := ensure(st.tx, &row, "shaft_id = ? AND title = ?", shaft.ID, in.Title)
		if err != nil {
			return fmt.Errorf("job %q: %w", in.Title, err)
		}
		st.summary.record("jobs", created)
	}
	return nil
}

func (st *state) userRef(email string) (*uuid.UUID, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	id, ok := st.users[email]
	if !ok {
		return nil, fmt.Errorf("unknown user %q", email)
	}
	return &id, nil
}

func optional(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

func optionalDecimal(v string) (*decimal.Decimal, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func stringArray(values []string) dbtypes.StringArray {
	if values == nil {
		return dbtypes.StringArray{}
	}
	return dbtypes.StringArray(values)
}
