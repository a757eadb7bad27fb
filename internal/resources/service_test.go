package resources

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/angelmondragon/tms-backend/internal/listing"
	"github.com/angelmondragon/tms-backend/pkg/db"
	"github.com/angelmondragon/tms-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRegistry(t *testing.T) (*Registry, *gorm.DB, dbtest.Fixtures) {
	t.Helper()
	conn := dbtest.Open(t)
	fx := dbtest.Seed(t, conn)
	reg, err := NewRegistry(conn, db.NewFromConn(conn), nil)
	require.NoError(t, err)
	return reg, conn, fx
}

func strPtr(s string) *string { return &s }

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params[models.Site]{})
	require.Error(t, err)

	_, err = NewRegistry(nil, nil, nil)
	require.Error(t, err)
}

func TestClientCreateLinksSyndicatesAndLoadsShafts(t *testing.T) {
	reg, conn, fx := newRegistry(t)
	ctx := context.Background()

	syn, err := reg.Syndicates.Create(ctx, &SyndicateInput{Name: "Reef Miners"})
	require.NoError(t, err)

	in := &ClientInput{
		FirstName:    "Lerato",
		LastName:     "Dlamini",
		IDNumber:     "9001015009087",
		Address:      "4 Shaft Rd",
		Email:        []string{"lerato@client.test"},
		SyndicateIDs: []uuid.UUID{syn.ID, syn.ID},
	}
	in.Stamp(fx.Admin.ID)
	client, err := reg.Clients.Create(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, enums.ClientStatusActive, client.Status)
	require.NotNil(t, client.CreatedByID)
	assert.Equal(t, fx.Admin.ID, *client.CreatedByID)
	require.Len(t, client.Syndicates, 1)
	assert.Equal(t, "Reef Miners", client.Syndicates[0].Name)
	assert.Empty(t, client.Shafts)
	assert.Equal(t, []string{}, []string(client.WhatsApp))

	seeded, err := reg.Clients.Get(ctx, fx.Client.ID)
	require.NoError(t, err)
	require.Len(t, seeded.Shafts, 1)
	assert.Equal(t, fx.Shaft.ID, seeded.Shafts[0].ID)

	var links int64
	require.NoError(t, conn.Model(&models.ClientSyndicate{}).Where("client_id = ?", client.ID).Count(&links).Error)
	assert.Equal(t, int64(1), links)
}

func TestClientCreateWithUnknownSyndicateRollsBack(t *testing.T) {
	reg, conn, _ := newRegistry(t)

	_, err := reg.Clients.Create(context.Background(), &ClientInput{
		FirstName:    "Ghost",
		LastName:     "Member",
		IDNumber:     "1",
		Address:      "nowhere",
		SyndicateIDs: []uuid.UUID{uuid.New()},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodePersistence))

	var count int64
	require.NoError(t, conn.Model(&models.Client{}).Where("first_name = ?", "Ghost").Count(&count).Error)
	assert.Zero(t, count)
}

func TestClientUpdateReplacesSyndicates(t *testing.T) {
	reg, _, fx := newRegistry(t)
	ctx := context.Background()

	a, err := reg.Syndicates.Create(ctx, &SyndicateInput{Name: "A"})
	require.NoError(t, err)
	b, err := reg.Syndicates.Create(ctx, &SyndicateInput{Name: "B"})
	require.NoError(t, err)

	_, err = reg.Clients.Update(ctx, fx.Client.ID, &ClientPatch{SyndicateIDs: []uuid.UUID{a.ID}})
	require.NoError(t, err)

	status := enums.ClientStatusInactive
	updated, err := reg.Clients.Update(ctx, fx.Client.ID, &ClientPatch{
		LastName:     strPtr("Mokoena-Nkosi"),
		Status:       &status,
		SyndicateIDs: []uuid.UUID{b.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mokoena-Nkosi", updated.LastName)
	assert.Equal(t, enums.ClientStatusInactive, updated.Status)
	require.Len(t, updated.Syndicates, 1)
	assert.Equal(t, b.ID, updated.Syndicates[0].ID)

	untouched, err := reg.Clients.Update(ctx, fx.Client.ID, &ClientPatch{Address: strPtr("5 Reef Rd")})
	require.NoError(t, err)
	require.Len(t, untouched.Syndicates, 1)
}

func TestUpdateRejectsUnknownEnum(t *testing.T) {
	reg, _, fx := newRegistry(t)
	status := enums.ClientStatus("DORMANT")

	_, err := reg.Clients.Update(context.Background(), fx.Client.ID, &ClientPatch{Status: &status})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, map[string]string{"status": "is invalid"}, pkgerrors.As(err).Details())
}

func TestMissingRowsAreNotFound(t *testing.T) {
	reg, _, _ := newRegistry(t)
	ctx := context.Background()
	missing := uuid.New()

	_, err := reg.Sites.Get(ctx, missing)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "site not found", pkgerrors.As(err).Message())

	_, err = reg.Sites.Update(ctx, missing, &SitePatch{Name: strPtr("x")})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	err = reg.EquipmentTypes.Delete(ctx, missing)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "equipment type not found", pkgerrors.As(err).Message())
}

func TestDeleteRemovesRow(t *testing.T) {
	reg, _, _ := newRegistry(t)
	ctx := context.Background()

	syn, err := reg.Syndicates.Create(ctx, &SyndicateInput{Name: "Short lived"})
	require.NoError(t, err)
	require.NoError(t, reg.Syndicates.Delete(ctx, syn.ID))

	_, err = reg.Syndicates.Get(ctx, syn.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestDeleteReferencedRowIsPersistenceError(t *testing.T) {
	reg, _, fx := newRegistry(t)

	err := reg.Areas.Delete(context.Background(), fx.Area.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodePersistence))
}

func TestEquipmentCreateDefaultsAndDetails(t *testing.T) {
	reg, _, fx := newRegistry(t)
	ctx := context.Background()

	_, err := reg.Equipment.Create(ctx, &EquipmentInput{Category: "SPACESHIP", TypeID: fx.Type.ID})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	eq, err := reg.Equipment.Create(ctx, &EquipmentInput{
		Category:           enums.EquipmentCategoryVehicle,
		RegistrationNumber: strPtr("XYZ789GP"),
		TypeID:             fx.Type.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.EquipmentStatusAvailable, eq.Status)
	require.NotNil(t, eq.Type)
	assert.Equal(t, "Tipper Truck", eq.Type.Name)
	assert.Nil(t, eq.Telematics)

	page, err := reg.Equipment.List(ctx, listing.Params{
		Search:       "tipper",
		SearchFields: []string{"type.name"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Metadata.TotalCount)
	for _, row := range page.Data {
		require.NotNil(t, row.Type)
	}
}

func TestProcedureQuestionsOrderedAndReplaced(t *testing.T) {
	reg, _, _ := newRegistry(t)
	ctx := context.Background()

	proc, err := reg.Procedures.Create(ctx, &ProcedureInput{
		Name:        "Pre-trip inspection",
		Description: "Start of day vehicle check",
		Type:        enums.ProcedureTypeStartOfDay,
		Questions: []QuestionInput{
			{Text: "Tyres ok?", AnswerType: enums.AnswerTypeBoolean, Order: 2},
			{Text: "Odometer", AnswerType: enums.AnswerTypeText, Order: 1},
			{Text: "Fuel", AnswerType: enums.AnswerTypeChoice, Choices: json.RawMessage(`["full","half"]`), Order: 3},
		},
	})
	require.NoError(t, err)
	require.Len(t, proc.Questions, 3)
	assert.Equal(t, "Odometer", proc.Questions[0].Text)
	assert.Equal(t, "Tyres ok?", proc.Questions[1].Text)
	assert.Equal(t, enums.QuestionTypeText, proc.Questions[0].Type)

	updated, err := reg.Procedures.Update(ctx, proc.ID, &ProcedurePatch{
		Questions: []QuestionInput{{Text: "Lights ok?", AnswerType: enums.AnswerTypeBoolean, Order: 1}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Questions, 1)
	assert.Equal(t, "Lights ok?", updated.Questions[0].Text)
	assert.Equal(t, "Pre-trip inspection", updated.Name)
}

func TestExecutionStampsCallerAndLoadsDetails(t *testing.T) {
	reg, _, fx := newRegistry(t)
	ctx := context.Background()

	proc, err := reg.Procedures.Create(ctx, &ProcedureInput{Name: "End of day", Description: "Park up"})
	require.NoError(t, err)

	in := &ExecutionInput{ProcedureID: proc.ID}
	_, err = reg.Executions.Create(ctx, in)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	in.Stamp(fx.Admin.ID)
	exec, err := reg.Executions.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, fx.Admin.ID, exec.UserID)
	assert.Equal(t, enums.ExecutionStatusInProgress, exec.Status)
	assert.JSONEq(t, `{}`, string(exec.Responses))
	assert.False(t, exec.StartTime.IsZero())
	require.NotNil(t, exec.Procedure)
	assert.Equal(t, "End of day", exec.Procedure.Name)

	_, err = reg.Exceptions.Create(ctx, &ExceptionInput{ExecutionID: exec.ID, Description: "Flat tyre"})
	require.NoError(t, err)

	exec, err = reg.Executions.Get(ctx, exec.ID)
	require.NoError(t, err)
	require.Len(t, exec.Exceptions, 1)
	assert.JSONEq(t, `[]`, string(exec.Exceptions[0].Evidence))
}

func TestListUsesEntitySpec(t *testing.T) {
	reg, _, fx := newRegistry(t)
	ctx := context.Background()

	_, err := reg.Areas.Create(ctx, &AreaInput{Name: "Block B", SiteID: fx.Site.ID})
	require.NoError(t, err)

	params, err := listing.Areas.ParseQuery(url.Values{"siteId": {fx.Site.ID.String()}, "search": {"block b"}})
	require.NoError(t, err)
	page, err := reg.Areas.List(ctx, params)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Block B", page.Data[0].Name)
	require.NotNil(t, page.Data[0].Site)
	assert.Equal(t, fx.Site.ID.String(), page.Metadata.Filters["siteId"])
}
