package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"testing"
	"time"

	"github.com/angelmondragon/tms-backend/pkg/db/dbtest"
	dbtypes "github.com/angelmondragon/tms-backend/pkg/db/types"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedJobs(t *testing.T, n int) (*gorm.DB, dbtest.Fixtures, []models.Job) {
	t.Helper()
	conn := dbtest.Open(t)
	fx := dbtest.Seed(t, conn)
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	jobs := make([]models.Job, 0, n)
	for i := 1; i <= n; i++ {
		jobs = append(jobs, fx.Job(t, conn, fmt.Sprintf("Job %02d", i), enums.JobPriorityMedium, base.Add(time.Duration(i)*time.Minute)))
	}
	return conn, fx, jobs
}

func TestFindPaginatesNewestFirst(t *testing.T) {
	conn, _, jobs := seedJobs(t, 12)

	params, err := Jobs.ParseQuery(url.Values{"page": {"2"}, "limit": {"5"}})
	require.NoError(t, err)

	page, err := Find[models.Job](context.Background(), conn, Jobs, params, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(12), page.Metadata.TotalCount)
	assert.Equal(t, 3, page.Metadata.TotalPages)
	assert.Equal(t, 2, page.Metadata.CurrentPage)
	require.Len(t, page.Data, 5)
	// newest first: jobs[11] .. jobs[7] are page one, jobs[6] .. jobs[2] page two
	for i, job := range page.Data {
		assert.Equal(t, jobs[6-i].ID, job.ID)
	}
}

func TestFindBreaksOrderTiesByID(t *testing.T) {
	conn := dbtest.Open(t)
	fx := dbtest.Seed(t, conn)
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		plan := models.DailyPlan{Date: date, Status: enums.PlanStatusDraft, CreatedByID: fx.Admin.ID}
		require.NoError(t, conn.Create(&plan).Error)
		ids = append(ids, plan.ID.String())
	}
	slices.Sort(ids)
	slices.Reverse(ids)

	seen := make([]string, 0, len(ids))
	for page := 1; page <= len(ids); page++ {
		params, err := Plans.ParseQuery(url.Values{"page": {fmt.Sprint(page)}, "limit": {"1"}})
		require.NoError(t, err)
		got, err := Find[models.DailyPlan](context.Background(), conn, Plans, params, nil)
		require.NoError(t, err)
		require.Len(t, got.Data, 1)
		seen = append(seen, got.Data[0].ID.String())
	}
	assert.Equal(t, ids, seen)
}

func TestFindEchoesDefaultSearchFields(t *testing.T) {
	conn, _, _ := seedJobs(t, 1)

	params, err := Jobs.ParseQuery(url.Values{})
	require.NoError(t, err)
	page, err := Find[models.Job](context.Background(), conn, Jobs, params, nil)
	require.NoError(t, err)
	assert.Empty(t, page.Metadata.Search)
	assert.Equal(t, []string{"title", "description", "location"}, page.Metadata.SearchFields)
}

func TestFindPastLastPageIsEmpty(t *testing.T) {
	conn, _, _ := seedJobs(t, 3)

	params, err := Jobs.ParseQuery(url.Values{"page": {"4"}, "limit": {"2"}})
	require.NoError(t, err)

	page, err := Find[models.Job](context.Background(), conn, Jobs, params, nil)
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.NotNil(t, page.Data)
	assert.Equal(t, 2, page.Metadata.TotalPages)
}

func TestParseQueryMalformedPaginationFallsBack(t *testing.T) {
	params, err := Jobs.ParseQuery(url.Values{"page": {"abc"}, "limit": {"0"}})
	require.NoError(t, err)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 10, params.Limit)
	assert.Equal(t, []string{"title", "description", "location"}, params.SearchFields)
}

func TestParseQueryRejectsInvalidFilterValue(t *testing.T) {
	_, err := Jobs.ParseQuery(url.Values{"assignedDriverId": {"not-a-uuid"}})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = Jobs.ParseQuery(url.Values{"status": {"SLEEPING"}})
	require.Error(t, err)
}

func TestSearchWithoutMatchesReturnsEmptyPage(t *testing.T) {
	conn, _, _ := seedJobs(t, 4)

	params, err := Jobs.ParseQuery(url.Values{"search": {"hospital"}, "searchFields": {"title,description"}})
	require.NoError(t, err)

	page, err := Find[models.Job](context.Background(), conn, Jobs, params, nil)
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, int64(0), page.Metadata.TotalCount)
	assert.Equal(t, "hospital", page.Metadata.Search)
	assert.Equal(t, []string{"title", "description"}, page.Metadata.SearchFields)
}

func TestSearchIsCaseInsensitiveSubstring(t *testing.T) {
	conn, _, jobs := seedJobs(t, 12)

	params, err := Jobs.ParseQuery(url.Values{"search": {"JOB 1"}, "searchFields": {"title"}})
	require.NoError(t, err)

	page, err := Find[models.Job](context.Background(), conn, Jobs, params, nil)
	require.NoError(t, err)

	// Job 10, Job 11, Job 12
	require.Len(t, page.Data, 3)
	assert.Equal(t, jobs[11].ID, page.Data[0].ID)
}

func TestSearchUnknownFieldMatchesNothing(t *testing.T) {
	conn, _, _ := seedJobs(t, 2)

	params, err := Jobs.ParseQuery(url.Values{"search": {"Job"}, "searchFields": {"doesNotExist"}})
	require.NoError(t, err)

	page, err := Find[models.Job](context.Background(), conn, Jobs, params, nil)
	require.NoError(t, err)
	assert.Empty(t, page.Data)

	params, err = Jobs.ParseQuery(url.Values{"search": {"Job 01"}, "searchFields": {"doesNotExist,title"}})
	require.NoError(t, err)
	page, err = Find[models.Job](context.Background(), conn, Jobs, params, nil)
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
}

func TestSearchEscapesLikeWildcards(t *testing.T) {
	conn, _, _ := seedJobs(t, 2)

	params, err := Jobs.ParseQuery(url.Values{"search": {"%"}, "searchFields": {"title"}})
	require.NoError(t, err)

	page, err := Find[models.Job](context.Background(), conn, Jobs, params, nil)
	require.NoError(t, err)
	assert.Empty(t, page.Data)
}

func TestSearchArrayFieldRequiresExactElement(t *testing.T) {
	conn := dbtest.Open(t)
	fx := dbtest.Seed(t, conn)
	other := models.Client{
		FirstName:      "Lerato",
		LastName:       "Dlamini",
		IDNumber:       "9002020001080",
		Address:        "4 Shaft Ln",
		ContactNumbers: dbtypes.StringArray{},
		WhatsApp:       dbtypes.StringArray{},
		Emails:         dbtypes.StringArray{"lerato@client.test", "ops@dlamini.test"},
		Status:         enums.ClientStatusActive,
	}
	require.NoError(t, conn.Create(&other).Error)

	params, err := Clients.ParseQuery(url.Values{"search": {"ops@dlamini.test"}, "searchFields": {"email"}})
	require.NoError(t, err)
	page, err := Find[models.Client](context.Background(), conn, Clients, params, nil)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, other.ID, page.Data[0].ID)

	params, err = Clients.ParseQuery(url.Values{"search": {"client.test"}, "searchFields": {"email"}})
	require.NoError(t, err)
	page, err = Find[models.Client](context.Background(), conn, Clients, params, nil)
	require.NoError(t, err)
	assert.Empty(t, page.Data, "partial element must not match")

	params, err = Clients.ParseQuery(url.Values{"search": {"thabo@client.test"}})
	require.NoError(t, err)
	page, err = Find[models.Client](context.Background(), conn, Clients, params, nil)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, fx.Client.ID, page.Data[0].ID)
}

func TestSearchRelatedFieldUsesReferencedRow(t *testing.T) {
	conn := dbtest.Open(t)
	fx := dbtest.Seed(t, conn)
	loader := models.EquipmentType{Name: "Front Loader"}
	require.NoError(t, conn.Create(&loader).Error)
	dbtest.Equipment(t, conn, loader.ID, "LDR001GP")

	params, err := Equipment.ParseQuery(url.Values{"search": {"tipper"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"registrationNumber", "type.name"}, params.SearchFields)

	page, err := Find[models.Equipment](context.Background(), conn, Equipment, params, func(q *gorm.DB) *gorm.DB {
		return q.Preload("Type")
	})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, fx.Equipment.ID, page.Data[0].ID)
	require.NotNil(t, page.Data[0].Type)
	assert.Equal(t, "Tipper Truck", page.Data[0].Type.Name)
}

func TestFiltersAreAndedWithSearch(t *testing.T) {
	conn, _, jobs := seedJobs(t, 3)
	require.NoError(t, conn.Model(&models.Job{}).Where("id = ?", jobs[0].ID).
		Update("priority", enums.JobPriorityHigh).Error)

	params, err := Jobs.ParseQuery(url.Values{"search": {"job"}, "priority": {"HIGH"}})
	require.NoError(t, err)

	page, err := Find[models.Job](context.Background(), conn, Jobs, params, nil)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, jobs[0].ID, page.Data[0].ID)
	assert.Equal(t, map[string]string{"priority": "HIGH"}, page.Metadata.Filters)
}

func TestMetadataJSONEchoesSuppliedKeys(t *testing.T) {
	meta := Metadata{TotalCount: 12, CurrentPage: 2, TotalPages: 3, Limit: 5}
	raw, err := json.Marshal(meta)
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalCount":12,"currentPage":2,"totalPages":3,"limit":5}`, string(raw))

	meta.SearchFields = []string{"title", "description"}
	raw, err = json.Marshal(meta)
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalCount":12,"currentPage":2,"totalPages":3,"limit":5,"searchFields":["title","description"]}`, string(raw))

	meta.Search = "truck"
	meta.SearchFields = []string{"title"}
	meta.Filters = map[string]string{"status": "PENDING"}
	raw, err = json.Marshal(meta)
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalCount":12,"currentPage":2,"totalPages":3,"limit":5,"search":"truck","searchFields":["title"],"status":"PENDING"}`, string(raw))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}
