package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
)

type stopInput struct {
	SiteID string `json:"siteId" validate:"required,uuid"`
}

type jobInput struct {
	Title    string      `json:"title" validate:"required,min=3"`
	Email    string      `json:"contactEmail" validate:"omitempty,email"`
	Quantity int         `json:"quantity" validate:"min=0"`
	Stops    []stopInput `json:"stops" validate:"required,dive"`
}

func decode(t *testing.T, body string) (jobInput, *pkgerrors.Error) {
	t.Helper()
	var dest jobInput
	req := httptest.NewRequest(http.MethodPost, "/job", strings.NewReader(body))
	return dest, pkgerrors.As(DecodeJSONBody(req, &dest))
}

func TestDecodeJSONBodyAcceptsValidInput(t *testing.T) {
	siteID := uuid.NewString()
	got, err := decode(t, `{"title":"Haul ore","quantity":4,"stops":[{"siteId":"`+siteID+`"}]}`)
	require.Nil(t, err)
	assert.Equal(t, "Haul ore", got.Title)
	assert.Equal(t, siteID, got.Stops[0].SiteID)
}

func TestDecodeJSONBodyFieldErrors(t *testing.T) {
	_, err := decode(t, `{"title":"ab","contactEmail":"nope","quantity":-1,"stops":[{"siteId":"x"}]}`)
	require.NotNil(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, err.Code())
	assert.Equal(t, map[string]string{
		"title":           "must be at least 3",
		"contactEmail":    "must be a valid email",
		"quantity":        "must be at least 0",
		"stops[0].siteId": "must be a UUID",
	}, err.Details())
}

func TestDecodeJSONBodyRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"empty":         ``,
		"syntax":        `{"title":`,
		"unknown field": `{"title":"Haul ore","driver":"x","stops":[]}`,
		"wrong type":    `{"title":7}`,
		"trailing":      `{"title":"Haul ore","stops":[]} {}`,
		"too large":     `{"title":"` + strings.Repeat("a", maxBodyBytes) + `"}`,
	}
	for name, body := range cases {
		_, err := decode(t, body)
		if assert.NotNil(t, err, name) {
			assert.Equal(t, pkgerrors.CodeValidation, err.Code(), name)
		}
	}
}

func TestPathUUID(t *testing.T) {
	id := uuid.New()
	withParam := func(v string) *http.Request {
		rc := chi.NewRouteContext()
		rc.URLParams.Add("id", v)
		req := httptest.NewRequest(http.MethodGet, "/plan/"+v, nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	}

	got, err := PathUUID(withParam(id.String()), "id", "plan")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = PathUUID(withParam("42"), "id", "plan")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
