package controllers

import (
	"net/http"

	"github.com/angelmondragon/tms-backend/api/middleware"
	"github.com/angelmondragon/tms-backend/api/responses"
	"github.com/angelmondragon/tms-backend/api/validators"
	"github.com/angelmondragon/tms-backend/internal/listing"
	"github.com/angelmondragon/tms-backend/internal/plans"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type createPlanRequest struct {
	Date string `json:"date" validate:"required"`
}

type planAssignmentItem struct {
	EquipmentID uuid.UUID `json:"equipmentId" validate:"required"`
	JobID       uuid.UUID `json:"jobId" validate:"required"`
	Order       int       `json:"order" validate:"min=0"`
}

type addAssignmentsRequest struct {
	Assignments []planAssignmentItem `json:"assignments" validate:"dive"`
}

// PlanCreate opens a DRAFT plan for the given date.
func PlanCreate(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createPlanRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.CreatePlan(r.Context(), middleware.UserIDFromContext(r.Context()), body.Date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, plan)
	}
}

// PlanAddAssignments inserts the whole batch or nothing.
func PlanAddAssignments(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID, err := validators.PathUUID(r, "id", "plan")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body addAssignmentsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var items []plans.AssignmentInput
		if body.Assignments != nil {
			items = make([]plans.AssignmentInput, 0, len(body.Assignments))
			for _, a := range body.Assignments {
				items = append(items, plans.AssignmentInput{EquipmentID: a.EquipmentID, JobID: a.JobID, Order: a.Order})
			}
		}

		rows, err := svc.AddAssignments(r.Context(), middleware.UserIDFromContext(r.Context()), planID, items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func PlanPublish(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID, err := validators.PathUUID(r, "id", "plan")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.PublishPlan(r.Context(), middleware.UserIDFromContext(r.Context()), planID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

func PlansByDate(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.PlansForDate(r.Context(), chi.URLParam(r, "date"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func PlanList(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := listing.Plans.ParseQuery(r.URL.Query())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListPlans(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func PlanGet(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID, err := validators.PathUUID(r, "id", "plan")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.GetPlan(r.Context(), planID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}
