package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/tms-backend/api/middleware"
	"github.com/angelmondragon/tms-backend/api/responses"
	"github.com/angelmondragon/tms-backend/api/validators"
	"github.com/angelmondragon/tms-backend/internal/jobs"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// MountJobs registers job CRUD plus the comment and status actions. Cancel
// shares the update guard; comments and completion stay open to drivers.
func MountJobs(r chi.Router, svc *jobs.Service, logg *logger.Logger, guards WriteGuards) {
	MountResource[models.Job, jobs.CreateJobInput, jobs.UpdateJobInput](r, svc.Resource(), logg, guards)
	r.Post("/{id}/comment", JobComment(svc, logg))
	r.Post("/{id}/complete", JobComplete(svc, logg))
	guarded(r, guards.Update).Post("/{id}/cancel", JobCancel(svc, logg))
}

func JobComment(svc *jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := validators.PathUUID(r, "id", "job")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body jobs.CommentInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		comment, err := svc.AddComment(r.Context(), middleware.UserIDFromContext(r.Context()), jobID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, comment)
	}
}

func JobComplete(svc *jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return jobTransition(svc.Complete, logg)
}

func JobCancel(svc *jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return jobTransition(svc.Cancel, logg)
}

type jobTransitionFunc func(ctx context.Context, actorID, jobID uuid.UUID) (*models.Job, error)

func jobTransition(fn jobTransitionFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := validators.PathUUID(r, "id", "job")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		job, err := fn(r.Context(), middleware.UserIDFromContext(r.Context()), jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, job)
	}
}
