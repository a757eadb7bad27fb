package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/tms-backend/api/controllers"
	"github.com/angelmondragon/tms-backend/api/middleware"
	"github.com/angelmondragon/tms-backend/internal/auth"
	"github.com/angelmondragon/tms-backend/internal/jobs"
	"github.com/angelmondragon/tms-backend/internal/plans"
	"github.com/angelmondragon/tms-backend/internal/resources"
	"github.com/angelmondragon/tms-backend/internal/users"
	"github.com/angelmondragon/tms-backend/pkg/auth/session"
	"github.com/angelmondragon/tms-backend/pkg/config"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/angelmondragon/tms-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/tms-backend/pkg/redis"
)

// Store backs idempotency, sign-in throttling and the readiness probe.
type Store interface {
	pkgredis.IdempotencyStore
	Throttle(ctx context.Context, scope, subject string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	store Store,
	sessions session.AccessSessionChecker,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	authService *auth.Service,
	planService plans.Service,
	jobService *jobs.Service,
	registry *resources.Registry,
	userService *users.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Tracing(cfg.Service.Kind),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.CORS),
	)

	limits := cfg.AuthRateLimit
	throttleLogin := middleware.Throttle(middleware.ThrottleRule{
		Scope:    "login",
		Window:   limits.LoginWindow,
		PerIP:    limits.LoginIPLimit,
		PerEmail: limits.LoginEmailLimit,
	}, store, logg)
	throttleCodes := middleware.Throttle(middleware.ThrottleRule{
		Scope:    "request_code",
		Window:   limits.CodeRequestWindow,
		PerIP:    limits.CodeRequestIPMax,
		PerEmail: limits.CodeRequestLimit,
	}, store, logg)

	authenticate := middleware.Auth(cfg.JWT, sessions, logg)
	idem := middleware.Idempotency(store, cfg.Dispatch.IdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbP,
			"redis":    store,
		}))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.With(throttleCodes).Post("/request-code", controllers.AuthRequestCode(authService, logg))
		r.With(throttleLogin).Post("/verify-code", controllers.AuthVerifyCode(authService, logg))
		r.With(throttleLogin).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(authenticate).Post("/logout", controllers.AuthLogout(authService, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Route("/plan", func(r chi.Router) {
			view := middleware.RequirePermissions(logg, enums.PermissionViewAssignments)
			plan := middleware.RequirePermissions(logg, enums.PermissionCreateAssignment)
			publish := middleware.RequirePermissions(logg, enums.PermissionUpdateAssignment)

			r.With(view).Get("/", controllers.PlanList(planService, logg))
			r.With(plan, idem).Post("/", controllers.PlanCreate(planService, logg))
			r.With(view).Get("/date/{date}", controllers.PlansByDate(planService, logg))
			r.With(view).Get("/{id}", controllers.PlanGet(planService, logg))
			r.With(plan, idem).Post("/{id}/assignments", controllers.PlanAddAssignments(planService, logg))
			r.With(publish, idem).Post("/{id}/publish", controllers.PlanPublish(planService, logg))
		})

		r.Route("/job", func(r chi.Router) {
			controllers.MountJobs(r, jobService, logg, controllers.WriteGuards{
				Create: middleware.RequirePermissions(logg, enums.PermissionCreateJob),
				Update: middleware.RequirePermissions(logg, enums.PermissionUpdateJob),
				Delete: middleware.RequirePermissions(logg, enums.PermissionDeleteJob),
			})
		})

		r.Route("/client", func(r chi.Router) {
			controllers.MountResource[models.Client, resources.ClientInput, resources.ClientPatch](r, registry.Clients, logg)
		})
		r.Route("/syndicate", func(r chi.Router) {
			controllers.MountResource[models.Syndicate, resources.SyndicateInput, resources.SyndicatePatch](r, registry.Syndicates, logg)
		})
		r.Route("/site", func(r chi.Router) {
			controllers.MountResource[models.Site, resources.SiteInput, resources.SitePatch](r, registry.Sites, logg)
		})
		r.Route("/area", func(r chi.Router) {
			controllers.MountResource[models.Area, resources.AreaInput, resources.AreaPatch](r, registry.Areas, logg)
		})
		r.Route("/shaft", func(r chi.Router) {
			controllers.MountResource[models.Shaft, resources.ShaftInput, resources.ShaftPatch](r, registry.Shafts, logg)
		})
		r.Route("/equipment", func(r chi.Router) {
			r.Route("/type", func(r chi.Router) {
				controllers.MountResource[models.EquipmentType, resources.EquipmentTypeInput, resources.EquipmentTypePatch](r, registry.EquipmentTypes, logg)
			})
			controllers.MountResource[models.Equipment, resources.EquipmentInput, resources.EquipmentPatch](r, registry.Equipment, logg)
		})
		r.Route("/procedure", func(r chi.Router) {
			controllers.MountResource[models.Procedure, resources.ProcedureInput, resources.ProcedurePatch](r, registry.Procedures, logg,
				controllers.AllWrites(middleware.RequireRoles(logg, enums.RoleAdministrator)))
		})
		r.Route("/execution", func(r chi.Router) {
			controllers.MountResource[models.Execution, resources.ExecutionInput, resources.ExecutionPatch](r, registry.Executions, logg)
		})
		r.Route("/exception", func(r chi.Router) {
			controllers.MountResource[models.Exception, resources.ExceptionInput, resources.ExceptionPatch](r, registry.Exceptions, logg)
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.RoleAdministrator))
			controllers.MountResource[models.User, users.CreateUserInput, users.UpdateUserInput](r, userService, logg)
		})
	})

	return r
}
