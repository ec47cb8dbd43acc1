package routes

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BeautifulStudio01/salon-scheduler/internal/audit"
	"github.com/BeautifulStudio01/salon-scheduler/internal/config"
	"github.com/BeautifulStudio01/salon-scheduler/internal/handlers"
	infraRepo "github.com/BeautifulStudio01/salon-scheduler/internal/infra/repository"
	"github.com/BeautifulStudio01/salon-scheduler/internal/middleware"
	"github.com/BeautifulStudio01/salon-scheduler/internal/notification"
	"github.com/BeautifulStudio01/salon-scheduler/internal/scheduler"
	ucAppointment "github.com/BeautifulStudio01/salon-scheduler/internal/usecase/appointment"
	ucReassignment "github.com/BeautifulStudio01/salon-scheduler/internal/usecase/reassignment"
)

// RegisterRoutes wires repositories, use cases and handlers onto the
// engine and returns the job handler the scheduler worker should run
// with.
func RegisterRoutes(
	r *gin.Engine,
	db *gorm.DB,
	cfg *config.Config,
	sched scheduler.Scheduler,
	mailer notification.Mailer,
) scheduler.Handler {

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.CORSMiddleware())

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	appointmentRepo := infraRepo.NewAppointmentGormRepository(db)
	reassignmentRepo := infraRepo.NewReassignmentGormRepository(db)

	auditLogger := audit.New(db)
	auditDispatcher := audit.NewDispatcher(auditLogger)

	// ======================================================
	// USE CASES: APPOINTMENTS
	// ======================================================
	createAppointmentUC := ucAppointment.NewCreateAppointment(
		appointmentRepo,
		auditDispatcher,
	)

	confirmAppointmentUC := ucAppointment.NewConfirmAppointment(
		appointmentRepo,
		auditDispatcher,
	)

	startAppointmentUC := ucAppointment.NewStartAppointment(
		appointmentRepo,
		auditDispatcher,
	)

	completeAppointmentUC := ucAppointment.NewCompleteAppointment(
		appointmentRepo,
		auditDispatcher,
	)

	cancelAppointmentUC := ucAppointment.NewCancelAppointment(
		appointmentRepo,
		auditDispatcher,
		sched,
	)

	noShowUC := ucAppointment.NewMarkNoShow(
		appointmentRepo,
		auditDispatcher,
	)

	availabilityUC := ucAppointment.NewGetAvailability(appointmentRepo)

	listAppointmentsByDateUC := ucAppointment.NewListAppointmentsByDate(
		appointmentRepo,
	)

	listAppointmentsByMonthUC := ucAppointment.NewListAppointmentsByMonth(
		appointmentRepo,
	)

	// ======================================================
	// USE CASES: REASSIGNMENT ENGINE
	// ======================================================
	selector := ucReassignment.NewCandidateSelector(appointmentRepo)

	issuer := ucReassignment.NewOfferIssuer(
		appointmentRepo,
		reassignmentRepo,
		mailer,
		sched,
		auditDispatcher,
		cfg.PublicBaseURL,
	)

	resolver := ucReassignment.NewOfferResolver(
		reassignmentRepo,
		sched,
		auditDispatcher,
	)

	orchestrator := ucReassignment.NewOrchestrator(
		appointmentRepo,
		reassignmentRepo,
		selector,
		issuer,
		resolver,
		mailer,
		auditDispatcher,
	)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg)
	meHandler := handlers.NewMeHandler(db)
	studioHandler := handlers.NewStudioHandler(db)

	serviceHandler := handlers.NewServiceHandler(db)
	roomHandler := handlers.NewRoomHandler(db)
	clientHandler := handlers.NewClientHandler(db)
	workingHoursHandler := handlers.NewWorkingHoursHandler(db)

	appointmentHandler := handlers.NewAppointmentHandler(
		db,
		createAppointmentUC,
		confirmAppointmentUC,
		startAppointmentUC,
		completeAppointmentUC,
		cancelAppointmentUC,
		noShowUC,
		availabilityUC,
		listAppointmentsByDateUC,
		listAppointmentsByMonthUC,
	)

	offerHandler := handlers.NewOfferHandler(resolver)
	reassignmentHandler := handlers.NewReassignmentHandler(reassignmentRepo)
	auditLogsHandler := handlers.NewAuditLogsHandler(db)

	publicHandler := handlers.NewPublicHandler(db, createAppointmentUC, availabilityUC)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// API PÚBLICA
		// ------------------------------
		publicAPI := api.Group("/public")
		{
			publicAPI.GET("/:slug/services", publicHandler.ListServices)
			publicAPI.GET("/:slug/availability", publicHandler.AvailabilityForClient)
			publicAPI.POST("/:slug/appointments", publicHandler.CreateAppointment)
		}

		// Link de oferta enviado por e-mail. GET para el click directo,
		// POST para clientes programáticos.
		api.GET("/offers/:token", offerHandler.Resolve)
		api.POST("/offers/:token", offerHandler.Resolve)

		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// API PRIVADA
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", meHandler.GetMe)

			secured.GET("/me/studio", studioHandler.GetMeStudio)
			secured.PATCH("/me/studio", studioHandler.UpdateMeStudio)

			secured.GET("/me/clients", clientHandler.List)

			secured.GET("/me/services", serviceHandler.List)
			secured.POST("/me/services", serviceHandler.Create)
			secured.PATCH("/me/services/:id", serviceHandler.Update)

			secured.GET("/me/rooms", roomHandler.List)
			secured.POST("/me/rooms", roomHandler.Create)
			secured.PATCH("/me/rooms/:id", roomHandler.Update)

			secured.GET("/me/working-hours", workingHoursHandler.Get)
			secured.PUT("/me/working-hours", workingHoursHandler.Update)

			// ------------------------------
			// APPOINTMENTS
			// ------------------------------
			secured.POST("/me/appointments", appointmentHandler.Create)
			secured.GET("/me/appointments", appointmentHandler.ListByDate)
			secured.GET("/me/appointments/month", appointmentHandler.ListByMonth)
			secured.GET("/me/appointments/availability", appointmentHandler.Availability)
			secured.PATCH("/me/appointments/:id/confirm", appointmentHandler.Confirm)
			secured.PATCH("/me/appointments/:id/start", appointmentHandler.Start)
			secured.PATCH("/me/appointments/:id/cancel", appointmentHandler.Cancel)
			secured.PATCH("/me/appointments/:id/complete", appointmentHandler.Complete)
			secured.PATCH("/me/appointments/:id/no-show", appointmentHandler.NoShow)

			secured.GET("/me/reassignments", reassignmentHandler.List)
			secured.GET("/me/audit-logs", auditLogsHandler.List)
		}
	}

	// ======================================================
	// JOB HANDLER (scheduler worker)
	// ======================================================
	return func(ctx context.Context, job scheduler.Job) {
		switch job.Kind {
		case scheduler.JobReassign:
			if _, err := orchestrator.OnAppointmentCancelled(ctx, job.AppointmentID); err != nil {
				log.Println("reassignment job failed:", err)
			}
		case scheduler.JobExpire:
			if err := resolver.Expire(ctx, job.LogID); err != nil {
				log.Println("expire job failed:", err)
			}
		default:
			log.Println("unknown job kind:", job.Kind)
		}
	}
}
