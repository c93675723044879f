package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/finzie/booking-coordinator/internal/audit"
	"github.com/finzie/booking-coordinator/internal/auth"
	"github.com/finzie/booking-coordinator/internal/config"
	"github.com/finzie/booking-coordinator/internal/domain/availability"
	"github.com/finzie/booking-coordinator/internal/handlers"
	"github.com/finzie/booking-coordinator/internal/httperr"
	"github.com/finzie/booking-coordinator/internal/infra/archive"
	"github.com/finzie/booking-coordinator/internal/infra/calendly"
	"github.com/finzie/booking-coordinator/internal/infra/lock"
	infraRepo "github.com/finzie/booking-coordinator/internal/infra/repository"
	"github.com/finzie/booking-coordinator/internal/middleware"
	"github.com/finzie/booking-coordinator/internal/notify"
	"github.com/finzie/booking-coordinator/internal/scheduler"
	ucAvailability "github.com/finzie/booking-coordinator/internal/usecase/availability"
	ucMeeting "github.com/finzie/booking-coordinator/internal/usecase/meeting"
	ucScheduling "github.com/finzie/booking-coordinator/internal/usecase/scheduling"
	ucSubmission "github.com/finzie/booking-coordinator/internal/usecase/submission"
)

// Background owns the workers started alongside the router.
type Background struct {
	audit     *audit.Dispatcher
	notifier  *notify.Dispatcher
	scheduler *scheduler.Scheduler
}

func (b *Background) Start() error {
	return b.scheduler.Start()
}

// Stop halts the cron loop, then drains the notification and audit queues.
func (b *Background) Stop() {
	b.scheduler.Stop()
	b.notifier.Close()
	b.audit.Close()
}

// RegisterRoutes wires the service. rdb may be nil, in which case locks are
// process local and notifications are only logged.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Background {

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.NoRoute(func(c *gin.Context) {
		httperr.NotFoundJSON(c, "route_not_found", "Route not found")
	})

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	submissionRepo := infraRepo.NewSubmissionGormRepository(db)
	availabilityRepo := infraRepo.NewAvailabilityGormRepository(db)
	meetingRepo := infraRepo.NewMeetingGormRepository(db)
	tx := infraRepo.NewGormTransactor(db)

	auditLogger := audit.New(db)
	auditDispatcher := audit.NewDispatcher(auditLogger)

	var (
		locker availability.Locker
		sink   notify.Sink
	)
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb)
		sink = notify.NewRedisQueue(rdb)
	} else {
		locker = lock.NewLocalLocker()
		sink = notify.LogSink{}
	}
	notifier := notify.NewDispatcher(sink)

	var archiver archive.PayloadArchiver = archive.Nop{}
	if cfg.ArchiveEnabled() {
		archiver = archive.NewS3Archiver(cfg)
	}

	calendlyClient := calendly.NewClient(cfg)
	verifier := calendly.NewVerifier(cfg.CalendlyWebhookSecret, cfg.WebhookTolerance)

	// ======================================================
	// USE CASES
	// ======================================================
	getSubmissionUC := ucSubmission.NewGetSubmission(submissionRepo)
	setSelectedUC := ucSubmission.NewSetSelected(submissionRepo, auditDispatcher)
	completeMeetingUC := ucSubmission.NewCompleteMeeting(submissionRepo, auditDispatcher)

	setAvailabilityUC := ucAvailability.NewSetAvailability(
		submissionRepo,
		availabilityRepo,
		tx,
		locker,
		auditDispatcher,
	)
	getAvailabilityUC := ucAvailability.NewGetAvailability(submissionRepo, availabilityRepo)
	slotBooker := ucAvailability.NewSlotBooker(availabilityRepo, locker)

	createLinkUC := ucScheduling.NewCreateSchedulingLink(
		submissionRepo,
		meetingRepo,
		calendlyClient,
		tx,
		auditDispatcher,
		notifier,
	)

	reconcileUC := ucMeeting.NewReconcile(
		submissionRepo,
		meetingRepo,
		slotBooker,
		tx,
		auditDispatcher,
		notifier,
		archiver,
	)
	listMeetingsUC := ucMeeting.NewListMeetings(submissionRepo, meetingRepo)
	sweepUC := ucMeeting.NewSweepPending(meetingRepo, cfg.PendingMeetingTTL)

	// ======================================================
	// HANDLERS
	// ======================================================
	submissionHandler := handlers.NewSubmissionHandler(
		getSubmissionUC,
		setSelectedUC,
		completeMeetingUC,
		createLinkUC,
	)
	availabilityHandler := handlers.NewAvailabilityHandler(setAvailabilityUC, getAvailabilityUC)
	meetingHandler := handlers.NewMeetingHandler(listMeetingsUC)
	webhookHandler := handlers.NewWebhookHandler(verifier, reconcileUC)
	auditLogsHandler := handlers.NewAuditLogsHandler(auditLogger)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// WEBHOOKS (signature checked in handler)
		// ------------------------------
		api.POST("/webhooks/calendly", webhookHandler.Calendly)

		// ------------------------------
		// SESSION REQUIRED
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			managers := middleware.RequireRole(auth.RoleClient, auth.RoleAdmin)

			secured.GET("/submissions/:id", submissionHandler.Get)
			secured.POST("/submissions/:id/select", managers, submissionHandler.Select)
			secured.POST("/submissions/:id/complete", managers, submissionHandler.Complete)
			secured.POST("/submissions/:id/scheduling-link", managers, submissionHandler.CreateSchedulingLink)

			freelancer := secured.Group("/freelancer")
			freelancer.Use(middleware.RequireRole(auth.RoleFreelancer))
			{
				freelancer.POST("/availability", availabilityHandler.Set)
				freelancer.GET("/availability", availabilityHandler.GetOwn)
			}

			secured.GET("/availability", managers, availabilityHandler.GetForClient)
			secured.GET("/meetings", meetingHandler.List)

			secured.GET("/admin/audit-logs", middleware.RequireRole(auth.RoleAdmin), auditLogsHandler.List)
		}
	}

	return &Background{
		audit:     auditDispatcher,
		notifier:  notifier,
		scheduler: scheduler.New(sweepUC, cfg.SweepSchedule),
	}
}
