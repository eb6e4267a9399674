package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"participium/api/internal/config"
	"participium/api/internal/middleware"
	"participium/api/internal/models"
	"participium/api/internal/repository"
	"participium/api/internal/service"
)

// HandlerSet owns the HTTP handlers and their route wiring.
type HandlerSet struct {
	cfg           *config.AppConfig
	log           zerolog.Logger
	auth          *service.AuthService
	reports       *service.ReportService
	uploads       *service.UploadService
	users         *repository.UserRepository
	sessions      *repository.SessionRepository
	notifications *repository.NotificationRepository
	pool          *pgxpool.Pool
	redis         *redis.Client
}

func New(
	cfg *config.AppConfig,
	log zerolog.Logger,
	auth *service.AuthService,
	reports *service.ReportService,
	uploads *service.UploadService,
	users *repository.UserRepository,
	sessions *repository.SessionRepository,
	notifications *repository.NotificationRepository,
	pool *pgxpool.Pool,
	redisClient *redis.Client,
) *HandlerSet {
	return &HandlerSet{
		cfg:           cfg,
		log:           log,
		auth:          auth,
		reports:       reports,
		uploads:       uploads,
		users:         users,
		sessions:      sessions,
		notifications: notifications,
		pool:          pool,
		redis:         redisClient,
	}
}

// Register mounts every route under /api. Guards are composed per group:
// authenticated, staff (MUNICIPAL_STAFF or ADMINISTRATOR), and admin.
func (h *HandlerSet) Register(router *gin.Engine) {
	router.GET("/healthz", h.Health)

	api := router.Group("/api")

	requireAuth := middleware.Auth(h.cfg, h.users, h.sessions)
	optionalAuth := middleware.OptionalAuth(h.cfg, h.users, h.sessions)
	requireStaff := middleware.RequireRoles(models.UserRoleMunicipalStaff, models.UserRoleAdministrator)

	api.POST("/signup", h.Signup)
	api.POST("/verify-email", h.VerifyEmail)
	api.POST("/verify-email/resend", h.ResendVerification)
	api.POST("/login", h.Login)
	api.POST("/refresh", h.Refresh)
	api.POST("/logout", requireAuth, h.Logout)

	api.GET("/me", requireAuth, h.Me)
	api.PATCH("/me", requireAuth, h.UpdateProfile)
	api.GET("/sessions", requireAuth, h.ListSessions)
	api.DELETE("/sessions/:deviceId", requireAuth, h.RevokeSession)

	api.GET("/reports", optionalAuth, h.ListReports)
	api.POST("/reports", requireAuth, h.CreateReport)
	api.GET("/reports/mine", requireAuth, h.ListMyReports)
	api.GET("/reports/:id", optionalAuth, h.GetReport)
	api.PATCH("/reports/:id/status", requireAuth, requireStaff, h.UpdateReportStatus)
	api.POST("/reports/:id/photos", requireAuth, h.AddReportPhotos)
	api.GET("/reports/:id/messages", requireAuth, h.ListReportMessages)
	api.POST("/reports/:id/messages", requireAuth, h.AddReportMessage)
	api.GET("/reports/:id/notes", requireAuth, requireStaff, h.ListReportNotes)
	api.POST("/reports/:id/notes", requireAuth, requireStaff, h.AddReportNote)

	api.GET("/notifications", requireAuth, h.ListNotifications)
	api.DELETE("/notifications/:id", requireAuth, h.AcknowledgeNotification)

	staff := api.Group("/staff", requireAuth, requireStaff)
	staff.GET("/reports", h.ListAllReports)

	admin := api.Group("/admin", requireAuth, middleware.RequireAdmin())
	admin.GET("/users", h.ListUsers)
	admin.POST("/users", h.CreateStaffUser)
}
