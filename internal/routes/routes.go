package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/expofest/engage_backend/internal/config"
	"github.com/expofest/engage_backend/internal/controllers"
	"github.com/expofest/engage_backend/internal/engage"
	"github.com/expofest/engage_backend/internal/middleware"
	"github.com/expofest/engage_backend/internal/models"
	"github.com/expofest/engage_backend/internal/qrtoken"
	"github.com/expofest/engage_backend/internal/ws"
)

func Register(r *gin.Engine, db *gorm.DB, cfg *config.Config, log *zap.Logger, hub *ws.ScanHub) {
	expiresMins, err := time.ParseDuration(cfg.JWTExpiresIn + "m")
	if err != nil || expiresMins == 0 {
		expiresMins = 60 * time.Minute
	}

	codec := qrtoken.NewCodec(cfg.QRTokenSecret)
	engageSvc := engage.NewService(db, codec, log, hub)

	authCtrl := &controllers.AuthController{DB: db, JWTSecret: cfg.JWTSecret, ExpiresIn: expiresMins, Codec: codec}
	adminCtrl := &controllers.AdminController{DB: db}
	scanCtrl := &controllers.ScanController{Engage: engageSvc, Log: log}
	engagementCtrl := &controllers.EngagementController{DB: db, Engage: engageSvc, Log: log}
	eventCtrl := &controllers.EventController{DB: db, Engage: engageSvc, Log: log}
	stallCtrl := &controllers.StallController{DB: db, Codec: codec}

	r.Use(middleware.RequestLogger(log))

	// Public
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/login", authCtrl.Login)
	}

	// Protected
	authMW := middleware.AuthMiddleware(db, middleware.AuthConfig{JWTSecret: cfg.JWTSecret})
	api := r.Group("/api/v1", authMW)
	{
		api.GET("/auth/me", authCtrl.Me)
		api.GET("/auth/qr/:event_id", authCtrl.StudentQR)

		// Gate scans are performed by volunteers; stall scans by students.
		scan := api.Group("/scan")
		{
			scan.POST("/student", middleware.RequireRoles(models.RoleVolunteer), scanCtrl.ScanStudent)
			scan.POST("/stall", middleware.RequireRoles(models.RoleStudent), scanCtrl.ScanStall)
		}

		student := api.Group("", middleware.RequireRoles(models.RoleStudent))
		{
			student.POST("/feedbacks", engagementCtrl.CreateFeedback)
			student.POST("/votes", engagementCtrl.CastVote)
			student.GET("/voting-eligibility/:event_id", engagementCtrl.GetVotingEligibility)
		}

		// Live scan feed for gate dashboards
		api.GET("/ws/scans", ws.ScanFeedHandler(hub))

		// Admin-only
		admin := api.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
		{
			admin.GET("/users", adminCtrl.ListUsers)
			admin.POST("/users", authCtrl.Register)
			admin.GET("/users/:user_id", adminCtrl.GetUser)
			admin.PUT("/users/:user_id", adminCtrl.UpdateUser)
			admin.DELETE("/users/:user_id", adminCtrl.DeleteUser)

			admin.GET("/events", eventCtrl.ListEvents)
			admin.POST("/events", eventCtrl.CreateEvent)
			admin.GET("/events/:id", eventCtrl.GetEvent)
			admin.PUT("/events/:id", eventCtrl.UpdateEvent)
			admin.DELETE("/events/:id", eventCtrl.DeleteEvent)
			admin.POST("/events/:id/end", eventCtrl.EndEvent)

			admin.GET("/stalls", stallCtrl.ListStalls)
			admin.POST("/stalls", stallCtrl.CreateStall)
			admin.GET("/stalls/:id", stallCtrl.GetStall)
			admin.PUT("/stalls/:id", stallCtrl.UpdateStall)
			admin.DELETE("/stalls/:id", stallCtrl.DeleteStall)
			admin.GET("/stalls/:id/qr", stallCtrl.StallQR)
		}
	}
}
