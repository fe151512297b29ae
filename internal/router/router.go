package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/oaib/exam-backend/internal/config"
	"github.com/oaib/exam-backend/internal/handler"
	"github.com/oaib/exam-backend/internal/metrics"
	"github.com/oaib/exam-backend/internal/middleware"
	"github.com/oaib/exam-backend/internal/model"
	"github.com/oaib/exam-backend/internal/response"
	"github.com/oaib/exam-backend/internal/service"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Edition      *handler.EditionHandler
	Question     *handler.QuestionHandler
	Transfer     *handler.TransferHandler
	Exam         *handler.ExamHandler
	Session      *handler.SessionHandler
	Notification *handler.NotificationHandler
	Dashboard    *handler.DashboardHandler
	Monitor      *handler.MonitorHandler
	WS           *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// Restrict to AllowedOrigins when set, otherwise allow all for dev.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	if cfg.MetricsEnabled {
		router.Use(metrics.Middleware())
	}
	router.Use(middleware.Brotli())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.MetricsEnabled {
		router.GET("/metrics", metrics.Handler())
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	publicAPI.Use(middleware.CacheControl(60))
	{
		publicAPI.GET("/editions", handlers.Edition.ListEditions)
		publicAPI.GET("/editions/active", handlers.Edition.GetActiveEdition)
		publicAPI.GET("/phases", handlers.Edition.ListPhases)
	}

	// ─── 1. Candidate Group (JWT + Rate Limit) ─────────────────────────
	candidateAPI := router.Group("/api/v1/candidate")
	candidateAPI.Use(
		middleware.RequireCandidateJWT(authService),
		limiter.Middleware(),
		middleware.NoStore(),
	)
	{
		candidateAPI.GET("/exams", handlers.Exam.ListCandidateExams)
		candidateAPI.GET("/exams/:exam_id", handlers.Exam.GetExamSummary)
		candidateAPI.POST("/exams/:exam_id/start", handlers.Session.StartExam)

		candidateAPI.GET("/sessions", handlers.Session.ListMySessions)
		candidateAPI.GET("/sessions/:id/paper", handlers.Session.GetPaper)
		candidateAPI.POST("/sessions/:id/answers", handlers.Session.SubmitAnswer)
		candidateAPI.POST("/sessions/:id/finish", handlers.Session.FinishSession)
		candidateAPI.POST("/sessions/:id/tab-switch", handlers.Session.RecordTabSwitch)

		candidateAPI.GET("/notifications", handlers.Notification.ListNotifications)
		candidateAPI.POST("/notifications/:id/read", handlers.Notification.MarkRead)
	}

	// ─── 2. WebSocket Group (Candidate WS Auth) ────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireCandidateWSAuth(authService))
	{
		ws.GET("/candidate/sessions/:id/stream", handlers.WS.SessionStream)
	}

	// ─── 3. Admin Group (JWT + RBAC) ───────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService), middleware.NoStore())
	{
		// Editions and phases
		adminAPI.POST("/editions",
			middleware.RequirePermission(model.PermissionEditionsWrite),
			handlers.Edition.CreateEdition,
		)
		adminAPI.POST("/editions/:id/activate",
			middleware.RequirePermission(model.PermissionEditionsWrite),
			handlers.Edition.ActivateEdition,
		)
		adminAPI.POST("/phases",
			middleware.RequirePermission(model.PermissionEditionsWrite),
			handlers.Edition.CreatePhase,
		)

		// Categories
		adminAPI.GET("/categories",
			middleware.RequireAnyPermission(model.PermissionQuestionsRead, model.PermissionQuestionsWrite),
			handlers.Question.ListCategories,
		)
		adminAPI.POST("/categories",
			middleware.RequirePermission(model.PermissionQuestionsWrite),
			handlers.Question.CreateCategory,
		)
		adminAPI.DELETE("/categories/:id",
			middleware.RequirePermission(model.PermissionQuestionsWrite),
			handlers.Question.DeleteCategory,
		)

		// Question bank
		adminAPI.GET("/questions",
			middleware.RequirePermission(model.PermissionQuestionsRead),
			handlers.Question.ListQuestions,
		)
		adminAPI.POST("/questions/import",
			middleware.RequirePermission(model.PermissionQuestionsTransfer),
			limiter.Middleware(),
			handlers.Transfer.ImportQuestions,
		)
		adminAPI.GET("/questions/export",
			middleware.RequirePermission(model.PermissionQuestionsTransfer),
			handlers.Transfer.ExportQuestions,
		)
		adminAPI.GET("/questions/:id",
			middleware.RequirePermission(model.PermissionQuestionsRead),
			handlers.Question.GetQuestion,
		)
		adminAPI.POST("/questions",
			middleware.RequirePermission(model.PermissionQuestionsWrite),
			handlers.Question.CreateQuestion,
		)
		adminAPI.PUT("/questions/:id",
			middleware.RequirePermission(model.PermissionQuestionsWrite),
			handlers.Question.UpdateQuestion,
		)
		adminAPI.DELETE("/questions/:id",
			middleware.RequirePermission(model.PermissionQuestionsWrite),
			handlers.Question.DeleteQuestion,
		)

		// Exam management
		adminAPI.GET("/exams",
			middleware.RequirePermission(model.PermissionExamsRead),
			handlers.Exam.ListExams,
		)
		adminAPI.POST("/exams",
			middleware.RequirePermission(model.PermissionExamsWrite),
			handlers.Exam.CreateExam,
		)
		adminAPI.GET("/exams/:id",
			middleware.RequirePermission(model.PermissionExamsRead),
			handlers.Exam.GetExam,
		)
		adminAPI.PATCH("/exams/:id",
			middleware.RequirePermission(model.PermissionExamsWrite),
			handlers.Exam.UpdateExam,
		)
		adminAPI.PUT("/exams/:id/questions",
			middleware.RequirePermission(model.PermissionExamsWrite),
			handlers.Exam.SetExamQuestions,
		)
		adminAPI.POST("/exams/:id/sessions",
			middleware.RequirePermission(model.PermissionSessionsWrite),
			handlers.Exam.RegisterCandidate,
		)
		adminAPI.GET("/exams/:id/statistics",
			middleware.RequirePermission(model.PermissionSessionsRead),
			handlers.Exam.GetExamStatistics,
		)

		// Sessions and overview
		adminAPI.GET("/sessions",
			middleware.RequirePermission(model.PermissionSessionsRead),
			handlers.Session.ListSessions,
		)
		adminAPI.GET("/dashboard",
			middleware.RequireAnyPermission(model.PermissionExamsRead, model.PermissionSessionsRead),
			handlers.Dashboard.GetDashboard,
		)
	}

	// ─── 4. Admin Stream Group (EventSource may pass ?token=) ──────────
	adminStream := router.Group("/api/v1/admin")
	adminStream.Use(middleware.RequireAdminStreamAuth(authService))
	{
		adminStream.GET("/exams/:id/monitor",
			middleware.RequirePermission(model.PermissionSessionsRead),
			handlers.Monitor.MonitorExamSSE,
		)
	}

	return router
}
