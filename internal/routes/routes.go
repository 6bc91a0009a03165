package routes

import (
	"github.com/gin-gonic/gin"

	"metrika/internal/authz"
	"metrika/internal/handlers"
	"metrika/internal/middleware"
)

// Handlers собирает все хендлеры, которые собирает app.Run.
type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Project      *handlers.ProjectHandler
	Task         *handlers.TaskHandler
	Sprint       *handlers.SprintHandler
	Document     *handlers.DocumentHandler
	Analysis     *handlers.AnalysisHandler
	Gamification *handlers.GamificationHandler
	Notification *handlers.NotificationHandler
	KPI          *handlers.KPIHandler
	Calendar     *handlers.CalendarHandler
	Settings     *handlers.SettingsHandler
	Help         *handlers.HelpHandler
	Dashboard    *handlers.DashboardHandler
	WS           *handlers.WSHandler
}

func SetupRoutes(r *gin.Engine, h Handlers) *gin.Engine {
	// ---- public
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/register", h.Auth.Register)
		auth.POST("/refresh", h.Auth.Refresh)
	}
	r.GET("/shared-analysis/:token", h.Analysis.Shared)
	r.GET("/ws", h.WS.Serve) // токен в query, проверяет сам хендлер

	// ---- protected
	api := r.Group("/", middleware.AuthMiddleware())

	api.POST("/auth/logout", h.Auth.Logout)

	// USERS
	users := api.Group("/users")
	{
		users.GET("/me", h.User.Me)
		users.PATCH("/me", h.User.UpdateMe)
		users.GET("/:id", h.User.GetByID)
		users.GET("/:id/stats", h.User.Stats)
		users.GET("/:id/tasks", h.User.Tasks)
		users.GET("/:id/projects", h.User.Projects)
		users.GET("/:id/badges", h.User.Badges)
		users.GET("/:id/skills", h.User.Skills)
		users.GET("/:id/activity", h.User.Activity)
		users.POST("/:id/praise", h.User.Praise)
		users.POST("/:id/assign-task", h.User.AssignTask)
	}

	// TEAM
	team := api.Group("/team")
	{
		team.GET("/members", h.User.Members)
		team.GET("/departments", h.User.Departments)
		team.POST("/members", middleware.RequireRoles(authz.RoleAdmin), h.User.Invite)
	}

	// PROJECTS
	projects := api.Group("/projects")
	{
		projects.GET("", h.Project.List)
		projects.POST("", h.Project.Create)
		projects.GET("/stats", h.Project.Stats)
		projects.GET("/:id", h.Project.GetByID)
		projects.PATCH("/:id", h.Project.Update)
		projects.DELETE("/:id", middleware.RequireRoles(authz.RoleAdmin, authz.RoleProjectManager), h.Project.Delete)
		projects.GET("/:id/timeline", h.Project.Timeline)
		projects.GET("/:id/tasks", h.Project.Tasks)
		projects.PATCH("/:id/tasks/reorder", h.Task.Reorder)
		projects.GET("/:id/members", h.Project.Members)
		projects.POST("/:id/members", h.Project.AddMember)
		projects.DELETE("/:id/members/:userId", h.Project.RemoveMember)
		projects.GET("/:id/documents", h.Project.Documents)
		projects.GET("/:id/kpis", h.Project.KPIs)
		projects.POST("/:id/kpis", h.Project.AddKPI)
		projects.GET("/:id/sprints", h.Sprint.ListByProject)
		projects.POST("/:id/sprints", h.Sprint.Create)
		projects.GET("/:id/current-sprint", h.Sprint.Current)
		projects.GET("/:id/report", h.Project.Report)
	}

	// TASKS
	tasks := api.Group("/tasks")
	{
		tasks.GET("", h.Task.List)
		tasks.POST("", h.Task.Create)
		tasks.POST("/bulk", h.Task.Bulk)
		tasks.GET("/stats/by-status", h.Task.StatsByStatus)
		tasks.GET("/:id", h.Task.GetByID)
		tasks.PATCH("/:id", h.Task.Update)
		tasks.DELETE("/:id", h.Task.Delete)
		tasks.PATCH("/:id/status", h.Task.UpdateStatus)
		tasks.GET("/:id/comments", h.Task.ListComments)
		tasks.POST("/:id/comments", h.Task.AddComment)
		tasks.GET("/:id/time-logs", h.Task.ListTimeLogs)
		tasks.POST("/:id/time-logs", h.Task.LogTime)
		tasks.GET("/:id/activity", h.Task.Activity)
		tasks.POST("/:id/attachments", h.Task.AddAttachment)
		tasks.POST("/:id/projects", h.Task.LinkProject)
		tasks.DELETE("/:id/projects/:projectId", h.Task.UnlinkProject)
	}

	// SPRINTS
	sprints := api.Group("/sprints")
	{
		sprints.GET("/:id", h.Sprint.Details)
		sprints.PATCH("/:id", h.Sprint.Update)
		sprints.PATCH("/:id/start", h.Sprint.Start)
		sprints.PATCH("/:id/complete", h.Sprint.Complete)
	}

	// DOCUMENTS
	docs := api.Group("/documents")
	{
		docs.GET("", h.Document.ListDocuments)
		docs.POST("/upload", h.Document.Upload)
		docs.GET("/:id", h.Document.GetDocument)
		docs.PATCH("/:id", h.Document.UpdateDocument)
		docs.DELETE("/:id", h.Document.DeleteDocument)
		docs.POST("/:id/analyze", h.Document.Analyze)
		docs.GET("/:id/analysis", h.Document.LatestAnalysis)
	}

	// ANALYSES
	analyses := api.Group("/analyses")
	{
		analyses.GET("", h.Analysis.List)
		analyses.GET("/:id", h.Analysis.GetByID)
		analyses.PATCH("/:id/save", h.Analysis.Save)
		analyses.POST("/:id/share", h.Analysis.Share)
		analyses.POST("/:id/generate-link", h.Analysis.GenerateLink)
		analyses.PATCH("/:id/actions/:actionId/mark-as-task", h.Analysis.MarkAsTask)
	}

	// GAMIFICATION
	gam := api.Group("/gamification")
	{
		gam.GET("/profile", h.Gamification.Profile)
		gam.GET("/leaderboard", h.Gamification.Leaderboard)
		gam.GET("/badges", h.Gamification.Badges)
		gam.GET("/achievements", h.Gamification.Achievements)
		gam.POST("/achievements/:id/unlock", h.Gamification.Unlock)
		gam.POST("/users/:id/xp-adjust", middleware.RequireRoles(authz.RoleAdmin), h.Gamification.AdjustXP)
	}

	// NOTIFICATIONS
	notif := api.Group("/notifications")
	{
		notif.GET("", h.Notification.List)
		notif.GET("/unread-count", h.Notification.UnreadCount)
		notif.PATCH("/read-all", h.Notification.MarkAllRead)
		notif.PATCH("/:id/read", h.Notification.MarkRead)
	}

	// KPI
	kpi := api.Group("/kpi")
	{
		kpi.GET("/goals", h.KPI.ListGoals)
		kpi.POST("/goals", h.KPI.CreateGoal)
		kpi.PATCH("/goals/:id", h.KPI.UpdateGoal)
		kpi.DELETE("/goals/:id", middleware.RequireRoles(authz.RoleAdmin, authz.RoleProjectManager), h.KPI.DeleteGoal)
		kpi.GET("/dashboard", h.KPI.Dashboard)
		kpi.GET("/project-performance", h.KPI.ProjectPerformance)
		kpi.GET("/completion-stats", h.KPI.CompletionStats)
		kpi.GET("/issues", h.KPI.Issues)
		kpi.GET("/team-performance", h.KPI.TeamPerformance)
		kpi.GET("/:id", h.KPI.GetGoal)
		kpi.POST("/:id/record", h.KPI.Record)
		kpi.GET("/:id/history", h.KPI.History)
	}

	// CALENDAR
	cal := api.Group("/calendar/events")
	{
		cal.GET("", h.Calendar.Month)
		cal.POST("", h.Calendar.Create)
		cal.GET("/:id", h.Calendar.GetByID)
		cal.PATCH("/:id", h.Calendar.Update)
		cal.DELETE("/:id", h.Calendar.Delete)
		cal.PATCH("/:id/respond", h.Calendar.Respond)
	}

	// SETTINGS
	settings := api.Group("/settings")
	{
		settings.GET("/notifications", h.Settings.Notifications)
		settings.PATCH("/notifications", h.Settings.UpdateNotifications)
		settings.GET("/preferences", h.Settings.Preferences)
		settings.PATCH("/preferences", h.Settings.UpdatePreferences)
	}

	// HELP
	help := api.Group("/help")
	{
		help.GET("/articles", h.Help.Articles)
		help.GET("/search", h.Help.Search)
		help.GET("/faq", h.Help.FAQ)
		help.POST("/support-ticket", h.Help.CreateTicket)
	}

	// DASHBOARD + SEARCH
	dash := api.Group("/dashboard")
	{
		dash.GET("/stats", h.Dashboard.Stats)
		dash.GET("/active-projects", h.Dashboard.ActiveProjects)
		dash.GET("/upcoming-tasks", h.Dashboard.UpcomingTasks)
		dash.GET("/kpi-summary", h.Dashboard.KPISummary)
		dash.GET("/risk-alerts", h.Dashboard.RiskAlerts)
	}
	api.GET("/search", h.Dashboard.Search)

	return r
}
