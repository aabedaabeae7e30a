package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"asteritime/internal/auth"
	"asteritime/internal/service"
)

// Server holds the services behind the REST surface.
type Server struct {
	users      *service.UserService
	tasks      *service.TaskService
	categories *service.CategoryService
	rules      *service.RecurrenceRuleService
	journal    *service.JournalService
	tokens     *auth.TokenManager
	revoker    auth.Revoker
	logger     *zap.Logger
}

// Deps groups the collaborators of a Server.
type Deps struct {
	Users      *service.UserService
	Tasks      *service.TaskService
	Categories *service.CategoryService
	Rules      *service.RecurrenceRuleService
	Journal    *service.JournalService
	Tokens     *auth.TokenManager
	Revoker    auth.Revoker
	Logger     *zap.Logger
}

func NewServer(deps Deps) *Server {
	return &Server{
		users:      deps.Users,
		tasks:      deps.Tasks,
		categories: deps.Categories,
		rules:      deps.Rules,
		journal:    deps.Journal,
		tokens:     deps.Tokens,
		revoker:    deps.Revoker,
		logger:     deps.Logger,
	}
}

var registerOnce sync.Once

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	registerOnce.Do(func() {
		if err := registerValidators(); err != nil {
			s.logger.Error("register validators", zap.Error(err))
		}
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Error-Message", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(requestLogger(s.logger), observeDuration())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/api/auth")
	{
		public.POST("/register", s.register)
		public.POST("/login", s.login)
	}

	private := r.Group("/api")
	private.Use(s.authenticate())
	{
		private.POST("/auth/logout", s.logout)

		private.GET("/tasks", s.listTasks)
		private.POST("/tasks", s.createTask)
		private.GET("/tasks/:id", s.getTask)
		private.PUT("/tasks/:id", s.updateTask)
		private.DELETE("/tasks/:id", s.deleteTask)

		private.GET("/task-categories", s.listCategories)
		private.POST("/task-categories", s.createCategory)
		private.GET("/task-categories/:id", s.getCategory)
		private.DELETE("/task-categories/:id", s.deleteCategory)

		private.GET("/task-recurrence-rules", s.listRules)
		private.POST("/task-recurrence-rules", s.createRule)
		private.GET("/task-recurrence-rules/:id", s.getRule)
		private.DELETE("/task-recurrence-rules/:id", s.deleteRule)

		journal := private.Group("/journal-entries")
		journal.GET("", s.listJournalEntries)
		journal.POST("", s.createJournalEntry)
		journal.GET("/by-date", s.journalByDate)
		journal.GET("/by-date-range", s.journalByDateRange)
		journal.GET("/today", s.journalToday)
		journal.GET("/focus-time", s.focusTime)
		journal.POST("/focus-time", s.addFocusTime)
		journal.GET("/evaluation", s.getEvaluation)
		journal.PUT("/evaluation", s.putEvaluation)
		journal.GET("/:id", s.getJournalEntry)
		journal.PUT("/:id", s.updateJournalEntry)
		journal.DELETE("/:id", s.deleteJournalEntry)

		private.PUT("/users/me/telegram", s.unlinkTelegram)
	}

	return r
}
