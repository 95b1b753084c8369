package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"taskdesk/internal/domain/errors"
	"taskdesk/internal/services"
)

type Services struct {
	Auth    *services.AuthService
	Users   *services.UserService
	Tasks   *services.TaskService
	A3      *services.A3Service
	Reports *services.ReportService
}

func (s Services) complete() bool {
	return s.Auth != nil && s.Users != nil && s.Tasks != nil && s.A3 != nil && s.Reports != nil
}

type TaskAPI struct {
	httpSrv *http.Server
	logger  zerolog.Logger

	auth    *services.AuthService
	users   *services.UserService
	tasks   *services.TaskService
	a3      *services.A3Service
	reports *services.ReportService
}

// NewTaskAPI wires the router. It returns nil when a service is missing.
func NewTaskAPI(cfg *Config, svc Services, logger zerolog.Logger) *TaskAPI {
	if cfg == nil || !svc.complete() {
		return nil
	}
	if cfg.Env != EnvLocal && gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	api := &TaskAPI{
		httpSrv: &http.Server{
			Addr:              cfg.ListenAddr(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:  logger,
		auth:    svc.Auth,
		users:   svc.Users,
		tasks:   svc.Tasks,
		a3:      svc.A3,
		reports: svc.Reports,
	}
	api.configRoutes(cfg)
	return api
}

func (api *TaskAPI) Handler() http.Handler {
	return api.httpSrv.Handler
}

func (api *TaskAPI) Start() error {
	if api.httpSrv == nil {
		return errors.ErrInternalServer
	}
	if api.httpSrv.Addr == "" {
		api.httpSrv.Addr = ":8080"
	}

	api.logger.Info().
		Str("addr", api.httpSrv.Addr).
		Msg("starting http server")
	return api.httpSrv.ListenAndServe()
}

func (api *TaskAPI) Shutdown(ctx context.Context) error {
	if api.httpSrv == nil {
		return nil
	}
	return api.httpSrv.Shutdown(ctx)
}

func (api *TaskAPI) configRoutes(cfg *Config) {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(Recovery(api.logger))
	router.Use(RequestLogger(api.logger))
	router.Use(Metrics())
	router.Use(CORS(cfg.ClientOrigins))
	router.Use(Gzip())

	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Route not found."})
	})
	router.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed."})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := router.Group("/api")
	apiGroup.GET("/health", api.health)

	authGroup := apiGroup.Group("/auth")
	{
		authGroup.POST("/login", api.login)
		authGroup.GET("/me", api.Authenticate, api.me)
	}

	private := apiGroup.Group("")
	private.Use(api.Authenticate)

	tasks := private.Group("/tasks")
	{
		tasks.GET("", api.listTasks)
		tasks.POST("", api.RequireAdmin, api.createTask)
		tasks.GET("/stats/overview", api.RequireAdmin, api.overviewStats)
		tasks.GET("/stats/progress", api.progress)
		tasks.GET("/:id", api.getTask)
		tasks.PUT("/:id", api.updateTask)
		tasks.DELETE("/:id", api.RequireAdmin, api.deleteTask)
	}

	a3 := private.Group("/a3")
	{
		a3.GET("", api.listA3Items)
		a3.POST("", api.RequireAdmin, api.createA3Item)
		a3.GET("/:id", api.getA3Item)
		a3.PUT("/:id", api.updateA3Item)
		a3.DELETE("/:id", api.RequireAdmin, api.deleteA3Item)
	}

	reports := private.Group("/reports")
	{
		reports.GET("", api.listReports)
		reports.POST("", api.submitReport)
		reports.GET("/check-today", api.checkToday)
		reports.GET("/staff-summary", api.RequireAdmin, api.staffSummary)
	}

	users := private.Group("/users")
	users.Use(api.RequireAdmin)
	{
		users.GET("", api.listUsers)
		users.POST("", api.createStaff)
		users.GET("/staff", api.listStaff)
		users.DELETE("/:id", api.deleteUser)
	}

	api.httpSrv.Handler = router
}

func (api *TaskAPI) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}
