package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/mmo-navgrid/internal/logging"
	"github.com/annel0/mmo-navgrid/internal/middleware"
	"github.com/annel0/mmo-navgrid/internal/navigation"
	"github.com/annel0/mmo-navgrid/internal/world"
)

// RestServer отладочный REST API над сеткой и навигатором
type RestServer struct {
	router    *gin.Engine
	server    *http.Server
	navigator *navigation.Navigator
	grid      *world.Grid
	addr      string
	metrics   *ServerMetrics
	logger    *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Addr      string                // адрес для запуска сервера, ":8088"
	Navigator *navigation.Navigator // навигатор; сетка берётся из него
	Service   string                // имя сервиса в метриках и трейсах

	// Реестр метрик; nil - глобальный реестр Prometheus
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Addr == "" {
		config.Addr = ":8088"
	}
	if config.Service == "" {
		config.Service = "navgrid"
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.DefaultRegisterer
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}

	// Тесты выставляют gin.TestMode сами
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware(config.Service))

	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	promMw := middleware.NewPrometheusMiddleware(config.Service, config.Registerer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Gatherer)

	rs := &RestServer{
		router:    router,
		navigator: config.Navigator,
		grid:      config.Navigator.Grid(),
		addr:      config.Addr,
		metrics:   NewServerMetrics(),
		logger:    logging.GetAPILogger(),
	}
	rs.setupRoutes()

	rs.server = &http.Server{
		Addr:              config.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return rs
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS: отладочные клиенты открываются из браузера
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/grid", rs.handleGrid)
		api.GET("/layers/:layer", rs.handleLayer)
		api.POST("/layers/:layer/activate", rs.handleActivateLayer)

		api.GET("/tiles/:layer/:x/:y", rs.handleGetTile)
		api.PUT("/tiles/:layer/:x/:y", rs.handlePutTile)
		api.POST("/collision", rs.handleCollision)
		api.POST("/navigable", rs.handleNavigable)

		api.GET("/convert/world-to-grid", rs.handleWorldToGrid)
		api.GET("/convert/grid-to-world", rs.handleGridToWorld)

		api.POST("/path", rs.handleFindPath)
		api.GET("/random-point", rs.handleRandomPoint)

		api.GET("/sectors", rs.handleListSectors)
		api.POST("/sectors", rs.handleRegisterSector)
		api.POST("/sectors/load", rs.handleLoadSector)
		api.POST("/sectors/unload", rs.handleUnloadSector)
	}
}

// Handler возвращает http.Handler сервера (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	health := gin.H{
		"status":    "ok",
		"time":      time.Now().Unix(),
		"uptime":    rs.metrics.GetUptime(),
		"memory_mb": rs.metrics.GetMemoryUsage(),
		"revision":  rs.grid.Revision(),
	}
	if cpu, err := rs.metrics.GetCPUUsage(); err == nil {
		health["cpu_percent"] = cpu
	}
	if rss, err := rs.metrics.GetRSS(); err == nil {
		health["rss_mb"] = rss
	}
	c.JSON(http.StatusOK, health)
}

// Start запускает REST сервер и блокируется до Stop
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API слушает %s", rs.addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop дожидается завершения активных запросов
func (rs *RestServer) Stop(ctx context.Context) error {
	rs.logger.Info("🛑 REST API останавливается")
	return rs.server.Shutdown(ctx)
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, GenericResponse{Success: false, Message: msg})
}

func respondOK(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: msg, Data: data})
}
