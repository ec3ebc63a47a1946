package routes

import (
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"property-billing/internal/controllers"
	"property-billing/internal/listeners"
	"property-billing/internal/repositories"
	"property-billing/internal/services"
	"property-billing/pkg/config"
	"property-billing/pkg/eventbus"
	"property-billing/pkg/logger"
	"property-billing/pkg/metrics"
	"property-billing/pkg/middleware"
	"property-billing/pkg/service"
)

// Services: всё, что нужно маршрутам. В тестах подставляются заглушки.
type Services struct {
	Auth      services.AuthServiceInterface
	User      services.UserServiceInterface
	Directory services.DirectoryServiceInterface
	Price     services.PriceServiceInterface
	Order     services.OrderServiceInterface
	Report    services.ReportServiceInterface
	Audit     services.AuditServiceInterface
}

// NewServices собирает репозитории и сервисы и подписывает слушателя журнала на шину.
func NewServices(
	dbConn *pgxpool.Pool,
	redisClient *redis.Client,
	bus *eventbus.Bus,
	m *metrics.Metrics,
	cfg *config.Config,
	loggers *logger.Loggers,
) *Services {
	loggers.Main.Info("NewServices: Инициализация сервисов")

	txManager := repositories.NewTxManager(dbConn)

	// --- 1. РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(dbConn, loggers.Auth)
	addressRepo := repositories.NewAddressRepository(dbConn)
	communityRepo := repositories.NewCommunityRepository(dbConn)
	priceRepo := repositories.NewFeePriceRepository(dbConn, loggers.Price)
	orderRepo := repositories.NewOrderRepository(dbConn, loggers.Order)
	reportRepo := repositories.NewReportRepository(dbConn)
	logRepo := repositories.NewOperationLogRepository(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	listeners.NewAuditListener(logRepo, m, loggers.Audit).Register(bus)

	// --- 2. СЕРВИСЫ ---
	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.Location)
	auditService := services.NewAuditService(logRepo, bus, loggers.Audit)
	billNumbers := services.NewBillNumberGenerator(cfg.Billing.BillPrefix, cfg.Location)

	return &Services{
		Auth:      services.NewAuthService(userRepo, cacheRepo, jwtSvc, auditService, m, loggers.Auth, cfg.Auth),
		User:      services.NewUserService(userRepo, auditService, loggers.Auth),
		Directory: services.NewDirectoryService(addressRepo, auditService, loggers.Main),
		Price: services.NewPriceService(txManager, priceRepo, communityRepo, cacheRepo, auditService,
			cfg.Billing.PriceCacheTTL, loggers.Price),
		Order: services.NewOrderService(txManager, orderRepo, addressRepo, billNumbers, auditService,
			m, cfg.Location, loggers.Order),
		Report: services.NewReportService(reportRepo, auditService, cfg.Location, loggers.Report),
		Audit:  auditService,
	}
}

// InitRouter регистрирует все маршруты. gatherer == nil: без /metrics.
func InitRouter(e *echo.Echo, svcs *Services, gatherer prometheus.Gatherer, cfg *config.Config, loggers *logger.Loggers) {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(svcs.Auth, loggers.Auth)
	secureGroup := api.Group("", authMW.Auth)
	adminGroup := secureGroup.Group("/admin")

	runAuthRouter(api, secureGroup, controllers.NewAuthController(svcs.Auth, svcs.User, loggers.Auth))
	runAddressRouter(secureGroup, controllers.NewAddressController(svcs.Directory, loggers.Main))
	runPriceRouter(secureGroup, adminGroup, controllers.NewPriceController(svcs.Price, cfg.Location, loggers.Price), authMW)
	runOrderRouter(secureGroup, controllers.NewOrderController(svcs.Order, svcs.Report, loggers.Order))
	runReportRouter(secureGroup, controllers.NewReportController(svcs.Report, loggers.Report))
	runOperationLogRouter(adminGroup, controllers.NewOperationLogController(svcs.Audit, cfg.Location, loggers.Audit), authMW)
	runUserRouter(adminGroup, controllers.NewUserController(svcs.User, loggers.Auth), authMW)

	loggers.Main.Info("InitRouter: Создание маршрутов завершено", zap.Int("routes", len(e.Routes())))
}
