package router

import (
	"context"
	"time"

	"repairpos/internal/config"
	"repairpos/internal/handler"
	"repairpos/internal/infra"
	"repairpos/internal/middleware"
	"repairpos/internal/repository"
	"repairpos/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the process-wide resources the HTTP layer is built from.
// RDB and SMSBreaker are nil when notifications are disabled.
type Deps struct {
	DB         *gorm.DB
	RDB        *redis.Client
	Notifier   service.RepairNotifier
	SMSBreaker *infra.CircuitBreaker
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB. ctx bounds the
// background goroutines the router starts.
func New(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := middleware.NewRateLimiter(1000, time.Minute)
	limiter.StartPurge(ctx, 5*time.Minute)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(limiter.Middleware())

	notifier := deps.Notifier
	if notifier == nil {
		notifier = service.LogNotifier{}
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	txRunner := repository.NewTxRunner(deps.DB, infra.TxOptions(deps.DB))
	productRepo := repository.NewProductRepository(deps.DB)
	phoneRepo := repository.NewPhoneRepository(deps.DB)
	clientRepo := repository.NewClientRepository(deps.DB)
	repairRepo := repository.NewRepairRepository(deps.DB)
	saleRepo := repository.NewSaleRepository(deps.DB)
	paymentRepo := repository.NewPaymentRepository(deps.DB)
	movementRepo := repository.NewStockMovementRepository(deps.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	ledger := service.NewInventoryLedger(productRepo, phoneRepo, movementRepo)
	payments := service.NewPaymentRecorder(paymentRepo)
	repairSvc := service.NewRepairService(txRunner, repairRepo, clientRepo, productRepo, ledger, payments, notifier)
	saleSvc := service.NewSaleService(txRunner, saleRepo, clientRepo, ledger, repairSvc, payments, notifier)

	// ── Handlers ─────────────────────────────────────────────────────────────
	salesH := handler.NewSalesHandler(saleSvc)
	repairsH := handler.NewRepairsHandler(repairSvc)
	inventoryH := handler.NewInventoryHandler(ledger)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(deps.DB, deps.RDB, deps.SMSBreaker))

	staff := []string{middleware.RoleOwner, middleware.RoleCashier, middleware.RoleTechnician}
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		sales := v1.Group("/sales", middleware.RequireRole(middleware.RoleOwner, middleware.RoleCashier))
		{
			sales.POST("", salesH.CreateSale)
			sales.GET("", salesH.ListSales)
			sales.GET("/:id", salesH.GetSale)
		}

		repairs := v1.Group("/repairs", middleware.RequireRole(staff...))
		{
			repairs.POST("", repairsH.CreateRepair)
			repairs.GET("/:id", repairsH.GetRepair)
			repairs.PUT("/:id", repairsH.UpdateRepair)
			repairs.PUT("/:id/status", repairsH.UpdateStatus)
		}

		inv := v1.Group("/inventory")
		{
			inv.GET("/alerts", middleware.RequireRole(staff...), inventoryH.LowStock)
			inv.GET("/movements", middleware.RequireRole(middleware.RoleOwner), inventoryH.ListMovements)
		}
	}

	// Swagger UI, outside production only
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
