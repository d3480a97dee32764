package router

import (
	"time"

	"clinicdesk/internal/config"
	"clinicdesk/internal/handler"
	"clinicdesk/internal/middleware"
	"clinicdesk/internal/repository"
	"clinicdesk/internal/service"
	"clinicdesk/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	feeSettingsRepo := repository.NewFeeSettingsRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	productRepo := repository.NewProductRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	branchSvc := service.NewBranchService(branchRepo)
	patientSvc := service.NewPatientService(patientRepo)
	feeSettingsSvc := service.NewFeeSettingsService(feeSettingsRepo)
	billingSvc := service.NewBillingService(invoiceRepo, visitRepo, dispatcher)
	visitSvc := service.NewVisitService(visitRepo, patientRepo, feeSettingsSvc, billingSvc)
	inventorySvc := service.NewInventoryService(productRepo, billingSvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	branchesH := handler.NewBranchesHandler(branchSvc)
	patientsH := handler.NewPatientsHandler(patientSvc)
	feesH := handler.NewFeeSettingsHandler(feeSettingsSvc, rdb)
	visitsH := handler.NewVisitsHandler(visitSvc)
	billingH := handler.NewBillingHandler(billingSvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: reception, clinician, admin — declared per-endpoint
		staff := middleware.RequireRole("reception", "clinician", "admin")
		clinical := middleware.RequireRole("clinician", "admin")
		adminOnly := middleware.RequireRole("admin")

		// Patients
		v1.POST("/patients", staff, patientsH.Register)
		v1.GET("/patients", staff, patientsH.List)
		v1.GET("/patients/:id", staff, patientsH.Get)
		v1.GET("/patients/file/:fileNumber", staff, patientsH.GetByFileNumber)
		v1.PUT("/patients/:id", staff, patientsH.Update)
		v1.DELETE("/patients/:id", adminOnly, patientsH.Deactivate)
		v1.GET("/patients/:id/visits", staff, visitsH.ListByPatient)

		// Visits and billing
		v1.POST("/visits", staff, visitsH.CheckIn)
		v1.GET("/visits/:id", staff, visitsH.Get)
		v1.GET("/visits/:id/invoice", staff, billingH.GetInvoiceByVisit)
		v1.POST("/visits/:id/charges", clinical, billingH.AddCharge)
		v1.POST("/visits/:id/dispense", clinical, inventoryH.Dispense)

		v1.GET("/invoices/:id", staff, billingH.GetInvoice)
		v1.POST("/invoices/:id/payments", staff, billingH.ApplyPayment)
		v1.POST("/invoices/:id/refund", adminOnly, billingH.Refund)

		// Fee settings — admin writes, staff reads the resolved quote
		v1.GET("/fees/quote", staff, feesH.Quote)
		fees := v1.Group("/fees", adminOnly)
		{
			fees.GET("/settings", feesH.List)
			fees.PUT("/settings/global", feesH.UpsertGlobal)
			fees.PUT("/settings/branch/:id", feesH.UpsertBranch)
			fees.GET("/overrides", feesH.ListOverrides)
			fees.PUT("/overrides", feesH.SaveOverride)
			fees.DELETE("/overrides/:id", feesH.DeleteOverride)
		}

		// Inventory
		v1.GET("/products", staff, inventoryH.ListProducts)
		v1.GET("/products/:id", staff, inventoryH.GetProduct)
		v1.GET("/products/:id/movements", clinical, inventoryH.ListMovements)
		v1.PATCH("/products/:id/stock", clinical, inventoryH.AdjustStock)
		prods := v1.Group("/products", adminOnly)
		{
			prods.POST("", inventoryH.CreateProduct)
			prods.PUT("/:id", inventoryH.UpdateProduct)
			prods.DELETE("/:id", inventoryH.DeleteProduct)
		}

		// Branches
		v1.GET("/branches", staff, branchesH.List)
		v1.GET("/branches/:id", staff, branchesH.Get)
		v1.GET("/branches/:id/visits", staff, visitsH.ListByBranch)
		branches := v1.Group("/branches", adminOnly)
		{
			branches.POST("", branchesH.Create)
			branches.PUT("/:id", branchesH.Update)
			branches.DELETE("/:id", branchesH.Deactivate)
		}

		// Users
		users := v1.Group("/users", adminOnly)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
