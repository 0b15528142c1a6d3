package main

import (
	"context"
	"log"
	"os"

	_ "transit-backend/api/swagger" // swagger docs
	"transit-backend/internal/database"
	"transit-backend/internal/handler"
	"transit-backend/internal/middleware"
	"transit-backend/internal/repository"
	"transit-backend/internal/service"
	"transit-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Transit Backend API
// @version         1.0
// @description     Back-office API for freight forwarding: dossiers, valuation worksheets and tax liquidation.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "transit"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Permission middleware needs DB access for role lookups
	middleware.InitPermissionMiddleware(db)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	tiersRepo := repository.NewTiersRepository(db)
	currencyRepo := repository.NewCurrencyRepository(db)
	tariffRepo := repository.NewTariffRepository(db)
	taxRepo := repository.NewTaxRepository(db)
	dossierRepo := repository.NewDossierRepository(db)
	cotationRepo := repository.NewCotationRepository(db)
	worksheetRepo := repository.NewWorksheetRepository(db)
	articleRepo := repository.NewArticleRepository(db)
	liquidationRepo := repository.NewLiquidationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	registry := service.NewSessionRegistry()
	taxCalculator := service.NewTaxCalculator(taxRepo, articleRepo, liquidationRepo, currencyRepo, txManager)

	userService := service.NewUserService(userRepo)
	roleService := service.NewRoleService(roleRepo, db)
	tiersService := service.NewTiersService(tiersRepo, auditRepo, txManager)
	currencyService := service.NewCurrencyService(currencyRepo)
	tariffService := service.NewTariffService(tariffRepo)
	taxService := service.NewTaxService(taxRepo)
	dossierService := service.NewDossierService(dossierRepo, auditRepo, wsHub)
	cotationService := service.NewCotationService(cotationRepo, dossierRepo, userRepo, auditRepo, txManager, wsHub)
	worksheetService := service.NewWorksheetService(worksheetRepo, articleRepo, tariffRepo, currencyRepo, auditRepo, registry, taxCalculator, wsHub)
	liquidationService := service.NewLiquidationService(registry, auditRepo, wsHub)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(db)

	// Seed default roles and permission sets
	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		log.Println("WARNING: Failed to seed roles and permissions:", err)
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	tiersHandler := handler.NewTiersHandler(tiersService)
	currencyHandler := handler.NewCurrencyHandler(currencyService)
	tariffHandler := handler.NewTariffHandler(tariffService)
	taxHandler := handler.NewTaxHandler(taxService)
	dossierHandler := handler.NewDossierHandler(dossierService)
	cotationHandler := handler.NewCotationHandler(cotationService)
	worksheetHandler := handler.NewWorksheetHandler(worksheetService)
	liquidationHandler := handler.NewLiquidationHandler(liquidationService)
	auditHandler := handler.NewAuditHandler(auditService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))
	tiersHandler.RegisterRoutes(router.Group(""))
	currencyHandler.RegisterRoutes(router.Group(""))
	tariffHandler.RegisterRoutes(router.Group(""))
	taxHandler.RegisterRoutes(router.Group(""))
	dossierHandler.RegisterRoutes(router.Group(""))
	cotationHandler.RegisterRoutes(router.Group(""))
	worksheetHandler.RegisterRoutes(router.Group(""))
	liquidationHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
