package main

import (
	"log"
	"net/http"

	_ "libris/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"libris/internal/auth"
	"libris/internal/cache"
	"libris/internal/config"
	"libris/internal/db"
	"libris/internal/graphql"
	"libris/internal/handler"
	"libris/internal/model"
	"libris/internal/repository"
	"libris/internal/router"
	"libris/internal/service"
)

// @title Library Management API
// @version 1.0
// @description Library management backend with book catalog, borrowing workflow and encrypted token authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the encrypted token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Book{},
		&model.Loan{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	bookRepo := repository.NewBookRepository(gormDB)
	loanRepo := repository.NewLoanRepository(gormDB)

	// Initialize token service with explicit secrets
	tokenService := auth.NewTokenService(cfg.JWTSecret, cfg.EncryptionKey)

	// Initialize services
	authService := service.NewAuthService(userRepo, tokenService)
	bookService := service.NewBookService(bookRepo, cacheClient)
	borrowService := service.NewBorrowService(loanRepo, bookRepo, cacheClient)
	reportService := service.NewReportService(loanRepo, bookRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	bookHandler := handler.NewBookHandler(bookService)
	borrowingHandler := handler.NewBorrowingHandler(borrowService)
	reportHandler := handler.NewReportHandler(reportService)

	gqlHandler, err := graphql.New(authService, bookService, borrowService, reportService)
	if err != nil {
		log.Fatalf("graphql schema: %v", err)
	}

	// Register routes
	router.Register(
		e,
		tokenService,
		authHandler,
		bookHandler,
		borrowingHandler,
		reportHandler,
		gqlHandler,
	)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
