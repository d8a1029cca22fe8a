package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"libris/internal/auth"
	"libris/internal/graphql"
	"libris/internal/handler"
	"libris/internal/model"
)

// Register wires routes and middleware. Every route runs behind the token
// middleware, which resolves the bearer token to an identity (or anonymous);
// the per-group role gates then apply the access matrix.
func Register(
	e *echo.Echo,
	tokens *auth.TokenService,
	authHandler *handler.AuthHandler,
	bookHandler *handler.BookHandler,
	borrowingHandler *handler.BorrowingHandler,
	reportHandler *handler.ReportHandler,
	gqlHandler *graphql.Handler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api", auth.Middleware(tokens))

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// Catalog browsing
	books := api.Group("/books")
	books.GET("", bookHandler.List, auth.RequireRoles(model.RoleMember, model.RoleAdmin))
	books.GET("/:id", bookHandler.Get, auth.RequireRoles(model.RoleMember, model.RoleAdmin))

	// Catalog management
	books.POST("", bookHandler.Create, auth.RequireRoles(model.RoleAdmin))
	books.PUT("/:id", bookHandler.Update, auth.RequireRoles(model.RoleAdmin))
	books.DELETE("/:id", bookHandler.Delete, auth.RequireRoles(model.RoleAdmin))

	// Borrowing lifecycle
	borrowings := api.Group("/borrowings")
	borrowings.POST("/borrow", borrowingHandler.Borrow, auth.RequireRoles(model.RoleMember, model.RoleAdmin))
	borrowings.POST("/return/:id", borrowingHandler.Return, auth.RequireRoles(model.RoleMember, model.RoleAdmin))
	borrowings.GET("/history", borrowingHandler.History, auth.RequireRoles(model.RoleMember, model.RoleAdmin))
	borrowings.GET("", borrowingHandler.ListAll, auth.RequireRoles(model.RoleAdmin))

	// Admin reports
	reports := api.Group("/reports", auth.RequireRoles(model.RoleAdmin))
	reports.GET("/most-borrowed", reportHandler.MostBorrowed)
	reports.GET("/active-members", reportHandler.ActiveMembers)
	reports.GET("/availability", reportHandler.Availability)

	// GraphQL framing of the same operations; field resolvers apply the
	// same role matrix from the context identity.
	e.POST("/graphql", gqlHandler.Serve, auth.Middleware(tokens))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
