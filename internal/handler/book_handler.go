package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"libris/internal/model"
	"libris/internal/service"
)

// BookHandler handles catalog endpoints.
type BookHandler struct {
	bookService service.BookService
}

// NewBookHandler creates a new book handler.
func NewBookHandler(bookService service.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// AddBookRequest represents a new catalog entry.
type AddBookRequest struct {
	Title           string    `json:"title" validate:"required"`
	Author          string    `json:"author" validate:"required"`
	ISBN            string    `json:"isbn" validate:"required"`
	PublicationDate time.Time `json:"publication_date" validate:"required"`
	Genre           string    `json:"genre" validate:"required"`
	TotalCopies     int       `json:"total_copies" validate:"gte=0"`
}

// UpdateBookRequest represents optional catalog edits.
type UpdateBookRequest struct {
	Title           *string    `json:"title" validate:"omitempty,min=1"`
	Author          *string    `json:"author" validate:"omitempty,min=1"`
	ISBN            *string    `json:"isbn" validate:"omitempty,min=1"`
	PublicationDate *time.Time `json:"publication_date"`
	Genre           *string    `json:"genre" validate:"omitempty,min=1"`
	TotalCopies     *int       `json:"total_copies" validate:"omitempty,gte=0"`
}

// BookListResponse is a page of books.
type BookListResponse struct {
	Books      []model.Book        `json:"books"`
	Pagination *service.Pagination `json:"pagination"`
}

// List godoc
// @Summary List books with filters and pagination
// @Tags books
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Param genre query string false "Genre substring filter"
// @Param author query string false "Author substring filter"
// @Param search query string false "Matches title, author or ISBN"
// @Success 200 {object} BookListResponse
// @Security BearerAuth
// @Router /books [get]
func (h *BookHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	books, pagination, err := h.bookService.ListBooks(
		c.Request().Context(),
		c.QueryParam("genre"),
		c.QueryParam("author"),
		c.QueryParam("search"),
		page, limit,
	)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, BookListResponse{Books: books, Pagination: pagination})
}

// Get godoc
// @Summary Get a single book
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} model.Book
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /books/{id} [get]
func (h *BookHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid book id")
	}

	book, err := h.bookService.GetBook(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// Create godoc
// @Summary Add a book to the catalog
// @Tags books
// @Accept json
// @Produce json
// @Param request body AddBookRequest true "Book data"
// @Success 201 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /books [post]
func (h *BookHandler) Create(c echo.Context) error {
	var req AddBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	book, err := h.bookService.AddBook(c.Request().Context(), service.AddBookInput{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		PublicationDate: req.PublicationDate,
		Genre:           req.Genre,
		TotalCopies:     req.TotalCopies,
	})
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

// Update godoc
// @Summary Update a catalog entry
// @Description Changing total_copies preserves the number of currently
// @Description borrowed copies and fails if the new total cannot cover them.
// @Tags books
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Param request body UpdateBookRequest true "Fields to update"
// @Success 200 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /books/{id} [put]
func (h *BookHandler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid book id")
	}

	var req UpdateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	book, err := h.bookService.UpdateBook(c.Request().Context(), id, service.UpdateBookInput{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		PublicationDate: req.PublicationDate,
		Genre:           req.Genre,
		TotalCopies:     req.TotalCopies,
	})
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// Delete godoc
// @Summary Delete a catalog entry
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /books/{id} [delete]
func (h *BookHandler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid book id")
	}

	if err := h.bookService.DeleteBook(c.Request().Context(), id); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "book deleted successfully"})
}
