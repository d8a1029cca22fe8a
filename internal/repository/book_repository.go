package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"libris/internal/model"
)

// BookFilter narrows and paginates catalog listings. Genre and Author are
// case-insensitive substring matches; Search matches title, author or ISBN.
type BookFilter struct {
	Genre  string
	Author string
	Search string
	Page   int
	Limit  int
}

// AvailabilityTotals is the catalog-wide copy summary.
type AvailabilityTotals struct {
	TotalCopies     int `json:"total_copies"`
	AvailableCopies int `json:"available_copies"`
}

// GenreAvailability is the per-genre copy breakdown.
type GenreAvailability struct {
	Genre           string `json:"genre"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
	BorrowedCopies  int    `json:"borrowed_copies"`
	NumberOfBooks   int    `json:"number_of_books"`
}

// BookRepository defines book persistence operations. The copy counter is
// only ever moved through conditioned single-statement updates so that
// concurrent borrows cannot oversell the last copy.
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	Save(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Book, error)
	FindByISBN(ctx context.Context, isbn string) (*model.Book, error)
	List(ctx context.Context, filter BookFilter) ([]model.Book, int64, error)
	DecrementAvailable(ctx context.Context, id uuid.UUID) (bool, error)
	IncrementAvailable(ctx context.Context, id uuid.UUID) (bool, error)
	AvailabilityTotals(ctx context.Context) (*AvailabilityTotals, error)
	AvailabilityByGenre(ctx context.Context) ([]GenreAvailability, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo BookRepository) error) error
}

type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository.
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *bookRepository) Save(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

// Delete removes a book, reporting whether a record existed.
func (r *bookRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Book{})
	return res.RowsAffected > 0, res.Error
}

func (r *bookRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// FindByIDForUpdate finds a book by ID with a row-level lock for update.
// Read-modify-write callers (the resize path) use this inside WithTransaction
// so a concurrent DecrementAvailable cannot commit between the read and the
// write-back.
func (r *bookRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).Set("gorm:query_option", "FOR UPDATE").
		Where("id = ?", id).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) FindByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns a page of books newest-first plus the unpaginated total.
func (r *bookRepository) List(ctx context.Context, filter BookFilter) ([]model.Book, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Book{})

	if filter.Genre != "" {
		query = query.Where("LOWER(genre) LIKE ?", contains(filter.Genre))
	}
	if filter.Author != "" {
		query = query.Where("LOWER(author) LIKE ?", contains(filter.Author))
	}
	if filter.Search != "" {
		pattern := contains(filter.Search)
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(isbn) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []model.Book
	err := query.Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&books).Error
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// DecrementAvailable takes one copy off the shelf if any remain. The guard
// lives in the UPDATE itself, so two concurrent borrowers cannot both win
// the last copy; false means no copy was available (or no such book).
func (r *bookRepository) DecrementAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Book{}).
		Where("id = ? AND available_copies > 0", id).
		UpdateColumn("available_copies", gorm.Expr("available_copies - 1"))
	return res.RowsAffected > 0, res.Error
}

// IncrementAvailable puts a copy back. Unconditional on the counter; false
// only means the book no longer exists, which callers treat as a logged
// no-op since the loan record is the source of truth for the return.
func (r *bookRepository) IncrementAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Book{}).
		Where("id = ?", id).
		UpdateColumn("available_copies", gorm.Expr("available_copies + 1"))
	return res.RowsAffected > 0, res.Error
}

func (r *bookRepository) AvailabilityTotals(ctx context.Context) (*AvailabilityTotals, error) {
	var totals AvailabilityTotals
	err := r.db.WithContext(ctx).Model(&model.Book{}).
		Select("COALESCE(SUM(total_copies), 0) AS total_copies, COALESCE(SUM(available_copies), 0) AS available_copies").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

func (r *bookRepository) AvailabilityByGenre(ctx context.Context) ([]GenreAvailability, error) {
	var rows []GenreAvailability
	err := r.db.WithContext(ctx).Model(&model.Book{}).
		Select("genre, SUM(total_copies) AS total_copies, SUM(available_copies) AS available_copies, SUM(total_copies - available_copies) AS borrowed_copies, COUNT(*) AS number_of_books").
		Group("genre").
		Order("genre ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// WithTransaction executes a function within a database transaction.
func (r *bookRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo BookRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &bookRepository{db: tx})
	})
}

func contains(term string) string {
	return "%" + strings.ToLower(term) + "%"
}
