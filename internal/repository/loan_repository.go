package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"libris/internal/model"
)

// LoanFilter narrows and paginates loan listings.
type LoanFilter struct {
	UserID *uuid.UUID
	Status *model.LoanStatus
	Page   int
	Limit  int
}

// BookBorrowCount is a most-borrowed report row.
type BookBorrowCount struct {
	BookID      uuid.UUID `json:"book_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	ISBN        string    `json:"isbn"`
	Genre       string    `json:"genre"`
	BorrowCount int       `json:"borrow_count"`
}

// MemberActivity is an active-members report row.
type MemberActivity struct {
	UserID           uuid.UUID `json:"user_id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	TotalBorrowings  int       `json:"total_borrowings"`
	ActiveBorrowings int       `json:"active_borrowings"`
}

// LoanRepository defines loan persistence operations. Loans are append-only
// after creation except for the single conditioned return transition.
type LoanRepository interface {
	Create(ctx context.Context, loan *model.Loan) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Loan, error)
	FindActive(ctx context.Context, userID, bookID uuid.UUID) (*model.Loan, error)
	MarkReturned(ctx context.Context, id uuid.UUID, returnedAt time.Time) (bool, error)
	List(ctx context.Context, filter LoanFilter) ([]model.Loan, int64, error)
	CountByStatus(ctx context.Context, status model.LoanStatus) (int64, error)
	MostBorrowed(ctx context.Context, limit int) ([]BookBorrowCount, error)
	MemberActivity(ctx context.Context, limit int) ([]MemberActivity, error)
}

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository.
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *model.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

func (r *loanRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	var loan model.Loan
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Book").
		Where("id = ?", id).First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// FindActive returns the user's currently-Borrowed loan for a book, if any.
func (r *loanRepository) FindActive(ctx context.Context, userID, bookID uuid.UUID) (*model.Loan, error) {
	var loan model.Loan
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, model.StatusBorrowed).
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// MarkReturned performs the Borrowed -> Returned transition as a single
// conditioned update. false means the loan was not in the Borrowed state,
// so a double return can never double-increment the book's copy counter.
func (r *loanRepository) MarkReturned(ctx context.Context, id uuid.UUID, returnedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Loan{}).
		Where("id = ? AND status = ?", id, model.StatusBorrowed).
		Updates(map[string]interface{}{
			"status":      model.StatusReturned,
			"return_date": returnedAt,
		})
	return res.RowsAffected > 0, res.Error
}

// List returns a page of loans newest-first plus the unpaginated total.
func (r *loanRepository) List(ctx context.Context, filter LoanFilter) ([]model.Loan, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Loan{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var loans []model.Loan
	err := query.Preload("User").Preload("Book").
		Order("borrow_date DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&loans).Error
	if err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}

func (r *loanRepository) CountByStatus(ctx context.Context, status model.LoanStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Loan{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

// MostBorrowed groups all loans by book and joins book metadata. Loans whose
// book has since been deleted drop out of the join, matching how the report
// has always behaved.
func (r *loanRepository) MostBorrowed(ctx context.Context, limit int) ([]BookBorrowCount, error) {
	var rows []BookBorrowCount
	err := r.db.WithContext(ctx).Model(&model.Loan{}).
		Select("loans.book_id, books.title, books.author, books.isbn, books.genre, COUNT(*) AS borrow_count").
		Joins("JOIN books ON books.id = loans.book_id").
		Group("loans.book_id, books.title, books.author, books.isbn, books.genre").
		Order("borrow_count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MemberActivity groups all loans by user, counting total and still-active
// borrowings, and joins user metadata.
func (r *loanRepository) MemberActivity(ctx context.Context, limit int) ([]MemberActivity, error) {
	var rows []MemberActivity
	err := r.db.WithContext(ctx).Model(&model.Loan{}).
		Select("loans.user_id, users.name, users.email, COUNT(*) AS total_borrowings, SUM(CASE WHEN loans.status = ? THEN 1 ELSE 0 END) AS active_borrowings", model.StatusBorrowed).
		Joins("JOIN users ON users.id = loans.user_id").
		Group("loans.user_id, users.name, users.email").
		Order("total_borrowings DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
