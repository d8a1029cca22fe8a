package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"libris/internal/cache"
	apperrors "libris/internal/errors"
	"libris/internal/model"
	"libris/internal/repository"
)

// BorrowService governs the loan lifecycle: eligibility checks on borrow,
// the single Borrowed -> Returned transition, and loan listings.
type BorrowService interface {
	Borrow(ctx context.Context, userID, bookID uuid.UUID) (*model.Loan, error)
	Return(ctx context.Context, loanID, requesterID uuid.UUID, requesterRole model.Role) (*model.Loan, error)
	History(ctx context.Context, userID uuid.UUID, status *model.LoanStatus, page, limit int) ([]model.Loan, *Pagination, error)
	AllLoans(ctx context.Context, userID *uuid.UUID, status *model.LoanStatus, page, limit int) ([]model.Loan, *Pagination, error)
}

type borrowService struct {
	loanRepo repository.LoanRepository
	bookRepo repository.BookRepository
	cache    *cache.Client
}

// NewBorrowService creates a new borrowing service.
func NewBorrowService(loanRepo repository.LoanRepository, bookRepo repository.BookRepository, cache *cache.Client) BorrowService {
	return &borrowService{loanRepo: loanRepo, bookRepo: bookRepo, cache: cache}
}

// Borrow checks eligibility in order (book exists, copies available, no
// other active loan for this user and book) and then creates the loan. The
// availability check that actually counts is the conditioned decrement: the
// earlier read is advisory only and concurrent borrowers race on the UPDATE,
// so the last copy goes to exactly one of them.
func (s *borrowService) Borrow(ctx context.Context, userID, bookID uuid.UUID) (*model.Loan, error) {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}
	if book.AvailableCopies <= 0 {
		return nil, apperrors.ErrNoCopiesAvailable
	}

	active, err := s.loanRepo.FindActive(ctx, userID, bookID)
	if err == nil && active != nil {
		return nil, apperrors.ErrDuplicateActiveLoan
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check active loan: %w", err)
	}

	decremented, err := s.bookRepo.DecrementAvailable(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("decrement copies: %w", err)
	}
	if !decremented {
		return nil, apperrors.ErrNoCopiesAvailable
	}

	loan := &model.Loan{
		UserID: userID,
		BookID: bookID,
		Status: model.StatusBorrowed,
	}
	if err := s.loanRepo.Create(ctx, loan); err != nil {
		// Give the copy back so the counter stays consistent with the
		// loans that actually exist.
		if _, incErr := s.bookRepo.IncrementAvailable(ctx, bookID); incErr != nil {
			log.Printf("compensating increment failed for book %s: %v", bookID, incErr)
		}
		return nil, fmt.Errorf("create loan: %w", err)
	}

	_ = s.cache.Delete(ctx, bookCacheKey(bookID))

	return s.loanRepo.FindByID(ctx, loan.ID)
}

// Return transitions a loan to Returned. Only the loan's owner or an Admin
// may return it, and the transition happens at most once: the conditioned
// update rejects a second return, so the copy counter is never incremented
// twice for one loan.
func (s *borrowService) Return(ctx context.Context, loanID, requesterID uuid.UUID, requesterRole model.Role) (*model.Loan, error) {
	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLoanNotFound
		}
		return nil, fmt.Errorf("find loan: %w", err)
	}

	if loan.UserID != requesterID && requesterRole != model.RoleAdmin {
		return nil, apperrors.ErrNotLoanOwner
	}
	if loan.Status == model.StatusReturned {
		return nil, apperrors.ErrAlreadyReturned
	}

	returned, err := s.loanRepo.MarkReturned(ctx, loanID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("mark returned: %w", err)
	}
	if !returned {
		return nil, apperrors.ErrAlreadyReturned
	}

	// The loan record is the source of truth for the return; a vanished
	// book only costs us the counter bump.
	found, err := s.bookRepo.IncrementAvailable(ctx, loan.BookID)
	if err != nil {
		log.Printf("increment copies for book %s: %v", loan.BookID, err)
	} else if !found {
		log.Printf("book %s missing on return of loan %s, skipping increment", loan.BookID, loanID)
	}

	_ = s.cache.Delete(ctx, bookCacheKey(loan.BookID))

	return s.loanRepo.FindByID(ctx, loanID)
}

// History returns the caller's own loans, newest first.
func (s *borrowService) History(ctx context.Context, userID uuid.UUID, status *model.LoanStatus, page, limit int) ([]model.Loan, *Pagination, error) {
	return s.list(ctx, repository.LoanFilter{UserID: &userID, Status: status}, page, limit)
}

// AllLoans returns every loan, optionally narrowed to one user or status.
func (s *borrowService) AllLoans(ctx context.Context, userID *uuid.UUID, status *model.LoanStatus, page, limit int) ([]model.Loan, *Pagination, error) {
	return s.list(ctx, repository.LoanFilter{UserID: userID, Status: status}, page, limit)
}

func (s *borrowService) list(ctx context.Context, filter repository.LoanFilter, page, limit int) ([]model.Loan, *Pagination, error) {
	filter.Page, filter.Limit = normalizePage(page, limit)
	loans, total, err := s.loanRepo.List(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("list loans: %w", err)
	}

	// Overdue is derived at read time; the stored status stays Borrowed
	// until the copy comes back.
	now := time.Now()
	for i := range loans {
		loans[i].Status = loans[i].EffectiveStatus(now)
	}

	return loans, paginate(total, filter.Page, filter.Limit), nil
}
