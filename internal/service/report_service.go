package service

import (
	"context"
	"fmt"

	"libris/internal/model"
	"libris/internal/repository"
)

// AvailabilitySummary is the catalog-wide availability breakdown.
type AvailabilitySummary struct {
	TotalBooks     int   `json:"total_books"`
	AvailableBooks int   `json:"available_books"`
	BorrowedBooks  int64 `json:"borrowed_books"`
	BorrowedCopies int   `json:"borrowed_copies"`
}

// AvailabilityReport combines the summary with a per-genre breakdown.
type AvailabilityReport struct {
	Summary   AvailabilitySummary            `json:"summary"`
	GenreWise []repository.GenreAvailability `json:"genre_wise_availability"`
}

// ReportService produces read-only statistical views over loans and books.
// Every figure is recomputed from stored state on each call.
type ReportService interface {
	MostBorrowed(ctx context.Context, limit int) ([]repository.BookBorrowCount, error)
	ActiveMembers(ctx context.Context, limit int) ([]repository.MemberActivity, error)
	Availability(ctx context.Context) (*AvailabilityReport, error)
}

type reportService struct {
	loanRepo repository.LoanRepository
	bookRepo repository.BookRepository
}

// NewReportService creates a new report service.
func NewReportService(loanRepo repository.LoanRepository, bookRepo repository.BookRepository) ReportService {
	return &reportService{loanRepo: loanRepo, bookRepo: bookRepo}
}

// MostBorrowed lists the top-N books by all-time borrow count.
func (s *reportService) MostBorrowed(ctx context.Context, limit int) ([]repository.BookBorrowCount, error) {
	if limit < 1 {
		limit = defaultLimit
	}
	rows, err := s.loanRepo.MostBorrowed(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("most borrowed: %w", err)
	}
	return rows, nil
}

// ActiveMembers lists the top-N users by all-time borrow count, with a
// conditional count of loans still out.
func (s *reportService) ActiveMembers(ctx context.Context, limit int) ([]repository.MemberActivity, error) {
	if limit < 1 {
		limit = defaultLimit
	}
	rows, err := s.loanRepo.MemberActivity(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("active members: %w", err)
	}
	return rows, nil
}

// Availability sums copies across the whole catalog, counts loans still
// out, and repeats the breakdown per genre sorted by genre name.
func (s *reportService) Availability(ctx context.Context) (*AvailabilityReport, error) {
	totals, err := s.bookRepo.AvailabilityTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("availability totals: %w", err)
	}

	borrowed, err := s.loanRepo.CountByStatus(ctx, model.StatusBorrowed)
	if err != nil {
		return nil, fmt.Errorf("count borrowed loans: %w", err)
	}

	genreWise, err := s.bookRepo.AvailabilityByGenre(ctx)
	if err != nil {
		return nil, fmt.Errorf("availability by genre: %w", err)
	}
	if genreWise == nil {
		genreWise = []repository.GenreAvailability{}
	}

	return &AvailabilityReport{
		Summary: AvailabilitySummary{
			TotalBooks:     totals.TotalCopies,
			AvailableBooks: totals.AvailableCopies,
			BorrowedBooks:  borrowed,
			BorrowedCopies: totals.TotalCopies - totals.AvailableCopies,
		},
		GenreWise: genreWise,
	}, nil
}
