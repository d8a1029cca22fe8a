package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"libris/internal/cache"
	apperrors "libris/internal/errors"
	"libris/internal/model"
	"libris/internal/repository"
)

const bookCacheTTL = 5 * time.Minute

func bookCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("book:%s", id)
}

// AddBookInput holds the fields for a new catalog entry.
type AddBookInput struct {
	Title           string
	Author          string
	ISBN            string
	PublicationDate time.Time
	Genre           string
	TotalCopies     int
}

// UpdateBookInput holds optional catalog edits. A non-nil TotalCopies
// triggers the resize rule: the count of currently-borrowed copies is
// preserved and the update fails if the new total cannot cover it.
type UpdateBookInput struct {
	Title           *string
	Author          *string
	ISBN            *string
	PublicationDate *time.Time
	Genre           *string
	TotalCopies     *int
}

// BookService handles catalog operations.
type BookService interface {
	AddBook(ctx context.Context, input AddBookInput) (*model.Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*model.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
	GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error)
	ListBooks(ctx context.Context, genre, author, search string, page, limit int) ([]model.Book, *Pagination, error)
}

type bookService struct {
	bookRepo repository.BookRepository
	cache    *cache.Client
}

// NewBookService creates a new book service.
func NewBookService(bookRepo repository.BookRepository, cache *cache.Client) BookService {
	return &bookService{bookRepo: bookRepo, cache: cache}
}

// AddBook creates a catalog entry with all copies available.
func (s *bookService) AddBook(ctx context.Context, input AddBookInput) (*model.Book, error) {
	existing, err := s.bookRepo.FindByISBN(ctx, input.ISBN)
	if err == nil && existing != nil {
		return nil, apperrors.ErrISBNExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check isbn: %w", err)
	}

	book := &model.Book{
		Title:           input.Title,
		Author:          input.Author,
		ISBN:            input.ISBN,
		PublicationDate: input.PublicationDate,
		Genre:           input.Genre,
		TotalCopies:     input.TotalCopies,
		AvailableCopies: input.TotalCopies,
	}
	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}

// UpdateBook applies catalog edits. The update runs in one transaction with
// a locking read, so a concurrent borrow's decrement cannot commit between
// the read and the write-back and get overwritten by stale counters.
func (s *bookService) UpdateBook(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*model.Book, error) {
	var updated *model.Book
	err := s.bookRepo.WithTransaction(ctx, func(ctx context.Context, repo repository.BookRepository) error {
		book, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrBookNotFound
			}
			return err
		}

		if input.Title != nil {
			book.Title = *input.Title
		}
		if input.Author != nil {
			book.Author = *input.Author
		}
		if input.PublicationDate != nil {
			book.PublicationDate = *input.PublicationDate
		}
		if input.Genre != nil {
			book.Genre = *input.Genre
		}
		if input.ISBN != nil && *input.ISBN != book.ISBN {
			other, err := repo.FindByISBN(ctx, *input.ISBN)
			if err == nil && other != nil {
				return apperrors.ErrISBNExists
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			book.ISBN = *input.ISBN
		}
		if input.TotalCopies != nil {
			borrowed := book.TotalCopies - book.AvailableCopies
			available := *input.TotalCopies - borrowed
			if available < 0 {
				return apperrors.ErrNegativeAvailability
			}
			book.TotalCopies = *input.TotalCopies
			book.AvailableCopies = available
		}

		if err := repo.Save(ctx, book); err != nil {
			return fmt.Errorf("save book: %w", err)
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, bookCacheKey(id))
	return updated, nil
}

// DeleteBook removes a catalog entry.
func (s *bookService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.bookRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if !deleted {
		return apperrors.ErrBookNotFound
	}
	_ = s.cache.Delete(ctx, bookCacheKey(id))
	return nil
}

// GetBook returns a single book, served from cache when possible. Only this
// read path consults the cache; every mutating path re-reads the store.
func (s *bookService) GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	if data, _ := s.cache.Get(ctx, bookCacheKey(id)); data != nil {
		var cached model.Book
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	book, err := s.bookRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, err
	}

	if payload, err := json.Marshal(book); err == nil {
		_ = s.cache.Set(ctx, bookCacheKey(id), payload, bookCacheTTL)
	}
	return book, nil
}

// ListBooks returns a filtered page of the catalog, newest first.
func (s *bookService) ListBooks(ctx context.Context, genre, author, search string, page, limit int) ([]model.Book, *Pagination, error) {
	page, limit = normalizePage(page, limit)
	books, total, err := s.bookRepo.List(ctx, repository.BookFilter{
		Genre:  genre,
		Author: author,
		Search: search,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list books: %w", err)
	}
	return books, paginate(total, page, limit), nil
}
