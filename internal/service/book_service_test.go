package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	apperrors "libris/internal/errors"
	"libris/internal/model"
	"libris/internal/repository"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestBookService_AddBook(t *testing.T) {
	input := AddBookInput{
		Title:           "Dune",
		Author:          "Frank Herbert",
		ISBN:            "978-0441172719",
		PublicationDate: time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC),
		Genre:           "Science Fiction",
		TotalCopies:     4,
	}

	t.Run("all copies start available", func(t *testing.T) {
		bookRepo := new(MockBookRepository)
		bookRepo.On("FindByISBN", mock.Anything, input.ISBN).Return(nil, gorm.ErrRecordNotFound)
		bookRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Book")).Return(nil)

		svc := NewBookService(bookRepo, nil)
		book, err := svc.AddBook(context.Background(), input)

		assert.NoError(t, err)
		assert.Equal(t, 4, book.TotalCopies)
		assert.Equal(t, 4, book.AvailableCopies)
	})

	t.Run("duplicate isbn", func(t *testing.T) {
		bookRepo := new(MockBookRepository)
		bookRepo.On("FindByISBN", mock.Anything, input.ISBN).
			Return(&model.Book{ISBN: input.ISBN}, nil)

		svc := NewBookService(bookRepo, nil)
		_, err := svc.AddBook(context.Background(), input)

		assert.ErrorIs(t, err, apperrors.ErrISBNExists)
		bookRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestBookService_UpdateBook_Resize(t *testing.T) {
	bookID := uuid.New()

	// 5 total, 2 available: 3 copies are out on loan.
	current := func() *model.Book {
		return &model.Book{
			ID:              bookID,
			Title:           "Dune",
			ISBN:            "978-0441172719",
			TotalCopies:     5,
			AvailableCopies: 2,
		}
	}

	tests := []struct {
		name          string
		newTotal      int
		wantErr       error
		wantTotal     int
		wantAvailable int
	}{
		{name: "grow preserves borrowed count", newTotal: 10, wantTotal: 10, wantAvailable: 7},
		{name: "shrink to exactly borrowed", newTotal: 3, wantTotal: 3, wantAvailable: 0},
		{name: "shrink below borrowed rejected", newTotal: 2, wantErr: apperrors.ErrNegativeAvailability},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookRepo := new(MockBookRepository)
			bookRepo.On("FindByIDForUpdate", mock.Anything, bookID).Return(current(), nil)
			if tt.wantErr == nil {
				bookRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Book")).Return(nil)
			}

			svc := NewBookService(bookRepo, nil)
			book, err := svc.UpdateBook(context.Background(), bookID, UpdateBookInput{TotalCopies: intPtr(tt.newTotal)})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				bookRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantTotal, book.TotalCopies)
			assert.Equal(t, tt.wantAvailable, book.AvailableCopies)
			// The resize read must take the row lock; a plain read would let a
			// concurrent decrement commit in between and be overwritten.
			bookRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
		})
	}
}

func TestBookService_UpdateBook(t *testing.T) {
	bookID := uuid.New()

	t.Run("book not found", func(t *testing.T) {
		bookRepo := new(MockBookRepository)
		bookRepo.On("FindByIDForUpdate", mock.Anything, bookID).Return(nil, gorm.ErrRecordNotFound)

		svc := NewBookService(bookRepo, nil)
		_, err := svc.UpdateBook(context.Background(), bookID, UpdateBookInput{Title: strPtr("New Title")})

		assert.ErrorIs(t, err, apperrors.ErrBookNotFound)
	})

	t.Run("isbn change to a taken isbn rejected", func(t *testing.T) {
		bookRepo := new(MockBookRepository)
		bookRepo.On("FindByIDForUpdate", mock.Anything, bookID).
			Return(&model.Book{ID: bookID, ISBN: "978-0441172719"}, nil)
		bookRepo.On("FindByISBN", mock.Anything, "978-0141439518").
			Return(&model.Book{ID: uuid.New(), ISBN: "978-0141439518"}, nil)

		svc := NewBookService(bookRepo, nil)
		_, err := svc.UpdateBook(context.Background(), bookID, UpdateBookInput{ISBN: strPtr("978-0141439518")})

		assert.ErrorIs(t, err, apperrors.ErrISBNExists)
	})

	t.Run("unchanged isbn skips the uniqueness lookup", func(t *testing.T) {
		bookRepo := new(MockBookRepository)
		bookRepo.On("FindByIDForUpdate", mock.Anything, bookID).
			Return(&model.Book{ID: bookID, ISBN: "978-0441172719"}, nil)
		bookRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Book")).Return(nil)

		svc := NewBookService(bookRepo, nil)
		book, err := svc.UpdateBook(context.Background(), bookID, UpdateBookInput{
			ISBN:  strPtr("978-0441172719"),
			Title: strPtr("Dune (Anniversary Edition)"),
		})

		assert.NoError(t, err)
		assert.Equal(t, "Dune (Anniversary Edition)", book.Title)
		bookRepo.AssertNotCalled(t, "FindByISBN", mock.Anything, mock.Anything)
	})
}

func TestBookService_DeleteBook(t *testing.T) {
	bookID := uuid.New()

	t.Run("deletes existing book", func(t *testing.T) {
		bookRepo := new(MockBookRepository)
		bookRepo.On("Delete", mock.Anything, bookID).Return(true, nil)

		svc := NewBookService(bookRepo, nil)
		assert.NoError(t, svc.DeleteBook(context.Background(), bookID))
	})

	t.Run("missing book", func(t *testing.T) {
		bookRepo := new(MockBookRepository)
		bookRepo.On("Delete", mock.Anything, bookID).Return(false, nil)

		svc := NewBookService(bookRepo, nil)
		assert.ErrorIs(t, svc.DeleteBook(context.Background(), bookID), apperrors.ErrBookNotFound)
	})
}

func TestBookService_GetBook(t *testing.T) {
	bookID := uuid.New()

	t.Run("missing book", func(t *testing.T) {
		bookRepo := new(MockBookRepository)
		bookRepo.On("FindByID", mock.Anything, bookID).Return(nil, gorm.ErrRecordNotFound)

		svc := NewBookService(bookRepo, nil)
		_, err := svc.GetBook(context.Background(), bookID)

		assert.ErrorIs(t, err, apperrors.ErrBookNotFound)
	})

	t.Run("found book", func(t *testing.T) {
		bookRepo := new(MockBookRepository)
		bookRepo.On("FindByID", mock.Anything, bookID).
			Return(&model.Book{ID: bookID, Title: "Dune"}, nil)

		svc := NewBookService(bookRepo, nil)
		book, err := svc.GetBook(context.Background(), bookID)

		assert.NoError(t, err)
		assert.Equal(t, "Dune", book.Title)
	})
}

// lockedBookRepo models the store's row lock: FindByIDForUpdate takes it,
// WithTransaction releases it on commit, and DecrementAvailable contends for
// it like a concurrent borrow would.
type lockedBookRepo struct {
	repository.BookRepository
	mu     sync.Mutex
	book   model.Book
	locked bool
}

func (s *lockedBookRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.BookRepository) error) error {
	err := fn(ctx, s)
	if s.locked {
		s.locked = false
		s.mu.Unlock()
	}
	return err
}

func (s *lockedBookRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	s.mu.Lock()
	s.locked = true
	book := s.book
	return &book, nil
}

func (s *lockedBookRepo) Save(ctx context.Context, book *model.Book) error {
	s.book = *book
	return nil
}

func (s *lockedBookRepo) DecrementAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.book.AvailableCopies <= 0 {
		return false, nil
	}
	s.book.AvailableCopies--
	return true, nil
}

func TestBookService_ResizeConcurrentWithBorrowKeepsCounters(t *testing.T) {
	bookID := uuid.New()

	// 5 total, 2 available. A resize to 10 races one borrow's decrement:
	// whichever order the lock serializes them into, the decrement must not
	// be overwritten by the resize's write-back.
	repo := &lockedBookRepo{book: model.Book{ID: bookID, TotalCopies: 5, AvailableCopies: 2}}
	svc := NewBookService(repo, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.UpdateBook(context.Background(), bookID, UpdateBookInput{TotalCopies: intPtr(10)})
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		ok, err := repo.DecrementAvailable(context.Background(), bookID)
		assert.NoError(t, err)
		assert.True(t, ok)
	}()
	wg.Wait()

	assert.Equal(t, 10, repo.book.TotalCopies)
	assert.Equal(t, 6, repo.book.AvailableCopies)
}

func TestBookService_ListBooks(t *testing.T) {
	books := []model.Book{{Title: "Dune"}, {Title: "Hyperion"}}

	bookRepo := new(MockBookRepository)
	bookRepo.On("List", mock.Anything, repository.BookFilter{
		Genre: "Science Fiction",
		Page:  1,
		Limit: 10,
	}).Return(books, int64(12), nil)

	svc := NewBookService(bookRepo, nil)

	// Page 0 and limit 0 normalize to the defaults.
	got, pagination, err := svc.ListBooks(context.Background(), "Science Fiction", "", "", 0, 0)

	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int64(12), pagination.Total)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 2, pagination.TotalPages)
}
