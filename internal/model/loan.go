package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoanStatus is the closed set of loan lifecycle states.
type LoanStatus string

const (
	// StatusBorrowed is the initial state of every loan.
	StatusBorrowed LoanStatus = "Borrowed"
	// StatusReturned is the terminal state, entered exactly once.
	StatusReturned LoanStatus = "Returned"
	// StatusOverdue is a derived reporting label. No write path ever stores
	// it; see Loan.EffectiveStatus.
	StatusOverdue LoanStatus = "Overdue"
)

// Valid reports whether the status is one of the known values.
func (s LoanStatus) Valid() bool {
	return s == StatusBorrowed || s == StatusReturned || s == StatusOverdue
}

// LoanPeriod is how long a borrower may keep a book before it is due.
const LoanPeriod = 14 * 24 * time.Hour

// Loan represents a single borrow transaction linking one user to one book
// copy. Append-only after creation except for the single return transition.
type Loan struct {
	ID         uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	UserID     uuid.UUID  `json:"user_id" gorm:"type:char(36);not null;index:idx_loans_user_status"`
	BookID     uuid.UUID  `json:"book_id" gorm:"type:char(36);not null;index:idx_loans_book_status"`
	BorrowDate time.Time  `json:"borrow_date" gorm:"not null;index:,sort:desc"`
	DueDate    time.Time  `json:"due_date" gorm:"not null"`
	ReturnDate *time.Time `json:"return_date"`
	Status     LoanStatus `json:"status" gorm:"size:20;not null;default:'Borrowed';index:idx_loans_user_status;index:idx_loans_book_status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Book *Book `json:"book,omitempty" gorm:"foreignKey:BookID"`
}

// BeforeCreate sets UUID, borrow date and derived due date.
func (l *Loan) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.BorrowDate.IsZero() {
		l.BorrowDate = time.Now()
	}
	if l.DueDate.IsZero() {
		l.DueDate = l.BorrowDate.Add(LoanPeriod)
	}
	return nil
}

// Active reports whether the loan is still out (not yet returned).
func (l *Loan) Active() bool {
	return l.Status == StatusBorrowed
}

// EffectiveStatus returns the status as reported to callers: a loan that is
// still Borrowed past its due date reads as Overdue. The stored status is
// never mutated to Overdue.
func (l *Loan) EffectiveStatus(now time.Time) LoanStatus {
	if l.Status == StatusBorrowed && now.After(l.DueDate) {
		return StatusOverdue
	}
	return l.Status
}
