package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Book represents a catalog entry. AvailableCopies tracks copies not
// currently lent out; the invariant 0 <= AvailableCopies <= TotalCopies
// holds at all times and is protected by conditioned updates in the
// book repository, never by blind read-then-write.
type Book struct {
	ID              uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Title           string    `json:"title" gorm:"size:255;not null;index:idx_books_title_author"`
	Author          string    `json:"author" gorm:"size:255;not null;index:idx_books_title_author"`
	ISBN            string    `json:"isbn" gorm:"uniqueIndex;size:32;not null"`
	PublicationDate time.Time `json:"publication_date" gorm:"not null"`
	Genre           string    `json:"genre" gorm:"size:100;not null;index"`
	TotalCopies     int       `json:"total_copies" gorm:"not null;default:1"`
	AvailableCopies int       `json:"available_copies" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
