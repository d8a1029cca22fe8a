package main

import (
	"context"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"libris/internal/config"
	"libris/internal/db"
	"libris/internal/model"
	"libris/internal/repository"
)

type seedBook struct {
	title       string
	author      string
	isbn        string
	published   string
	genre       string
	totalCopies int
}

var sampleBooks = []seedBook{
	{"The Go Programming Language", "Alan A. A. Donovan", "978-0134190440", "2015-10-26", "Programming", 5},
	{"Designing Data-Intensive Applications", "Martin Kleppmann", "978-1449373320", "2017-04-11", "Programming", 3},
	{"Dune", "Frank Herbert", "978-0441172719", "1965-08-01", "Science Fiction", 4},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", "978-0441478125", "1969-03-01", "Science Fiction", 2},
	{"Pride and Prejudice", "Jane Austen", "978-0141439518", "1813-01-28", "Classic", 6},
	{"The Name of the Rose", "Umberto Eco", "978-0156001311", "1980-09-01", "Mystery", 2},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Book{}, &model.Loan{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	bookRepo := repository.NewBookRepository(gormDB)

	// Seed the admin user unless one already exists.
	adminEmail := "admin@library.local"
	if _, err := userRepo.FindByEmail(ctx, adminEmail); err != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash admin password: %v", err)
		}
		admin := &model.User{
			Name:         "Library Admin",
			Email:        adminEmail,
			PasswordHash: string(hashed),
			Role:         model.RoleAdmin,
		}
		if err := userRepo.Create(ctx, admin); err != nil {
			log.Fatalf("Failed to create admin user: %v", err)
		}
		log.Printf("Created admin user %s", adminEmail)
	} else {
		log.Printf("Admin user %s already exists, skipping", adminEmail)
	}

	created, skipped := 0, 0
	for _, sb := range sampleBooks {
		if _, err := bookRepo.FindByISBN(ctx, sb.isbn); err == nil {
			skipped++
			continue
		}
		published, err := time.Parse("2006-01-02", sb.published)
		if err != nil {
			log.Fatalf("Bad publication date for %q: %v", sb.title, err)
		}
		book := &model.Book{
			Title:           sb.title,
			Author:          sb.author,
			ISBN:            sb.isbn,
			PublicationDate: published,
			Genre:           sb.genre,
			TotalCopies:     sb.totalCopies,
			AvailableCopies: sb.totalCopies,
		}
		if err := bookRepo.Create(ctx, book); err != nil {
			log.Fatalf("Failed to create book %q: %v", sb.title, err)
		}
		created++
	}

	log.Printf("Seed complete: %d books created, %d skipped", created, skipped)
}
