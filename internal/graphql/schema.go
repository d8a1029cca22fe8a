package graphql

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"

	"libris/internal/auth"
	"libris/internal/model"
	"libris/internal/service"
)

var (
	errInvalidRole   = errors.New("role must be either Admin or Member")
	errInvalidStatus = errors.New("invalid status filter")
)

// resolvers carries the services that GraphQL fields delegate to.
type resolvers struct {
	authSvc   service.AuthService
	bookSvc   service.BookService
	borrowSvc service.BorrowService
	reportSvc service.ReportService
}

// New builds the GraphQL schema over the shared services.
func New(
	authSvc service.AuthService,
	bookSvc service.BookService,
	borrowSvc service.BorrowService,
	reportSvc service.ReportService,
) (*Handler, error) {
	r := &resolvers{authSvc: authSvc, bookSvc: bookSvc, borrowSvc: borrowSvc, reportSvc: reportSvc}

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"email":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"role":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
		},
	})

	bookType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Book",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"author":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"isbn":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"publicationDate": &graphql.Field{Type: graphql.DateTime},
			"genre":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"totalCopies":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"availableCopies": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"createdAt":       &graphql.Field{Type: graphql.DateTime},
		},
	})

	borrowingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Borrowing",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"user":       &graphql.Field{Type: userType},
			"book":       &graphql.Field{Type: bookType},
			"borrowDate": &graphql.Field{Type: graphql.DateTime},
			"dueDate":    &graphql.Field{Type: graphql.DateTime},
			"returnDate": &graphql.Field{Type: graphql.DateTime},
			"status":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	authPayloadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.Fields{
			"token": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"user":  &graphql.Field{Type: userType},
		},
	})

	bookPageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BookPage",
		Fields: graphql.Fields{
			"books":      &graphql.Field{Type: graphql.NewList(bookType)},
			"total":      &graphql.Field{Type: graphql.Int},
			"page":       &graphql.Field{Type: graphql.Int},
			"totalPages": &graphql.Field{Type: graphql.Int},
		},
	})

	borrowingPageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BorrowingPage",
		Fields: graphql.Fields{
			"borrowings": &graphql.Field{Type: graphql.NewList(borrowingType)},
			"total":      &graphql.Field{Type: graphql.Int},
			"page":       &graphql.Field{Type: graphql.Int},
			"totalPages": &graphql.Field{Type: graphql.Int},
		},
	})

	mostBorrowedType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MostBorrowedBook",
		Fields: graphql.Fields{
			"bookId":      &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":       &graphql.Field{Type: graphql.String},
			"author":      &graphql.Field{Type: graphql.String},
			"isbn":        &graphql.Field{Type: graphql.String},
			"genre":       &graphql.Field{Type: graphql.String},
			"borrowCount": &graphql.Field{Type: graphql.Int},
		},
	})

	activeMemberType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ActiveMember",
		Fields: graphql.Fields{
			"userId":           &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":             &graphql.Field{Type: graphql.String},
			"email":            &graphql.Field{Type: graphql.String},
			"totalBorrowings":  &graphql.Field{Type: graphql.Int},
			"activeBorrowings": &graphql.Field{Type: graphql.Int},
		},
	})

	availabilitySummaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AvailabilitySummary",
		Fields: graphql.Fields{
			"totalBooks":     &graphql.Field{Type: graphql.Int},
			"availableBooks": &graphql.Field{Type: graphql.Int},
			"borrowedBooks":  &graphql.Field{Type: graphql.Int},
			"borrowedCopies": &graphql.Field{Type: graphql.Int},
		},
	})

	genreAvailabilityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GenreAvailability",
		Fields: graphql.Fields{
			"genre":           &graphql.Field{Type: graphql.String},
			"totalCopies":     &graphql.Field{Type: graphql.Int},
			"availableCopies": &graphql.Field{Type: graphql.Int},
			"borrowedCopies":  &graphql.Field{Type: graphql.Int},
			"numberOfBooks":   &graphql.Field{Type: graphql.Int},
		},
	})

	availabilityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BookAvailability",
		Fields: graphql.Fields{
			"summary":               &graphql.Field{Type: availabilitySummaryType},
			"genreWiseAvailability": &graphql.Field{Type: graphql.NewList(genreAvailabilityType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"books": &graphql.Field{
				Type: bookPageType,
				Args: graphql.FieldConfigArgument{
					"page":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
					"genre":  &graphql.ArgumentConfig{Type: graphql.String},
					"author": &graphql.ArgumentConfig{Type: graphql.String},
					"search": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.books,
			},
			"book": &graphql.Field{
				Type: bookType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.book,
			},
			"borrowHistory": &graphql.Field{
				Type: borrowingPageType,
				Args: graphql.FieldConfigArgument{
					"page":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
					"status": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.borrowHistory,
			},
			"allBorrowings": &graphql.Field{
				Type: borrowingPageType,
				Args: graphql.FieldConfigArgument{
					"page":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
					"status": &graphql.ArgumentConfig{Type: graphql.String},
					"userId": &graphql.ArgumentConfig{Type: graphql.ID},
				},
				Resolve: r.allBorrowings,
			},
			"mostBorrowedBooks": &graphql.Field{
				Type: graphql.NewList(mostBorrowedType),
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: r.mostBorrowedBooks,
			},
			"activeMembers": &graphql.Field{
				Type: graphql.NewList(activeMemberType),
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: r.activeMembers,
			},
			"bookAvailability": &graphql.Field{
				Type:    availabilityType,
				Resolve: r.bookAvailability,
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"register": &graphql.Field{
				Type: authPayloadType,
				Args: graphql.FieldConfigArgument{
					"name":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"role":     &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.register,
			},
			"login": &graphql.Field{
				Type: authPayloadType,
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.login,
			},
			"addBook": &graphql.Field{
				Type: bookType,
				Args: graphql.FieldConfigArgument{
					"title":           &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"author":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"isbn":            &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"publicationDate": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.DateTime)},
					"genre":           &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"totalCopies":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
				},
				Resolve: r.addBook,
			},
			"updateBook": &graphql.Field{
				Type: bookType,
				Args: graphql.FieldConfigArgument{
					"id":              &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"title":           &graphql.ArgumentConfig{Type: graphql.String},
					"author":          &graphql.ArgumentConfig{Type: graphql.String},
					"isbn":            &graphql.ArgumentConfig{Type: graphql.String},
					"publicationDate": &graphql.ArgumentConfig{Type: graphql.DateTime},
					"genre":           &graphql.ArgumentConfig{Type: graphql.String},
					"totalCopies":     &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: r.updateBook,
			},
			"deleteBook": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.deleteBook,
			},
			"borrowBook": &graphql.Field{
				Type: borrowingType,
				Args: graphql.FieldConfigArgument{
					"bookId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.borrowBook,
			},
			"returnBook": &graphql.Field{
				Type: borrowingType,
				Args: graphql.FieldConfigArgument{
					"borrowingId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.returnBook,
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
	if err != nil {
		return nil, err
	}
	return &Handler{schema: schema}, nil
}

func (r *resolvers) register(p graphql.ResolveParams) (interface{}, error) {
	role := model.Role(stringArg(p, "role"))
	if role != "" && !role.Valid() {
		return nil, errInvalidRole
	}
	return r.authSvc.Register(p.Context,
		p.Args["name"].(string),
		p.Args["email"].(string),
		p.Args["password"].(string),
		role,
	)
}

func (r *resolvers) login(p graphql.ResolveParams) (interface{}, error) {
	return r.authSvc.Login(p.Context,
		p.Args["email"].(string),
		p.Args["password"].(string),
	)
}

func (r *resolvers) books(p graphql.ResolveParams) (interface{}, error) {
	if err := auth.Authorize(identityFrom(p.Context), model.RoleMember, model.RoleAdmin); err != nil {
		return nil, err
	}
	books, pagination, err := r.bookSvc.ListBooks(p.Context,
		stringArg(p, "genre"),
		stringArg(p, "author"),
		stringArg(p, "search"),
		intArg(p, "page"),
		intArg(p, "limit"),
	)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"books":      books,
		"total":      pagination.Total,
		"page":       pagination.Page,
		"totalPages": pagination.TotalPages,
	}, nil
}

func (r *resolvers) book(p graphql.ResolveParams) (interface{}, error) {
	if err := auth.Authorize(identityFrom(p.Context), model.RoleMember, model.RoleAdmin); err != nil {
		return nil, err
	}
	id, err := uuidArg(p, "id")
	if err != nil {
		return nil, err
	}
	return r.bookSvc.GetBook(p.Context, id)
}

func (r *resolvers) addBook(p graphql.ResolveParams) (interface{}, error) {
	if err := auth.Authorize(identityFrom(p.Context), model.RoleAdmin); err != nil {
		return nil, err
	}
	return r.bookSvc.AddBook(p.Context, service.AddBookInput{
		Title:           p.Args["title"].(string),
		Author:          p.Args["author"].(string),
		ISBN:            p.Args["isbn"].(string),
		PublicationDate: p.Args["publicationDate"].(time.Time),
		Genre:           p.Args["genre"].(string),
		TotalCopies:     intArg(p, "totalCopies"),
	})
}

func (r *resolvers) updateBook(p graphql.ResolveParams) (interface{}, error) {
	if err := auth.Authorize(identityFrom(p.Context), model.RoleAdmin); err != nil {
		return nil, err
	}
	id, err := uuidArg(p, "id")
	if err != nil {
		return nil, err
	}

	var input service.UpdateBookInput
	if v, ok := p.Args["title"].(string); ok {
		input.Title = &v
	}
	if v, ok := p.Args["author"].(string); ok {
		input.Author = &v
	}
	if v, ok := p.Args["isbn"].(string); ok {
		input.ISBN = &v
	}
	if v, ok := p.Args["publicationDate"].(time.Time); ok {
		input.PublicationDate = &v
	}
	if v, ok := p.Args["genre"].(string); ok {
		input.Genre = &v
	}
	if v, ok := p.Args["totalCopies"].(int); ok {
		input.TotalCopies = &v
	}
	return r.bookSvc.UpdateBook(p.Context, id, input)
}

func (r *resolvers) deleteBook(p graphql.ResolveParams) (interface{}, error) {
	if err := auth.Authorize(identityFrom(p.Context), model.RoleAdmin); err != nil {
		return nil, err
	}
	id, err := uuidArg(p, "id")
	if err != nil {
		return nil, err
	}
	if err := r.bookSvc.DeleteBook(p.Context, id); err != nil {
		return nil, err
	}
	return true, nil
}

func (r *resolvers) borrowBook(p graphql.ResolveParams) (interface{}, error) {
	identity := identityFrom(p.Context)
	if err := auth.Authorize(identity, model.RoleMember, model.RoleAdmin); err != nil {
		return nil, err
	}
	bookID, err := uuidArg(p, "bookId")
	if err != nil {
		return nil, err
	}
	return r.borrowSvc.Borrow(p.Context, identity.UserID, bookID)
}

func (r *resolvers) returnBook(p graphql.ResolveParams) (interface{}, error) {
	identity := identityFrom(p.Context)
	if err := auth.Authorize(identity, model.RoleMember, model.RoleAdmin); err != nil {
		return nil, err
	}
	loanID, err := uuidArg(p, "borrowingId")
	if err != nil {
		return nil, err
	}
	return r.borrowSvc.Return(p.Context, loanID, identity.UserID, identity.Role)
}

func (r *resolvers) borrowHistory(p graphql.ResolveParams) (interface{}, error) {
	identity := identityFrom(p.Context)
	if err := auth.Authorize(identity, model.RoleMember, model.RoleAdmin); err != nil {
		return nil, err
	}
	status, err := statusArg(p)
	if err != nil {
		return nil, err
	}
	loans, pagination, err := r.borrowSvc.History(p.Context, identity.UserID, status, intArg(p, "page"), intArg(p, "limit"))
	if err != nil {
		return nil, err
	}
	return borrowingPage(loans, pagination), nil
}

func (r *resolvers) allBorrowings(p graphql.ResolveParams) (interface{}, error) {
	if err := auth.Authorize(identityFrom(p.Context), model.RoleAdmin); err != nil {
		return nil, err
	}
	status, err := statusArg(p)
	if err != nil {
		return nil, err
	}
	var userID *uuid.UUID
	if raw, ok := p.Args["userId"].(string); ok {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return nil, errors.New("invalid user id")
		}
		userID = &parsed
	}
	loans, pagination, err := r.borrowSvc.AllLoans(p.Context, userID, status, intArg(p, "page"), intArg(p, "limit"))
	if err != nil {
		return nil, err
	}
	return borrowingPage(loans, pagination), nil
}

func (r *resolvers) mostBorrowedBooks(p graphql.ResolveParams) (interface{}, error) {
	if err := auth.Authorize(identityFrom(p.Context), model.RoleAdmin); err != nil {
		return nil, err
	}
	return r.reportSvc.MostBorrowed(p.Context, intArg(p, "limit"))
}

func (r *resolvers) activeMembers(p graphql.ResolveParams) (interface{}, error) {
	if err := auth.Authorize(identityFrom(p.Context), model.RoleAdmin); err != nil {
		return nil, err
	}
	return r.reportSvc.ActiveMembers(p.Context, intArg(p, "limit"))
}

func (r *resolvers) bookAvailability(p graphql.ResolveParams) (interface{}, error) {
	if err := auth.Authorize(identityFrom(p.Context), model.RoleAdmin); err != nil {
		return nil, err
	}
	report, err := r.reportSvc.Availability(p.Context)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"summary":               report.Summary,
		"genreWiseAvailability": report.GenreWise,
	}, nil
}

func borrowingPage(loans []model.Loan, pagination *service.Pagination) map[string]interface{} {
	return map[string]interface{}{
		"borrowings": loans,
		"total":      pagination.Total,
		"page":       pagination.Page,
		"totalPages": pagination.TotalPages,
	}
}

func stringArg(p graphql.ResolveParams, name string) string {
	v, _ := p.Args[name].(string)
	return v
}

func intArg(p graphql.ResolveParams, name string) int {
	v, _ := p.Args[name].(int)
	return v
}

func uuidArg(p graphql.ResolveParams, name string) (uuid.UUID, error) {
	raw, _ := p.Args[name].(string)
	return uuid.Parse(raw)
}

// statusArg parses the optional status argument. Overdue is accepted but
// matches the stored column, which never holds it (Overdue is derived on
// read), so the filter yields an empty page.
func statusArg(p graphql.ResolveParams) (*model.LoanStatus, error) {
	raw, ok := p.Args["status"].(string)
	if !ok || raw == "" {
		return nil, nil
	}
	status := model.LoanStatus(raw)
	if !status.Valid() {
		return nil, errInvalidStatus
	}
	return &status, nil
}
