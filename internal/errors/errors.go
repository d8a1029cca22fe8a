package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrBookNotFound is returned when a book is not found.
	ErrBookNotFound = errors.New("book not found")
	// ErrNoCopiesAvailable is returned when a book has no copies left to lend.
	ErrNoCopiesAvailable = errors.New("book is not available for borrowing")
	// ErrDuplicateActiveLoan is returned when the user already holds an active loan for the book.
	ErrDuplicateActiveLoan = errors.New("you have already borrowed this book")
	// ErrLoanNotFound is returned when a borrowing record is not found.
	ErrLoanNotFound = errors.New("borrowing record not found")
	// ErrAlreadyReturned is returned when the loan has already been returned.
	ErrAlreadyReturned = errors.New("book has already been returned")
	// ErrNotLoanOwner is returned when a member tries to return someone else's loan.
	ErrNotLoanOwner = errors.New("you can only return your own borrowed books")
	// ErrNegativeAvailability is returned when a resize would leave fewer total copies than are lent out.
	ErrNegativeAvailability = errors.New("total copies cannot be less than borrowed copies")
	// ErrISBNExists is returned when a book with the same ISBN already exists.
	ErrISBNExists = errors.New("book with this ISBN already exists")
	// ErrEmailExists is returned when a user with the same email already exists.
	ErrEmailExists = errors.New("user with this email already exists")
	// ErrInvalidCredentials is returned on bad email or password. The message is
	// identical for both cases to avoid account enumeration.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken is returned when a token fails decryption, signature or expiry checks.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUnauthenticated is returned when a gated operation is attempted anonymously.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the caller's role does not permit the operation.
	ErrForbidden = errors.New("insufficient permissions")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unclassified errors come
// back as an opaque internal error so storage-layer detail never leaks.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrBookNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "BOOK_NOT_FOUND")
	case errors.Is(err, ErrLoanNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "BORROWING_NOT_FOUND")
	case errors.Is(err, ErrNoCopiesAvailable):
		return NewHTTPError(http.StatusConflict, err.Error(), "NO_COPIES_AVAILABLE")
	case errors.Is(err, ErrDuplicateActiveLoan):
		return NewHTTPError(http.StatusConflict, err.Error(), "DUPLICATE_ACTIVE_LOAN")
	case errors.Is(err, ErrAlreadyReturned):
		return NewHTTPError(http.StatusConflict, err.Error(), "ALREADY_RETURNED")
	case errors.Is(err, ErrNegativeAvailability):
		return NewHTTPError(http.StatusConflict, err.Error(), "NEGATIVE_AVAILABILITY")
	case errors.Is(err, ErrISBNExists):
		return NewHTTPError(http.StatusConflict, err.Error(), "ISBN_EXISTS")
	case errors.Is(err, ErrEmailExists):
		return NewHTTPError(http.StatusConflict, err.Error(), "EMAIL_EXISTS")
	case errors.Is(err, ErrNotLoanOwner):
		return NewHTTPError(http.StatusForbidden, err.Error(), "NOT_LOAN_OWNER")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_TOKEN")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
