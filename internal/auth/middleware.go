package auth

import (
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "libris/internal/errors"
	"libris/internal/model"
)

// identityContextKey is where the resolved identity lives in the echo context.
const identityContextKey = "identity"

// Identity is the authenticated caller as resolved from a verified token.
type Identity struct {
	UserID uuid.UUID
	Role   model.Role
}

// Middleware resolves a bearer token into an Identity. A missing or invalid
// token is not a hard failure: the request continues anonymously and each
// route's role gate decides whether that is acceptable.
func Middleware(tokens *TokenService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: identityContextKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := tokens.Verify(token)
			if err != nil {
				return nil, err
			}
			return &Identity{UserID: claims.UserID, Role: claims.Role}, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			// continue as anonymous
			return nil
		},
		ContinueOnIgnoredError: true,
	})
}

// IdentityFrom returns the caller identity, or nil for anonymous requests.
func IdentityFrom(c echo.Context) *Identity {
	identity, ok := c.Get(identityContextKey).(*Identity)
	if !ok {
		return nil
	}
	return identity
}

// Authorize applies the role matrix to an identity. Anonymous callers are
// always denied; authenticated callers are denied unless their role is in
// the required set.
func Authorize(identity *Identity, required ...model.Role) error {
	if identity == nil {
		return apperrors.ErrUnauthenticated
	}
	for _, role := range required {
		if identity.Role == role {
			return nil
		}
	}
	return apperrors.ErrForbidden
}

// RequireRoles gates a route on the role matrix, rejecting the request
// before the handler runs.
func RequireRoles(required ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := Authorize(IdentityFrom(c), required...); err != nil {
				httpErr := apperrors.MapErrorToHTTP(err)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}
			return next(c)
		}
	}
}
