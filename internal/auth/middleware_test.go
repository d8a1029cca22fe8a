package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	apperrors "libris/internal/errors"
	"libris/internal/model"
)

func TestAuthorize(t *testing.T) {
	member := &Identity{UserID: uuid.New(), Role: model.RoleMember}
	admin := &Identity{UserID: uuid.New(), Role: model.RoleAdmin}

	tests := []struct {
		name     string
		identity *Identity
		required []model.Role
		wantErr  error
	}{
		{name: "anonymous is always denied", identity: nil, required: []model.Role{model.RoleMember, model.RoleAdmin}, wantErr: apperrors.ErrUnauthenticated},
		{name: "member allowed on member routes", identity: member, required: []model.Role{model.RoleMember, model.RoleAdmin}},
		{name: "member denied on admin routes", identity: member, required: []model.Role{model.RoleAdmin}, wantErr: apperrors.ErrForbidden},
		{name: "admin allowed on admin routes", identity: admin, required: []model.Role{model.RoleAdmin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.identity, tt.required...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMiddleware_ResolvesIdentity(t *testing.T) {
	tokens := NewTokenService("signing-secret", "encryption-secret")
	userID := uuid.New()
	token, err := tokens.Issue(userID, model.RoleAdmin)
	assert.NoError(t, err)

	e := echo.New()
	e.GET("/probe", func(c echo.Context) error {
		identity := IdentityFrom(c)
		if identity == nil {
			return c.String(http.StatusOK, "anonymous")
		}
		return c.String(http.StatusOK, string(identity.Role))
	}, Middleware(tokens))

	probe := func(authorization string) string {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		if authorization != "" {
			req.Header.Set(echo.HeaderAuthorization, authorization)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		return rec.Body.String()
	}

	t.Run("valid token", func(t *testing.T) {
		assert.Equal(t, "Admin", probe("Bearer "+token))
	})

	t.Run("missing token continues anonymously", func(t *testing.T) {
		assert.Equal(t, "anonymous", probe(""))
	})

	t.Run("invalid token continues anonymously", func(t *testing.T) {
		assert.Equal(t, "anonymous", probe("Bearer garbage"))
	})
}

func TestRequireRoles(t *testing.T) {
	tokens := NewTokenService("signing-secret", "encryption-secret")
	memberToken, err := tokens.Issue(uuid.New(), model.RoleMember)
	assert.NoError(t, err)

	e := echo.New()
	e.GET("/admin-only", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, Middleware(tokens), RequireRoles(model.RoleAdmin))

	t.Run("anonymous gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("member gets 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+memberToken)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
