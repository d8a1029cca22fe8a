package graphql

import (
	"context"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/labstack/echo/v4"

	"libris/internal/auth"
)

type contextKey int

const identityKey contextKey = iota

// identityFrom returns the caller identity from a resolver context, or nil
// for anonymous requests.
func identityFrom(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(identityKey).(*auth.Identity)
	return identity
}

// Handler serves the GraphQL framing of the API. It shares the services and
// the role matrix with the REST handlers; only the transport differs.
type Handler struct {
	schema graphql.Schema
}

type request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Serve executes one GraphQL request. The identity resolved by the token
// middleware is carried into resolver contexts; operation-level checks
// happen inside the resolvers, mirroring the REST role gates.
func (h *Handler) Serve(c echo.Context) error {
	var req request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := context.WithValue(c.Request().Context(), identityKey, auth.IdentityFrom(c))

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        ctx,
	})
	return c.JSON(http.StatusOK, result)
}
