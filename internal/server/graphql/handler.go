package graphql

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/medconb/internal/logging"
	"github.com/dmitrijs2005/medconb/internal/server/auth"
	"github.com/dmitrijs2005/medconb/internal/server/gate"
	"github.com/dmitrijs2005/medconb/internal/server/metrics"
	"github.com/gin-gonic/gin"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

// Request is a GraphQL-over-HTTP request.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

type response struct {
	Data   any           `json:"data"`
	Errors gqlerror.List `json:"errors,omitempty"`
}

type errorResponse struct {
	Errors gqlerror.List `json:"errors"`
}

// Handler executes GraphQL requests.
type Handler struct {
	schema  *ast.Schema
	users   UserService
	logger  logging.Logger
	metrics *metrics.Metrics
}

func NewHandler(schema *ast.Schema, users UserService, logger logging.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		schema:  schema,
		users:   users,
		logger:  logger.With("module", "graphql"),
		metrics: m,
	}
}

// Handle serves GET and POST /graphql.
//
// An anonymous request whose document cannot be parsed, or that fails the
// operation allowlist, is answered with a bare 403 before validation so
// the response carries no hint about the schema.
func (h *Handler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	req, err := readRequest(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Errors: gqlerror.List{gqlerror.Errorf("%s", err)}})
		return
	}

	id, ok := auth.IdentityFrom(ctx)
	if !ok {
		id = auth.Anonymous()
	}

	doc, err := parser.ParseQuery(&ast.Source{Input: req.Query})
	if err != nil {
		if !id.IsAuthenticated() {
			h.deny(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Errors: toList(err)})
		return
	}

	if err := gate.CheckOperations(id, doc); err != nil {
		h.deny(c, err)
		return
	}

	if errs := validator.Validate(h.schema, doc); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Errors: errs})
		return
	}

	op := doc.Operations.ForName(req.OperationName)
	if op == nil {
		msg := "operation name is required"
		if req.OperationName != "" {
			msg = fmt.Sprintf("operation %q not found", req.OperationName)
		}
		c.JSON(http.StatusBadRequest, errorResponse{Errors: gqlerror.List{gqlerror.Errorf("%s", msg)}})
		return
	}

	if c.Request.Method == http.MethodGet && op.Operation != ast.Query {
		c.Header("Allow", http.MethodPost)
		c.JSON(http.StatusMethodNotAllowed, errorResponse{Errors: gqlerror.List{gqlerror.Errorf("%s operations require POST", op.Operation)}})
		return
	}

	vars, err := validator.VariableValues(h.schema, op, req.Variables)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Errors: toList(err)})
		return
	}

	root, resolvers := h.schema.Query, h.queryResolvers(id)
	if op.Operation == ast.Mutation {
		root, resolvers = h.schema.Mutation, h.mutationResolvers()
	}
	if root == nil {
		c.JSON(http.StatusBadRequest, errorResponse{Errors: gqlerror.List{gqlerror.Errorf("%s operations are not supported", op.Operation)}})
		return
	}

	e := &executor{doc: doc, vars: vars}
	data := e.execute(ctx, op, root, resolvers)

	c.JSON(http.StatusOK, response{Data: data, Errors: e.errs})
}

func (h *Handler) deny(c *gin.Context, reason error) {
	h.metrics.GateDenied(metrics.GateOperation)
	h.logger.Warn(c.Request.Context(), "graphql request denied", "reason", reason.Error())
	c.AbortWithStatus(http.StatusForbidden)
}

// maxBodyBytes caps a POST body before it reaches the parser.
const maxBodyBytes = 1 << 20

func readRequest(c *gin.Context) (*Request, error) {
	req := &Request{}

	switch c.Request.Method {
	case http.MethodGet:
		req.Query = c.Query("query")
		req.OperationName = c.Query("operationName")
		if v := c.Query("variables"); v != "" {
			dec := json.NewDecoder(strings.NewReader(v))
			dec.UseNumber()
			if err := dec.Decode(&req.Variables); err != nil {
				return nil, fmt.Errorf("variables are not valid JSON: %w", err)
			}
		}
	case http.MethodPost:
		dec := json.NewDecoder(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		dec.UseNumber()
		if err := dec.Decode(req); err != nil {
			return nil, fmt.Errorf("body is not a valid GraphQL request: %w", err)
		}
	default:
		return nil, errors.New("unsupported method")
	}

	if req.Query == "" {
		return nil, errors.New("query is required")
	}
	return req, nil
}

func toList(err error) gqlerror.List {
	var list gqlerror.List
	if errors.As(err, &list) {
		return list
	}
	var gqlErr *gqlerror.Error
	if errors.As(err, &gqlErr) {
		return gqlerror.List{gqlErr}
	}
	return gqlerror.List{gqlerror.Wrap(err)}
}
