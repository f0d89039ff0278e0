package gate

import (
	"testing"

	"github.com/dmitrijs2005/medconb/internal/common"
	"github.com/dmitrijs2005/medconb/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

func parse(t *testing.T, query string) *ast.QueryDocument {
	t.Helper()
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	require.NoError(t, err)
	return doc
}

func TestCheckOperations_Anonymous(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		allowed bool
	}{
		{
			name:    "login mutation",
			query:   `mutation { login(request: {email: "a@b", password: "x"}) { token } }`,
			allowed: true,
		},
		{
			name:    "register mutation with variables",
			query:   `mutation Reg($r: RegisterUserInput!) { registerUser(request: $r) }`,
			allowed: true,
		},
		{
			name:    "both public fields in one mutation",
			query:   `mutation { registerUser(request: {email: "a", password: "b", name: "c"}) login(request: {email: "a", password: "b"}) { token } }`,
			allowed: true,
		},
		{
			name:    "aliased public field",
			query:   `mutation { t: login(request: {email: "a", password: "b"}) { token } }`,
			allowed: true,
		},
		{
			name:    "two public mutations batched",
			query:   `mutation A { login(request: {email: "a", password: "b"}) { token } } mutation B { registerUser(request: {email: "a", password: "b", name: "c"}) }`,
			allowed: true,
		},
		{
			name:  "query with public field name",
			query: `query { login }`,
		},
		{
			name:  "anonymous query shorthand",
			query: `{ me { id } }`,
		},
		{
			name:  "introspection",
			query: `{ __schema { types { name } } }`,
		},
		{
			name:  "subscription",
			query: `subscription { login }`,
		},
		{
			name:  "mutation with private field",
			query: `mutation { deleteCodelist(id: "1") }`,
		},
		{
			name:  "mixed public and private field",
			query: `mutation { login(request: {email: "a", password: "b"}) { token } deleteCodelist(id: "1") }`,
		},
		{
			name:  "mixed batch",
			query: `mutation A { login(request: {email: "a", password: "b"}) { token } } mutation B { deleteCodelist(id: "1") }`,
		},
		{
			name:  "mutation batched with query",
			query: `mutation A { login(request: {email: "a", password: "b"}) { token } } query B { me { id } }`,
		},
		{
			name:  "operation directive",
			query: `mutation @defer { login(request: {email: "a", password: "b"}) { token } }`,
		},
		{
			name:  "inline fragment at root",
			query: `mutation { ... on Mutation { login(request: {email: "a", password: "b"}) { token } } }`,
		},
		{
			name:  "fragment spread at root",
			query: `mutation { ...M } fragment M on Mutation { login(request: {email: "a", password: "b"}) { token } }`,
		},
		{
			name:  "fragment definition alongside",
			query: `mutation { login(request: {email: "a", password: "b"}) { token } } fragment F on TokenPayload { token }`,
		},
		{
			name:  "introspection field in mutation",
			query: `mutation { __typename }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOperations(auth.Anonymous(), parse(t, tt.query))
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, common.ErrForbidden)
		})
	}
}

func TestCheckOperations_EmptyDocument(t *testing.T) {
	assert.ErrorIs(t, CheckOperations(auth.Anonymous(), nil), common.ErrForbidden)
	assert.ErrorIs(t, CheckOperations(auth.Anonymous(), &ast.QueryDocument{}), common.ErrForbidden)
	assert.ErrorIs(t, CheckOperations(auth.Anonymous(), &ast.QueryDocument{
		Operations: ast.OperationList{{Operation: ast.Mutation}},
	}), common.ErrForbidden)
}

func TestCheckOperations_AuthenticatedBypasses(t *testing.T) {
	id := auth.Authenticated("u1", "Alice")
	for _, q := range []string{
		`{ me { id } }`,
		`query @include(if: true) { me { id } }`,
		`mutation { deleteCodelist(id: "1") }`,
		`{ ...F } fragment F on Query { me { id } }`,
	} {
		assert.NoError(t, CheckOperations(id, parse(t, q)), q)
	}
}

func TestIsPublicOperation(t *testing.T) {
	assert.True(t, IsPublicOperation("login"))
	assert.True(t, IsPublicOperation("registerUser"))
	assert.False(t, IsPublicOperation("Login"))
	assert.False(t, IsPublicOperation("me"))
}
