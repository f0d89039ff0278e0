// Package gate decides which GraphQL documents an anonymous caller may run.
package gate

import (
	"fmt"

	"github.com/dmitrijs2005/medconb/internal/common"
	"github.com/dmitrijs2005/medconb/internal/server/auth"
	"github.com/vektah/gqlparser/v2/ast"
)

// PublicOperations are the root fields reachable without a token.
var publicOperations = map[string]struct{}{
	"registerUser": {},
	"login":        {},
}

// IsPublicOperation reports whether name is a root field anonymous callers
// may select.
func IsPublicOperation(name string) bool {
	_, ok := publicOperations[name]
	return ok
}

// CheckOperations returns nil when id may execute doc. Authenticated
// callers always pass. For everybody else the whole document must consist
// of directive-free mutations whose root selections are plain fields from
// the public set; any violation yields an error wrapping common.ErrForbidden.
func CheckOperations(id auth.Identity, doc *ast.QueryDocument) error {
	if id.IsAuthenticated() {
		return nil
	}
	if doc == nil || len(doc.Operations) == 0 {
		return deny("no operation")
	}
	if len(doc.Fragments) > 0 {
		return deny("fragment definition %q", doc.Fragments[0].Name)
	}

	for _, op := range doc.Operations {
		if op.Operation != ast.Mutation {
			return deny("%s operation", op.Operation)
		}
		if len(op.Directives) > 0 {
			return deny("directive @%s on operation", op.Directives[0].Name)
		}
		if len(op.SelectionSet) == 0 {
			return deny("empty selection set")
		}
		for _, sel := range op.SelectionSet {
			field, ok := sel.(*ast.Field)
			if !ok {
				return deny("non-field selection %T", sel)
			}
			if !IsPublicOperation(field.Name) {
				return deny("field %q", field.Name)
			}
		}
	}

	return nil
}

func deny(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrForbidden, fmt.Sprintf(format, args...))
}
