package graphql

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

type resolverFunc func(ctx context.Context, args map[string]any) (any, error)

// objectValue is what resolvers return for composite types.
type objectValue struct {
	typeName string
	fields   map[string]any
}

// object is a JSON object that keeps the order of the selection set.
type object []member

type member struct {
	key   string
	value any
}

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// executor runs one validated operation. Root fields run one after the
// other, which is what mutations require and harmless for queries.
type executor struct {
	doc  *ast.QueryDocument
	vars map[string]any
	errs gqlerror.List
}

func (e *executor) execute(ctx context.Context, op *ast.OperationDefinition, root *ast.Definition, resolvers map[string]resolverFunc) any {
	out := object{}

	for _, f := range e.collectFields(root.Name, op.SelectionSet) {
		key := responseKey(f)
		path := ast.Path{ast.PathName(key)}

		if f.Name == "__typename" {
			out = append(out, member{key, root.Name})
			continue
		}

		resolve, ok := resolvers[f.Name]
		if !ok {
			e.errs = append(e.errs, gqlerror.ErrorPathf(path, "field %s is not available", f.Name))
			if nonNull(f) {
				return nil
			}
			out = append(out, member{key, nil})
			continue
		}

		v, err := resolve(ctx, f.ArgumentMap(e.vars))
		if err != nil {
			e.errs = append(e.errs, &gqlerror.Error{Message: err.Error(), Path: path, Locations: locations(f)})
			if nonNull(f) {
				return nil
			}
			out = append(out, member{key, nil})
			continue
		}

		out = append(out, member{key, e.complete(f, v)})
	}

	return out
}

func (e *executor) complete(f *ast.Field, v any) any {
	ov, ok := v.(*objectValue)
	if !ok || ov == nil {
		return v
	}

	out := object{}
	for _, sub := range e.collectFields(ov.typeName, f.SelectionSet) {
		key := responseKey(sub)
		if sub.Name == "__typename" {
			out = append(out, member{key, ov.typeName})
			continue
		}
		out = append(out, member{key, e.complete(sub, ov.fields[sub.Name])})
	}
	return out
}

// collectFields flattens fragments and applies @skip/@include.
func (e *executor) collectFields(typeName string, set ast.SelectionSet) []*ast.Field {
	var fields []*ast.Field
	seen := map[string]bool{}

	var walk func(ast.SelectionSet)
	walk = func(set ast.SelectionSet) {
		for _, sel := range set {
			switch s := sel.(type) {
			case *ast.Field:
				if !e.included(s.Directives) {
					continue
				}
				key := responseKey(s)
				if seen[key] {
					continue
				}
				seen[key] = true
				fields = append(fields, s)
			case *ast.InlineFragment:
				if !e.included(s.Directives) {
					continue
				}
				if s.TypeCondition == "" || s.TypeCondition == typeName {
					walk(s.SelectionSet)
				}
			case *ast.FragmentSpread:
				if !e.included(s.Directives) {
					continue
				}
				def := s.Definition
				if def == nil {
					def = e.doc.Fragments.ForName(s.Name)
				}
				if def != nil && def.TypeCondition == typeName {
					walk(def.SelectionSet)
				}
			}
		}
	}
	walk(set)

	return fields
}

func (e *executor) included(directives ast.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil && d.Definition != nil {
		if skip, _ := d.ArgumentMap(e.vars)["if"].(bool); skip {
			return false
		}
	}
	if d := directives.ForName("include"); d != nil && d.Definition != nil {
		if include, _ := d.ArgumentMap(e.vars)["if"].(bool); !include {
			return false
		}
	}
	return true
}

func responseKey(f *ast.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

func nonNull(f *ast.Field) bool {
	return f.Definition != nil && f.Definition.Type != nil && f.Definition.Type.NonNull
}

func locations(f *ast.Field) []gqlerror.Location {
	if f.Position == nil {
		return nil
	}
	return []gqlerror.Location{{Line: f.Position.Line, Column: f.Position.Column}}
}
