package graphql

import (
	"context"
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// DefaultMaxDepth bounds nesting when the handler is given no limit
const DefaultMaxDepth = 5

// depthWalker measures field nesting. A fragment already being expanded on
// the current path is not expanded again.
type depthWalker struct {
	fragments map[string]*ast.FragmentDefinition
	onPath    map[string]bool
}

func newDepthWalker(doc *ast.Document) *depthWalker {
	w := &depthWalker{
		fragments: make(map[string]*ast.FragmentDefinition),
		onPath:    make(map[string]bool),
	}
	for _, def := range doc.Definitions {
		if frag, ok := def.(*ast.FragmentDefinition); ok {
			w.fragments[frag.Name.Value] = frag
		}
	}
	return w
}

func (w *depthWalker) depth(set *ast.SelectionSet, level int) int {
	if set == nil {
		return level
	}

	deepest := level
	for _, selection := range set.Selections {
		switch sel := selection.(type) {
		case *ast.Field:
			// Introspection fields do not count
			if strings.HasPrefix(sel.Name.Value, "__") || sel.SelectionSet == nil {
				continue
			}
			deepest = max(deepest, w.depth(sel.SelectionSet, level+1))

		case *ast.InlineFragment:
			deepest = max(deepest, w.depth(sel.SelectionSet, level))

		case *ast.FragmentSpread:
			name := sel.Name.Value
			frag, ok := w.fragments[name]
			if !ok || w.onPath[name] {
				continue
			}
			w.onPath[name] = true
			deepest = max(deepest, w.depth(frag.SelectionSet, level))
			delete(w.onPath, name)
		}
	}
	return deepest
}

// QueryDepth returns the deepest field nesting over every operation in query
func QueryDepth(query string) (int, error) {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return 0, fmt.Errorf("failed to parse query: %w", err)
	}

	w := newDepthWalker(doc)
	deepest := 0
	for _, def := range doc.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok {
			deepest = max(deepest, w.depth(op.SelectionSet, 1))
		}
	}
	return deepest, nil
}

// ValidateQueryDepth rejects a query nested deeper than maxDepth
func ValidateQueryDepth(query string, maxDepth int) error {
	depth, err := QueryDepth(query)
	if err != nil {
		return err
	}
	if depth > maxDepth {
		return fmt.Errorf("query depth %d exceeds maximum allowed depth %d", depth, maxDepth)
	}
	return nil
}

// Execute runs req against schema once it passes the depth check
func Execute(ctx context.Context, schema graphql.Schema, req GraphQLRequest, maxDepth int) *graphql.Result {
	if err := ValidateQueryDepth(req.Query, maxDepth); err != nil {
		return &graphql.Result{
			Errors: []gqlerrors.FormattedError{gqlerrors.FormatError(err)},
		}
	}

	return graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}
