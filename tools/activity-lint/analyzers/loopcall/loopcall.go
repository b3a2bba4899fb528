// Package loopcall detects per-iteration calls to the activity store, the
// search index, the OpenAI clients and the discard resolver.
package loopcall

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports calls inside loops that load or resolve a whole site.
var Analyzer = &analysis.Analyzer{
	Name:     "loopcall",
	Doc:      "detects whole-site loads, searches and discard resolution inside loops",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// batchedMethods maps method names to the batched call that should replace them.
var batchedMethods = map[string]string{
	// Embedder
	"Embed": "EmbedBatch",
	// ActivityStore
	"ListActivities":      "one ListActivities before the loop",
	"ListRewindCompletes": "one ListRewindCompletes before the loop",
	"FindActivity":        "ExistingIDs or ListActivities",
	// VectorDB
	"Search":       "a single Search with a larger limit",
	"SearchByName": "a single SearchByName with a larger limit",
	// DiscardResolver
	"RewriteStream": "Predicate and IsDiscarded",
	"Predicate":     "one Predicate before the loop",
	// Summarizer
	"Summarize": "one Summarize over all activities",
}

// allowed marks method calls that may appear in a loop because the loop
// is bounded by user input rather than by stored activities.
func allowed(pass *analysis.Pass, call *ast.CallExpr) bool {
	for _, cg := range fileComments(pass, call) {
		for _, c := range cg.List {
			if pass.Fset.Position(c.Slash).Line == pass.Fset.Position(call.Pos()).Line && c.Text == "//loopcall:ok" {
				return true
			}
		}
	}
	return false
}

func fileComments(pass *analysis.Pass, n ast.Node) []*ast.CommentGroup {
	for _, f := range pass.Files {
		if f.Pos() <= n.Pos() && n.Pos() < f.End() {
			return f.Comments
		}
	}
	return nil
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.RangeStmt)(nil),
		(*ast.ForStmt)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		var body *ast.BlockStmt
		switch stmt := n.(type) {
		case *ast.RangeStmt:
			body = stmt.Body
		case *ast.ForStmt:
			body = stmt.Body
		}
		if body == nil {
			return
		}

		ast.Inspect(body, func(n ast.Node) bool {
			// Nested loops are visited on their own.
			switch n.(type) {
			case *ast.RangeStmt, *ast.ForStmt, *ast.FuncLit:
				return false
			}

			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}

			instead, ok := batchedMethods[sel.Sel.Name]
			if !ok || allowed(pass, call) {
				return true
			}

			pass.Reportf(call.Pos(),
				"potential N+1: %s called inside loop - use %s",
				sel.Sel.Name, instead)

			return true
		})
	})

	return nil, nil
}
