package analyzer

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

const (
	analyzerName = "forbiddencalls"
	analyzerDoc  = "reports panic, log.Fatal and os.Exit outside main, and outbound HTTP calls that cannot carry a context"
)

// Analyzer checks for forbidden function calls in the code.
var Analyzer = &analysis.Analyzer{
	Name:     analyzerName,
	Doc:      analyzerDoc,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// contextlessHTTP are net/http helpers that send a request without a context.
var contextlessHTTP = map[string]bool{
	"Get":      true,
	"Head":     true,
	"Post":     true,
	"PostForm": true,
}

var fatalFuncs = map[string]bool{
	"Fatal":   true,
	"Fatalf":  true,
	"Fatalln": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
		(*ast.SelectorExpr)(nil),
	}

	insp.Preorder(nodeFilter, func(node ast.Node) {
		switch n := node.(type) {
		case *ast.CallExpr:
			checkCall(pass, n)
		case *ast.SelectorExpr:
			checkDefaultClient(pass, n)
		}
	})

	return nil, nil
}

func checkCall(pass *analysis.Pass, callExpr *ast.CallExpr) {
	switch fn := callExpr.Fun.(type) {
	case *ast.Ident:
		if fn.Name == "panic" && isBuiltin(pass, fn) {
			pass.Reportf(callExpr.Pos(), "panic is forbidden")
		}
	case *ast.SelectorExpr:
		checkSelectorExpr(pass, fn, callExpr)
	}
}

func checkSelectorExpr(pass *analysis.Pass, selectorExpr *ast.SelectorExpr, callExpr *ast.CallExpr) {
	pkgPath, ok := importedPackage(pass, selectorExpr)
	if !ok {
		return
	}
	fn := selectorExpr.Sel.Name

	switch {
	case pkgPath == "log" && fatalFuncs[fn]:
		if !isInMainFunction(pass, callExpr) {
			pass.Reportf(callExpr.Pos(), "log.%s is forbidden outside main function", fn)
		}
	case pkgPath == "os" && fn == "Exit":
		if !isInMainFunction(pass, callExpr) {
			pass.Reportf(callExpr.Pos(), "os.Exit is forbidden outside main function")
		}
	case pkgPath == "net/http" && contextlessHTTP[fn]:
		if !isTestFile(pass, callExpr) {
			pass.Reportf(callExpr.Pos(), "http.%s sends a request without a context, use http.NewRequestWithContext", fn)
		}
	}
}

func checkDefaultClient(pass *analysis.Pass, selectorExpr *ast.SelectorExpr) {
	if selectorExpr.Sel.Name != "DefaultClient" {
		return
	}
	pkgPath, ok := importedPackage(pass, selectorExpr)
	if !ok || pkgPath != "net/http" {
		return
	}
	if !isTestFile(pass, selectorExpr) {
		pass.Reportf(selectorExpr.Pos(), "http.DefaultClient has no timeout, use a configured *http.Client")
	}
}

func importedPackage(pass *analysis.Pass, selectorExpr *ast.SelectorExpr) (string, bool) {
	ident, ok := selectorExpr.X.(*ast.Ident)
	if !ok || pass.TypesInfo == nil {
		return "", false
	}

	obj := pass.TypesInfo.Uses[ident]
	if obj == nil {
		return "", false
	}

	pkgName, ok := obj.(*types.PkgName)
	if !ok {
		return "", false
	}

	return pkgName.Imported().Path(), true
}

func isBuiltin(pass *analysis.Pass, ident *ast.Ident) bool {
	if pass.TypesInfo == nil {
		return true
	}
	_, ok := pass.TypesInfo.Uses[ident].(*types.Builtin)
	return ok
}

func isTestFile(pass *analysis.Pass, node ast.Node) bool {
	return strings.HasSuffix(pass.Fset.Position(node.Pos()).Filename, "_test.go")
}

func isInMainFunction(pass *analysis.Pass, node ast.Node) bool {
	for _, f := range pass.Files {
		for _, decl := range f.Decls {
			if funcDecl, ok := decl.(*ast.FuncDecl); ok {
				if funcDecl.Name.Name == "main" && funcDecl.Recv == nil && isNodeInsideFunc(node, funcDecl) {
					return true
				}
			}
		}
	}
	return false
}

func isNodeInsideFunc(target ast.Node, funcDecl *ast.FuncDecl) bool {
	if funcDecl.Body == nil {
		return false
	}
	return funcDecl.Body.Pos() <= target.Pos() && target.End() <= funcDecl.Body.End()
}
