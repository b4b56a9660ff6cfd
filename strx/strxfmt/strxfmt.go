// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package strxfmt implements a go vet-style static analyzer that restores,
// at build time, the placeholder-count check the original source performed
// at compile time via a constexpr count of "{}" occurrences. Go has no
// constexpr equivalent, so corebase's strx.Format validates the count at
// runtime (returning ErrPlaceholderMismatch); this analyzer catches the
// same mistake earlier, for any call site where both the template and the
// argument list are literal at the call site, following the retrieval
// pack's own cmd/compile analysis-pass convention of walking an AST and
// reporting directly through pass.Reportf.
package strxfmt

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports strx.Format call sites whose literal template's "{}"
// placeholder count does not match the number of variadic arguments
// passed.
var Analyzer = &analysis.Analyzer{
	Name:     "strxfmt",
	Doc:      "check that strx.Format placeholder counts match argument counts",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (any, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	nodeFilter := []ast.Node{(*ast.CallExpr)(nil)}

	insp.Preorder(nodeFilter, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		if !isStrxFormatCall(pass, call) {
			return
		}
		if len(call.Args) == 0 {
			return
		}
		lit, ok := call.Args[0].(*ast.BasicLit)
		if !ok || lit.Kind.String() != "STRING" {
			return // not a literal template; nothing this analyzer can check
		}
		tmpl, err := unquoteGoString(lit.Value)
		if err != nil {
			return
		}
		placeholders := strings.Count(tmpl, "{}")
		argCount := len(call.Args) - 2 // drop the ref and tmpl parameters
		if argCount < 0 {
			argCount = 0
		}
		if placeholders != argCount {
			pass.Reportf(call.Pos(), "strx.Format template has %d placeholders but %d arguments were given", placeholders, argCount)
		}
	})
	return nil, nil
}

func isStrxFormatCall(pass *analysis.Pass, call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	if sel.Sel.Name != "Format" {
		return false
	}
	obj := pass.TypesInfo.ObjectOf(sel.Sel)
	if obj == nil {
		return false
	}
	fn, ok := obj.(*types.Func)
	if !ok {
		return false
	}
	pkg := fn.Pkg()
	return pkg != nil && (pkg.Path() == "strx" || strings.HasSuffix(pkg.Path(), "/strx"))
}

func unquoteGoString(lit string) (string, error) {
	if len(lit) >= 2 && lit[0] == '"' && lit[len(lit)-1] == '"' {
		return lit[1 : len(lit)-1], nil
	}
	return lit, nil
}
