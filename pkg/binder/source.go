package binder

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"sort"
	"strings"
)

// Fence is the marker that wraps code blocks in model output.
const Fence = "```"

// StripFences removes fence markers from text. A line made only of a marker
// and an optional info string ("```go") is dropped; a marker sharing a line
// with code is cut out of that line. Everything else is kept verbatim.
func StripFences(text string) string {
	if !strings.Contains(text, Fence) {
		return text
	}
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, Fence) {
			rest := strings.TrimSpace(strings.TrimLeft(trimmed, "`"))
			if rest == "" || isInfoString(rest) {
				continue
			}
		}
		out = append(out, strings.ReplaceAll(line, Fence, ""))
	}
	return strings.Join(out, "\n")
}

func isInfoString(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '+', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

type declKind int

const (
	declFunc declKind = iota + 1
	declType
	declValue
)

func (k declKind) String() string {
	switch k {
	case declFunc:
		return "function"
	case declType:
		return "type"
	case declValue:
		return "value"
	default:
		return "declaration"
	}
}

// unit is generated source prepared for evaluation.
type unit struct {
	// source is the normalized program handed to the interpreter.
	source string
	// raw is the unfenced text as the model wrote it.
	raw   string
	decls map[string]declKind
	// nullary holds top-level functions without parameters.
	nullary map[string]bool
}

// parseSource parses src, supplying a package clause if the model left it
// out. The package is renamed to main and any main function is dropped so
// evaluation only declares things.
func parseSource(filename, src string) (*unit, error) {
	fset := token.NewFileSet()
	text := src
	if _, err := parser.ParseFile(fset, filename, text, parser.PackageClauseOnly); err != nil {
		text = "package main\n\n" + text
	}
	file, err := parser.ParseFile(fset, filename, text, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}

	file.Name = ast.NewIdent("main")
	kept := file.Decls[:0]
	for _, d := range file.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok && fn.Recv == nil && fn.Name.Name == "main" {
			continue
		}
		kept = append(kept, d)
	}
	file.Decls = kept

	u := &unit{
		raw:     src,
		decls:   make(map[string]declKind),
		nullary: make(map[string]bool),
	}
	for _, d := range file.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			if d.Recv != nil {
				continue
			}
			u.decls[d.Name.Name] = declFunc
			if d.Type.Params == nil || len(d.Type.Params.List) == 0 {
				u.nullary[d.Name.Name] = true
			}
		case *ast.GenDecl:
			for _, s := range d.Specs {
				switch s := s.(type) {
				case *ast.TypeSpec:
					u.decls[s.Name.Name] = declType
				case *ast.ValueSpec:
					for _, n := range s.Names {
						if n.Name != "_" {
							u.decls[n.Name] = declValue
						}
					}
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, err
	}
	u.source = buf.String()
	return u, nil
}

// names lists the top-level declarations in sorted order.
func (u *unit) names() []string {
	names := make([]string, 0, len(u.decls))
	for n := range u.decls {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
