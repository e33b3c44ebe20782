// Package binder turns generated Go source into live artifacts.
//
// Source is evaluated in-process by the yaegi interpreter, one fresh
// interpreter per bind. Whatever the policy, generated code runs inside the
// host process: PolicyRestricted narrows the importable packages and hides
// the source filesystem and environment, PolicyTrusted hands the generated
// code the whole standard library and must be chosen explicitly.
package binder

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// DefaultTimeout bounds a single evaluation when Options.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// Policy selects what generated code may import.
type Policy int

const (
	// PolicyRestricted allows pure standard library packages only.
	PolicyRestricted Policy = iota
	// PolicyTrusted allows the whole standard library, including os, net and os/exec.
	PolicyTrusted
)

func (p Policy) String() string {
	switch p {
	case PolicyRestricted:
		return "restricted"
	case PolicyTrusted:
		return "trusted"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps a configuration value onto a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "restricted":
		return PolicyRestricted, nil
	case "trusted":
		return PolicyTrusted, nil
	default:
		return PolicyRestricted, fmt.Errorf("unknown policy %q (want restricted or trusted)", s)
	}
}

// restrictedPackages have no file, network, process or environment access.
var restrictedPackages = []string{
	"bytes",
	"cmp",
	"container/heap",
	"container/list",
	"container/ring",
	"errors",
	"fmt",
	"maps",
	"math",
	"math/big",
	"math/bits",
	"math/cmplx",
	"math/rand",
	"regexp",
	"slices",
	"sort",
	"strconv",
	"strings",
	"time",
	"unicode",
	"unicode/utf16",
	"unicode/utf8",
}

// Options configures a Binder.
type Options struct {
	Policy Policy
	// Allow extends the restricted allowlist with more standard library import paths.
	Allow []string
	// Stdout and Stderr receive output of the generated code. Both default to io.Discard.
	Stdout io.Writer
	Stderr io.Writer
	// Timeout bounds every evaluation made on behalf of an artifact.
	Timeout time.Duration
}

// Binder evaluates generated source and extracts named artifacts.
// A Binder holds no per-bind state and is safe for concurrent use.
type Binder struct {
	opts    Options
	symbols interp.Exports
}

// New returns a Binder for opts.
func New(opts Options) *Binder {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	return &Binder{opts: opts, symbols: exportsFor(opts)}
}

// Policy reports the evaluation policy of b.
func (b *Binder) Policy() Policy {
	return b.opts.Policy
}

func exportsFor(opts Options) interp.Exports {
	if opts.Policy == PolicyTrusted {
		return stdlib.Symbols
	}
	allowed := make(map[string]bool, len(restrictedPackages)+len(opts.Allow))
	for _, p := range restrictedPackages {
		allowed[p] = true
	}
	for _, p := range opts.Allow {
		allowed[p] = true
	}
	// stdlib keys are "<import path>/<package name>".
	exports := make(interp.Exports)
	for key, symbols := range stdlib.Symbols {
		if allowed[path.Dir(key)] {
			exports[key] = symbols
		}
	}
	return exports
}

func (b *Binder) newInterpreter() (*interp.Interpreter, error) {
	opts := interp.Options{
		Stdout:       b.opts.Stdout,
		Stderr:       b.opts.Stderr,
		Unrestricted: b.opts.Policy == PolicyTrusted,
	}
	if b.opts.Policy != PolicyTrusted {
		opts.Stdin = strings.NewReader("")
		opts.Env = []string{}
		opts.SourcecodeFilesystem = emptyFS{}
	}
	in := interp.New(opts)
	if err := in.Use(b.symbols); err != nil {
		return nil, fmt.Errorf("could not load interpreter symbols: %w", err)
	}
	return in, nil
}

// evaluate runs text in a fresh interpreter and returns it as a namespace.
func (b *Binder) evaluate(ctx context.Context, text, name string) (*namespace, error) {
	src := StripFences(text)
	u, err := parseSource(name+".go", src)
	if err != nil {
		return nil, &SyntaxError{Phase: "parse", Source: src, Err: err}
	}

	in, err := b.newInterpreter()
	if err != nil {
		return nil, err
	}
	ns := &namespace{in: in, unit: u, timeout: b.opts.Timeout}

	zerolog.Ctx(ctx).Debug().
		Str("artifact", name).
		Stringer("policy", b.opts.Policy).
		Int("bytes", len(u.source)).
		Msg("evaluating generated source")

	if _, err := ns.eval(ctx, u.source); err != nil {
		return nil, &SyntaxError{Phase: "eval", Source: src, Err: err}
	}
	return ns, nil
}

// BindFunction evaluates text and returns the function named name.
func (b *Binder) BindFunction(ctx context.Context, text, name, doc string) (*Function, error) {
	ns, err := b.evaluate(ctx, text, name)
	if err != nil {
		return nil, err
	}
	return ns.function(ctx, name, name, doc)
}

// BindClass evaluates text and returns the type named name.
func (b *Binder) BindClass(ctx context.Context, text, name, doc string) (*Class, error) {
	ns, err := b.evaluate(ctx, text, name)
	if err != nil {
		return nil, err
	}
	return ns.class(name, doc)
}

// Decl is a top-level declaration a module must provide.
type Decl struct {
	Name string
	// Kind is KindFunction or KindClass.
	Kind Kind
}

func (d Decl) String() string { return string(d.Kind) + " " + d.Name }

// BindModule evaluates text as the namespace of a module named name.
// Every declaration in expect must be present at the top level of the
// source with the expected kind: a function for KindFunction, a type for
// KindClass.
func (b *Binder) BindModule(ctx context.Context, text, name, doc string, expect ...Decl) (*Module, error) {
	ns, err := b.evaluate(ctx, text, name)
	if err != nil {
		return nil, err
	}
	for _, want := range expect {
		switch want.Kind {
		case KindFunction:
			_, err = ns.function(ctx, want.Name, want.Name, "")
		case KindClass:
			_, err = ns.class(want.Name, "")
		default:
			err = fmt.Errorf("module %s cannot declare a %s", name, want)
		}
		if err != nil {
			return nil, err
		}
	}
	return &Module{
		name:   name,
		doc:    doc,
		ns:     ns,
		expect: append([]Decl(nil), expect...),
	}, nil
}

// emptyFS hides the host filesystem from the interpreter's package loader.
type emptyFS struct{}

func (emptyFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}
