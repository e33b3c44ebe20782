package binder

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/traefik/yaegi/interp"
)

// namespace is an interpreter that has evaluated one unit of generated source.
type namespace struct {
	mu      sync.Mutex
	in      *interp.Interpreter
	unit    *unit
	timeout time.Duration
	seq     atomic.Int64
}

func (ns *namespace) eval(ctx context.Context, src string) (res reflect.Value, err error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, ns.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during evaluation: %v", r)
		}
	}()
	return ns.in.EvalWithContext(ctx, src)
}

// tempName returns a fresh top-level identifier for values the binder creates.
func (ns *namespace) tempName(prefix string) string {
	return fmt.Sprintf("ex2code_%s%d", prefix, ns.seq.Add(1))
}

// function looks up the top-level function ident and labels it name.
func (ns *namespace) function(ctx context.Context, ident, name, doc string) (*Function, error) {
	switch ns.unit.decls[ident] {
	case declFunc, declValue:
	default:
		return nil, &NotFoundError{Name: ident, Want: "function"}
	}
	v, err := ns.eval(ctx, ident)
	if err != nil {
		return nil, &NotFoundError{Name: ident, Want: "function", Err: err}
	}
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, &NotFoundError{Name: ident, Want: "function"}
	}
	return &Function{name: name, doc: doc, source: ns.unit.raw, fn: v, mu: &ns.mu}, nil
}

// class looks up the type declared as name.
func (ns *namespace) class(name, doc string) (*Class, error) {
	if ns.unit.decls[name] != declType {
		return nil, &NotFoundError{Name: name, Want: "type"}
	}
	return &Class{name: name, doc: doc, ns: ns}, nil
}
