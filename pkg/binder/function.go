package binder

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Kind tags the shape of an artifact.
type Kind string

const (
	KindFunction Kind = "function"
	KindClass    Kind = "class"
	KindModule   Kind = "module"
)

// Artifact is a bound piece of generated code.
type Artifact interface {
	// Name is the display name, always the name of the spec that produced it.
	Name() string
	// Doc is the spec description.
	Doc() string
	Kind() Kind
	// Source is the unfenced text the artifact was bound from.
	Source() string
	Snapshot() Snapshot
}

// ErrArgument reports call arguments that do not fit the function signature.
var ErrArgument = errors.New("bad argument")

// Function is a callable artifact. Calls hold the lock of the interpreter
// the function was bound in, so they never overlap with other calls or
// evaluations on that interpreter.
type Function struct {
	name   string
	doc    string
	source string
	fn     reflect.Value
	mu     *sync.Mutex
}

var _ Artifact = (*Function)(nil)

func (f *Function) Name() string   { return f.name }
func (f *Function) Doc() string    { return f.doc }
func (f *Function) Kind() Kind     { return KindFunction }
func (f *Function) Source() string { return f.source }

// Snapshot returns the persisted form of f.
func (f *Function) Snapshot() Snapshot {
	return Snapshot{Kind: KindFunction, Name: f.name, Description: f.doc, Source: f.source}
}

// Type is the Go signature of the bound function.
func (f *Function) Type() reflect.Type { return f.fn.Type() }

// Value exposes the function for reflection.
func (f *Function) Value() reflect.Value { return f.fn }

// Interface returns the function as a Go value, ready for a type assertion
// such as f.Interface().(func(int, int) int).
func (f *Function) Interface() any { return f.fn.Interface() }

func (f *Function) String() string {
	return fmt.Sprintf("%s %s", f.name, f.fn.Type())
}

// Call invokes the function. Arguments are converted to the parameter types
// when Go allows a value conversion between numeric kinds, so untyped JSON
// numbers and Go ints both work. A panic in the generated code is returned
// as an error.
func (f *Function) Call(args ...any) (out []any, err error) {
	in, err := convertArgs(f.fn.Type(), args)
	if err != nil {
		return nil, fmt.Errorf("could not call %s: %w", f.name, err)
	}

	if f.mu != nil {
		f.mu.Lock()
		defer f.mu.Unlock()
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%s panicked: %v", f.name, r)
		}
	}()

	results := f.fn.Call(in)
	out = make([]any, len(results))
	for i, r := range results {
		out[i] = r.Interface()
	}
	return out, nil
}

func convertArgs(t reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("%w: want at least %d arguments, got %d", ErrArgument, fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("%w: want %d arguments, got %d", ErrArgument, fixed, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		if i < fixed {
			pt = t.In(i)
		} else {
			pt = t.In(t.NumIn() - 1).Elem()
		}
		v, err := convertValue(a, pt)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d: %v", ErrArgument, i, err)
		}
		in[i] = v
	}
	return in, nil
}

func convertValue(a any, t reflect.Type) (reflect.Value, error) {
	if a == nil {
		switch t.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use nil as %s", t)
	}

	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	switch {
	case isNumeric(v.Kind()) && isNumeric(t.Kind()):
		return v.Convert(t), nil
	case v.Kind() == reflect.String && t.Kind() == reflect.String:
		return v.Convert(t), nil
	case v.Kind() == reflect.Slice && t.Kind() == reflect.Slice:
		s := reflect.MakeSlice(t, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			e, err := convertValue(v.Index(i).Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			s.Index(i).Set(e)
		}
		return s, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", a, t)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
