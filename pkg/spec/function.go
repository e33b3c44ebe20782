package spec

import (
	"context"
	"fmt"
	"strings"

	"ex2code/pkg/binder"
)

// FunctionSpec describes a single function.
type FunctionSpec struct {
	base
	examples []Example
}

var _ Spec = (*FunctionSpec)(nil)

// NewFunction returns a FunctionSpec or an ErrInvalidName error.
func NewFunction(name, desc string, examples ...Example) (*FunctionSpec, error) {
	b, err := newBase(name, desc)
	if err != nil {
		return nil, err
	}
	return &FunctionSpec{base: b, examples: append([]Example(nil), examples...)}, nil
}

// MustFunction is like NewFunction but panics on an invalid name.
func MustFunction(name, desc string, examples ...Example) *FunctionSpec {
	f, err := NewFunction(name, desc, examples...)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *FunctionSpec) Kind() Kind { return KindFunction }

// AddExample appends an example and returns f.
func (f *FunctionSpec) AddExample(input Input, output string) *FunctionSpec {
	f.examples = append(f.examples, NewExample(input, output))
	return f
}

// Examples returns the examples in insertion order.
func (f *FunctionSpec) Examples() []Example {
	return append([]Example(nil), f.examples...)
}

func (f *FunctionSpec) Data() Data {
	d := f.data(KindFunction)
	d.Examples = f.Examples()
	return d
}

func (f *FunctionSpec) clone() *FunctionSpec {
	return &FunctionSpec{base: f.base, examples: f.Examples()}
}

func (f *FunctionSpec) String() string {
	examples := make([]string, len(f.examples))
	for i, e := range f.examples {
		examples[i] = e.String()
	}
	return fmt.Sprintf("Name: %s, Description: %s, Examples: [%s]", f.name, f.desc, strings.Join(examples, "; "))
}

func (f *FunctionSpec) Prompt() (string, error) {
	d := f.Data()
	return render("function.tmpl", map[string]string{
		"name":        d.Name,
		"description": d.Description,
		"examples":    list(d.Examples),
	})
}

// Invoke requests a completion for f.
func (f *FunctionSpec) Invoke(ctx context.Context, c Client) (string, error) {
	return RequestCompletion(ctx, f, c)
}

// Parse binds a completion for f.
func (f *FunctionSpec) Parse(ctx context.Context, b *binder.Binder, completion string) (*binder.Function, error) {
	return b.BindFunction(ctx, completion, f.name, f.desc)
}

// Generate requests a completion for f and binds it.
func (f *FunctionSpec) Generate(ctx context.Context, c Client, b *binder.Binder) (*binder.Function, error) {
	text, err := f.Invoke(ctx, c)
	if err != nil {
		return nil, err
	}
	return f.Parse(ctx, b, text)
}
