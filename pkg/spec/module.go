package spec

import (
	"context"

	"ex2code/pkg/binder"
)

// ModuleSpec describes a package of functions and classes.
type ModuleSpec struct {
	base
	functions []*FunctionSpec
	classes   []*ClassSpec
}

var _ Spec = (*ModuleSpec)(nil)

// NewModule returns a ModuleSpec or an ErrInvalidName error.
func NewModule(name, desc string) (*ModuleSpec, error) {
	b, err := newBase(name, desc)
	if err != nil {
		return nil, err
	}
	return &ModuleSpec{base: b}, nil
}

func (m *ModuleSpec) Kind() Kind { return KindModule }

// AddFunction appends a function and returns the new function, not m, so
// examples can be chained onto it.
func (m *ModuleSpec) AddFunction(name, desc string, examples ...Example) (*FunctionSpec, error) {
	f, err := NewFunction(name, desc, examples...)
	if err != nil {
		return nil, err
	}
	m.functions = append(m.functions, f)
	return f, nil
}

// AddClass appends a class and returns the new class, not m, so methods can
// be chained onto it.
func (m *ModuleSpec) AddClass(name, desc string) (*ClassSpec, error) {
	c, err := NewClass(name, desc)
	if err != nil {
		return nil, err
	}
	m.classes = append(m.classes, c)
	return c, nil
}

func (m *ModuleSpec) Functions() []*FunctionSpec { return cloneFunctions(m.functions) }

func (m *ModuleSpec) Classes() []*ClassSpec {
	out := make([]*ClassSpec, len(m.classes))
	for i, c := range m.classes {
		out[i] = c.clone()
	}
	return out
}

func (m *ModuleSpec) Data() Data {
	d := m.data(KindModule)
	d.Functions = m.Functions()
	d.Classes = m.Classes()
	return d
}

// Err returns the first error recorded by a child class.
func (m *ModuleSpec) Err() error {
	for _, c := range m.classes {
		if err := c.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (m *ModuleSpec) Prompt() (string, error) {
	if err := m.Err(); err != nil {
		return "", err
	}
	d := m.Data()
	return render("module.tmpl", map[string]string{
		"name":        d.Name,
		"description": d.Description,
		"functions":   list(d.Functions),
		"classes":     list(d.Classes),
	})
}

// Invoke requests a completion for m.
func (m *ModuleSpec) Invoke(ctx context.Context, c Client) (string, error) {
	return RequestCompletion(ctx, m, c)
}

// Parse binds a completion as the namespace of m. Every declared function
// and class must be present in the completion.
func (m *ModuleSpec) Parse(ctx context.Context, b *binder.Binder, completion string) (*binder.Module, error) {
	return b.BindModule(ctx, completion, m.name, m.desc, declared(m.Data())...)
}

// Generate requests a completion for m and binds it.
func (m *ModuleSpec) Generate(ctx context.Context, c Client, b *binder.Binder) (*binder.Module, error) {
	text, err := m.Invoke(ctx, c)
	if err != nil {
		return nil, err
	}
	return m.Parse(ctx, b, text)
}
