package spec

import (
	"context"
	"fmt"
	"strings"

	"ex2code/pkg/binder"
)

// ClassSpec describes a type with instance, class-level and static methods.
type ClassSpec struct {
	base
	instanceMethods []*FunctionSpec
	classMethods    []*FunctionSpec
	staticMethods   []*FunctionSpec
	err             error
}

var _ Spec = (*ClassSpec)(nil)

// NewClass returns a ClassSpec or an ErrInvalidName error.
func NewClass(name, desc string) (*ClassSpec, error) {
	b, err := newBase(name, desc)
	if err != nil {
		return nil, err
	}
	return &ClassSpec{base: b}, nil
}

// MustClass is like NewClass but panics on an invalid name.
func MustClass(name, desc string) *ClassSpec {
	c, err := NewClass(name, desc)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *ClassSpec) Kind() Kind { return KindClass }

// Err returns the first invalid method name passed to an Add method.
func (c *ClassSpec) Err() error { return c.err }

func (c *ClassSpec) add(list *[]*FunctionSpec, name, desc string, examples []Example) *ClassSpec {
	m, err := NewFunction(name, desc, examples...)
	if err != nil {
		if c.err == nil {
			c.err = fmt.Errorf("class %s: %w", c.name, err)
		}
		return c
	}
	*list = append(*list, m)
	return c
}

// AddInstanceMethod appends an instance method and returns c.
func (c *ClassSpec) AddInstanceMethod(name, desc string, examples ...Example) *ClassSpec {
	return c.add(&c.instanceMethods, name, desc, examples)
}

// AddClassMethod appends a class-level method and returns c.
func (c *ClassSpec) AddClassMethod(name, desc string, examples ...Example) *ClassSpec {
	return c.add(&c.classMethods, name, desc, examples)
}

// AddStaticMethod appends a static method and returns c.
func (c *ClassSpec) AddStaticMethod(name, desc string, examples ...Example) *ClassSpec {
	return c.add(&c.staticMethods, name, desc, examples)
}

func (c *ClassSpec) InstanceMethods() []*FunctionSpec { return cloneFunctions(c.instanceMethods) }
func (c *ClassSpec) ClassMethods() []*FunctionSpec    { return cloneFunctions(c.classMethods) }
func (c *ClassSpec) StaticMethods() []*FunctionSpec   { return cloneFunctions(c.staticMethods) }

func (c *ClassSpec) Data() Data {
	d := c.data(KindClass)
	d.InstanceMethods = c.InstanceMethods()
	d.ClassMethods = c.ClassMethods()
	d.StaticMethods = c.StaticMethods()
	return d
}

func (c *ClassSpec) clone() *ClassSpec {
	return &ClassSpec{
		base:            c.base,
		instanceMethods: c.InstanceMethods(),
		classMethods:    c.ClassMethods(),
		staticMethods:   c.StaticMethods(),
		err:             c.err,
	}
}

func (c *ClassSpec) String() string {
	return fmt.Sprintf("Name: %s, Description: %s, Instance Methods: [%s], Class Methods: [%s], Static Methods: [%s]",
		c.name, c.desc,
		joinFunctions(c.instanceMethods),
		joinFunctions(c.classMethods),
		joinFunctions(c.staticMethods))
}

func (c *ClassSpec) Prompt() (string, error) {
	if c.err != nil {
		return "", c.err
	}
	d := c.Data()
	return render("class.tmpl", map[string]string{
		"name":             d.Name,
		"description":      d.Description,
		"instance_methods": list(d.InstanceMethods),
		"class_methods":    list(d.ClassMethods),
		"static_methods":   list(d.StaticMethods),
	})
}

// Invoke requests a completion for c.
func (c *ClassSpec) Invoke(ctx context.Context, client Client) (string, error) {
	return RequestCompletion(ctx, c, client)
}

// Parse binds a completion for c.
func (c *ClassSpec) Parse(ctx context.Context, b *binder.Binder, completion string) (*binder.Class, error) {
	return b.BindClass(ctx, completion, c.name, c.desc)
}

// Generate requests a completion for c and binds it.
func (c *ClassSpec) Generate(ctx context.Context, client Client, b *binder.Binder) (*binder.Class, error) {
	text, err := c.Invoke(ctx, client)
	if err != nil {
		return nil, err
	}
	return c.Parse(ctx, b, text)
}

func cloneFunctions(fs []*FunctionSpec) []*FunctionSpec {
	out := make([]*FunctionSpec, len(fs))
	for i, f := range fs {
		out[i] = f.clone()
	}
	return out
}

func joinFunctions(fs []*FunctionSpec) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = "{" + f.String() + "}"
	}
	return strings.Join(parts, ", ")
}
