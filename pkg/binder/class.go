package binder

import (
	"context"
	"fmt"
	"go/token"
	"reflect"
)

// Class is a bound Go type standing in for a class. Instance methods are
// reached through an Object; class-level and static methods through Static.
type Class struct {
	name string
	doc  string
	ns   *namespace
}

var _ Artifact = (*Class)(nil)

func (c *Class) Name() string   { return c.name }
func (c *Class) Doc() string    { return c.doc }
func (c *Class) Kind() Kind     { return KindClass }
func (c *Class) Source() string { return c.ns.unit.raw }

// Snapshot returns the persisted form of c.
func (c *Class) Snapshot() Snapshot {
	return Snapshot{Kind: KindClass, Name: c.name, Description: c.doc, Source: c.ns.unit.raw}
}

// New creates an instance, through New<Name>() when the source declares a
// parameterless constructor and through new(<Name>) otherwise.
func (c *Class) New(ctx context.Context) (*Object, error) {
	init := "new(" + c.name + ")"
	if ctor := "New" + c.name; c.ns.unit.nullary[ctor] {
		init = ctor + "()"
	}
	ref := c.ns.tempName("obj")
	if _, err := c.ns.eval(ctx, fmt.Sprintf("var %s = %s", ref, init)); err != nil {
		return nil, fmt.Errorf("could not create %s: %w", c.name, err)
	}
	return &Object{class: c, ref: ref}, nil
}

// Static returns a class-level or static method. The method is bound to a
// zero value of the type, so it must not depend on instance state.
func (c *Class) Static(ctx context.Context, method string) (*Function, error) {
	return c.method(ctx, "new("+c.name+")", method)
}

func (c *Class) method(ctx context.Context, recv, method string) (*Function, error) {
	label := c.name + "." + method
	if !token.IsIdentifier(method) {
		return nil, &NotFoundError{Name: label, Want: "method"}
	}
	v, err := c.ns.eval(ctx, recv+"."+method)
	if err != nil {
		return nil, &NotFoundError{Name: label, Want: "method", Err: err}
	}
	if !v.IsValid() || v.Kind() != reflect.Func {
		return nil, &NotFoundError{Name: label, Want: "method"}
	}
	return &Function{name: label, source: c.ns.unit.raw, fn: v, mu: &c.ns.mu}, nil
}

// Object is one instance of a Class, kept alive inside the interpreter.
type Object struct {
	class *Class
	ref   string
}

// Class returns the class o was created from.
func (o *Object) Class() *Class { return o.class }

// Method returns the method bound to o.
func (o *Object) Method(ctx context.Context, name string) (*Function, error) {
	return o.class.method(ctx, o.ref, name)
}

// Call invokes a method of o.
func (o *Object) Call(ctx context.Context, name string, args ...any) ([]any, error) {
	m, err := o.Method(ctx, name)
	if err != nil {
		return nil, err
	}
	return m.Call(args...)
}
