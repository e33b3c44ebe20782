package binder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Module is a bound namespace. Its interpreter holds the module state for as
// long as the Module is reachable.
type Module struct {
	name   string
	doc    string
	ns     *namespace
	expect []Decl
}

var _ Artifact = (*Module)(nil)

func (m *Module) Name() string   { return m.name }
func (m *Module) Doc() string    { return m.doc }
func (m *Module) Kind() Kind     { return KindModule }
func (m *Module) Source() string { return m.ns.unit.raw }

// Snapshot returns the persisted form of m.
func (m *Module) Snapshot() Snapshot {
	return Snapshot{
		Kind:        KindModule,
		Name:        m.name,
		Description: m.doc,
		Source:      m.ns.unit.raw,
		Expect:      append([]Decl(nil), m.expect...),
	}
}

// Names lists the top-level declarations of the module.
func (m *Module) Names() []string {
	return m.ns.unit.names()
}

// Func returns a module-level function.
func (m *Module) Func(ctx context.Context, name string) (*Function, error) {
	return m.ns.function(ctx, name, name, "")
}

// Class returns a type declared in the module.
func (m *Module) Class(name string) (*Class, error) {
	return m.ns.class(name, "")
}

// Call invokes a module-level function.
func (m *Module) Call(ctx context.Context, name string, args ...any) ([]any, error) {
	fn, err := m.Func(ctx, name)
	if err != nil {
		return nil, err
	}
	return fn.Call(args...)
}

// WriteSource writes the module source as generated.
func (m *Module) WriteSource(w io.Writer) error {
	_, err := io.WriteString(w, m.ns.unit.raw)
	return err
}

// SaveSource writes the module source to dir/<name>.go and returns the path.
func (m *Module) SaveSource(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create %s: %w", dir, err)
	}
	p := filepath.Join(dir, m.name+".go")
	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("could not create %s: %w", p, err)
	}
	if err := m.WriteSource(f); err != nil {
		f.Close()
		return "", fmt.Errorf("could not write %s: %w", p, err)
	}
	return p, f.Close()
}

// LoadModule binds module source previously written by SaveSource.
func (b *Binder) LoadModule(ctx context.Context, path, doc string, expect ...Decl) (*Module, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read module source: %w", err)
	}
	name := filepath.Base(path)
	name = name[:len(name)-len(filepath.Ext(name))]
	return b.BindModule(ctx, string(raw), name, doc, expect...)
}
