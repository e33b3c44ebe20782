// Package specfile reads specification documents written in YAML or JSON.
package specfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ex2code/pkg/spec"
)

// Document is the top-level file layout.
type Document struct {
	Functions []Function `yaml:"functions"`
	Classes   []Class    `yaml:"classes"`
	Modules   []Module   `yaml:"modules"`
}

type Function struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Examples    []Example `yaml:"examples"`
}

type Class struct {
	Name            string     `yaml:"name"`
	Description     string     `yaml:"description"`
	InstanceMethods []Function `yaml:"instance_methods"`
	ClassMethods    []Function `yaml:"class_methods"`
	StaticMethods   []Function `yaml:"static_methods"`
}

type Module struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Functions   []Function `yaml:"functions"`
	Classes     []Class    `yaml:"classes"`
}

// Example keeps the key order of its input mapping.
type Example struct {
	Input  spec.Input
	Output string
}

func (e *Example) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: example must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "input":
			in, err := decodeInput(val)
			if err != nil {
				return err
			}
			e.Input = in
		case "output":
			out, err := decodeOutput(val)
			if err != nil {
				return err
			}
			e.Output = out
		default:
			return fmt.Errorf("line %d: unknown example field %q", key.Line, key.Value)
		}
	}
	return nil
}

func decodeInput(n *yaml.Node) (spec.Input, error) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: example input must be a mapping of argument names", n.Line)
	}
	in := make(spec.Input, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		var v any
		if err := n.Content[i+1].Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: argument %s: %w", n.Content[i].Line, n.Content[i].Value, err)
		}
		in = append(in, spec.Arg{Name: n.Content[i].Value, Value: v})
	}
	return in, nil
}

// decodeOutput keeps scalars as written and re-encodes anything else in flow style.
func decodeOutput(n *yaml.Node) (string, error) {
	if n.Kind == yaml.ScalarNode {
		return n.Value, nil
	}
	c := *n
	c.Style = yaml.FlowStyle
	b, err := yaml.Marshal(&c)
	if err != nil {
		return "", fmt.Errorf("line %d: could not encode output: %w", n.Line, err)
	}
	return string(trimNewline(b)), nil
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == '\n' {
		b = b[:len(b)-1]
	}
	return b
}

// Parse decodes a YAML or JSON document.
func Parse(data []byte) (*Document, error) {
	var d Document
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("could not parse spec document: %w", err)
	}
	return &d, nil
}

// Load reads and parses the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read spec document: %w", err)
	}
	return Parse(data)
}

// Specs builds every function, class and module in document order.
func (d *Document) Specs() ([]spec.Spec, error) {
	seen := make(map[string]string)
	for _, n := range d.names() {
		if prev, ok := seen[n[1]]; ok {
			return nil, fmt.Errorf("%w: %s %q and %s %q", spec.ErrDuplicateName, prev, n[1], n[0], n[1])
		}
		seen[n[1]] = n[0]
	}

	var out []spec.Spec
	for _, f := range d.Functions {
		s, err := f.spec()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	for _, c := range d.Classes {
		s, err := c.spec()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	for _, m := range d.Modules {
		s, err := m.spec()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// names lists kind and name of every top-level entry.
func (d *Document) names() [][2]string {
	var out [][2]string
	for _, f := range d.Functions {
		out = append(out, [2]string{"function", f.Name})
	}
	for _, c := range d.Classes {
		out = append(out, [2]string{"class", c.Name})
	}
	for _, m := range d.Modules {
		out = append(out, [2]string{"module", m.Name})
	}
	return out
}

func (e Example) spec() spec.Example {
	return spec.NewExample(e.Input, e.Output)
}

func examples(es []Example) []spec.Example {
	out := make([]spec.Example, len(es))
	for i, e := range es {
		out[i] = e.spec()
	}
	return out
}

func (f Function) spec() (*spec.FunctionSpec, error) {
	s, err := spec.NewFunction(f.Name, f.Description, examples(f.Examples)...)
	if err != nil {
		return nil, fmt.Errorf("function %q: %w", f.Name, err)
	}
	return s, nil
}

func (c Class) fill(s *spec.ClassSpec) error {
	for _, m := range c.InstanceMethods {
		s.AddInstanceMethod(m.Name, m.Description, examples(m.Examples)...)
	}
	for _, m := range c.ClassMethods {
		s.AddClassMethod(m.Name, m.Description, examples(m.Examples)...)
	}
	for _, m := range c.StaticMethods {
		s.AddStaticMethod(m.Name, m.Description, examples(m.Examples)...)
	}
	return s.Err()
}

func (c Class) spec() (*spec.ClassSpec, error) {
	s, err := spec.NewClass(c.Name, c.Description)
	if err != nil {
		return nil, fmt.Errorf("class %q: %w", c.Name, err)
	}
	if err := c.fill(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (m Module) spec() (*spec.ModuleSpec, error) {
	s, err := spec.NewModule(m.Name, m.Description)
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", m.Name, err)
	}
	for _, f := range m.Functions {
		if _, err := s.AddFunction(f.Name, f.Description, examples(f.Examples)...); err != nil {
			return nil, fmt.Errorf("module %s: function %q: %w", m.Name, f.Name, err)
		}
	}
	for _, c := range m.Classes {
		cs, err := s.AddClass(c.Name, c.Description)
		if err != nil {
			return nil, fmt.Errorf("module %s: class %q: %w", m.Name, c.Name, err)
		}
		if err := c.fill(cs); err != nil {
			return nil, fmt.Errorf("module %s: %w", m.Name, err)
		}
	}
	return s, nil
}
