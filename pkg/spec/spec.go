// Package spec describes code artifacts by name, description and examples,
// renders them into prompts and binds the model's answer into live Go values.
package spec

import (
	"context"
	"errors"
	"fmt"
	"go/token"

	"ex2code/pkg/binder"
)

// Kind tags the variant of a Spec.
type Kind = binder.Kind

const (
	KindFunction = binder.KindFunction
	KindClass    = binder.KindClass
	KindModule   = binder.KindModule
)

var (
	// ErrInvalidName reports a name that is not a usable Go identifier.
	ErrInvalidName = errors.New("invalid name")
	// ErrTransport reports a generation client that could not produce a completion.
	ErrTransport = errors.New("generation request failed")
	// ErrDuplicateName reports two top-level specs of one batch sharing a name.
	ErrDuplicateName = errors.New("duplicate spec name")
)

// NameError carries the rejected name.
type NameError struct {
	Name string
}

func (e *NameError) Error() string {
	if reserved[e.Name] {
		return fmt.Sprintf("invalid name %q: reserved by Go and cannot be bound", e.Name)
	}
	return fmt.Sprintf("invalid name %q: must be a Go identifier and not a keyword", e.Name)
}

func (e *NameError) Is(target error) bool {
	return target == ErrInvalidName
}

// reserved identifiers are valid Go but never reachable as bound values:
// the blank identifier, package initializers and the program entry point,
// which the binder drops.
var reserved = map[string]bool{"_": true, "init": true, "main": true}

// ValidateName checks that name can name a Go artifact.
func ValidateName(name string) error {
	if !token.IsIdentifier(name) || reserved[name] {
		return &NameError{Name: name}
	}
	return nil
}

// Client is the text-generation backend.
type Client interface {
	// Generate returns the completion for prompt. Transport failures must be
	// reported as errors, never as an empty completion.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Spec is implemented by FunctionSpec, ClassSpec and ModuleSpec.
type Spec interface {
	Name() string
	Description() string
	Kind() Kind
	// Data returns the structured form of the spec. Nested values are copies.
	Data() Data
	// Prompt renders the instruction sent to the model.
	Prompt() (string, error)
}

// Data is the structured form of a Spec. Only the fields of Kind are set.
type Data struct {
	Kind        Kind
	Name        string
	Description string

	Examples []Example

	InstanceMethods []*FunctionSpec
	ClassMethods    []*FunctionSpec
	StaticMethods   []*FunctionSpec

	Functions []*FunctionSpec
	Classes   []*ClassSpec
}

// base holds the identity shared by every spec.
type base struct {
	name string
	desc string
}

func newBase(name, desc string) (base, error) {
	if err := ValidateName(name); err != nil {
		return base{}, err
	}
	return base{name: name, desc: desc}, nil
}

func (b base) Name() string        { return b.name }
func (b base) Description() string { return b.desc }

func (b base) data(kind Kind) Data {
	return Data{Kind: kind, Name: b.name, Description: b.desc}
}

// RequestCompletion renders s, sends the prompt to c and returns the
// completion with fence markers removed.
func RequestCompletion(ctx context.Context, s Spec, c Client) (string, error) {
	prompt, err := s.Prompt()
	if err != nil {
		return "", err
	}
	return complete(ctx, s, c, prompt)
}

func complete(ctx context.Context, s Spec, c Client, prompt string) (string, error) {
	text, err := c.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w for %s %s: %w", ErrTransport, s.Kind(), s.Name(), err)
	}
	return binder.StripFences(text), nil
}

// Bind turns completion into the artifact described by s.
func Bind(ctx context.Context, s Spec, b *binder.Binder, completion string) (binder.Artifact, error) {
	switch s.Kind() {
	case KindFunction:
		f, err := b.BindFunction(ctx, completion, s.Name(), s.Description())
		if err != nil {
			return nil, err
		}
		return f, nil
	case KindClass:
		c, err := b.BindClass(ctx, completion, s.Name(), s.Description())
		if err != nil {
			return nil, err
		}
		return c, nil
	case KindModule:
		m, err := b.BindModule(ctx, completion, s.Name(), s.Description(), declared(s.Data())...)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown spec kind %q", s.Kind())
	}
}

// Generate requests a completion for s and binds it.
func Generate(ctx context.Context, s Spec, c Client, b *binder.Binder) (binder.Artifact, error) {
	return NewGeneration(s).Run(ctx, c, b)
}

func declared(d Data) []binder.Decl {
	decls := make([]binder.Decl, 0, len(d.Functions)+len(d.Classes))
	for _, f := range d.Functions {
		decls = append(decls, binder.Decl{Name: f.Name(), Kind: KindFunction})
	}
	for _, c := range d.Classes {
		decls = append(decls, binder.Decl{Name: c.Name(), Kind: KindClass})
	}
	return decls
}
