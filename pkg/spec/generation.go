package spec

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"ex2code/pkg/binder"
)

// State is a step of a Generation.
type State int

const (
	Unrendered State = iota
	Rendered
	Requested
	Completed
	Bound
	Failed
)

func (s State) String() string {
	switch s {
	case Unrendered:
		return "unrendered"
	case Rendered:
		return "rendered"
	case Requested:
		return "requested"
	case Completed:
		return "completed"
	case Bound:
		return "bound"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrState reports a Generation step taken out of order.
var ErrState = errors.New("invalid generation state")

// Generation walks one spec through render, request and bind. Each step runs
// once. A Generation is not safe for concurrent use; a spec can feed any
// number of them.
type Generation struct {
	spec       Spec
	state      State
	prompt     string
	completion string
	artifact   binder.Artifact
	err        error
}

func NewGeneration(s Spec) *Generation {
	return &Generation{spec: s}
}

func (g *Generation) Spec() Spec                { return g.spec }
func (g *Generation) State() State              { return g.state }
func (g *Generation) Prompt() string            { return g.prompt }
func (g *Generation) Completion() string        { return g.completion }
func (g *Generation) Artifact() binder.Artifact { return g.artifact }
func (g *Generation) Err() error                { return g.err }

func (g *Generation) expect(s State, step string) error {
	if g.state != s {
		return fmt.Errorf("%w: cannot %s %s %s in state %s", ErrState, step, g.spec.Kind(), g.spec.Name(), g.state)
	}
	return nil
}

func (g *Generation) fail(err error) error {
	g.state = Failed
	g.err = err
	return err
}

// Render builds the prompt.
func (g *Generation) Render() error {
	if err := g.expect(Unrendered, "render"); err != nil {
		return err
	}
	p, err := g.spec.Prompt()
	if err != nil {
		return g.fail(err)
	}
	g.prompt = p
	g.state = Rendered
	return nil
}

// Request sends the prompt to c.
func (g *Generation) Request(ctx context.Context, c Client) error {
	if err := g.expect(Rendered, "request"); err != nil {
		return err
	}
	g.state = Requested
	zerolog.Ctx(ctx).Debug().Str("kind", string(g.spec.Kind())).Str("name", g.spec.Name()).Msg("requesting completion")
	text, err := complete(ctx, g.spec, c, g.prompt)
	if err != nil {
		return g.fail(err)
	}
	g.completion = text
	g.state = Completed
	return nil
}

// Bind turns the completion into an artifact.
func (g *Generation) Bind(ctx context.Context, b *binder.Binder) error {
	if err := g.expect(Completed, "bind"); err != nil {
		return err
	}
	a, err := Bind(ctx, g.spec, b, g.completion)
	if err != nil {
		return g.fail(err)
	}
	g.artifact = a
	g.state = Bound
	return nil
}

// Run performs every remaining step and returns the artifact.
func (g *Generation) Run(ctx context.Context, c Client, b *binder.Binder) (binder.Artifact, error) {
	if g.state == Unrendered {
		if err := g.Render(); err != nil {
			return nil, err
		}
	}
	if g.state == Rendered {
		if err := g.Request(ctx, c); err != nil {
			return nil, err
		}
	}
	if err := g.Bind(ctx, b); err != nil {
		return nil, err
	}
	return g.artifact, nil
}
