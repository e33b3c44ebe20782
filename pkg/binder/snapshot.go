package binder

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
)

// Snapshot is the persisted form of an artifact. Rebinding a snapshot
// evaluates its source again in a fresh interpreter.
type Snapshot struct {
	Kind        Kind
	Name        string
	Description string
	Source      string
	// Expect lists the declarations a module must provide.
	Expect []Decl
}

// gob would call MarshalBinary again on Snapshot itself.
type snapshotWire Snapshot

// MarshalBinary encodes s as an opaque blob.
func (s Snapshot) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snapshotWire(s)); err != nil {
		return nil, fmt.Errorf("could not encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a blob written by MarshalBinary.
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	var w snapshotWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return fmt.Errorf("could not decode snapshot: %w", err)
	}
	*s = Snapshot(w)
	return nil
}

// Restore binds s again.
func (b *Binder) Restore(ctx context.Context, s Snapshot) (Artifact, error) {
	var (
		a   Artifact
		err error
	)
	switch s.Kind {
	case KindFunction:
		var f *Function
		f, err = b.BindFunction(ctx, s.Source, s.Name, s.Description)
		a = f
	case KindClass:
		var c *Class
		c, err = b.BindClass(ctx, s.Source, s.Name, s.Description)
		a = c
	case KindModule:
		var m *Module
		m, err = b.BindModule(ctx, s.Source, s.Name, s.Description, s.Expect...)
		a = m
	default:
		return nil, fmt.Errorf("unknown artifact kind %q", s.Kind)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}
