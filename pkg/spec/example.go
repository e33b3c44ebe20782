package spec

import (
	"fmt"
	"reflect"
	"strings"
)

// Arg is one named input of an example.
type Arg struct {
	Name  string
	Value any
}

// Input is the ordered set of arguments of an example.
type Input []Arg

// Example pairs an input with the expected output. The output is kept as
// text, exactly as the caller wrote it.
type Example struct {
	input  Input
	output string
}

// NewExample returns an Example. The input and any slices or maps inside
// its values are copied.
func NewExample(input Input, output string) Example {
	return Example{input: input.clone(), output: output}
}

// Input returns a deep copy of the example input.
func (e Example) Input() Input {
	return e.input.clone()
}

// Output returns the expected output text.
func (e Example) Output() string {
	return e.output
}

// String renders the example as "Input: (a: 1, b: 2), Output: 3".
func (e Example) String() string {
	args := make([]string, len(e.input))
	for i, a := range e.input {
		args[i] = fmt.Sprintf("%s: %v", a.Name, a.Value)
	}
	return fmt.Sprintf("Input: (%s), Output: %s", strings.Join(args, ", "), e.output)
}

func (in Input) clone() Input {
	if in == nil {
		return nil
	}
	out := make(Input, len(in))
	for i, a := range in {
		out[i] = Arg{Name: a.Name, Value: cloneValue(a.Value)}
	}
	return out
}

// cloneValue copies slices, arrays and maps recursively. Other values are
// returned as they are.
func cloneValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}
		return out
	}
	return cloneReflect(reflect.ValueOf(v)).Interface()
}

func cloneReflect(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(cloneReflect(v.Elem()))
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneReflect(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneReflect(v.Index(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneReflect(iter.Value()))
		}
		return out
	}
	return v
}
