package spec

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ex2code/pkg/binder"
)

type stubClient struct {
	mu      sync.Mutex
	text    string
	err     error
	prompts []string
}

func (c *stubClient) Generate(_ context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	return c.text, c.err
}

func addSpec() *FunctionSpec {
	return MustFunction("add", "add two integers (a and b)").
		AddExample(Input{{"a", 1}, {"b", 2}}, "3").
		AddExample(Input{{"a", 3}, {"b", 4}}, "7")
}

func TestNames(t *testing.T) {
	for _, name := range []string{"add", "MyClass", "_x", "int", "len", "résumé"} {
		_, err := NewFunction(name, "")
		assert.NoError(t, err, name)
	}
	for _, name := range []string{"", "1abc", "for", "func", "a-b", "a b", "class.method", "_", "init", "main"} {
		_, err := NewFunction(name, "")
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrInvalidName), name)

		var ne *NameError
		require.ErrorAs(t, err, &ne)
		assert.Equal(t, name, ne.Name)

		_, err = NewClass(name, "")
		assert.ErrorIs(t, err, ErrInvalidName)
		_, err = NewModule(name, "")
		assert.ErrorIs(t, err, ErrInvalidName)
	}
	assert.Panics(t, func() { MustFunction("if", "") })

	err := ValidateName("main")
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.Contains(t, err.Error(), "reserved")

	c := MustClass("Counter", "")
	c.AddInstanceMethod("init", "")
	assert.ErrorIs(t, c.Err(), ErrInvalidName)
}

func TestExample(t *testing.T) {
	in := Input{{"a", 1}, {"b", 2}}
	e := NewExample(in, "3")
	in[0].Value = 100

	assert.Equal(t, "Input: (a: 1, b: 2), Output: 3", e.String())
	assert.Equal(t, "3", e.Output())

	got := e.Input()
	got[1].Value = 200
	assert.Equal(t, Input{{"a", 1}, {"b", 2}}, e.Input())
}

func TestExampleNestedValues(t *testing.T) {
	xs := []any{1, 2}
	opts := map[string]any{"sep": ",", "keys": []string{"a"}}
	e := NewExample(Input{{"xs", xs}, {"opts", opts}}, "3")
	xs[0] = 100
	opts["sep"] = ";"

	got := e.Input()
	got[0].Value.([]any)[1] = 200
	got[1].Value.(map[string]any)["keys"].([]string)[0] = "z"

	assert.Equal(t, Input{
		{"xs", []any{1, 2}},
		{"opts", map[string]any{"sep": ",", "keys": []string{"a"}}},
	}, e.Input())
	assert.Equal(t, "Input: (xs: [1 2], opts: map[keys:[a] sep:,]), Output: 3", e.String())
}

func TestFunctionPrompt(t *testing.T) {
	f := addSpec()
	p, err := f.Prompt()
	require.NoError(t, err)

	assert.Contains(t, p, "Examples:\n- Input: (a: 1, b: 2), Output: 3\n- Input: (a: 3, b: 4), Output: 7\n")
	assert.Contains(t, p, "Description:\nadd two integers (a and b)\n")
	assert.Contains(t, p, "`add`")
	assert.Less(t, strings.Index(p, "Output: 3"), strings.Index(p, "Output: 7"))

	again, err := f.Prompt()
	require.NoError(t, err)
	assert.Equal(t, p, again)
	assert.Len(t, f.Examples(), 2)
}

func TestFunctionPromptNoExamples(t *testing.T) {
	p, err := MustFunction("noop", "").Prompt()
	require.NoError(t, err)
	assert.Contains(t, p, "Examples:\n"+Empty+"\n")
}

func TestClassChaining(t *testing.T) {
	c := MustClass("MyClass", "A simple counter").
		AddInstanceMethod("add", "Adds one to calls", NewExample(nil, "11")).
		AddClassMethod("instances", "Counts instances").
		AddStaticMethod("multiply", "multiplies a by b", NewExample(Input{{"a", 2}, {"b", 3}}, "6"))
	require.NoError(t, c.Err())

	d := c.Data()
	assert.Equal(t, KindClass, d.Kind)
	require.Len(t, d.InstanceMethods, 1)
	require.Len(t, d.ClassMethods, 1)
	require.Len(t, d.StaticMethods, 1)
	assert.Empty(t, d.Examples)
	assert.Empty(t, d.Functions)

	p, err := c.Prompt()
	require.NoError(t, err)
	assert.Contains(t, p, "Instance Methods:\n- Name: add, Description: Adds one to calls, Examples: [Input: (), Output: 11]\n")
	assert.Contains(t, p, "Class Methods:\n- Name: instances, Description: Counts instances, Examples: []\n")
	assert.Contains(t, p, "Static Methods:\n- Name: multiply, Description: multiplies a by b, Examples: [Input: (a: 2, b: 3), Output: 6]\n")
	assert.Contains(t, p, "`MyClass`")
}

func TestClassInvalidMethod(t *testing.T) {
	c := MustClass("MyClass", "").
		AddInstanceMethod("bad name", "").
		AddInstanceMethod("ok", "")

	assert.ErrorIs(t, c.Err(), ErrInvalidName)
	assert.Len(t, c.InstanceMethods(), 1)

	_, err := c.Prompt()
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestModuleChaining(t *testing.T) {
	m, err := NewModule("mymodule", "A simple module")
	require.NoError(t, err)

	f, err := m.AddFunction("add", "add two integers")
	require.NoError(t, err)
	f.AddExample(Input{{"a", 1}, {"b", 2}}, "3")

	c, err := m.AddClass("MyClass", "A simple counter")
	require.NoError(t, err)
	c.AddInstanceMethod("add", "Adds one")

	_, err = m.AddFunction("return", "")
	assert.ErrorIs(t, err, ErrInvalidName)

	d := m.Data()
	require.Len(t, d.Functions, 1)
	require.Len(t, d.Classes, 1)
	assert.Len(t, d.Functions[0].Examples(), 1)
	assert.Len(t, d.Classes[0].InstanceMethods(), 1)
	assert.Equal(t, []binder.Decl{
		{Name: "add", Kind: KindFunction},
		{Name: "MyClass", Kind: KindClass},
	}, declared(d))

	p, err := m.Prompt()
	require.NoError(t, err)
	assert.Contains(t, p, "Functions:\n- Name: add, Description: add two integers, Examples: [Input: (a: 1, b: 2), Output: 3]\n")
	assert.Contains(t, p, "Types:\n- Name: MyClass, Description: A simple counter, Instance Methods: [{Name: add, Description: Adds one, Examples: []}], Class Methods: [], Static Methods: []\n")
	assert.Contains(t, p, "`mymodule`")
}

func TestDataIsCopied(t *testing.T) {
	m, err := NewModule("m", "")
	require.NoError(t, err)
	f, err := m.AddFunction("f", "")
	require.NoError(t, err)

	d := m.Data()
	d.Functions[0].AddExample(Input{{"x", 1}}, "1")
	d.Functions = append(d.Functions, MustFunction("g", ""))

	assert.Empty(t, f.Examples())
	assert.Len(t, m.Functions(), 1)

	sum := MustFunction("sum", "sum a list").AddExample(Input{{"xs", []any{1, 2}}}, "3")
	before, err := sum.Prompt()
	require.NoError(t, err)

	sum.Data().Examples[0].Input()[0].Value.([]any)[0] = 99
	sum.Examples()[0].Input()[0].Value.([]any)[1] = 99

	after, err := sum.Prompt()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Contains(t, after, "Input: (xs: [1 2]), Output: 3")
}

func TestRequestCompletion(t *testing.T) {
	client := &stubClient{text: "```go\nfunc add(a, b int) int { return a + b }\n```"}
	text, err := RequestCompletion(context.Background(), addSpec(), client)
	require.NoError(t, err)

	assert.Equal(t, "func add(a, b int) int { return a + b }", text)
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Input: (a: 1, b: 2), Output: 3")
}

func TestRequestCompletionTransport(t *testing.T) {
	cause := errors.New("connection refused")
	_, err := RequestCompletion(context.Background(), addSpec(), &stubClient{err: cause})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
}

func TestGenerateFunction(t *testing.T) {
	ctx := context.Background()
	client := &stubClient{text: "```go\nfunc add(a, b int) int {\n\treturn a + b\n}\n```"}
	b := binder.New(binder.Options{})

	f, err := addSpec().Generate(ctx, client, b)
	require.NoError(t, err)
	assert.Equal(t, "add", f.Name())
	assert.Equal(t, "add two integers (a and b)", f.Doc())

	out, err := f.Call(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []any{3}, out)

	a, err := Generate(ctx, addSpec(), client, b)
	require.NoError(t, err)
	assert.Equal(t, KindFunction, a.Kind())
	assert.Len(t, client.prompts, 2)
}

func TestGenerateClass(t *testing.T) {
	ctx := context.Background()
	client := &stubClient{text: `
type MyClass struct{ calls int }

func NewMyClass() *MyClass { return &MyClass{calls: 10} }

func (c *MyClass) Add() int {
	c.calls++
	return c.calls
}
`}
	spec := MustClass("MyClass", "A simple counter").AddInstanceMethod("Add", "Adds one to calls")

	c, err := spec.Generate(ctx, client, binder.New(binder.Options{}))
	require.NoError(t, err)
	assert.Equal(t, "A simple counter", c.Doc())

	obj, err := c.New(ctx)
	require.NoError(t, err)
	out, err := obj.Call(ctx, "Add")
	require.NoError(t, err)
	assert.Equal(t, []any{11}, out)
}

func TestGenerateModule(t *testing.T) {
	ctx := context.Background()
	client := &stubClient{text: "```go\npackage mymodule\n\nimport \"strings\"\n\nfunc shout(s string) string { return strings.ToUpper(s) }\n\ntype Counter struct{ n int }\n```"}

	m, err := NewModule("mymodule", "helpers")
	require.NoError(t, err)
	_, err = m.AddFunction("shout", "upper-case s")
	require.NoError(t, err)
	_, err = m.AddClass("Counter", "counts")
	require.NoError(t, err)

	mod, err := m.Generate(ctx, client, binder.New(binder.Options{}))
	require.NoError(t, err)
	out, err := mod.Call(ctx, "shout", "hi")
	require.NoError(t, err)
	assert.Equal(t, []any{"HI"}, out)

	_, err = m.AddFunction("whisper", "")
	require.NoError(t, err)
	_, err = Generate(ctx, m, client, binder.New(binder.Options{}))
	assert.ErrorIs(t, err, binder.ErrArtifactNotFound)
}

func TestGenerateNotFound(t *testing.T) {
	client := &stubClient{text: "func subtract(a, b int) int { return a - b }"}
	_, err := Generate(context.Background(), addSpec(), client, binder.New(binder.Options{}))
	assert.ErrorIs(t, err, binder.ErrArtifactNotFound)
}

func TestGenerateSyntaxError(t *testing.T) {
	client := &stubClient{text: "Sure! Here is the function you asked for."}
	_, err := Generate(context.Background(), addSpec(), client, binder.New(binder.Options{}))
	assert.ErrorIs(t, err, binder.ErrGenerationSyntax)
}

func TestGenerationStates(t *testing.T) {
	ctx := context.Background()
	client := &stubClient{text: "func add(a, b int) int { return a + b }"}
	b := binder.New(binder.Options{})
	g := NewGeneration(addSpec())
	assert.Equal(t, Unrendered, g.State())

	assert.ErrorIs(t, g.Request(ctx, client), ErrState)
	assert.ErrorIs(t, g.Bind(ctx, b), ErrState)

	require.NoError(t, g.Render())
	assert.Equal(t, Rendered, g.State())
	assert.NotEmpty(t, g.Prompt())
	assert.ErrorIs(t, g.Render(), ErrState)

	require.NoError(t, g.Request(ctx, client))
	assert.Equal(t, Completed, g.State())
	assert.Equal(t, "func add(a, b int) int { return a + b }", g.Completion())

	require.NoError(t, g.Bind(ctx, b))
	assert.Equal(t, Bound, g.State())
	assert.Equal(t, "add", g.Artifact().Name())
	assert.NoError(t, g.Err())

	_, err := g.Run(ctx, client, b)
	assert.ErrorIs(t, err, ErrState)
}

func TestGenerationFailedBind(t *testing.T) {
	ctx := context.Background()
	g := NewGeneration(addSpec())

	_, err := g.Run(ctx, &stubClient{text: "func sub(a, b int) int { return a - b }"}, binder.New(binder.Options{}))
	require.ErrorIs(t, err, binder.ErrArtifactNotFound)

	assert.Equal(t, Failed, g.State())
	assert.Equal(t, err, g.Err())
	assert.Contains(t, g.Completion(), "func sub")
	assert.Nil(t, g.Artifact())
}

func TestGenerationFailedRequest(t *testing.T) {
	g := NewGeneration(addSpec())
	require.NoError(t, g.Render())

	err := g.Request(context.Background(), &stubClient{err: errors.New("502 bad gateway")})
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, Failed, g.State())
	assert.Empty(t, g.Completion())
}

func TestSpecReuse(t *testing.T) {
	ctx := context.Background()
	s := addSpec()
	client := &stubClient{text: "func add(a, b int) int { return a + b }"}
	b := binder.New(binder.Options{})

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = Generate(ctx, s, client, b)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, s.Examples(), 2)
	assert.Len(t, client.prompts, 4)
	assert.Equal(t, client.prompts[0], client.prompts[3])
}
