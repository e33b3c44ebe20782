package spec

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(
	template.New("prompts").Option("missingkey=error").ParseFS(promptFS, "prompts/*.tmpl"),
)

// Empty is what an empty list renders as.
const Empty = "(none)"

func render(name string, fields map[string]string) (string, error) {
	var sb strings.Builder
	if err := prompts.ExecuteTemplate(&sb, name, fields); err != nil {
		return "", fmt.Errorf("could not render %s: %w", name, err)
	}
	return sb.String(), nil
}

// list renders one "- " item per line.
func list[T fmt.Stringer](items []T) string {
	if len(items) == 0 {
		return Empty
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item.String()
	}
	return strings.Join(lines, "\n")
}
