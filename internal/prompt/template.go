// Package prompt provides ${var} prompt templates, a directory-backed
// template store, and hot reload via filesystem watching.
package prompt

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// varPattern matches ${var} placeholders. Variable names follow Go
// identifier rules.
var varPattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Template is a prompt template with ${var} placeholders.
type Template struct {
	Name        string
	Description string
	Text        string
	Metadata    map[string]string

	required []string
}

// New creates a template and extracts its required variables.
func New(name, text string) *Template {
	return &Template{
		Name:     name,
		Text:     text,
		required: extractVars(text),
	}
}

// extractVars returns the sorted, deduplicated placeholder names in text.
func extractVars(text string) []string {
	seen := make(map[string]bool)
	var vars []string
	for _, m := range varPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			vars = append(vars, m[1])
		}
	}
	sort.Strings(vars)
	return vars
}

// RequiredVars returns the placeholder names the template needs.
func (t *Template) RequiredVars() []string {
	if t.required == nil {
		t.required = extractVars(t.Text)
	}
	return t.required
}

// Render substitutes vars into the template.
// Returns an error naming every missing variable.
func (t *Template) Render(vars map[string]string) (string, error) {
	var missing []string
	for _, name := range t.RequiredVars() {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("template %q missing variables: %s", t.Name, strings.Join(missing, ", "))
	}

	result := varPattern.ReplaceAllStringFunc(t.Text, func(m string) string {
		name := varPattern.FindStringSubmatch(m)[1]
		return vars[name]
	})
	return result, nil
}

// Combine joins templates into one, separated by blank lines.
// Required variables are the union of the parts'.
func Combine(name string, templates ...*Template) *Template {
	parts := make([]string, 0, len(templates))
	for _, t := range templates {
		parts = append(parts, strings.TrimSpace(t.Text))
	}
	return New(name, strings.Join(parts, "\n\n"))
}
