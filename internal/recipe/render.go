// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
)

// TemplateVar is the only variable a recipe template can reference.
const TemplateVar = "result_item"

//go:embed default_recipe.json.tmpl
var defaultTemplate []byte

type (
	// Renderer executes a parsed recipe template. It is safe for concurrent use.
	Renderer struct {
		tmpl *template.Template
	}

	// Artifact is the rendered recipe for one item.
	Artifact struct {
		Item    string
		Name    string
		Content []byte
	}
)

// DefaultTemplate returns a copy of the built-in recipe template.
func DefaultTemplate() []byte {
	return bytes.Clone(defaultTemplate)
}

// NewRenderer parses text as a recipe template. References to variables
// other than result_item fail at render time.
func NewRenderer(name string, text []byte) (*Renderer, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("parsing recipe template %s: %w", name, err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the template for item.
func (r *Renderer) Render(item string) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, map[string]any{TemplateVar: item}); err != nil {
		return nil, fmt.Errorf("rendering recipe for %s: %w", item, err)
	}
	return buf.Bytes(), nil
}

// Artifact renders item and names it after the item's safe filename.
func (r *Renderer) Artifact(item string) (Artifact, error) {
	name, err := ArtifactName(item)
	if err != nil {
		return Artifact{}, err
	}
	content, err := r.Render(item)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Item: item, Name: name, Content: content}, nil
}
