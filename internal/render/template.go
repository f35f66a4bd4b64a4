package render

import (
	"embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorewood/sidecar/internal/output"
)

//go:embed templates/*.md
var builtinFS embed.FS

// Template is a named, validated note template.
type Template struct {
	Name    string
	Content string
	Source  string // "built-in" or the override file path
}

// LoadTemplate resolves a template by name. A vault override under
// overridesDir takes precedence over the built-in default. Resolution depends
// only on (name, overridesDir), never on sync state.
func LoadTemplate(name, overridesDir string) (*Template, error) {
	if overridesDir != "" {
		path := filepath.Join(overridesDir, name+".md")
		data, err := os.ReadFile(path)
		if err == nil {
			tmpl := &Template{Name: name, Content: string(data), Source: path}
			if err := tmpl.validate(); err != nil {
				return nil, err
			}
			return tmpl, nil
		}
		if !os.IsNotExist(err) {
			return nil, output.NewTemplateError("failed to read template override: "+path, err)
		}
	}

	data, err := builtinFS.ReadFile("templates/" + name + ".md")
	if err != nil {
		return nil, output.NewTemplateError("unknown template: "+name, err)
	}
	return &Template{Name: name, Content: string(data), Source: "built-in"}, nil
}

// validate rejects overrides that cannot produce a usable note: unbalanced
// conditional regions, or text that references none of the recognized
// placeholders.
func (t *Template) validate() error {
	opens := strings.Count(t.Content, "{{#if ")
	closes := strings.Count(t.Content, "{{/if}}")
	if opens != closes {
		return output.NewTemplateError(
			"template "+t.Name+" has unbalanced {{#if}}/{{/if}} regions", nil)
	}

	for _, f := range Fields {
		if strings.Contains(t.Content, "{{"+string(f)+"}}") ||
			strings.Contains(t.Content, "{{"+string(f)+".yaml}}") ||
			strings.Contains(t.Content, "{{#if "+string(f)+"}}") {
			return nil
		}
	}
	return output.NewTemplateError(
		"template "+t.Name+" references no recognized placeholders", nil)
}
