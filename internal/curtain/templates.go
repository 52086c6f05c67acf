package curtain

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/template"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// Templates holds the parsed response templates. It is read-only after
// loading and safe for concurrent use.
type Templates struct {
	byName map[string]*template.Template
}

// LoadTemplates parses every required response template from fsys.
// A missing template fails with ErrTemplateNotFound.
func LoadTemplates(fsys fs.FS) (*Templates, error) {
	t := &Templates{byName: make(map[string]*template.Template)}

	var missing []error
	for _, name := range requiredTemplates() {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				missing = append(missing, fmt.Errorf("%w: %s", ErrTemplateNotFound, name))
				continue
			}
			return nil, fmt.Errorf("reading template %s: %w", name, err)
		}

		tmpl, err := template.New(name).Option("missingkey=error").Parse(string(raw))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.byName[name] = tmpl
	}

	if err := errors.Join(missing...); err != nil {
		return nil, err
	}
	return t, nil
}

// DefaultTemplates returns the templates compiled into the binary.
func DefaultTemplates() (*Templates, error) {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return nil, fmt.Errorf("opening embedded templates: %w", err)
	}
	return LoadTemplates(sub)
}

// LoadTemplatesDir loads templates from dir, or the embedded set when dir
// is empty.
func LoadTemplatesDir(dir string) (*Templates, error) {
	if dir == "" {
		return DefaultTemplates()
	}
	return LoadTemplates(os.DirFS(dir))
}

// Lookup returns the named template.
func (t *Templates) Lookup(name string) (*template.Template, bool) {
	tmpl, ok := t.byName[name]
	return tmpl, ok
}

// templateContext is the data every response template receives.
type templateContext struct {
	Action     string
	Parameters Parameters
}

// Renderer turns an action and its parameters into response text.
type Renderer struct {
	templates *Templates
	logger    Logger
}

// NewRenderer creates a Renderer over loaded templates.
func NewRenderer(templates *Templates, logger Logger) *Renderer {
	return &Renderer{templates: templates, logger: loggerOrNoop(logger)}
}

// Render returns the response for action. It never fails: a missing or
// failing template yields ReplyProcessingFailed and an error log.
func (r *Renderer) Render(action Action, params Parameters) string {
	tmpl, ok := r.templates.Lookup(action.Template)
	if !ok {
		r.logger.Error("no template found for action",
			"action", action.Name,
			"template", action.Template,
		)
		return ReplyProcessingFailed
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateContext{Action: action.Name, Parameters: params}); err != nil {
		r.logger.Error("rendering response template failed",
			"action", action.Name,
			"template", action.Template,
			"error", err,
		)
		return ReplyProcessingFailed
	}
	return buf.String()
}
