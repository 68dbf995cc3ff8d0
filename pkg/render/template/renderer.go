package template

import (
	"io"
)

// TemplateRenderer is the seam renderers use to execute templates. Name based
// calls resolve files from the configured fs.FS; RenderString compiles inline
// snippets (cached by content).
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
