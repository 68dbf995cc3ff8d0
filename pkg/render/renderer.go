package render

import (
	"context"

	"github.com/goliatone/go-portfolio/pkg/model"
)

// Renderer converts a portfolio snapshot into a byte representation (preview
// HTML, plain text summaries, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, portfolio model.Portfolio, options RenderOptions) ([]byte, error)
}
