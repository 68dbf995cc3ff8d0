package portfolio

import (
	"io/fs"

	"github.com/goliatone/go-portfolio/pkg/renderers/vanilla"
)

// EmbeddedTemplates exposes the built-in preview templates so callers can
// reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

// AssetsFS exposes the preview style sheet so Go applications can serve it
// next to exported pages.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(portfolio.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return vanilla.AssetsFS()
}
