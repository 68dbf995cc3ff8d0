package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/goliatone/go-portfolio/pkg/export"
	"github.com/goliatone/go-portfolio/pkg/imageload"
	"github.com/goliatone/go-portfolio/pkg/model"
	"github.com/goliatone/go-portfolio/pkg/preview"
	"github.com/goliatone/go-portfolio/pkg/render"
	"github.com/goliatone/go-portfolio/pkg/renderers/vanilla"
	"github.com/goliatone/go-portfolio/pkg/state"
	"github.com/goliatone/go-portfolio/pkg/themes"
)

const maxFormBodySize = 1 << 20 // 1MB

type patchResponse struct {
	Patches []preview.Patch `json:"patches"`
	Project *model.Project  `json:"project,omitempty"`
}

type uploadResponse struct {
	Status string `json:"status"`
	Name   string `json:"name"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func serveStylesheet(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = io.WriteString(w, vanilla.Stylesheet())
}

// sessionFor returns the caller's session, starting a new one when the
// cookie is missing, malformed or expired.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *entry {
	if cookie, err := r.Cookie(CookieName); err == nil {
		if e, ok := s.sessions.lookup(cookie.Value); ok {
			return e
		}
	}
	e := s.sessions.create()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    e.id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return e
}

// tabFor returns the caller's session and the patch queue of the tab named
// by TabHeader. The queue is opened before the handler mutates anything, so
// the mutation's patches land in it.
func (s *Server) tabFor(w http.ResponseWriter, r *http.Request) (*entry, *preview.Mirror) {
	e := s.sessionFor(w, r)
	id := strings.TrimSpace(r.Header.Get(TabHeader))
	if _, err := uuid.Parse(id); err != nil {
		id = defaultTab
	}
	return e, e.mirror(id, s.clock())
}

// handleEditor opens a new tab and renders the page from the state its
// queue starts at.
func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	e := s.sessionFor(w, r)
	tabID := uuid.NewString()
	mirror := e.mirror(tabID, s.clock())

	page, err := s.editorPage(r.Context(), mirror.Base(), tabID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, page)
}

// handlePreview returns the current pane. Queued patches are kept: they only
// restate what the pane already shows, and editor rows still need them.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	e := s.sessionFor(w, r)

	out, err := s.renderer.Render(r.Context(), e.session.Snapshot(), render.RenderOptions{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", s.renderer.ContentType())
	_, _ = w.Write(out)
}

func (s *Server) handlePatches(w http.ResponseWriter, r *http.Request) {
	_, mirror := s.tabFor(w, r)
	s.writePatches(w, mirror, nil)
}

func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	e, mirror := s.tabFor(w, r)

	field, ok := model.ParseField(chi.URLParam(r, "field"))
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: %q", state.ErrUnknownField, chi.URLParam(r, "field")))
		return
	}
	value, err := formValue(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := e.session.SetField(field, value); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writePatches(w, mirror, nil)
}

func (s *Server) handleAddProject(w http.ResponseWriter, r *http.Request) {
	e, mirror := s.tabFor(w, r)
	project, _ := e.session.AddProject()
	s.writePatches(w, mirror, &project)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	e, mirror := s.tabFor(w, r)

	id := chi.URLParam(r, "id")
	field, ok := model.ParseProjectField(chi.URLParam(r, "field"))
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: %q", state.ErrUnknownField, chi.URLParam(r, "field")))
		return
	}
	value, err := formValue(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := e.session.UpdateProject(id, field, value); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writePatches(w, mirror, nil)
}

func (s *Server) handleRemoveProject(w http.ResponseWriter, r *http.Request) {
	e, mirror := s.tabFor(w, r)
	if _, err := e.session.RemoveProject(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writePatches(w, mirror, nil)
}

// handleImage accepts a multipart upload and answers 202 right away. The
// preview image patch is queued once the loader finishes and is picked up
// through /patches.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	e, _ := s.tabFor(w, r)

	limit := s.loader.Limit()
	r.Body = http.MaxBytesReader(w, r.Body, limit+maxFormBodySize)
	defer r.Body.Close()

	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, StatusError{Code: http.StatusRequestEntityTooLarge, Err: imageload.ErrTooLarge})
			return
		}
		s.writeError(w, r, StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("image upload: %w", err)})
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	file.Close()
	if err != nil {
		s.writeError(w, r, StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("image upload: %w", err)})
		return
	}
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}

	session := e.session
	name := header.Filename
	s.loader.Load(context.WithoutCancel(r.Context()), bytes.NewReader(data), name, func(result imageload.Result) {
		if result.Err != nil {
			// keep the previous image
			return
		}
		session.SetImage(result.DataURI)
		s.logger.Debug("image loaded", "session", e.id, "name", result.Name, "mime", result.MIME, "bytes", result.Size)
	})

	writeJSON(w, http.StatusAccepted, uploadResponse{Status: "loading", Name: name}, s.logger)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	e := s.sessionFor(w, r)

	variant := strings.TrimSpace(r.URL.Query().Get("variant"))
	if variant == "" {
		variant = s.cfg.Theme.Variant
	}
	exporter, err := s.exporterFor(variant)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := exporter.Build(r.Context(), s.renderer, e.session.Snapshot(), render.RenderOptions{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := export.WriteTo(w, doc); err != nil {
		s.logger.Warn("export write failed", "session", e.id, "error", err)
	}
}

func (s *Server) writePatches(w http.ResponseWriter, mirror *preview.Mirror, project *model.Project) {
	patches := mirror.Drain()
	if patches == nil {
		patches = []preview.Patch{}
	}
	writeJSON(w, http.StatusOK, patchResponse{Patches: patches, Project: project}, s.logger)
}

// formValue reads the "value" field from a urlencoded or multipart body.
func formValue(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBodySize)
	if err := r.ParseForm(); err != nil {
		return "", StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("parse form: %w", err)}
	}
	return r.PostForm.Get("value"), nil
}

func (s *Server) editorPage(ctx context.Context, portfolio model.Portfolio, tabID string) (string, error) {
	markup, err := s.renderer.Render(ctx, portfolio, render.RenderOptions{})
	if err != nil {
		return "", err
	}
	var rows strings.Builder
	for _, project := range portfolio.Projects {
		row, err := s.renderer.EditorRow(ctx, project)
		if err != nil {
			return "", err
		}
		rows.WriteString(row)
	}

	light, err := s.catalog.Resolve(s.cfg.Theme.Name, s.cfg.Theme.Variant)
	if err != nil {
		return "", err
	}
	data := map[string]any{
		"tab":        tabID,
		"title":      portfolio.Title(),
		"profile":    portfolio.Profile,
		"rows":       rows.String(),
		"preview":    string(markup),
		"stylesheet": light.AssetURL(themes.StylesheetAsset),
		"theme_css":  themes.RootStyle(light.CSSVars),
		"icons":      export.IconStylesheet,
		"font":       export.FontStylesheet,
	}
	if dark, err := s.catalog.Resolve(s.cfg.Theme.Name, themes.VariantDark); err == nil {
		data["dark_css"] = themes.ScopedStyle("body.dark-mode", dark.CSSVars)
	}

	page, err := s.templates.RenderTemplate("templates/editor.tmpl", data)
	if err != nil {
		return "", fmt.Errorf("server: render editor: %w", err)
	}
	return page, nil
}
