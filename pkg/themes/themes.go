// Package themes holds the portfolio palettes as go-theme manifests and
// turns a selection into CSS custom properties.
package themes

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

const (
	// DefaultTheme is the built-in palette.
	DefaultTheme = "portfolio"
	// VariantLight is the default variant.
	VariantLight = "light"
	// VariantDark mirrors the editor's dark mode toggle.
	VariantDark = "dark"

	// StylesheetAsset is the asset key of the base style sheet.
	StylesheetAsset = "stylesheet"

	varPrefix = "--pf-"
)

var (
	// ErrUnknownTheme is returned when no manifest matches the requested name.
	ErrUnknownTheme = errors.New("themes: unknown theme")
	// ErrUnknownVariant is returned when the manifest has no such variant.
	ErrUnknownVariant = errors.New("themes: unknown variant")
)

// Manifest returns the built-in portfolio palette. Base tokens are the light
// palette; the dark variant overrides a subset.
func Manifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultTheme,
		Version: "1.0.0",
		Tokens: map[string]string{
			"bg":          "#ffffff",
			"text":        "#1f2937",
			"accent":      "#2563eb",
			"section-alt": "#f3f4f6",
			"card-bg":     "#ffffff",
			"card-shadow": "0 4px 6px -1px rgba(0, 0, 0, 0.1), 0 2px 4px -1px rgba(0, 0, 0, 0.06)",
			"hero-from":   "#f0f9ff",
			"hero-to":     "#e0f2fe",
			"heading":     "#0f172a",
			"muted":       "#6b7280",
			"border":      "#e5e7eb",
			"footer-bg":   "#111827",
		},
		Assets: theme.Assets{
			Prefix: "/assets",
			Files: map[string]string{
				StylesheetAsset: "portfolio.css",
			},
		},
		Variants: map[string]theme.Variant{
			VariantDark: {
				Tokens: map[string]string{
					"bg":          "#0f172a",
					"text":        "#e2e8f0",
					"accent":      "#60a5fa",
					"section-alt": "#1e293b",
					"card-bg":     "#1e293b",
					"card-shadow": "0 4px 6px -1px rgba(0, 0, 0, 0.4)",
					"hero-from":   "#0b1220",
					"hero-to":     "#1e293b",
					"heading":     "#f8fafc",
					"muted":       "#94a3b8",
					"border":      "#334155",
					"footer-bg":   "#020617",
				},
			},
		},
	}
}

// Catalog resolves theme and variant names to renderer configuration.
type Catalog struct {
	provider       theme.ThemeProvider
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*Catalog)(nil)

// NewCatalog registers the built-in manifest plus extra ones. Every manifest
// goes through the go-theme registry so invalid manifests are rejected up
// front.
func NewCatalog(extra ...*theme.Manifest) (*Catalog, error) {
	registry := theme.NewRegistry()
	c := &Catalog{
		manifests:      make(map[string]*theme.Manifest),
		defaultTheme:   DefaultTheme,
		defaultVariant: VariantLight,
	}
	for _, manifest := range append([]*theme.Manifest{Manifest()}, extra...) {
		if manifest == nil {
			continue
		}
		if _, exists := c.manifests[manifest.Name]; exists {
			return nil, fmt.Errorf("themes: duplicate manifest %q", manifest.Name)
		}
		if err := registry.Register(manifest); err != nil {
			return nil, fmt.Errorf("themes: register %q: %w", manifest.Name, err)
		}
		c.manifests[manifest.Name] = manifest
	}
	c.provider = registry
	return c, nil
}

// Provider exposes the underlying go-theme registry.
func (c *Catalog) Provider() theme.ThemeProvider {
	return c.provider
}

// Names lists registered themes in alphabetical order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.manifests))
	for name := range c.manifests {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Variants lists the variants of theme name, light first.
func (c *Catalog) Variants(name string) []string {
	manifest, ok := c.manifests[c.themeName(name)]
	if !ok {
		return nil
	}
	out := []string{VariantLight}
	var rest []string
	for variant := range manifest.Variants {
		if variant != VariantLight {
			rest = append(rest, variant)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// Select implements theme.ThemeSelector. Blank names fall back to the
// catalog defaults.
func (c *Catalog) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	name = c.themeName(name)
	manifest, ok := c.manifests[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	variant = strings.TrimSpace(variant)
	if variant == "" {
		variant = c.defaultVariant
	}
	if variant != VariantLight {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("%w: %q has no variant %q", ErrUnknownVariant, name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// Resolve selects a theme and derives the renderer configuration: merged
// tokens, CSS variables and an asset URL resolver.
func (c *Catalog) Resolve(name, variant string) (*theme.RendererConfig, error) {
	selection, err := c.Select(name, variant)
	if err != nil {
		return nil, err
	}
	tokens := mergeTokens(selection.Manifest, selection.Variant)
	assets := mergeAssets(selection.Manifest, selection.Variant)
	prefix := strings.TrimRight(selection.Manifest.Assets.Prefix, "/")

	return &theme.RendererConfig{
		Theme:   selection.Theme,
		Variant: selection.Variant,
		Tokens:  tokens,
		CSSVars: CSSVars(tokens),
		AssetURL: func(key string) string {
			file, ok := assets[key]
			if !ok || file == "" {
				return ""
			}
			return prefix + "/" + strings.TrimLeft(file, "/")
		},
	}, nil
}

func (c *Catalog) themeName(name string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return c.defaultTheme
}

func mergeTokens(manifest *theme.Manifest, variant string) map[string]string {
	out := make(map[string]string, len(manifest.Tokens))
	for key, value := range manifest.Tokens {
		out[key] = value
	}
	if v, ok := manifest.Variants[variant]; ok {
		for key, value := range v.Tokens {
			out[key] = value
		}
	}
	return out
}

func mergeAssets(manifest *theme.Manifest, variant string) map[string]string {
	out := make(map[string]string, len(manifest.Assets.Files))
	for key, value := range manifest.Assets.Files {
		out[key] = value
	}
	if v, ok := manifest.Variants[variant]; ok {
		for key, value := range v.Assets.Files {
			out[key] = value
		}
	}
	return out
}

// CSSVars maps tokens to --pf-* custom properties.
func CSSVars(tokens map[string]string) map[string]string {
	if len(tokens) == 0 {
		return nil
	}
	out := make(map[string]string, len(tokens))
	for key, value := range tokens {
		name := strings.TrimSpace(key)
		if name == "" {
			continue
		}
		if !strings.HasPrefix(name, "--") {
			name = varPrefix + name
		}
		out[name] = value
	}
	return out
}

// RootStyle renders vars as a sorted :root rule.
func RootStyle(vars map[string]string) string {
	return rule(":root", vars)
}

// ScopedStyle renders vars under selector, used for the editor's dark mode
// class.
func ScopedStyle(selector string, vars map[string]string) string {
	return rule(selector, vars)
}

func rule(selector string, vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(selector)
	b.WriteString(" {\n")
	for _, key := range keys {
		b.WriteString("  ")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(sanitizeValue(vars[key]))
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

// sanitizeValue keeps token values from closing the rule or the style
// element they are inlined into.
func sanitizeValue(value string) string {
	replacer := strings.NewReplacer("{", "", "}", "", ";", "", "<", "", ">", "")
	return strings.TrimSpace(replacer.Replace(value))
}
