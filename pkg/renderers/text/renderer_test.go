package text_test

import (
	"strings"
	"testing"

	"github.com/goliatone/go-portfolio/pkg/model"
	"github.com/goliatone/go-portfolio/pkg/render"
	"github.com/goliatone/go-portfolio/pkg/renderers/text"
	"github.com/goliatone/go-portfolio/pkg/testsupport"
)

func TestRenderer_PlainTextSummary(t *testing.T) {
	renderer, err := text.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := renderer.Render(testsupport.Context(), testsupport.SamplePortfolio(), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	got := string(out)

	for _, want := range []string{
		"Alice Example - Portfolio\n=========================\n",
		"Systems Engineer",
		"GitHub: https://github.com/alice",
		"Email: mailto:alice@example.com",
		"I build <fast> & reliable things.",
		"Go, Rust, Python",
		"1. Compiler",
		"2. <b>Cache</b>",
		"(c) 2026 Alice Example",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "&amp;") || strings.Contains(got, "&lt;") {
		t.Fatalf("plain text output must not be HTML escaped:\n%s", got)
	}
}

func TestRenderer_EmptyPortfolio(t *testing.T) {
	renderer, err := text.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := renderer.Render(testsupport.Context(), model.Portfolio{}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	got := string(out)
	for _, want := range []string{model.PlaceholderName, model.EmptyProjectsNotice, "(none)"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	if renderer.Name() != "text" || !strings.HasPrefix(renderer.ContentType(), "text/plain") {
		t.Fatalf("unexpected metadata %q %q", renderer.Name(), renderer.ContentType())
	}
}

func TestRenderer_WrapsProse(t *testing.T) {
	renderer, err := text.New(text.WithWidth(40))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	portfolio := model.Portfolio{
		Profile: model.Profile{
			Name:  "Alice",
			About: strings.Repeat("reliable systems ", 12),
		},
		Projects: []model.Project{{ID: "1", Title: "Cache", Description: strings.Repeat("read through ", 10)}},
	}

	out, err := renderer.Render(testsupport.Context(), portfolio, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		if len(line) > 40 {
			t.Fatalf("line exceeds wrap width (%d): %q", len(line), line)
		}
	}
	if !strings.Contains(string(out), "\n  reliable systems") {
		t.Fatalf("expected indented continuation lines:\n%s", out)
	}
	if !strings.Contains(string(out), "\n     read through") {
		t.Fatalf("expected indented description lines:\n%s", out)
	}

	unwrapped, err := text.New(text.WithWidth(0))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err = unwrapped.Render(testsupport.Context(), portfolio, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), strings.TrimSpace(strings.Repeat("reliable systems ", 12))) {
		t.Fatalf("expected a single about line without wrapping")
	}
}
