// Package document reads and writes the YAML description of a portfolio
// used for headless builds.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-portfolio/pkg/imageload"
	"github.com/goliatone/go-portfolio/pkg/model"
	"github.com/goliatone/go-portfolio/pkg/state"
)

// ErrInvalidDocument wraps YAML decoding failures.
var ErrInvalidDocument = errors.New("document: invalid portfolio file")

// File is the on-disk shape of a portfolio. Profile fields sit at the top
// level next to the image path and the project list.
type File struct {
	model.Profile `yaml:",inline"`

	// Image is a path to a local image, relative to the file.
	Image    string          `yaml:"image,omitempty"`
	Theme    string          `yaml:"theme,omitempty"`
	Variant  string          `yaml:"variant,omitempty"`
	Projects []model.Project `yaml:"projects,omitempty"`

	dir string
}

// Parse decodes a portfolio file. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return &file, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &file, nil
}

// Load reads and parses path. Relative image paths resolve against the
// file's directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("document: read %q: %w", path, err)
	}
	file, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("document: %q: %w", path, err)
	}
	file.dir = filepath.Dir(path)
	return file, nil
}

// ImagePath returns the image location resolved against the file directory.
func (f *File) ImagePath() string {
	image := strings.TrimSpace(f.Image)
	if image == "" || filepath.IsAbs(image) || f.dir == "" {
		return image
	}
	return filepath.Join(f.dir, image)
}

// Apply copies the file into session. The image, when set, is loaded with
// loader before Apply returns; a failed image load is returned and leaves
// the session's previous image untouched.
func (f *File) Apply(ctx context.Context, session *state.Session, loader *imageload.Loader) error {
	for _, field := range model.Fields() {
		if _, err := session.SetField(field, f.Profile.Value(field)); err != nil {
			return fmt.Errorf("document: apply %s: %w", field, err)
		}
	}
	for _, project := range f.Projects {
		session.AppendProject(project.Title, project.Description)
	}

	path := f.ImagePath()
	if path == "" {
		return nil
	}
	if loader == nil {
		loader = imageload.New()
	}
	done := make(chan imageload.Result, 1)
	loader.LoadFile(ctx, path, func(result imageload.Result) {
		done <- result
	})
	select {
	case result := <-done:
		if result.Err != nil {
			return fmt.Errorf("document: load image: %w", result.Err)
		}
		session.SetImage(result.DataURI)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FromSession captures the session state. image is stored verbatim as the
// image path since sessions only hold encoded data.
func FromSession(session *state.Session, image string) *File {
	snapshot := session.Snapshot()
	profile := snapshot.Profile
	profile.Image = ""
	return &File{
		Profile:  profile,
		Image:    image,
		Projects: snapshot.Projects,
	}
}

// Marshal encodes the file as YAML.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("document: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("document: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the file to path, creating parent directories.
func (f *File) Save(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("document: create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("document: write %q: %w", path, err)
	}
	return nil
}
