package model

import "strings"

// Field identifies a scalar form input. Values match the editor form ids.
type Field string

const (
	FieldName     Field = "fullName"
	FieldRole     Field = "role"
	FieldAbout    Field = "about"
	FieldSkills   Field = "skills"
	FieldEmail    Field = "email"
	FieldGitHub   Field = "github"
	FieldLinkedIn Field = "linkedin"
)

// Fields lists the scalar inputs in form order.
func Fields() []Field {
	return []Field{FieldName, FieldRole, FieldAbout, FieldSkills, FieldEmail, FieldGitHub, FieldLinkedIn}
}

// ParseField resolves a form id into a Field.
func ParseField(raw string) (Field, bool) {
	candidate := Field(strings.TrimSpace(raw))
	for _, field := range Fields() {
		if field == candidate {
			return field, true
		}
	}
	return "", false
}

// IsSocial reports whether the field feeds the hero link list.
func (f Field) IsSocial() bool {
	return f == FieldEmail || f == FieldGitHub || f == FieldLinkedIn
}

// ProjectField identifies an editable attribute of a project.
type ProjectField string

const (
	ProjectTitle       ProjectField = "title"
	ProjectDescription ProjectField = "description"
)

// ParseProjectField resolves an editor row input name.
func ParseProjectField(raw string) (ProjectField, bool) {
	switch ProjectField(strings.TrimSpace(raw)) {
	case ProjectTitle:
		return ProjectTitle, true
	case ProjectDescription:
		return ProjectDescription, true
	default:
		return "", false
	}
}

// Placeholder copy rendered when the matching field is empty.
const (
	PlaceholderName               = "Your Name"
	PlaceholderRole               = "Your Role"
	PlaceholderAbout              = "About yourself..."
	PlaceholderProjectTitle       = "New Project"
	PlaceholderProjectDescription = "Description of your project..."
	EmptyProjectsNotice           = "No projects added yet."
)

// Profile holds the scalar portfolio fields.
type Profile struct {
	Name     string `json:"name" yaml:"name"`
	Role     string `json:"role" yaml:"role"`
	About    string `json:"about" yaml:"about"`
	Skills   string `json:"skills" yaml:"skills"`
	Email    string `json:"email" yaml:"email"`
	GitHub   string `json:"github" yaml:"github"`
	LinkedIn string `json:"linkedin" yaml:"linkedin"`
	// Image is a displayable data URI (or remote URL); empty means no image.
	Image string `json:"image,omitempty" yaml:"-"`
}

// Value returns the raw value stored for field.
func (p Profile) Value(field Field) string {
	switch field {
	case FieldName:
		return p.Name
	case FieldRole:
		return p.Role
	case FieldAbout:
		return p.About
	case FieldSkills:
		return p.Skills
	case FieldEmail:
		return p.Email
	case FieldGitHub:
		return p.GitHub
	case FieldLinkedIn:
		return p.LinkedIn
	default:
		return ""
	}
}

// Set stores value under field. It reports false for unknown fields.
func (p *Profile) Set(field Field, value string) bool {
	switch field {
	case FieldName:
		p.Name = value
	case FieldRole:
		p.Role = value
	case FieldAbout:
		p.About = value
	case FieldSkills:
		p.Skills = value
	case FieldEmail:
		p.Email = value
	case FieldGitHub:
		p.GitHub = value
	case FieldLinkedIn:
		p.LinkedIn = value
	default:
		return false
	}
	return true
}

// Project is one entry of the ordered project list.
type Project struct {
	ID          string `json:"id" yaml:"-"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Set stores value under field. It reports false for unknown fields.
func (p *Project) Set(field ProjectField, value string) bool {
	switch field {
	case ProjectTitle:
		p.Title = value
	case ProjectDescription:
		p.Description = value
	default:
		return false
	}
	return true
}

// Portfolio is an immutable snapshot of the editor state. Renderers treat it
// as the only input for preview markup.
type Portfolio struct {
	Profile  Profile   `json:"profile"`
	Projects []Project `json:"projects"`
	// Year is printed in the footer.
	Year int `json:"year"`
}

// Project returns the project with id, if present.
func (p Portfolio) Project(id string) (Project, bool) {
	for _, project := range p.Projects {
		if project.ID == id {
			return project, true
		}
	}
	return Project{}, false
}

// Title is the exported document title.
func (p Portfolio) Title() string {
	name := strings.TrimSpace(p.Profile.Name)
	if name == "" {
		name = PlaceholderName
	}
	return name + " - Portfolio"
}

// PlaceholderImage is the avatar shown until an image is loaded.
const PlaceholderImage = "data:image/svg+xml;base64,PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciIHZpZXdCb3g9IjAgMCAxNDAgMTQwIj48cmVjdCB3aWR0aD0iMTQwIiBoZWlnaHQ9IjE0MCIgZmlsbD0iI2UwZjJmZSIvPjxjaXJjbGUgY3g9IjcwIiBjeT0iNTQiIHI9IjI2IiBmaWxsPSIjOTNjNWZkIi8+PHBhdGggZD0iTTI0IDEyNmM2LTI2IDI0LTQwIDQ2LTQwczQwIDE0IDQ2IDQweiIgZmlsbD0iIzkzYzVmZCIvPjwvc3ZnPg=="
