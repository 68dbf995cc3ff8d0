// Package prompt fills a portfolio session from an interactive terminal
// form.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-portfolio/pkg/model"
	"github.com/goliatone/go-portfolio/pkg/state"
)

var fieldLabels = map[model.Field]string{
	model.FieldName:     "Full name",
	model.FieldRole:     "Role / title",
	model.FieldAbout:    "About you",
	model.FieldSkills:   "Skills (comma separated)",
	model.FieldEmail:    "Email",
	model.FieldGitHub:   "GitHub URL",
	model.FieldLinkedIn: "LinkedIn URL",
}

const (
	actionAdd    = "Add project"
	actionEdit   = "Edit project"
	actionRemove = "Remove project"
	actionDone   = "Done"
)

// Answers holds collected values that do not live in the session.
type Answers struct {
	// ImagePath is the local image the user picked, if any.
	ImagePath string
}

// Collector walks the user through the profile fields and the project list.
type Collector struct {
	driver PromptDriver
}

// NewCollector wraps driver. A nil driver uses survey on the terminal.
func NewCollector(driver PromptDriver) *Collector {
	if driver == nil {
		driver = NewSurveyDriver(nil)
	}
	return &Collector{driver: driver}
}

// Collect prompts for every profile field (current values as defaults),
// an optional image path, then loops over project edits until the user
// picks Done.
func (c *Collector) Collect(ctx context.Context, session *state.Session) (Answers, error) {
	var answers Answers
	current := session.Snapshot().Profile

	for _, field := range model.Fields() {
		value, err := c.askField(ctx, field, current.Value(field))
		if err != nil {
			return answers, err
		}
		if _, err := session.SetField(field, value); err != nil {
			return answers, err
		}
	}

	image, err := c.driver.Input(ctx, InputConfig{
		Message: "Profile image path (optional)",
		Help:    "PNG, JPEG, GIF or WebP file embedded into the page",
	})
	if err != nil {
		return answers, err
	}
	answers.ImagePath = strings.TrimSpace(image)

	if err := c.Projects(ctx, session); err != nil {
		return answers, err
	}

	snapshot := session.Snapshot()
	msg := fmt.Sprintf("Collected %s with %d project(s).", snapshot.Title(), len(snapshot.Projects))
	if err := c.driver.Info(ctx, msg); err != nil {
		return answers, err
	}
	return answers, nil
}

func (c *Collector) askField(ctx context.Context, field model.Field, current string) (string, error) {
	label := fieldLabels[field]
	if field == model.FieldAbout {
		return c.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: current})
	}
	return c.driver.Input(ctx, InputConfig{Message: label, Default: current})
}

// Projects runs the add/edit/remove loop on the session's project list.
func (c *Collector) Projects(ctx context.Context, session *state.Session) error {
	for {
		actions := []string{actionAdd}
		if session.Len() > 0 {
			actions = append(actions, actionEdit, actionRemove)
		}
		actions = append(actions, actionDone)

		idx, err := c.driver.Select(ctx, SelectConfig{
			Message:      fmt.Sprintf("Projects (%d)", session.Len()),
			Options:      actions,
			DefaultIndex: len(actions) - 1,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(actions) {
			return fmt.Errorf("prompt: invalid project action %d", idx)
		}

		switch actions[idx] {
		case actionAdd:
			err = c.addProject(ctx, session)
		case actionEdit:
			err = c.editProject(ctx, session)
		case actionRemove:
			err = c.removeProject(ctx, session)
		case actionDone:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (c *Collector) addProject(ctx context.Context, session *state.Session) error {
	title, err := c.driver.Input(ctx, InputConfig{Message: "Project name", Default: model.PlaceholderProjectTitle})
	if err != nil {
		return err
	}
	description, err := c.driver.TextArea(ctx, TextAreaConfig{Message: "Description", Default: model.PlaceholderProjectDescription})
	if err != nil {
		return err
	}
	session.AppendProject(title, description)
	return nil
}

func (c *Collector) editProject(ctx context.Context, session *state.Session) error {
	project, ok, err := c.pickProject(ctx, session, "Edit which project?")
	if err != nil || !ok {
		return err
	}
	title, err := c.driver.Input(ctx, InputConfig{Message: "Project name", Default: project.Title})
	if err != nil {
		return err
	}
	description, err := c.driver.TextArea(ctx, TextAreaConfig{Message: "Description", Default: project.Description})
	if err != nil {
		return err
	}
	if _, err := session.UpdateProject(project.ID, model.ProjectTitle, title); err != nil {
		return err
	}
	_, err = session.UpdateProject(project.ID, model.ProjectDescription, description)
	return err
}

func (c *Collector) removeProject(ctx context.Context, session *state.Session) error {
	project, ok, err := c.pickProject(ctx, session, "Remove which project?")
	if err != nil || !ok {
		return err
	}
	confirmed, err := c.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Remove %q?", project.Title)})
	if err != nil || !confirmed {
		return err
	}
	_, err = session.RemoveProject(project.ID)
	if errors.Is(err, state.ErrProjectNotFound) {
		return nil
	}
	return err
}

func (c *Collector) pickProject(ctx context.Context, session *state.Session, message string) (model.Project, bool, error) {
	projects := session.Snapshot().Projects
	if len(projects) == 0 {
		return model.Project{}, false, nil
	}
	options := make([]string, len(projects))
	for i, project := range projects {
		title := project.Title
		if strings.TrimSpace(title) == "" {
			title = model.PlaceholderProjectTitle
		}
		options[i] = fmt.Sprintf("%d. %s", i+1, title)
	}
	idx, err := c.driver.Select(ctx, SelectConfig{Message: message, Options: options})
	if err != nil {
		return model.Project{}, false, err
	}
	if idx < 0 || idx >= len(projects) {
		return model.Project{}, false, nil
	}
	return projects[idx], true, nil
}
