package model

import (
	"net/url"
	"regexp"
	"strings"
)

// ParseSkills splits a comma separated skills string into trimmed, non-empty
// tags, preserving input order.
func ParseSkills(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		skill := strings.TrimSpace(part)
		if skill == "" {
			continue
		}
		out = append(out, skill)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SkillTags returns the parsed skills of the profile.
func (p Profile) SkillTags() []string {
	return ParseSkills(p.Skills)
}

// LinkKind names a hero link.
type LinkKind string

const (
	LinkEmail    LinkKind = "email"
	LinkGitHub   LinkKind = "github"
	LinkLinkedIn LinkKind = "linkedin"
)

// Link is one rendered social anchor.
type Link struct {
	Kind  LinkKind `json:"kind"`
	Href  string   `json:"href"`
	Title string   `json:"title"`
	Icon  string   `json:"icon"`
	// External links open in a new tab.
	External bool `json:"external"`
}

// Links returns the hero links for every non-empty social field, in the order
// email, GitHub, LinkedIn.
func (p Profile) Links() []Link {
	var links []Link
	if email := strings.TrimSpace(p.Email); email != "" {
		links = append(links, Link{
			Kind:  LinkEmail,
			Href:  MailtoURL(email),
			Title: "Email",
			Icon:  "fa-solid fa-envelope",
		})
	}
	if github := strings.TrimSpace(p.GitHub); github != "" {
		links = append(links, Link{
			Kind:     LinkGitHub,
			Href:     AbsoluteURL(github, "github.com"),
			Title:    "GitHub",
			Icon:     "fa-brands fa-github",
			External: true,
		})
	}
	if linkedin := strings.TrimSpace(p.LinkedIn); linkedin != "" {
		links = append(links, Link{
			Kind:     LinkLinkedIn,
			Href:     AbsoluteURL(linkedin, "linkedin.com"),
			Title:    "LinkedIn",
			Icon:     "fa-brands fa-linkedin",
			External: true,
		})
	}
	return links
}

var hostPattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?(\.[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?)*(:[0-9]{1,5})?$`)

// AbsoluteURL turns a profile handle such as "github.com/alice" into an
// absolute http(s) URL. An http or https scheme is kept, anything else
// defaults to https. When the leading segment is not a valid host name the
// whole handle becomes a path on defaultHost; with no defaultHost the result
// is empty. The returned URL always parses.
func AbsoluteURL(raw, defaultHost string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	scheme, handle := splitScheme(trimmed)
	handle = strings.TrimLeft(handle, "/")

	host, rest, _ := strings.Cut(handle, "/")
	if !hostPattern.MatchString(host) {
		if defaultHost == "" {
			return ""
		}
		host, rest = defaultHost, handle
	}

	candidate := scheme + "://" + host
	if rest != "" {
		candidate += "/" + rest
	}
	if u, err := url.Parse(candidate); err == nil && u.Host == host {
		u.RawQuery = strings.ReplaceAll(u.RawQuery, " ", "%20")
		return u.String()
	}
	// malformed escapes: keep the handle as literal path text
	u := &url.URL{Scheme: scheme, Host: host}
	if rest != "" {
		u.Path = "/" + rest
	}
	return u.String()
}

func splitScheme(raw string) (string, string) {
	lower := strings.ToLower(raw)
	for _, scheme := range []string{"https", "http"} {
		if strings.HasPrefix(lower, scheme+":") {
			return scheme, raw[len(scheme)+1:]
		}
	}
	return "https", raw
}

// MailtoURL returns a mailto: link for address with unsafe characters
// escaped.
func MailtoURL(address string) string {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return ""
	}
	return (&url.URL{Scheme: "mailto", Opaque: url.PathEscape(trimmed)}).String()
}
