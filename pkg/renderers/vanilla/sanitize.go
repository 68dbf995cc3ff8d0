package vanilla

import (
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-portfolio/pkg/model"
)

var (
	linkPolicyOnce sync.Once
	linkPolicy     *bluemonday.Policy
)

// sanitizeLinks runs rendered hero links through a policy that only keeps
// anchors with mailto/http/https targets and their icon elements.
func sanitizeLinks(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(linkSanitizer().Sanitize(trimmed))
}

func linkSanitizer() *bluemonday.Policy {
	linkPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowElements("a", "i")
		policy.AllowAttrs("href", "title").OnElements("a")
		policy.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
		policy.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)).OnElements("a", "i")
		policy.AllowURLSchemes("mailto", "http", "https")
		policy.RequireParseableURLs(true)
		linkPolicy = policy
	})
	return linkPolicy
}

// imageSource returns a src attribute value safe to place on the preview
// image: data:image URIs and http(s) URLs pass, anything else falls back to
// the placeholder avatar.
func imageSource(raw string) string {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)
	switch {
	case trimmed == "":
		return model.PlaceholderImage
	case strings.HasPrefix(lower, "data:image/"):
		return trimmed
	case strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "http://"):
		return trimmed
	default:
		return model.PlaceholderImage
	}
}
