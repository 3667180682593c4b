package docx

import (
	"html"
	"regexp"
	"strings"
)

var (
	// Rich text editors may wrap part of a token in inline tags.
	htmlTokenPattern = regexp.MustCompile(`\{\{((?:[^{}<]|<[^>]*>)+?)\}\}`)
	tagPattern       = regexp.MustCompile(`<[^>]*>`)
)

// ExtractHTMLPlaceholders returns the distinct token names of an HTML body in
// first-seen order.
func ExtractHTMLPlaceholders(body string) []string {
	seen := make(map[string]struct{})
	names := []string{}
	for _, m := range htmlTokenPattern.FindAllStringSubmatch(body, -1) {
		name := htmlTokenName(m[1])
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// SubstituteHTML fills tokens with HTML-escaped values; unknown tokens are
// removed.
func SubstituteHTML(body string, values map[string]string) string {
	return htmlTokenPattern.ReplaceAllStringFunc(body, func(token string) string {
		m := htmlTokenPattern.FindStringSubmatch(token)
		return html.EscapeString(values[htmlTokenName(m[1])])
	})
}

func htmlTokenName(raw string) string {
	return strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(raw, "")))
}
