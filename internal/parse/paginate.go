package parse

import (
	"fmt"
	"regexp"
	"strings"
)

// PageStyle selects how page-N URLs are derived from a base URL.
type PageStyle int

const (
	// StyleSingle means the source has no usable pagination.
	StyleSingle PageStyle = iota
	// StyleNumberedSubpath appends "N/index.html", the layout of the
	// French expat directories this started from.
	StyleNumberedSubpath
	// StylePagePath appends "page/N/".
	StylePagePath
	// StyleQueryParam appends or rewrites a "page=N" query parameter.
	StyleQueryParam
)

// DefaultMaxPages bounds pagination per category URL.
const DefaultMaxPages = 6

var (
	catSubpathRe = regexp.MustCompile(`/cat-[^/]*/$|/category/[^/]*/$|/annuaire[^/]*/$`)
	pagePathRe   = regexp.MustCompile(`/page/\d+/?$`)
	pageQueryRe  = regexp.MustCompile(`[?&]page=\d+`)
)

// IsDirectoryShaped reports whether a URL looks like a paginated directory
// listing rather than a standalone page.
func IsDirectoryShaped(base string) bool {
	return strings.HasSuffix(base, "/") ||
		strings.Contains(base, "/cat-") ||
		strings.Contains(base, "/category") ||
		strings.Contains(base, "/page/")
}

// DetectPageStyle pattern-matches the base URL to a pagination style.
func DetectPageStyle(base string) PageStyle {
	switch {
	case pageQueryRe.MatchString(base):
		return StyleQueryParam
	case pagePathRe.MatchString(base) || strings.Contains(base, "/page/"):
		return StylePagePath
	case catSubpathRe.MatchString(base):
		return StyleNumberedSubpath
	case strings.HasSuffix(base, "/") && IsDirectoryShaped(base):
		return StyleNumberedSubpath
	default:
		return StyleSingle
	}
}

// PageURL builds the URL for page n (1-based). It returns "" when the style
// has no further pages, which callers treat as end of pagination.
func PageURL(base string, style PageStyle, n int) string {
	if n < 1 {
		return ""
	}
	switch style {
	case StyleNumberedSubpath:
		return fmt.Sprintf("%s%d/index.html", base, n)
	case StylePagePath:
		root := pagePathRe.ReplaceAllString(base, "/")
		if !strings.HasSuffix(root, "/") {
			root += "/"
		}
		if n == 1 {
			return root
		}
		return fmt.Sprintf("%spage/%d/", root, n)
	case StyleQueryParam:
		if pageQueryRe.MatchString(base) {
			return pageQueryRe.ReplaceAllStringFunc(base, func(m string) string {
				return m[:strings.Index(m, "=")+1] + fmt.Sprint(n)
			})
		}
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		if n == 1 {
			return base
		}
		return fmt.Sprintf("%s%spage=%d", base, sep, n)
	default:
		if n == 1 {
			return base
		}
		return ""
	}
}
