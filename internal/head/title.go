package head

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleSeparators are the characters trimmed from a suffix when it has to
// stand alone as the whole title.
const titleSeparators = " -|:"

// DeriveTitle derives a document title from a location path. The title is
// the last non-empty path segment with suffix appended verbatim. When the
// path has no non-empty segment (the root path), the title falls back to the
// suffix alone with leading separator padding trimmed, so "/" with suffix
// " - Site" derives "Site". Percent-escapes in the segment are decoded when
// valid. Pure function of its inputs.
func DeriveTitle(path, suffix string, titleCase bool) string {
	segment := lastSegment(path)
	if segment == "" {
		return strings.TrimLeft(suffix, titleSeparators)
	}

	if unescaped, err := url.PathUnescape(segment); err == nil {
		segment = unescaped
	}

	if titleCase {
		segment = cases.Title(language.Und).String(segment)
	}

	return segment + suffix
}

func lastSegment(path string) string {
	segments := strings.Split(path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}

	return ""
}
