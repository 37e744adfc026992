// Package navigation provides location change detection and navigation
// event sources for headsync.
//
// A location is an opaque URL-like string. Change detection compares the
// scheme, authority, and path components case-insensitively and ignores the
// query and fragment, so a navigation that only moves within the same
// document does not trigger a head update.
package navigation

import (
	"net/url"
	"strings"
)

// Components is the decomposed form of a location used for comparison.
type Components struct {
	Scheme    string
	Authority string // host, plus port when present
	Path      string
}

// Split decomposes a location string. The second return value is false when
// the string cannot be parsed as an absolute URL, in which case callers fall
// back to whole-string comparison.
func Split(location string) (Components, bool) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" {
		return Components{}, false
	}

	path := u.Path
	if path == "" {
		// "https://a" and "https://a/" name the same resource.
		path = "/"
	}

	return Components{
		Scheme:    u.Scheme,
		Authority: u.Host,
		Path:      path,
	}, true
}

// equalFold reports whether two component sets match case-insensitively.
func (c Components) equalFold(o Components) bool {
	return strings.EqualFold(c.Scheme, o.Scheme) &&
		strings.EqualFold(c.Authority, o.Authority) &&
		strings.EqualFold(c.Path, o.Path)
}

// Changed reports whether next names a different navigation target than
// previous. Exact string equality short-circuits to false. Otherwise both
// locations are decomposed and compared on {scheme, authority, path};
// query-only and fragment-only differences report false. Pure comparison,
// no side effects.
func Changed(previous, next string) bool {
	if previous == next {
		return false
	}

	pc, pok := Split(previous)
	nc, nok := Split(next)
	if !pok || !nok {
		return !strings.EqualFold(previous, next)
	}

	return !pc.equalFold(nc)
}
