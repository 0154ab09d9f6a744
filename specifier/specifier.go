/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package specifier provides the absolute module specifier value type and
// the default import resolution algorithm.
package specifier

import (
	"fmt"
	"net/url"
	"strings"
)

// ModuleSpecifier is an absolute, normalized module identifier.
// It is immutable once created; instances may be freely shared.
type ModuleSpecifier struct {
	u   *url.URL
	str string
}

// Parse parses an absolute URL string into a ModuleSpecifier.
func Parse(rawURL string) (*ModuleSpecifier, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, Specifier: rawURL, Cause: err}
	}
	if !u.IsAbs() {
		return nil, &Error{Kind: KindInvalidURL, Specifier: rawURL}
	}
	return fromURL(u), nil
}

// MustParse parses an absolute URL string, panicking on failure.
// Intended for tests and compile-time-constant specifiers.
func MustParse(rawURL string) *ModuleSpecifier {
	s, err := Parse(rawURL)
	if err != nil {
		panic(err)
	}
	return s
}

func fromURL(u *url.URL) *ModuleSpecifier {
	return &ModuleSpecifier{u: u, str: u.String()}
}

// Scheme returns the specifier's URL scheme (e.g. "file", "https").
func (s *ModuleSpecifier) Scheme() string {
	return s.u.Scheme
}

// Path returns the specifier's URL path component.
func (s *ModuleSpecifier) Path() string {
	return s.u.Path
}

// String returns the canonical serialization of the specifier.
func (s *ModuleSpecifier) String() string {
	return s.str
}

// Equals reports whether two specifiers identify the same module.
func (s *ModuleSpecifier) Equals(other *ModuleSpecifier) bool {
	return other != nil && s.str == other.str
}

// MarshalText implements encoding.TextMarshaler so specifiers can be used
// directly in JSON output.
func (s *ModuleSpecifier) MarshalText() ([]byte, error) {
	return []byte(s.str), nil
}

// ErrorKind identifies why a specifier string failed to resolve.
type ErrorKind int

const (
	// KindInvalidURL indicates the string could not be parsed as a URL.
	KindInvalidURL ErrorKind = iota
	// KindInvalidBaseURL indicates the referrer could not serve as a base.
	KindInvalidBaseURL
	// KindImportPrefixMissing indicates a bare specifier: neither absolute
	// nor prefixed with /, ./ or ../, so default resolution cannot apply.
	KindImportPrefixMissing
)

// Error is a specifier parse or resolution failure.
type Error struct {
	Kind      ErrorKind
	Specifier string
	Cause     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidBaseURL:
		return fmt.Sprintf("invalid base URL for relative import %q: %v", e.Specifier, e.Cause)
	case KindImportPrefixMissing:
		return fmt.Sprintf("relative import path %q not prefixed with / or ./ or ../", e.Specifier)
	default:
		if e.Cause != nil {
			return fmt.Sprintf("invalid URL %q: %v", e.Specifier, e.Cause)
		}
		return fmt.Sprintf("invalid URL %q", e.Specifier)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ResolveImport resolves an import string against a referring module using
// default resolution: absolute URLs pass through, path-prefixed strings
// resolve relative to the referrer, and bare specifiers are rejected.
func ResolveImport(importStr string, referrer *ModuleSpecifier) (*ModuleSpecifier, error) {
	if u, err := url.Parse(importStr); err == nil && u.IsAbs() {
		return fromURL(u), nil
	}

	if !strings.HasPrefix(importStr, "/") &&
		!strings.HasPrefix(importStr, "./") &&
		!strings.HasPrefix(importStr, "../") {
		return nil, &Error{Kind: KindImportPrefixMissing, Specifier: importStr}
	}

	ref, err := url.Parse(importStr)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, Specifier: importStr, Cause: err}
	}
	if referrer == nil || referrer.u == nil {
		return nil, &Error{Kind: KindInvalidBaseURL, Specifier: importStr}
	}
	return fromURL(referrer.u.ResolveReference(ref)), nil
}
