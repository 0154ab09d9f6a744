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

// Package media classifies module content into a media type, either from a
// specifier's file extension or from a content-type header value.
package media

import (
	"path"
	"strings"

	"bennypowers.dev/grafo/specifier"
)

// Type is the classified content kind of a module.
type Type int

const (
	Unknown Type = iota
	JavaScript
	Jsx
	TypeScript
	Tsx
	Dts
	Json
)

// String returns the canonical file extension style name for the type.
func (t Type) String() string {
	switch t {
	case JavaScript:
		return "JavaScript"
	case Jsx:
		return "JSX"
	case TypeScript:
		return "TypeScript"
	case Tsx:
		return "TSX"
	case Dts:
		return "Dts"
	case Json:
		return "JSON"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// FromSpecifier infers a media type from the specifier's trailing extension.
func FromSpecifier(s *specifier.ModuleSpecifier) Type {
	p := s.Path()
	if strings.HasSuffix(p, ".d.ts") {
		return Dts
	}
	switch path.Ext(p) {
	case ".ts":
		return TypeScript
	case ".tsx":
		return Tsx
	case ".js", ".mjs", ".cjs":
		return JavaScript
	case ".jsx":
		return Jsx
	case ".json":
		return Json
	default:
		return Unknown
	}
}

// FromContentType classifies from a content-type header value, falling back
// to the specifier's extension when the value carries no useful signal.
// A typescript content type still yields Dts for .d.ts specifiers, since
// servers routinely serve declaration files with the script content type.
func FromContentType(s *specifier.ModuleSpecifier, contentType string) Type {
	mime := strings.TrimSpace(strings.ToLower(strings.SplitN(contentType, ";", 2)[0]))
	switch mime {
	case "application/typescript", "text/typescript", "video/vnd.dlna.mpeg-tts", "video/mp2t":
		if strings.HasSuffix(s.Path(), ".d.ts") {
			return Dts
		}
		return TypeScript
	case "application/javascript", "text/javascript", "application/ecmascript", "text/ecmascript":
		if strings.HasSuffix(s.Path(), ".d.ts") {
			return Dts
		}
		return JavaScript
	case "text/jsx":
		return Jsx
	case "text/tsx":
		return Tsx
	case "application/json", "text/json":
		return Json
	case "text/plain", "application/octet-stream":
		return FromSpecifier(s)
	default:
		return FromSpecifier(s)
	}
}
