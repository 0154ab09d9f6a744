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
package media

import (
	"testing"

	"bennypowers.dev/grafo/specifier"
)

func TestFromSpecifier(t *testing.T) {
	tests := []struct {
		url  string
		want Type
	}{
		{"file:///a/mod.ts", TypeScript},
		{"file:///a/mod.tsx", Tsx},
		{"file:///a/mod.d.ts", Dts},
		{"file:///a/mod.js", JavaScript},
		{"file:///a/mod.mjs", JavaScript},
		{"file:///a/mod.cjs", JavaScript},
		{"file:///a/mod.jsx", Jsx},
		{"file:///a/data.json", Json},
		{"https://example.com/mod", Unknown},
		{"https://example.com/mod.wasm", Unknown},
	}

	for _, tt := range tests {
		got := FromSpecifier(specifier.MustParse(tt.url))
		if got != tt.want {
			t.Errorf("FromSpecifier(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestFromContentType(t *testing.T) {
	tests := []struct {
		url         string
		contentType string
		want        Type
	}{
		{"https://example.com/mod", "application/typescript", TypeScript},
		{"https://example.com/mod", "application/typescript; charset=utf-8", TypeScript},
		{"https://example.com/mod.d.ts", "application/typescript", Dts},
		{"https://example.com/mod", "text/javascript", JavaScript},
		{"https://example.com/mod", "text/jsx", Jsx},
		{"https://example.com/mod", "text/tsx", Tsx},
		{"https://example.com/mod", "application/json", Json},
		{"https://example.com/mod.ts", "text/plain", TypeScript},
		{"https://example.com/mod.js", "application/octet-stream", JavaScript},
		{"https://example.com/mod.ts", "who/knows", TypeScript},
	}

	for _, tt := range tests {
		got := FromContentType(specifier.MustParse(tt.url), tt.contentType)
		if got != tt.want {
			t.Errorf("FromContentType(%q, %q) = %v, want %v", tt.url, tt.contentType, got, tt.want)
		}
	}
}
