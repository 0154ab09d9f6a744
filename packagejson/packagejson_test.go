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
package packagejson_test

import (
	"errors"
	"testing"

	"bennypowers.dev/grafo/internal/mapfs"
	"bennypowers.dev/grafo/packagejson"
)

func TestParseFile(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/pkg/package.json", `{"name": "widget", "version": "1.0.0", "exports": "./index.js"}`)

	pkg, err := packagejson.ParseFile(mfs, "/pkg/package.json")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if pkg.Name != "widget" {
		t.Errorf("Name = %q, want %q", pkg.Name, "widget")
	}
	if pkg.Version != "1.0.0" {
		t.Errorf("Version = %q, want %q", pkg.Version, "1.0.0")
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := packagejson.Parse([]byte("{not json")); err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
}

func TestResolveExport(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		subpath string
		want    string
		wantErr bool
	}{
		{
			name:    "string export",
			json:    `{"name": "a", "exports": "./index.js"}`,
			subpath: ".",
			want:    "index.js",
		},
		{
			name:    "string export rejects subpath",
			json:    `{"name": "a", "exports": "./index.js"}`,
			subpath: "./button",
			wantErr: true,
		},
		{
			name:    "subpath exports",
			json:    `{"name": "a", "exports": {".": "./index.js", "./button": "./dist/button.js"}}`,
			subpath: "./button",
			want:    "dist/button.js",
		},
		{
			name:    "missing subpath",
			json:    `{"name": "a", "exports": {".": "./index.js"}}`,
			subpath: "./missing",
			wantErr: true,
		},
		{
			name:    "conditional export",
			json:    `{"name": "a", "exports": {"import": "./esm.js", "default": "./cjs.js"}}`,
			subpath: ".",
			want:    "esm.js",
		},
		{
			name:    "nested conditions",
			json:    `{"name": "a", "exports": {".": {"browser": {"import": "./browser.js"}, "default": "./node.js"}}}`,
			subpath: ".",
			want:    "browser.js",
		},
		{
			name:    "module fallback",
			json:    `{"name": "a", "module": "./esm/index.js", "main": "./cjs/index.js"}`,
			subpath: ".",
			want:    "esm/index.js",
		},
		{
			name:    "main fallback",
			json:    `{"name": "a", "main": "./cjs/index.js"}`,
			subpath: ".",
			want:    "cjs/index.js",
		},
		{
			name:    "no entry at all",
			json:    `{"name": "a"}`,
			subpath: ".",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, err := packagejson.Parse([]byte(tt.json))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}

			got, err := pkg.ResolveExport(tt.subpath, nil)
			if tt.wantErr {
				if !errors.Is(err, packagejson.ErrNotExported) {
					t.Fatalf("Expected ErrNotExported, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveExport failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveExport(%q) = %q, want %q", tt.subpath, got, tt.want)
			}
		})
	}
}

func TestResolveExportConditions(t *testing.T) {
	pkg, err := packagejson.Parse([]byte(`{"name": "a", "exports": {"node": "./node.js", "default": "./any.js"}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	opts := &packagejson.ResolveOptions{Conditions: []string{"node", "default"}}
	got, err := pkg.ResolveExport(".", opts)
	if err != nil {
		t.Fatalf("ResolveExport failed: %v", err)
	}
	if got != "node.js" {
		t.Errorf("ResolveExport = %q, want %q", got, "node.js")
	}
}

func TestWildcardExports(t *testing.T) {
	pkg, err := packagejson.Parse([]byte(`{
		"name": "a",
		"exports": {
			".": "./index.js",
			"./components/*": "./dist/components/*",
			"./styles/*": {"default": "./dist/styles/*"}
		}
	}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	wildcards := pkg.WildcardExports(nil)
	if len(wildcards) != 2 {
		t.Fatalf("Expected 2 wildcard exports, got %d", len(wildcards))
	}

	targets := make(map[string]string)
	for _, wc := range wildcards {
		targets[wc.Pattern] = wc.Target
	}
	if targets["./components/*"] != "dist/components/" {
		t.Errorf("components target = %q, want %q", targets["./components/*"], "dist/components/")
	}
	if targets["./styles/*"] != "dist/styles/" {
		t.Errorf("styles target = %q, want %q", targets["./styles/*"], "dist/styles/")
	}
}
