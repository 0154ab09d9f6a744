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
package importmap

import "testing"

func TestParse(t *testing.T) {
	data := []byte(`{
		"imports": {
			"lit": "/node_modules/lit/index.js",
			"lit/": "/node_modules/lit/"
		},
		"scopes": {
			"https://example.com/admin/": {
				"lit": "/vendored/lit/index.js"
			}
		}
	}`)

	im, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if im.Imports["lit"] != "/node_modules/lit/index.js" {
		t.Errorf("imports[lit] = %q", im.Imports["lit"])
	}
	if len(im.Scopes) != 1 {
		t.Errorf("scopes = %v", im.Scopes)
	}
}

func TestLookup(t *testing.T) {
	im := &ImportMap{
		Imports: map[string]string{
			"lit":  "/node_modules/lit/index.js",
			"lit/": "/node_modules/lit/",
		},
		Scopes: map[string]map[string]string{
			"https://example.com/admin/": {
				"lit": "/vendored/lit/index.js",
			},
			"https://example.com/": {
				"only-scoped": "/scoped.js",
			},
		},
	}

	tests := []struct {
		name     string
		spec     string
		referrer string
		want     string
		wantOK   bool
	}{
		{"exact", "lit", "https://other.com/mod.js", "/node_modules/lit/index.js", true},
		{"prefix", "lit/decorators.js", "https://other.com/mod.js", "/node_modules/lit/decorators.js", true},
		{"unmapped", "preact", "https://other.com/mod.js", "", false},
		{"scope overrides", "lit", "https://example.com/admin/mod.js", "/vendored/lit/index.js", true},
		{"outer scope", "only-scoped", "https://example.com/admin/mod.js", "/scoped.js", true},
		{"scope miss falls through", "lit", "https://example.com/public/mod.js", "/node_modules/lit/index.js", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := im.Lookup(tt.spec, tt.referrer)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Lookup(%q, %q) = %q, %v; want %q, %v", tt.spec, tt.referrer, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLookupNil(t *testing.T) {
	var im *ImportMap
	if _, ok := im.Lookup("lit", "https://example.com/mod.js"); ok {
		t.Error("nil map should not match")
	}
}

func TestMerge(t *testing.T) {
	base := &ImportMap{Imports: map[string]string{"a": "/a.js", "b": "/b.js"}}
	override := &ImportMap{Imports: map[string]string{"b": "/b2.js", "c": "/c.js"}}

	merged := base.Merge(override)
	if merged.Imports["a"] != "/a.js" || merged.Imports["b"] != "/b2.js" || merged.Imports["c"] != "/c.js" {
		t.Errorf("merged = %v", merged.Imports)
	}
	if base.Imports["b"] != "/b.js" {
		t.Error("Merge must not modify its inputs")
	}
}

func TestClone(t *testing.T) {
	im := &ImportMap{
		Imports: map[string]string{"a": "/a.js"},
		Scopes:  map[string]map[string]string{"/s/": {"a": "/s/a.js"}},
	}
	clone := im.Clone()
	clone.Imports["a"] = "/mutated.js"
	clone.Scopes["/s/"]["a"] = "/mutated.js"
	if im.Imports["a"] != "/a.js" || im.Scopes["/s/"]["a"] != "/s/a.js" {
		t.Error("Clone must be deep")
	}
}
