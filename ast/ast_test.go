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
package ast

import (
	"errors"
	"testing"

	"bennypowers.dev/grafo/media"
)

func TestParseDependencies(t *testing.T) {
	source := `import { a } from "./a.ts";
import "./b.ts";
export * from "./c.ts";
export { d } from "./d.ts";
const e = await import("./e.ts");
`
	parsed, err := Parse("file:///mod.ts", source, media.TypeScript)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	descriptors := parsed.DependencyDescriptors()
	want := []struct {
		specifier string
		isDynamic bool
	}{
		{"./a.ts", false},
		{"./b.ts", false},
		{"./c.ts", false},
		{"./d.ts", false},
		{"./e.ts", true},
	}

	if len(descriptors) != len(want) {
		t.Fatalf("expected %d descriptors, got %d: %+v", len(want), len(descriptors), descriptors)
	}
	for i, w := range want {
		if descriptors[i].Specifier != w.specifier {
			t.Errorf("descriptor %d: specifier = %q, want %q", i, descriptors[i].Specifier, w.specifier)
		}
		if descriptors[i].IsDynamic != w.isDynamic {
			t.Errorf("descriptor %d: isDynamic = %v, want %v", i, descriptors[i].IsDynamic, w.isDynamic)
		}
	}

	if descriptors[0].Range.Start.Line != 0 {
		t.Errorf("descriptor 0: start line = %d, want 0", descriptors[0].Range.Start.Line)
	}
	if descriptors[4].Range.Start.Line != 4 {
		t.Errorf("descriptor 4: start line = %d, want 4", descriptors[4].Range.Start.Line)
	}
}

func TestParseReferences(t *testing.T) {
	source := `/// <reference path="./path.d.ts" />
/// <reference types="./types.d.ts" />
/// <reference lib="dom" />
export const a = 1;
`
	parsed, err := Parse("file:///mod.ts", source, media.TypeScript)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	references := parsed.TypeScriptReferences()
	if len(references) != 2 {
		t.Fatalf("expected 2 references, got %d: %+v", len(references), references)
	}
	if references[0].Kind != PathReference || references[0].Specifier != "./path.d.ts" {
		t.Errorf("reference 0 = %+v, want path ./path.d.ts", references[0])
	}
	if references[1].Kind != TypesReference || references[1].Specifier != "./types.d.ts" {
		t.Errorf("reference 1 = %+v, want types ./types.d.ts", references[1])
	}
	if references[1].Range.Start.Line != 1 {
		t.Errorf("reference 1: start line = %d, want 1", references[1].Range.Start.Line)
	}
}

func TestParseTypesHint(t *testing.T) {
	source := `// @deno-types="./a.d.ts"
import { a } from "./a.js";
// @ts-types="./b.d.ts"
import { b } from "./b.js";
import { c } from "./c.js";
`
	parsed, err := Parse("file:///mod.ts", source, media.TypeScript)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	descriptors := parsed.DependencyDescriptors()
	if len(descriptors) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(descriptors))
	}
	if descriptors[0].TypesSpecifier != "./a.d.ts" {
		t.Errorf("descriptor 0: types hint = %q, want ./a.d.ts", descriptors[0].TypesSpecifier)
	}
	if descriptors[1].TypesSpecifier != "./b.d.ts" {
		t.Errorf("descriptor 1: types hint = %q, want ./b.d.ts", descriptors[1].TypesSpecifier)
	}
	if descriptors[2].TypesSpecifier != "" {
		t.Errorf("descriptor 2: unexpected types hint %q", descriptors[2].TypesSpecifier)
	}
}

func TestParseDynamicTypesHint(t *testing.T) {
	source := `async function load() {
  // @deno-types="./lazy.d.ts"
  const mod = await import("./lazy.js");
  return mod;
}
`
	parsed, err := Parse("file:///mod.ts", source, media.TypeScript)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	descriptors := parsed.DependencyDescriptors()
	if len(descriptors) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(descriptors))
	}
	if !descriptors[0].IsDynamic {
		t.Error("descriptor should be dynamic")
	}
	if descriptors[0].TypesSpecifier != "./lazy.d.ts" {
		t.Errorf("types hint = %q, want ./lazy.d.ts", descriptors[0].TypesSpecifier)
	}
}

func TestParseError(t *testing.T) {
	source := `import { from "./broken.ts";`
	_, err := Parse("file:///broken.ts", source, media.TypeScript)
	if err == nil {
		t.Fatal("expected parse error")
	}
	var diagnostic *Diagnostic
	if !errors.As(err, &diagnostic) {
		t.Fatalf("expected *Diagnostic, got %T", err)
	}
	if diagnostic.Specifier != "file:///broken.ts" {
		t.Errorf("diagnostic specifier = %q", diagnostic.Specifier)
	}
}

func TestParseJson(t *testing.T) {
	parsed, err := Parse("file:///data.json", `{"a": [1, 2]}`, media.Json)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(parsed.DependencyDescriptors()) != 0 {
		t.Error("JSON modules should have no dependencies")
	}
}

func TestParseTsx(t *testing.T) {
	source := `import { h } from "./h.ts";
export const el = <div class="a">hi</div>;
`
	parsed, err := Parse("file:///mod.tsx", source, media.Tsx)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	descriptors := parsed.DependencyDescriptors()
	if len(descriptors) != 1 || descriptors[0].Specifier != "./h.ts" {
		t.Errorf("descriptors = %+v, want single ./h.ts", descriptors)
	}
}

func TestRangeFromSpan(t *testing.T) {
	parsed := &ParsedModule{Source: "abc\ndef\nghi"}
	r := parsed.RangeFromSpan(4, 7)
	if r.Start.Line != 1 || r.Start.Character != 0 {
		t.Errorf("start = %+v, want line 1 char 0", r.Start)
	}
	if r.End.Line != 1 || r.End.Character != 3 {
		t.Errorf("end = %+v, want line 1 char 3", r.End)
	}
}
