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
// Package importmap provides types and lookup operations for ES module
// import maps.
// See https://developer.mozilla.org/en-US/docs/Web/HTML/Element/script/type/importmap
package importmap

import (
	"encoding/json"
	"maps"
	"sort"
	"strings"
)

// ImportMap represents an ES module import map.
type ImportMap struct {
	// Imports maps module specifiers to URLs.
	Imports map[string]string `json:"imports,omitempty"`

	// Scopes maps URL prefixes to import maps that apply when the referrer
	// URL starts with the scope prefix.
	Scopes map[string]map[string]string `json:"scopes,omitempty"`
}

// Parse parses JSON data into an ImportMap.
func Parse(data []byte) (*ImportMap, error) {
	var im ImportMap
	if err := json.Unmarshal(data, &im); err != nil {
		return nil, err
	}
	return &im, nil
}

// Merge combines this import map with another, with the other taking precedence.
// The result is a new ImportMap; neither input is modified.
func (im *ImportMap) Merge(other *ImportMap) *ImportMap {
	if im == nil {
		if other == nil {
			return &ImportMap{}
		}
		return other.Clone()
	}
	if other == nil {
		return im.Clone()
	}

	result := &ImportMap{
		Imports: make(map[string]string),
		Scopes:  make(map[string]map[string]string),
	}

	maps.Copy(result.Imports, im.Imports)
	maps.Copy(result.Imports, other.Imports)

	for scope, imports := range im.Scopes {
		result.Scopes[scope] = make(map[string]string, len(imports))
		maps.Copy(result.Scopes[scope], imports)
	}
	for scope, imports := range other.Scopes {
		if result.Scopes[scope] == nil {
			result.Scopes[scope] = make(map[string]string, len(imports))
		}
		maps.Copy(result.Scopes[scope], imports)
	}

	if len(result.Imports) == 0 {
		result.Imports = nil
	}
	if len(result.Scopes) == 0 {
		result.Scopes = nil
	}

	return result
}

// Clone creates a deep copy of the import map.
func (im *ImportMap) Clone() *ImportMap {
	if im == nil {
		return nil
	}

	result := &ImportMap{}

	if im.Imports != nil {
		result.Imports = make(map[string]string, len(im.Imports))
		maps.Copy(result.Imports, im.Imports)
	}

	if im.Scopes != nil {
		result.Scopes = make(map[string]map[string]string, len(im.Scopes))
		for scope, imports := range im.Scopes {
			result.Scopes[scope] = make(map[string]string, len(imports))
			maps.Copy(result.Scopes[scope], imports)
		}
	}

	return result
}

// Lookup resolves a specifier through the import map, returning the mapped
// value and whether any mapping applied. Scoped mappings whose scope
// prefixes the referrer take precedence over top-level imports, longest
// scope first. Keys ending in "/" match as prefixes, with the remainder of
// the specifier appended to the mapped value.
func (im *ImportMap) Lookup(spec string, referrer string) (string, bool) {
	if im == nil {
		return "", false
	}

	scopes := make([]string, 0, len(im.Scopes))
	for scope := range im.Scopes {
		if strings.HasPrefix(referrer, scope) {
			scopes = append(scopes, scope)
		}
	}
	sort.Slice(scopes, func(i, j int) bool {
		return len(scopes[i]) > len(scopes[j])
	})
	for _, scope := range scopes {
		if mapped, ok := lookupImports(im.Scopes[scope], spec); ok {
			return mapped, true
		}
	}

	return lookupImports(im.Imports, spec)
}

func lookupImports(imports map[string]string, spec string) (string, bool) {
	if mapped, ok := imports[spec]; ok {
		return mapped, true
	}

	var bestKey, bestValue string
	for key, value := range imports {
		if strings.HasSuffix(key, "/") && strings.HasPrefix(spec, key) && len(key) > len(bestKey) {
			bestKey = key
			bestValue = value
		}
	}
	if bestKey != "" {
		return bestValue + spec[len(bestKey):], true
	}
	return "", false
}
