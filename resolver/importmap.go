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
package resolver

import (
	"bennypowers.dev/grafo/importmap"
	"bennypowers.dev/grafo/specifier"
)

// ImportMapResolver resolves imports through an ES import map. Mapped
// values are resolved against the map's base URL; unmapped imports fall
// through to default relative/absolute resolution against the referrer.
type ImportMapResolver struct {
	importMap *importmap.ImportMap
	base      *specifier.ModuleSpecifier
}

// NewImportMapResolver creates a resolver over an import map. The base
// specifier is the URL the import map was loaded from; relative mapped
// values resolve against it.
func NewImportMapResolver(im *importmap.ImportMap, base *specifier.ModuleSpecifier) *ImportMapResolver {
	return &ImportMapResolver{importMap: im, base: base}
}

// Resolve implements Resolver.
func (r *ImportMapResolver) Resolve(importStr string, referrer *specifier.ModuleSpecifier) (*specifier.ModuleSpecifier, error) {
	if mapped, ok := r.importMap.Lookup(importStr, referrer.String()); ok {
		if s, err := specifier.Parse(mapped); err == nil {
			return s, nil
		}
		return specifier.ResolveImport(mapped, r.base)
	}
	return specifier.ResolveImport(importStr, referrer)
}
