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
// Package resolver provides import resolution strategies that plug into
// graph building: import-map remapping and node_modules lookup.
package resolver

import (
	"bennypowers.dev/grafo/specifier"
)

// Resolver resolves an import string from a referring module into a module
// specifier. Implementations replace default resolution entirely, so they
// must handle relative imports as well as whatever scheme they add.
type Resolver interface {
	Resolve(importStr string, referrer *specifier.ModuleSpecifier) (*specifier.ModuleSpecifier, error)
}

// Chain tries each resolver in order, returning the first successful
// resolution. Errors other than the last are discarded.
type Chain []Resolver

// Resolve implements Resolver.
func (c Chain) Resolve(importStr string, referrer *specifier.ModuleSpecifier) (*specifier.ModuleSpecifier, error) {
	var lastErr error
	for _, r := range c {
		resolved, err := r.Resolve(importStr, referrer)
		if err == nil {
			return resolved, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		return specifier.ResolveImport(importStr, referrer)
	}
	return nil, lastErr
}
