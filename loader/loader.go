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

// Package loader provides module source loading abstractions for the graph
// builder, with file, HTTP, and caching implementations.
package loader

import (
	"context"
	"fmt"
	"strings"

	"bennypowers.dev/grafo/specifier"
)

// Response is the result of successfully loading a module source.
// Specifier is the effective specifier the content was served for, which
// differs from the requested specifier when the load was redirected.
type Response struct {
	Specifier *specifier.ModuleSpecifier
	Content   string
	Headers   map[string]string
}

// Header performs a case-insensitive header lookup.
func (r *Response) Header(name string) string {
	if r.Headers == nil {
		return ""
	}
	if v, ok := r.Headers[name]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Loader retrieves module sources. A nil Response with a nil error means
// the module was not found; an error means the fetch itself failed.
// Implementations must be safe for use from multiple goroutines.
type Loader interface {
	Load(ctx context.Context, s *specifier.ModuleSpecifier, isDynamic bool) (*Response, error)
}

// Multi routes loads to per-scheme loaders.
type Multi map[string]Loader

// Load dispatches to the loader registered for the specifier's scheme.
func (m Multi) Load(ctx context.Context, s *specifier.ModuleSpecifier, isDynamic bool) (*Response, error) {
	l, ok := m[s.Scheme()]
	if !ok {
		return nil, fmt.Errorf("no loader for scheme %q: %s", s.Scheme(), s)
	}
	return l.Load(ctx, s, isDynamic)
}
