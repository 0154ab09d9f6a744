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
package loader

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"bennypowers.dev/grafo/specifier"
)

// cacheEntry distinguishes cached not-found results from cached responses.
type cacheEntry struct {
	response *Response
}

// CachingLoader memoises load results in an LRU cache keyed by specifier.
// Successful responses and not-found results are cached; transient fetch
// errors are not, so a retry can succeed.
type CachingLoader struct {
	inner Loader
	cache *lru.Cache[string, cacheEntry]
}

// NewCachingLoader wraps a loader with an LRU cache of the given size.
func NewCachingLoader(inner Loader, size int) (*CachingLoader, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &CachingLoader{inner: inner, cache: cache}, nil
}

// Load returns the cached result for the specifier, loading at most once.
func (l *CachingLoader) Load(ctx context.Context, s *specifier.ModuleSpecifier, isDynamic bool) (*Response, error) {
	key := s.String()
	if entry, ok := l.cache.Get(key); ok {
		return entry.response, nil
	}

	response, err := l.inner.Load(ctx, s, isDynamic)
	if err != nil {
		return nil, err
	}

	l.cache.Add(key, cacheEntry{response: response})
	return response, nil
}

// Len returns the number of cached entries.
func (l *CachingLoader) Len() int {
	return l.cache.Len()
}
