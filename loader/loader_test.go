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
package loader_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"bennypowers.dev/grafo/internal/mapfs"
	"bennypowers.dev/grafo/loader"
	"bennypowers.dev/grafo/specifier"
)

func TestFileLoader(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/proj/main.ts", `import "./dep.ts";`)

	l := loader.NewFileLoader(mfs)

	t.Run("existing file", func(t *testing.T) {
		resp, err := l.Load(context.Background(), specifier.MustParse("file:///proj/main.ts"), false)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if resp == nil {
			t.Fatal("Expected a response")
		}
		if resp.Content != `import "./dep.ts";` {
			t.Errorf("Content = %q", resp.Content)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		resp, err := l.Load(context.Background(), specifier.MustParse("file:///proj/ghost.ts"), false)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if resp != nil {
			t.Fatal("Expected nil response for missing file")
		}
	})
}

func TestHTTPLoader(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mod.ts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/typescript")
		w.Header().Set("X-TypeScript-Types", "./mod.d.ts")
		w.Write([]byte("export const a = 1;"))
	})
	mux.HandleFunc("/old.ts", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/mod.ts", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/broken.ts", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	l := loader.NewHTTPLoader(server.Client())

	t.Run("success with headers", func(t *testing.T) {
		resp, err := l.Load(context.Background(), specifier.MustParse(server.URL+"/mod.ts"), false)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if resp.Content != "export const a = 1;" {
			t.Errorf("Content = %q", resp.Content)
		}
		if got := resp.Header("content-type"); got != "application/typescript" {
			t.Errorf("content-type = %q", got)
		}
		if got := resp.Header("x-typescript-types"); got != "./mod.d.ts" {
			t.Errorf("x-typescript-types = %q", got)
		}
	})

	t.Run("redirect reports effective specifier", func(t *testing.T) {
		resp, err := l.Load(context.Background(), specifier.MustParse(server.URL+"/old.ts"), false)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if resp.Specifier == nil || resp.Specifier.String() != server.URL+"/mod.ts" {
			t.Errorf("Specifier = %v, want %s/mod.ts", resp.Specifier, server.URL)
		}
	})

	t.Run("404 is not found", func(t *testing.T) {
		resp, err := l.Load(context.Background(), specifier.MustParse(server.URL+"/ghost.ts"), false)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if resp != nil {
			t.Fatal("Expected nil response for 404")
		}
	})

	t.Run("server error", func(t *testing.T) {
		_, err := l.Load(context.Background(), specifier.MustParse(server.URL+"/broken.ts"), false)
		var fetchErr *loader.FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("Expected FetchError, got %v", err)
		}
		if fetchErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("StatusCode = %d", fetchErr.StatusCode)
		}
	})
}

// countingLoader counts loads per specifier.
type countingLoader struct {
	loads atomic.Int64
	inner loader.Loader
}

func (c *countingLoader) Load(ctx context.Context, s *specifier.ModuleSpecifier, isDynamic bool) (*loader.Response, error) {
	c.loads.Add(1)
	return c.inner.Load(ctx, s, isDynamic)
}

func TestCachingLoader(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/proj/a.ts", "export {}")

	counter := &countingLoader{inner: loader.NewFileLoader(mfs)}
	l, err := loader.NewCachingLoader(counter, 8)
	if err != nil {
		t.Fatalf("NewCachingLoader failed: %v", err)
	}

	hit := specifier.MustParse("file:///proj/a.ts")
	miss := specifier.MustParse("file:///proj/missing.ts")

	for range 3 {
		resp, err := l.Load(context.Background(), hit, false)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if resp == nil || resp.Content != "export {}" {
			t.Fatalf("unexpected response %+v", resp)
		}
	}
	if got := counter.loads.Load(); got != 1 {
		t.Errorf("inner loads = %d, want 1", got)
	}

	// Not-found results are cached too.
	for range 2 {
		resp, err := l.Load(context.Background(), miss, false)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if resp != nil {
			t.Fatal("Expected nil response")
		}
	}
	if got := counter.loads.Load(); got != 2 {
		t.Errorf("inner loads = %d, want 2", got)
	}

	if l.Len() != 2 {
		t.Errorf("Len = %d, want 2", l.Len())
	}
}

func TestMulti(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/proj/a.ts", "export {}")

	m := loader.Multi{
		"file": loader.NewFileLoader(mfs),
	}

	resp, err := m.Load(context.Background(), specifier.MustParse("file:///proj/a.ts"), false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if resp == nil {
		t.Fatal("Expected a response")
	}

	if _, err := m.Load(context.Background(), specifier.MustParse("https://example.com/a.ts"), false); err == nil {
		t.Fatal("Expected error for unrouted scheme")
	}
}
