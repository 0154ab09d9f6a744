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
package graph

import (
	"context"
	"errors"

	"bennypowers.dev/grafo/ast"
	"bennypowers.dev/grafo/loader"
	"bennypowers.dev/grafo/media"
	"bennypowers.dev/grafo/specifier"
)

// Resolver is an optional pluggable resolution override. When configured,
// every import string is delegated to it instead of default resolution.
type Resolver interface {
	Resolve(importStr string, referrer *specifier.ModuleSpecifier) (*specifier.ModuleSpecifier, error)
}

// Options configures a build.
type Options struct {
	// IsDynamic marks the root import itself as dynamic.
	IsDynamic bool
	// Resolver overrides default import resolution when non-nil.
	Resolver Resolver
	// Locker enables the graph's post-build integrity verification pass.
	Locker Locker
}

// Build loads the root module and every module reachable from it,
// returning the finished graph. Load failures, parse failures, and
// resolution failures are recorded in the graph rather than aborting the
// build; the only way Build itself blocks indefinitely is a loader that
// never completes.
func Build(ctx context.Context, root *specifier.ModuleSpecifier, l loader.Loader, opts Options) *ModuleGraph {
	b := &builder{
		graph:    newModuleGraph(root, opts.Locker),
		loader:   l,
		resolver: opts.Resolver,
		results:  make(chan loadResult),
	}

	b.enqueue(ctx, root, opts.IsDynamic)

	// Single dispatch point: all graph mutation happens on this goroutine,
	// between completions. Loads race freely; completion order is
	// unspecified and the result is deterministic regardless.
	for b.pending > 0 {
		result := <-b.results
		b.pending--
		switch {
		case result.err != nil:
			b.graph.modules[result.requested.String()] = &ModuleSlot{
				Kind: SlotErr,
				Err: &ModuleGraphError{
					Kind:      LoadingErr,
					Specifier: result.requested,
					Err:       result.err,
				},
			}
		case result.response == nil:
			b.graph.modules[result.requested.String()] = &ModuleSlot{Kind: SlotMissing}
		default:
			b.visit(ctx, result.requested, result.response)
		}
	}

	return b.graph
}

type loadResult struct {
	requested *specifier.ModuleSpecifier
	response  *loader.Response
	err       error
}

type builder struct {
	graph    *ModuleGraph
	loader   loader.Loader
	resolver Resolver
	pending  int
	results  chan loadResult
}

// enqueue requests a load for a specifier unless one was ever requested
// before. This is the single deduplication point: at most one load per
// distinct specifier for the lifetime of the build.
func (b *builder) enqueue(ctx context.Context, s *specifier.ModuleSpecifier, isDynamic bool) {
	key := s.String()
	if _, ok := b.graph.modules[key]; ok {
		return
	}
	if _, ok := b.graph.redirects[key]; ok {
		return
	}
	b.graph.modules[key] = &ModuleSlot{Kind: SlotPending}
	b.pending++
	go func() {
		response, err := b.loader.Load(ctx, s, isDynamic)
		b.results <- loadResult{requested: s, response: response, err: err}
	}()
}

// resolve resolves an import string from a referring module, applying the
// downgrade and local-import policies. It performs no I/O and does not
// touch the graph.
func (b *builder) resolve(importStr string, referrer *specifier.ModuleSpecifier, r ast.Range) Resolved {
	span := Span{Specifier: referrer, Range: r}

	remapped := false
	var target *specifier.ModuleSpecifier
	var err error
	if b.resolver != nil {
		remapped = true
		target, err = b.resolver.Resolve(importStr, referrer)
		if err != nil {
			return Resolved{Err: &ResolutionError{Kind: ResolverError, Cause: err}, Span: span}
		}
	} else {
		target, err = specifier.ResolveImport(importStr, referrer)
		if err != nil {
			return Resolved{Err: &ResolutionError{Kind: InvalidSpecifier, Cause: err}, Span: span}
		}
	}

	referrerScheme := referrer.Scheme()
	targetScheme := target.Scheme()
	switch {
	case referrerScheme == "https" && targetScheme == "http":
		return Resolved{Err: &ResolutionError{Kind: InvalidDowngrade}, Span: span}
	case (referrerScheme == "https" || referrerScheme == "http") &&
		!(targetScheme == "https" || targetScheme == "http") &&
		!remapped:
		return Resolved{Err: &ResolutionError{Kind: InvalidLocalImport}, Span: span}
	default:
		return Resolved{Specifier: target, Span: span}
	}
}

// resolveLoad resolves a dependency of a module and enqueues a load for a
// successful resolution. Load failures surface later, asynchronously, as a
// slot update; the returned resolution reflects only the resolve step.
func (b *builder) resolveLoad(ctx context.Context, importStr string, referrer *specifier.ModuleSpecifier, r ast.Range, isDynamic bool) Resolved {
	resolved := b.resolve(importStr, referrer, r)
	if resolved.Specifier != nil {
		b.enqueue(ctx, resolved.Specifier, isDynamic)
	}
	return resolved
}

// visit processes one load response: records any redirect, classifies the
// content, parses it, and extracts and resolves every dependency edge
// before installing the finished module slot.
func (b *builder) visit(ctx context.Context, requested *specifier.ModuleSpecifier, response *loader.Response) {
	effective := response.Specifier
	if effective == nil {
		effective = requested
	}
	if !requested.Equals(effective) {
		b.graph.redirects[requested.String()] = effective
		// The requested specifier holds no module of its own; readers reach
		// the content through the redirect entry.
		delete(b.graph.modules, requested.String())
	}

	mod := newModule(effective, response.Content)
	if contentType := response.Header("content-type"); contentType != "" {
		mod.MediaType = media.FromContentType(effective, contentType)
	} else {
		mod.MediaType = media.FromSpecifier(effective)
	}

	parsed, err := ast.Parse(effective.String(), mod.Source, mod.MediaType)
	if err != nil {
		var diagnostic *ast.Diagnostic
		errors.As(err, &diagnostic)
		b.graph.modules[effective.String()] = &ModuleSlot{
			Kind: SlotErr,
			Err: &ModuleGraphError{
				Kind:       ParseErr,
				Specifier:  effective,
				Diagnostic: diagnostic,
				Err:        err,
			},
		}
		return
	}

	// Triple-slash references. A types reference on a plain script or JSX
	// module becomes the module-level types dependency, since those media
	// types cannot carry inline type syntax.
	for _, reference := range parsed.TypeScriptReferences() {
		resolved := b.resolveLoad(ctx, reference.Specifier, effective, reference.Range, false)
		switch reference.Kind {
		case ast.PathReference:
			dep := mod.dependency(reference.Specifier)
			if dep.Code.IsNone() {
				dep.Code = resolved
			}
		case ast.TypesReference:
			if mod.MediaType == media.JavaScript || mod.MediaType == media.Jsx {
				mod.TypesDependency = &TypesDependency{
					Specifier:  reference.Specifier,
					Dependency: resolved,
				}
			} else {
				dep := mod.dependency(reference.Specifier)
				if dep.Type.IsNone() {
					dep.Type = resolved
				}
			}
		}
	}

	// The X-TypeScript-Types header only applies when no reference comment
	// already claimed the types dependency.
	if mod.TypesDependency == nil {
		if typesHeader := response.Header("x-typescript-types"); typesHeader != "" {
			resolved := b.resolveLoad(ctx, typesHeader, effective, ast.Range{}, false)
			mod.TypesDependency = &TypesDependency{
				Specifier:  typesHeader,
				Dependency: resolved,
			}
		}
	}

	// Structural imports and re-exports. Dynamic imports are loaded just as
	// eagerly; the flag affects policy, not build laziness.
	for _, descriptor := range parsed.DependencyDescriptors() {
		dep := mod.dependency(descriptor.Specifier)
		dep.IsDynamic = dep.IsDynamic || descriptor.IsDynamic
		resolved := b.resolveLoad(ctx, descriptor.Specifier, effective, descriptor.Range, descriptor.IsDynamic)
		if dep.Code.IsNone() {
			dep.Code = resolved
		}
		if descriptor.TypesSpecifier != "" && dep.Type.IsNone() {
			dep.Type = b.resolveLoad(ctx, descriptor.TypesSpecifier, effective, descriptor.TypesRange, descriptor.IsDynamic)
		}
	}

	b.graph.modules[effective.String()] = &ModuleSlot{Kind: SlotModule, Module: mod}
}
