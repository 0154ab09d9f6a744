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

// Package graph builds module dependency graphs for JavaScript and
// TypeScript programs: starting from a root module it discovers, loads,
// parses, and resolves every statically and dynamically imported module,
// producing a closed graph of modules, dependency edges, and the errors
// encountered along the way.
package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"bennypowers.dev/grafo/ast"
	"bennypowers.dev/grafo/media"
	"bennypowers.dev/grafo/specifier"
)

// Span records where a resolution originated: the referring module and the
// source range of the import string within it.
type Span struct {
	Specifier *specifier.ModuleSpecifier `json:"specifier"`
	Range     ast.Range                  `json:"range"`
}

// ResolutionErrorKind identifies why an import string failed to resolve.
type ResolutionErrorKind int

const (
	// InvalidDowngrade: an https module tried to import an http module.
	InvalidDowngrade ResolutionErrorKind = iota
	// InvalidLocalImport: a remote module tried to import a local module.
	InvalidLocalImport
	// ResolverError: the configured resolver rejected the import.
	ResolverError
	// InvalidSpecifier: the import string failed default resolution.
	InvalidSpecifier
)

// ResolutionError is a typed import resolution failure.
type ResolutionError struct {
	Kind  ResolutionErrorKind
	Cause error
}

func (e *ResolutionError) Error() string {
	switch e.Kind {
	case InvalidDowngrade:
		return "modules imported via https are not allowed to import http modules"
	case InvalidLocalImport:
		return "remote modules are not allowed to import local modules"
	case ResolverError:
		return fmt.Sprintf("the resolver rejected the specifier: %v", e.Cause)
	default:
		return fmt.Sprintf("invalid specifier: %v", e.Cause)
	}
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// Equals compares two resolution errors. The wrapped cause is ignored for
// every kind except InvalidSpecifier, whose underlying specifier error is
// compared structurally.
func (e *ResolutionError) Equals(other *ResolutionError) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.Kind != other.Kind {
		return false
	}
	if e.Kind != InvalidSpecifier {
		return true
	}
	var a, b *specifier.Error
	if errors.As(e.Cause, &a) && errors.As(other.Cause, &b) {
		return a.Kind == b.Kind && a.Specifier == b.Specifier
	}
	return errors.As(e.Cause, &a) == errors.As(other.Cause, &b)
}

// Resolved is the outcome of resolving one import string. At most one of
// Specifier and Err is set; when neither is set the resolution is "none",
// meaning no attempt was made.
type Resolved struct {
	Specifier *specifier.ModuleSpecifier
	Err       *ResolutionError
	Span      Span
}

// IsNone reports whether no resolution was attempted. A failed resolution
// is not none.
func (r Resolved) IsNone() bool {
	return r.Specifier == nil && r.Err == nil
}

// Equals compares two resolutions structurally.
func (r Resolved) Equals(other Resolved) bool {
	if r.IsNone() || other.IsNone() {
		return r.IsNone() == other.IsNone()
	}
	if (r.Specifier == nil) != (other.Specifier == nil) {
		return false
	}
	if r.Specifier != nil {
		return r.Specifier.Equals(other.Specifier) && r.Span.Range == other.Span.Range
	}
	return r.Err.Equals(other.Err) && r.Span.Range == other.Span.Range
}

// MarshalJSON implements json.Marshaler. None marshals as null.
func (r Resolved) MarshalJSON() ([]byte, error) {
	switch {
	case r.Err != nil:
		return json.Marshal(struct {
			Error string `json:"error"`
			Span  Span   `json:"span"`
		}{r.Err.Error(), r.Span})
	case r.Specifier != nil:
		return json.Marshal(struct {
			Specifier *specifier.ModuleSpecifier `json:"specifier"`
			Span      Span                       `json:"span"`
		}{r.Specifier, r.Span})
	default:
		return []byte("null"), nil
	}
}

// Dependency is one named import edge from a module, keyed within the
// module by the literal import string as written. Code is the
// runtime-executed target and Type the type-only target, either of which
// may be none.
type Dependency struct {
	Code      Resolved `json:"code"`
	Type      Resolved `json:"type"`
	IsDynamic bool     `json:"isDynamic"`
}

// TypesDependency is the module-level type declaration edge used when a
// module has no inline type information and borrows it from a declaration
// file or an out-of-band type hint.
type TypesDependency struct {
	Specifier  string   `json:"specifier"`
	Dependency Resolved `json:"dependency"`
}

// Module is one successfully loaded and parsed unit of the graph.
type Module struct {
	Specifier       *specifier.ModuleSpecifier
	Source          string
	MediaType       media.Type
	Dependencies    map[string]*Dependency
	TypesDependency *TypesDependency
}

func newModule(s *specifier.ModuleSpecifier, source string) *Module {
	return &Module{
		Specifier:    s,
		Source:       source,
		MediaType:    media.Unknown,
		Dependencies: make(map[string]*Dependency),
	}
}

// dependency returns the edge for a literal import string, creating it if
// needed. Callers must fill at least one of Code and Type before visit
// completes; an empty edge is never installed deliberately.
func (m *Module) dependency(literal string) *Dependency {
	dep, ok := m.Dependencies[literal]
	if !ok {
		dep = &Dependency{}
		m.Dependencies[literal] = dep
	}
	return dep
}

// SlotKind is the lifecycle state of a module slot.
type SlotKind int

const (
	// SlotPending reserves a specifier the instant its load is enqueued.
	// Pending never survives a finished build.
	SlotPending SlotKind = iota
	// SlotModule holds a loaded and parsed module.
	SlotModule
	// SlotErr holds a loading or parsing failure.
	SlotErr
	// SlotMissing records that the loader reported no such module.
	SlotMissing
)

// ModuleSlot is the graph's per-specifier lifecycle record.
type ModuleSlot struct {
	Kind   SlotKind
	Module *Module
	Err    *ModuleGraphError
}

// ModuleGraphErrorKind identifies the category of a slot-level failure.
type ModuleGraphErrorKind int

const (
	// LoadingErr: the loader reported a fetch failure.
	LoadingErr ModuleGraphErrorKind = iota
	// ParseErr: the module source would not parse.
	ParseErr
	// InvalidSource: the source failed the lock file integrity check.
	InvalidSource
)

// ModuleGraphError is a per-specifier failure recorded in a module slot or
// returned by the integrity verification pass.
type ModuleGraphError struct {
	Kind       ModuleGraphErrorKind
	Specifier  *specifier.ModuleSpecifier
	Diagnostic *ast.Diagnostic
	Err        error
}

func (e *ModuleGraphError) Error() string {
	switch e.Kind {
	case LoadingErr:
		return fmt.Sprintf("An error was returned from the loader: %v", e.Err)
	case ParseErr:
		return fmt.Sprintf("The module's source code would not be parsed: %v", e.Diagnostic)
	default:
		return fmt.Sprintf("The source code is invalid, as it does not match the expected hash in the lock file.\n  Specifier: %s", e.Specifier)
	}
}

func (e *ModuleGraphError) Unwrap() error {
	return e.Err
}

// Locker verifies module sources against previously recorded hashes.
// CheckOrInsert returns false on an integrity mismatch.
type Locker interface {
	CheckOrInsert(s *specifier.ModuleSpecifier, source string) bool
}

// ModuleGraph is the finished dependency graph: one slot per specifier
// ever requested, plus a redirect map. It is populated exclusively by a
// single build pass and read-only afterwards.
type ModuleGraph struct {
	root      *specifier.ModuleSpecifier
	modules   map[string]*ModuleSlot
	redirects map[string]*specifier.ModuleSpecifier
	locker    Locker
}

func newModuleGraph(root *specifier.ModuleSpecifier, locker Locker) *ModuleGraph {
	return &ModuleGraph{
		root:      root,
		modules:   make(map[string]*ModuleSlot),
		redirects: make(map[string]*specifier.ModuleSpecifier),
		locker:    locker,
	}
}

// Root returns the graph's entry specifier.
func (g *ModuleGraph) Root() *specifier.ModuleSpecifier {
	return g.root
}

// Slot returns the exact slot for a specifier, without following
// redirects, or nil if the specifier was never requested.
func (g *ModuleGraph) Slot(s *specifier.ModuleSpecifier) *ModuleSlot {
	return g.modules[s.String()]
}

// Get returns the module for a specifier, following a recorded redirect,
// or nil when the slot holds anything other than a module.
func (g *ModuleGraph) Get(s *specifier.ModuleSpecifier) *Module {
	key := s.String()
	if target, ok := g.redirects[key]; ok {
		key = target.String()
	}
	slot, ok := g.modules[key]
	if !ok || slot.Kind != SlotModule {
		return nil
	}
	return slot.Module
}

// Redirect returns the effective specifier a request was redirected to, or
// nil when no redirect was recorded.
func (g *ModuleGraph) Redirect(s *specifier.ModuleSpecifier) *specifier.ModuleSpecifier {
	return g.redirects[s.String()]
}

// Specifiers returns every specifier with a slot, sorted.
func (g *ModuleGraph) Specifiers() []*specifier.ModuleSpecifier {
	keys := g.sortedKeys()
	specifiers := make([]*specifier.ModuleSpecifier, 0, len(keys))
	for _, key := range keys {
		specifiers = append(specifiers, specifier.MustParse(key))
	}
	return specifiers
}

func (g *ModuleGraph) sortedKeys() []string {
	keys := make([]string, 0, len(g.modules))
	for key := range g.modules {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Lock verifies every module's source against the locker. The first
// integrity mismatch aborts with an InvalidSource error; with no locker
// configured the graph always verifies.
func (g *ModuleGraph) Lock() error {
	if g.locker == nil {
		return nil
	}
	for _, key := range g.sortedKeys() {
		slot := g.modules[key]
		if slot.Kind != SlotModule {
			continue
		}
		if !g.locker.CheckOrInsert(slot.Module.Specifier, slot.Module.Source) {
			return &ModuleGraphError{Kind: InvalidSource, Specifier: slot.Module.Specifier}
		}
	}
	return nil
}

// Errors walks the finished graph and collects every slot error and every
// failed dependency edge, in specifier order.
func (g *ModuleGraph) Errors() []error {
	var errs []error
	for _, key := range g.sortedKeys() {
		slot := g.modules[key]
		switch slot.Kind {
		case SlotErr:
			errs = append(errs, slot.Err)
		case SlotModule:
			mod := slot.Module
			literals := make([]string, 0, len(mod.Dependencies))
			for literal := range mod.Dependencies {
				literals = append(literals, literal)
			}
			sort.Strings(literals)
			for _, literal := range literals {
				dep := mod.Dependencies[literal]
				if dep.Code.Err != nil {
					errs = append(errs, dep.Code.Err)
				}
				if dep.Type.Err != nil {
					errs = append(errs, dep.Type.Err)
				}
			}
			if mod.TypesDependency != nil && mod.TypesDependency.Dependency.Err != nil {
				errs = append(errs, mod.TypesDependency.Dependency.Err)
			}
		}
	}
	return errs
}

type dependencyJSON struct {
	Specifier string `json:"specifier"`
	*Dependency
}

type moduleJSON struct {
	Specifier       string           `json:"specifier"`
	Kind            string           `json:"kind"`
	MediaType       string           `json:"mediaType,omitempty"`
	Dependencies    []dependencyJSON `json:"dependencies,omitempty"`
	TypesDependency *TypesDependency `json:"typesDependency,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// MarshalJSON implements json.Marshaler, producing a stable description of
// the graph with modules and dependencies in sorted order.
func (g *ModuleGraph) MarshalJSON() ([]byte, error) {
	modules := make([]moduleJSON, 0, len(g.modules))
	for _, key := range g.sortedKeys() {
		slot := g.modules[key]
		entry := moduleJSON{Specifier: key}
		switch slot.Kind {
		case SlotModule:
			mod := slot.Module
			entry.Kind = "module"
			entry.MediaType = mod.MediaType.String()
			entry.TypesDependency = mod.TypesDependency
			literals := make([]string, 0, len(mod.Dependencies))
			for literal := range mod.Dependencies {
				literals = append(literals, literal)
			}
			sort.Strings(literals)
			for _, literal := range literals {
				entry.Dependencies = append(entry.Dependencies, dependencyJSON{
					Specifier:  literal,
					Dependency: mod.Dependencies[literal],
				})
			}
		case SlotErr:
			entry.Kind = "error"
			entry.Error = slot.Err.Error()
		case SlotMissing:
			entry.Kind = "missing"
		default:
			entry.Kind = "pending"
		}
		modules = append(modules, entry)
	}

	redirects := make(map[string]string, len(g.redirects))
	for from, to := range g.redirects {
		redirects[from] = to.String()
	}

	return json.Marshal(struct {
		Root      *specifier.ModuleSpecifier `json:"root"`
		Modules   []moduleJSON               `json:"modules"`
		Redirects map[string]string          `json:"redirects,omitempty"`
	}{g.root, modules, redirects})
}
