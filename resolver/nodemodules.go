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
	"errors"
	"fmt"
	"path"
	"strings"

	grafofs "bennypowers.dev/grafo/fs"
	"bennypowers.dev/grafo/packagejson"
	"bennypowers.dev/grafo/specifier"
)

// NodeModulesResolver resolves bare specifiers against a node_modules
// directory through package.json exports, yielding file: specifiers.
// Relative and absolute imports resolve against the referrer as usual.
type NodeModulesResolver struct {
	fs    grafofs.FileSystem
	root  *specifier.ModuleSpecifier
	cache packagejson.Cache
	opts  *packagejson.ResolveOptions
}

// NewNodeModulesResolver creates a resolver rooted at a project directory.
// The root specifier must be a file: URL ending in "/". Parsed package.json
// files are cached for the lifetime of the resolver.
func NewNodeModulesResolver(fsys grafofs.FileSystem, root *specifier.ModuleSpecifier, opts *packagejson.ResolveOptions) *NodeModulesResolver {
	return &NodeModulesResolver{
		fs:    fsys,
		root:  root,
		cache: packagejson.NewMemoryCache(),
		opts:  opts,
	}
}

// Resolve implements Resolver.
func (r *NodeModulesResolver) Resolve(importStr string, referrer *specifier.ModuleSpecifier) (*specifier.ModuleSpecifier, error) {
	resolved, err := specifier.ResolveImport(importStr, referrer)
	if err == nil {
		return resolved, nil
	}
	var serr *specifier.Error
	if !errors.As(err, &serr) || serr.Kind != specifier.KindImportPrefixMissing {
		return nil, err
	}

	name, subpath := splitPackageSpecifier(importStr)
	if name == "" {
		return nil, fmt.Errorf("invalid package specifier %q", importStr)
	}

	pkgDir := "node_modules/" + name
	pkgJSONPath := path.Join(r.root.Path(), pkgDir, "package.json")
	pkg, err := r.cache.GetOrLoad(pkgJSONPath, func() (*packagejson.PackageJSON, error) {
		return packagejson.ParseFile(r.fs, pkgJSONPath)
	})
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", importStr, err)
	}

	target, err := r.resolveSubpath(pkg, subpath)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", importStr, err)
	}

	return specifier.ResolveImport("./"+pkgDir+"/"+target, r.root)
}

// resolveSubpath resolves a subpath through exact exports first, then
// wildcard export patterns.
func (r *NodeModulesResolver) resolveSubpath(pkg *packagejson.PackageJSON, subpath string) (string, error) {
	target, err := pkg.ResolveExport(subpath, r.opts)
	if err == nil {
		return target, nil
	}
	if !errors.Is(err, packagejson.ErrNotExported) {
		return "", err
	}

	for _, wc := range pkg.WildcardExports(r.opts) {
		prefix := strings.TrimSuffix(wc.Pattern, "*")
		if strings.HasPrefix(subpath, prefix) {
			return wc.Target + strings.TrimPrefix(subpath, prefix), nil
		}
	}
	return "", err
}

// splitPackageSpecifier splits a bare specifier into its package name and
// export subpath. Scoped names keep their "@scope/" prefix.
func splitPackageSpecifier(importStr string) (name, subpath string) {
	parts := strings.Split(importStr, "/")
	keep := 1
	if strings.HasPrefix(importStr, "@") {
		if len(parts) < 2 {
			return "", ""
		}
		keep = 2
	}
	name = strings.Join(parts[:keep], "/")
	if len(parts) == keep {
		return name, "."
	}
	return name, "./" + strings.Join(parts[keep:], "/")
}
