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

// Package graph provides the graph command for grafo.
package graph

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/grafo/fs"
	"bennypowers.dev/grafo/graph"
	"bennypowers.dev/grafo/importmap"
	"bennypowers.dev/grafo/internal/output"
	"bennypowers.dev/grafo/loader"
	"bennypowers.dev/grafo/packagejson"
	"bennypowers.dev/grafo/resolver"
	"bennypowers.dev/grafo/specifier"
)

// Cmd is the graph cobra command that builds the module dependency graph
// for one or more entry points and outputs it as JSON.
var Cmd = &cobra.Command{
	Use:   "graph [entrypoint...]",
	Short: "Build module dependency graphs",
	Long: `Build the full module dependency graph for one or more entry points.

Entry points may be local file paths or absolute URLs. Local imports are read
from disk; http(s) imports are fetched over the network. The graph, including
every resolution and load failure, is output as JSON.

For a single entry point, outputs one JSON graph.
For multiple entry points (via arguments or --glob), outputs NDJSON with one
graph per line.`,
	Example: `  # Graph a local entry point
  grafo graph src/main.ts

  # Graph a remote module
  grafo graph https://example.com/mod.ts

  # Graph every matching entry point (NDJSON output)
  grafo graph --glob "src/pages/**/*.ts"

  # Resolve bare specifiers through an import map
  grafo graph src/main.ts --import-map importmap.json

  # Resolve bare specifiers through node_modules
  grafo graph src/main.ts --node-modules`,
	RunE: run,
}

func init() {
	Cmd.Flags().String("glob", "", "Glob pattern to match entry points (e.g., \"src/**/*.ts\")")
	Cmd.Flags().StringSlice("import-map", nil, "Import map file(s); later maps take precedence")
	Cmd.Flags().Bool("node-modules", false, "Resolve bare specifiers through node_modules")
	Cmd.Flags().StringSlice("conditions", nil, "Export condition priority (e.g., production,browser,import,default)")
	Cmd.Flags().Int("cache-size", 1024, "Remote module cache size")
	Cmd.Flags().Bool("no-remote", false, "Disallow http(s) module loads")
	Cmd.Flags().Bool("dynamic", false, "Treat entry points as dynamic imports")
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()

	absRoot, err := filepath.Abs(viper.GetString("package"))
	if err != nil {
		return fmt.Errorf("invalid package directory: %w", err)
	}

	roots, err := collectRoots(cmd, args)
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		return fmt.Errorf("no entry points: provide arguments or use --glob")
	}

	l, err := newLoader(cmd, osfs)
	if err != nil {
		return err
	}

	res, err := newResolver(cmd, osfs, absRoot)
	if err != nil {
		return err
	}

	isDynamic, _ := cmd.Flags().GetBool("dynamic")
	opts := graph.Options{IsDynamic: isDynamic, Resolver: res}

	if len(roots) == 1 {
		g := graph.Build(cmd.Context(), roots[0], l, opts)
		return output.Graph(osfs, g)
	}

	// NDJSON: one graph per line
	out := os.Stdout
	if outputPath := viper.GetString("output"); outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	encoder := json.NewEncoder(out)
	for _, root := range roots {
		g := graph.Build(cmd.Context(), root, l, opts)
		if err := encoder.Encode(g); err != nil {
			return fmt.Errorf("encoding graph for %s: %w", root, err)
		}
	}
	return nil
}

// collectRoots gathers entry point specifiers from arguments and the --glob
// flag, deduplicating and converting local paths to file: URLs.
func collectRoots(cmd *cobra.Command, args []string) ([]*specifier.ModuleSpecifier, error) {
	seen := make(map[string]struct{})
	var roots []*specifier.ModuleSpecifier

	add := func(arg string) error {
		s, err := ParseRoot(arg)
		if err != nil {
			return err
		}
		if _, exists := seen[s.String()]; !exists {
			seen[s.String()] = struct{}{}
			roots = append(roots, s)
		}
		return nil
	}

	for _, arg := range args {
		if err := add(arg); err != nil {
			return nil, err
		}
	}

	globPattern, _ := cmd.Flags().GetString("glob")
	if globPattern != "" {
		matches, err := doublestar.FilepathGlob(globPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern: %w", err)
		}
		for _, match := range matches {
			if err := add(match); err != nil {
				return nil, err
			}
		}
	}

	return roots, nil
}

// ParseRoot converts an entry point argument into a module specifier.
// Absolute URLs pass through; anything else is treated as a local path.
func ParseRoot(arg string) (*specifier.ModuleSpecifier, error) {
	if strings.Contains(arg, "://") {
		s, err := specifier.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid entry point %q: %w", arg, err)
		}
		return s, nil
	}
	absPath, err := filepath.Abs(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid entry point %q: %w", arg, err)
	}
	return specifier.Parse("file://" + filepath.ToSlash(absPath))
}

// newLoader builds the scheme-routed loader: local files direct from disk,
// remote modules through an LRU cache. With --no-remote, only file:
// specifiers are routed and remote imports surface as loading errors.
func newLoader(cmd *cobra.Command, osfs fs.FileSystem) (loader.Loader, error) {
	if noRemote, _ := cmd.Flags().GetBool("no-remote"); noRemote {
		return loader.Multi{
			"file": loader.NewFileLoader(osfs),
		}, nil
	}

	cacheSize, _ := cmd.Flags().GetInt("cache-size")
	remote, err := loader.NewCachingLoader(loader.NewHTTPLoader(http.DefaultClient), cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating remote cache: %w", err)
	}
	return loader.Multi{
		"file":  loader.NewFileLoader(osfs),
		"http":  remote,
		"https": remote,
	}, nil
}

// newResolver assembles the resolver chain from --import-map and
// --node-modules. Returns nil when neither is configured, leaving default
// resolution in effect.
func newResolver(cmd *cobra.Command, osfs fs.FileSystem, absRoot string) (graph.Resolver, error) {
	rootSpec, err := specifier.Parse("file://" + filepath.ToSlash(absRoot) + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid package directory: %w", err)
	}

	var chain resolver.Chain

	mapPaths, _ := cmd.Flags().GetStringSlice("import-map")
	if len(mapPaths) > 0 {
		merged := &importmap.ImportMap{}
		for _, mapPath := range mapPaths {
			data, err := osfs.ReadFile(mapPath)
			if err != nil {
				return nil, fmt.Errorf("reading import map %s: %w", mapPath, err)
			}
			im, err := importmap.Parse(data)
			if err != nil {
				return nil, fmt.Errorf("parsing import map %s: %w", mapPath, err)
			}
			merged = merged.Merge(im)
		}
		chain = append(chain, resolver.NewImportMapResolver(merged, rootSpec))
	}

	if nodeModules, _ := cmd.Flags().GetBool("node-modules"); nodeModules {
		var opts *packagejson.ResolveOptions
		if conditions, _ := cmd.Flags().GetStringSlice("conditions"); len(conditions) > 0 {
			opts = &packagejson.ResolveOptions{Conditions: conditions}
		}
		chain = append(chain, resolver.NewNodeModulesResolver(osfs, rootSpec, opts))
	}

	if len(chain) == 0 {
		return nil, nil
	}
	return chain, nil
}
