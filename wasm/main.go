//go:build js && wasm

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

// Package main provides the WASM entry point for grafo. Parsing depends on
// cgo, so only the resolution surface is exported here: specifier
// resolution, import maps, and package.json exports.
package main

import (
	"syscall/js"

	"bennypowers.dev/grafo/importmap"
	"bennypowers.dev/grafo/packagejson"
	"bennypowers.dev/grafo/specifier"
)

// Version is the grafo WASM version.
const Version = "0.1.0"

func main() {
	// Create the grafo namespace object
	grafo := make(map[string]any)
	grafo["resolve"] = js.FuncOf(resolve)
	grafo["resolveExport"] = js.FuncOf(resolveExport)
	grafo["version"] = Version

	// Export to global scope
	js.Global().Set("grafo", js.ValueOf(grafo))

	// Keep the program running
	select {}
}

// resolve resolves an import string against a referrer URL.
// Arguments:
//   - importStr: string - The import specifier as written in source
//   - referrer: string - The absolute URL of the importing module
//   - importMap: string (optional) - Import map JSON applied before default
//     resolution
//
// Returns the resolved absolute URL string, or throws on failure.
func resolve(this js.Value, args []js.Value) any {
	result, err := doResolve(args)
	if err != nil {
		panic(js.Global().Get("Error").New(err.Error()))
	}
	return result
}

func doResolve(args []js.Value) (string, error) {
	if len(args) < 2 {
		return "", &jsError{message: "resolve requires an import string and a referrer URL"}
	}

	importStr := args[0].String()
	referrer, err := specifier.Parse(args[1].String())
	if err != nil {
		return "", &jsError{message: "invalid referrer: " + err.Error()}
	}

	if len(args) >= 3 && !args[2].IsUndefined() && !args[2].IsNull() {
		im, err := importmap.Parse([]byte(args[2].String()))
		if err != nil {
			return "", &jsError{message: "invalid import map: " + err.Error()}
		}
		if mapped, ok := im.Lookup(importStr, referrer.String()); ok {
			importStr = mapped
		}
	}

	resolved, err := specifier.ResolveImport(importStr, referrer)
	if err != nil {
		return "", err
	}
	return resolved.String(), nil
}

// resolveExport resolves a package.json export subpath.
// Arguments:
//   - packageJsonStr: string - The package.json contents as a JSON string
//   - subpath: string - "." or "./subpath"
//   - conditions: string[] (optional) - Export condition priority
//
// Returns the resolved target path, or throws on failure.
func resolveExport(this js.Value, args []js.Value) any {
	result, err := doResolveExport(args)
	if err != nil {
		panic(js.Global().Get("Error").New(err.Error()))
	}
	return result
}

func doResolveExport(args []js.Value) (string, error) {
	if len(args) < 2 {
		return "", &jsError{message: "resolveExport requires a package.json string and a subpath"}
	}

	pkg, err := packagejson.Parse([]byte(args[0].String()))
	if err != nil {
		return "", &jsError{message: "failed to parse package.json: " + err.Error()}
	}

	var opts *packagejson.ResolveOptions
	if len(args) >= 3 && !args[2].IsUndefined() && !args[2].IsNull() {
		length := args[2].Length()
		conditions := make([]string, length)
		for i := range length {
			conditions[i] = args[2].Index(i).String()
		}
		opts = &packagejson.ResolveOptions{Conditions: conditions}
	}

	return pkg.ResolveExport(args[1].String(), opts)
}

// jsError represents an error to be returned to JavaScript.
type jsError struct {
	message string
}

func (e *jsError) Error() string {
	return e.message
}
