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
	"errors"
	"fmt"
	"io/fs"

	grafofs "bennypowers.dev/grafo/fs"
	"bennypowers.dev/grafo/specifier"
)

// FileLoader loads file: specifiers from a FileSystem.
type FileLoader struct {
	FS grafofs.FileSystem
}

// NewFileLoader creates a FileLoader over the given filesystem.
func NewFileLoader(fsys grafofs.FileSystem) *FileLoader {
	return &FileLoader{FS: fsys}
}

// Load reads the specifier's path from the filesystem. A missing file is
// reported as not found rather than an error.
func (l *FileLoader) Load(ctx context.Context, s *specifier.ModuleSpecifier, isDynamic bool) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Scheme() != "file" {
		return nil, fmt.Errorf("file loader cannot load %q", s)
	}

	content, err := l.FS.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s, err)
	}

	return &Response{Specifier: s, Content: string(content)}, nil
}
