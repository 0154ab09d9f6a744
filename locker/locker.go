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

// Package locker provides integrity verification of module sources against
// previously recorded hashes.
package locker

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	grafofs "bennypowers.dev/grafo/fs"
	"bennypowers.dev/grafo/specifier"
)

// Locker records and verifies module source integrity. CheckOrInsert
// returns true when the source matches the recorded hash, or when no hash
// was recorded yet (in which case it records one). Implementations must be
// safe for use from multiple goroutines.
type Locker interface {
	CheckOrInsert(s *specifier.ModuleSpecifier, source string) bool
}

func hash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// MapLocker is an in-memory Locker.
type MapLocker struct {
	mu     sync.Mutex
	hashes map[string]string
}

// NewMapLocker creates a MapLocker, optionally seeded with specifier→hash
// entries.
func NewMapLocker(seed map[string]string) *MapLocker {
	hashes := make(map[string]string, len(seed))
	for k, v := range seed {
		hashes[k] = v
	}
	return &MapLocker{hashes: hashes}
}

// CheckOrInsert implements Locker.
func (l *MapLocker) CheckOrInsert(s *specifier.ModuleSpecifier, source string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	sum := hash(source)
	if recorded, ok := l.hashes[s.String()]; ok {
		return recorded == sum
	}
	l.hashes[s.String()] = sum
	return true
}

// lockfileFormat is the on-disk JSON shape of a lock file.
type lockfileFormat struct {
	Version int               `json:"version"`
	Modules map[string]string `json:"modules"`
}

const lockfileVersion = 1

// FileLocker is a Locker persisted as a JSON lock file mapping specifiers
// to sha256 digests of their sources.
type FileLocker struct {
	mu     sync.Mutex
	fs     grafofs.FileSystem
	path   string
	hashes map[string]string
	dirty  bool
}

// NewFileLocker opens or creates a lock file at the given path. A missing
// file yields an empty locker; Write creates it.
func NewFileLocker(fsys grafofs.FileSystem, path string) (*FileLocker, error) {
	l := &FileLocker{
		fs:     fsys,
		path:   path,
		hashes: make(map[string]string),
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return l, nil
		}
		return nil, fmt.Errorf("reading lock file %s: %w", path, err)
	}

	var lockfile lockfileFormat
	if err := json.Unmarshal(data, &lockfile); err != nil {
		return nil, fmt.Errorf("parsing lock file %s: %w", path, err)
	}
	if lockfile.Modules != nil {
		l.hashes = lockfile.Modules
	}
	return l, nil
}

// CheckOrInsert implements Locker.
func (l *FileLocker) CheckOrInsert(s *specifier.ModuleSpecifier, source string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	sum := hash(source)
	if recorded, ok := l.hashes[s.String()]; ok {
		return recorded == sum
	}
	l.hashes[s.String()] = sum
	l.dirty = true
	return true
}

// Write persists newly inserted hashes back to the lock file. It is a
// no-op when nothing changed since the file was read.
func (l *FileLocker) Write() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.dirty {
		return nil
	}

	data, err := json.MarshalIndent(lockfileFormat{
		Version: lockfileVersion,
		Modules: l.hashes,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := l.fs.WriteFile(l.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing lock file %s: %w", l.path, err)
	}
	l.dirty = false
	return nil
}
