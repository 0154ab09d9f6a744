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

// Package check provides the check command for grafo.
package check

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"bennypowers.dev/grafo/cmd/graph"
	"bennypowers.dev/grafo/fs"
	"bennypowers.dev/grafo/loader"
	"bennypowers.dev/grafo/locker"

	graphpkg "bennypowers.dev/grafo/graph"
)

// Cmd is the check cobra command that builds a module graph and verifies
// every module source against a lock file.
var Cmd = &cobra.Command{
	Use:   "check [entrypoint]",
	Short: "Verify module sources against a lock file",
	Long: `Build the module graph for an entry point and verify every reachable
module's source against the hashes recorded in a lock file.

Modules not yet in the lock file are recorded on success. With --frozen, new
entries are not written, so sources must already be recorded to pass.`,
	Example: `  # Verify against the default lock file, recording new modules
  grafo check src/main.ts

  # Verify without updating the lock file
  grafo check src/main.ts --frozen

  # Use a custom lock file
  grafo check src/main.ts --lock-file deps.lock`,
	Args: cobra.ExactArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().String("lock-file", "grafo.lock", "Lock file path")
	Cmd.Flags().Bool("frozen", false, "Do not record new modules in the lock file")
	Cmd.Flags().Int("cache-size", 1024, "Remote module cache size")
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()

	root, err := graph.ParseRoot(args[0])
	if err != nil {
		return err
	}

	lockPath, _ := cmd.Flags().GetString("lock-file")
	lock, err := locker.NewFileLocker(osfs, lockPath)
	if err != nil {
		return err
	}

	cacheSize, _ := cmd.Flags().GetInt("cache-size")
	remote, err := loader.NewCachingLoader(loader.NewHTTPLoader(http.DefaultClient), cacheSize)
	if err != nil {
		return fmt.Errorf("creating remote cache: %w", err)
	}
	l := loader.Multi{
		"file":  loader.NewFileLoader(osfs),
		"http":  remote,
		"https": remote,
	}

	g := graphpkg.Build(cmd.Context(), root, l, graphpkg.Options{Locker: lock})

	if errs := g.Errors(); len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
		return fmt.Errorf("%d graph error(s)", len(errs))
	}

	if err := g.Lock(); err != nil {
		return err
	}

	if frozen, _ := cmd.Flags().GetBool("frozen"); !frozen {
		if err := lock.Write(); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ok: %d module(s) verified\n", len(g.Specifiers()))
	return nil
}
