// SPDX-License-Identifier: EPL-2.0

package decode

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ik5/audalyze/internal/log"
)

// Env aggregates the process-wide state decoding needs: the temporary
// directory that disc caches live in. It replaces a singleton with an
// explicit dependency; DefaultEnv is provided for convenience and tests.
type Env struct {
	mtx  sync.Mutex
	root string
}

// DefaultEnv is the module-level environment used when no explicit Env is
// configured.
var DefaultEnv = &Env{}

// TempDir returns the environment's temporary directory root, creating it
// lazily on first use.
func (e *Env) TempDir() (string, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if e.root != "" {
		return e.root, nil
	}

	root, err := os.MkdirTemp("", "audalyze-")
	if err != nil {
		return "", fmt.Errorf("create temp directory: %w", err)
	}

	e.root = root
	return root, nil
}

// CacheFilePath returns the path a decode cache file should use, named
// after the owning model's id.
func (e *Env) CacheFilePath(id int64) (string, error) {
	root, err := e.TempDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, fmt.Sprintf("decoded_%d.wav", id)), nil
}

// Cleanup removes the temporary directory and everything in it. Failure to
// delete is logged, not fatal.
func (e *Env) Cleanup() {
	e.mtx.Lock()
	root := e.root
	e.root = ""
	e.mtx.Unlock()

	if root == "" {
		return
	}

	if err := os.RemoveAll(root); err != nil {
		log.Warn("failed to remove temp directory", "path", root, "error", err)
	}
}
