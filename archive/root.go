package archive

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cashapp/bootstrap/errors"
)

// entries tracks the names of everything extracted so the common root can be computed.
type entries struct {
	names []string
	// Directory components shared by every entry so far.
	root    []string
	started bool
}

// add records an entry and returns its destination path under "dest".
func (e *entries) add(dest, name string, isDir bool) (string, error) {
	destFile, err := e.path(dest, name)
	if err != nil {
		return "", err
	}
	e.record(name, isDir)
	return destFile, nil
}

func (e *entries) record(name string, isDir bool) {
	clean := cleanName(name)
	if clean == "" {
		return
	}
	e.names = append(e.names, clean)
	dir := strings.Split(clean, "/")
	if !isDir {
		dir = dir[:len(dir)-1]
	}
	if !e.started {
		e.root = dir
		e.started = true
		return
	}
	e.root = commonPrefix(e.root, dir)
}

// path returns the destination of "name" under "dest", rejecting names that would escape it.
//
// Symlinks already extracted into "dest" are followed, so a link to a directory
// outside "dest" cannot be written through.
//
// See https://snyk.io/research/zip-slip-vulnerability
func (e *entries) path(dest, name string) (string, error) {
	destPath := filepath.Join(dest, filepath.FromSlash(cleanName(name)))
	if !within(dest, destPath) {
		return "", errors.Errorf("%s: illegal file path (%s not under %s)", name, destPath, dest)
	}
	root, err := resolveExisting(dest)
	if err != nil {
		return "", err
	}
	parent, err := resolveExisting(filepath.Dir(destPath))
	if err != nil {
		return "", err
	}
	if !within(root, parent) {
		return "", errors.Errorf("%s: illegal file path (%s is outside %s)", name, parent, dest)
	}
	return destPath, nil
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolveExisting evaluates symlinks in the longest prefix of "path" that exists.
func resolveExisting(path string) (string, error) {
	rest := ""
	for {
		resolved, err := filepath.EvalSymlinks(path)
		if err == nil {
			return filepath.Join(resolved, rest), nil
		} else if !os.IsNotExist(err) {
			return "", errors.WithStack(err)
		}
		parent := filepath.Dir(path)
		if parent == path {
			return filepath.Join(path, rest), nil
		}
		rest = filepath.Join(filepath.Base(path), rest)
		path = parent
	}
}

// commonRoot returns the slash-separated directory shared by every entry, or "" if there is none.
func (e *entries) commonRoot() string {
	return strings.Join(e.root, "/")
}

func cleanName(name string) string {
	name = path.Clean(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimLeft(name, "/")
	if name == "." {
		return ""
	}
	return name
}

func commonPrefix(a, b []string) []string {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return a[:n]
}

// CommonRoot returns the directory shared by all slash-separated entry names.
//
// Names ending in "/" are directories, everything else is a file whose parent
// directory is considered. Comparison is by path component, so "foo-1/a" and
// "foo-2/b" have no common root.
func CommonRoot(names ...string) string {
	e := &entries{}
	for _, name := range names {
		e.record(name, strings.HasSuffix(name, "/"))
	}
	return e.commonRoot()
}
