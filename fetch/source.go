package fetch

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cashapp/bootstrap/archive"
	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/ui"
	"github.com/cashapp/bootstrap/util"
)

// Source of a project to build.
type Source interface {
	// Fetch the source into "dir" without unpacking it, returning the absolute path of the result.
	Fetch(ctx context.Context, b *ui.Task, dir string) (string, error)
	// Acquire the source into "dir", returning the root of the project ready to build.
	Acquire(ctx context.Context, b *ui.Task, dir string) (string, error)
	String() string
}

// Sources creates Source implementations that share an HTTP client and command runner.
type Sources struct {
	Client *http.Client
	Runner util.CommandRunner
	Git    GitOptions
}

// Get the Source for "uri".
//
// Git repositories are recognised by IsGitURL, http and https URLs are downloaded
// archives, and file URLs or bare paths are local archives or directories.
func (s *Sources) Get(uri string) (Source, error) {
	if IsGitURL(uri) {
		if _, _, err := ParseGitURL(uri); err != nil {
			return nil, err
		}
		return &gitSource{sources: s, url: uri}, nil
	}
	u, err := util.ParseURL(uri)
	if err != nil {
		return nil, err
	}
	switch u.Scheme() {
	case "":
		return &fileSource{path: uri}, nil
	case "file":
		return &fileSource{path: filepath.FromSlash(u.Path())}, nil
	case "http", "https":
		return &httpSource{sources: s, url: uri}, nil
	default:
		return nil, errors.Errorf("unsupported URI %s", uri)
	}
}

type httpSource struct {
	sources *Sources
	url     string
}

func (h *httpSource) String() string { return h.url }

func (h *httpSource) Fetch(ctx context.Context, b *ui.Task, dir string) (string, error) {
	return Download(ctx, b, h.sources.Client, h.url, dir)
}

func (h *httpSource) Acquire(ctx context.Context, b *ui.Task, dir string) (string, error) {
	path, err := h.Fetch(ctx, b, dir)
	if err != nil {
		return "", err
	}
	defer os.Remove(path) // nolint: errcheck
	return archive.Extract(b, path, dir)
}

type gitSource struct {
	sources *Sources
	url     string
}

func (g *gitSource) String() string { return g.url }

func (g *gitSource) Fetch(ctx context.Context, b *ui.Task, dir string) (string, error) {
	return GitClone(ctx, b, g.sources.Runner, g.url, dir, g.sources.Git)
}

func (g *gitSource) Acquire(ctx context.Context, b *ui.Task, dir string) (string, error) {
	return g.Fetch(ctx, b, dir)
}

type fileSource struct {
	path string
}

func (f *fileSource) String() string { return f.path }

func (f *fileSource) Fetch(ctx context.Context, b *ui.Task, dir string) (string, error) {
	path, err := filepath.Abs(f.path)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", errors.Wrapf(util.ErrMissingFile, "%s", path)
	} else if err != nil {
		return "", errors.WithStack(err)
	}
	return path, nil
}

func (f *fileSource) Acquire(ctx context.Context, b *ui.Task, dir string) (string, error) {
	path, err := f.Fetch(ctx, b, dir)
	if err != nil {
		return "", err
	}
	return archive.Extract(b, path, dir)
}
