// Package fetch acquires source trees over HTTP, from git repositories or from the local filesystem.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/ui"
	"github.com/cashapp/bootstrap/util"
)

// ChunkSize is the number of bytes read from the response body at a time.
const ChunkSize = 8192

// StatusError is returned when a download responds with anything other than 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (s *StatusError) Error() string {
	return fmt.Sprintf("download failed: %s (%d), source url: %s", s.Status, s.StatusCode, s.URL)
}

// Download "uri" into "dir", naming the file after the last segment of the URL path.
//
// Progress is reported on the status line of the task. Nothing is written to
// "dir" unless the server responds with 200 OK, and the file only appears
// under its final name once fully downloaded. The absolute path to the file is returned.
func Download(ctx context.Context, b *ui.Task, client *http.Client, uri, dir string) (path string, err error) {
	u, err := util.ParseURL(uri)
	if err != nil {
		return "", err
	}
	name := u.Base()
	if name == "" {
		return "", errors.Errorf("%s: URL has no file name", uri)
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if client == nil {
		client = http.DefaultClient
	}

	task := b.SubTask("download")
	task.Debugf("GET %s", uri)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", errors.Wrap(err, "could not fetch")
	}
	response, err := client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, uri)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return "", errors.WithStack(&StatusError{URL: uri, StatusCode: response.StatusCode, Status: response.Status})
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", errors.WithStack(err)
	}
	dest := filepath.Join(dir, name)
	w, err := os.CreateTemp(dir, name+".*.download")
	if err != nil {
		return "", errors.Wrap(err, "couldn't create temporary for download")
	}
	defer w.Close()           // nolint: gosec
	defer os.Remove(w.Name()) // nolint: errcheck

	task.Size(max(response.ContentLength, 0))
	defer task.Done()
	if err := copyChunks(w, response.Body, task); err != nil {
		return "", errors.Wrap(err, uri)
	}
	if err := w.Close(); err != nil {
		return "", errors.WithStack(err)
	}
	if err := os.Rename(w.Name(), dest); err != nil {
		return "", errors.WithStack(err)
	}
	task.Debugf("Downloaded %s (%d bytes)", dest, task.Progress())
	return dest, nil
}

// Copies ChunkSize bytes at a time so progress is reported at a steady granularity.
func copyChunks(w io.Writer, r io.Reader, task *ui.Task) error {
	buf := make([]byte, ChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return errors.WithStack(werr)
			}
			task.Add(n)
		}
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return errors.WithStack(err)
		}
	}
}
