// Package archive extracts source archives with a progress indicator.
package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	bufra "github.com/avvmoto/buf-readerat"
	"github.com/blakesmith/ar"
	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/zstd"
	"github.com/otiai10/copy"
	"github.com/saracen/go7z"
	"github.com/sassoftware/go-rpmutils"
	"github.com/xi2/xz"

	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/ui"
)

// Extract "source" into "dir".
//
// The format is detected from the content of "source", which may also be a
// directory to copy. The returned root is "dir" joined with the directory
// common to every extracted entry, eg. "<dir>/zlib-1.2.13".
func Extract(b *ui.Task, source, dir string) (root string, err error) {
	task := b.SubTask("extract")
	task.Debugf("Extracting %s to %s", source, dir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", errors.WithStack(err)
	}

	isDir, err := isDirectory(source)
	if err != nil {
		return "", err
	}
	if isDir {
		dest := filepath.Join(dir, filepath.Base(source))
		task.Tracef("cp -R %q %q", source, dest)
		if err := copy.Copy(source, dest); err != nil {
			return "", errors.WithStack(err)
		}
		return dest, nil
	}

	entries := &entries{}
	if err := extractFile(task, source, dir, entries); err != nil {
		return "", errors.Wrap(err, source)
	}
	root = filepath.Join(dir, filepath.FromSlash(entries.commonRoot()))
	task.Debugf("Extracted %d entries into %s", len(entries.names), root)
	return root, nil
}

func extractFile(task *ui.Task, source, dest string, entries *entries) error {
	f, r, mime, err := openArchive(source, task.ProgressWriter())
	if err != nil {
		return err
	}
	defer f.Close() // nolint: gosec

	info, err := f.Stat()
	if err != nil {
		return errors.WithStack(err)
	}

	task.Size(info.Size())
	defer task.Done()

	switch mime.String() {
	case "application/zip":
		return extractZip(task, f, info, dest, entries)

	case "application/x-7z-compressed":
		return extract7Zip(f, info.Size(), dest, entries)

	case "application/x-tar":
		return extractTarball(task, r, dest, entries)

	case "application/vnd.debian.binary-package":
		return extractDebianPackage(task, r, dest, entries)

	case "application/x-rpm":
		return extractRpmPackage(r, dest, entries)

	default:
		return errors.Errorf("don't know how to extract archive of type %s", mime)
	}
}

func isDirectory(path string) (bool, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return fileInfo.IsDir(), nil
}

// Open a potentially compressed archive.
//
// It will return the MIME type of the underlying file, and a buffered io.Reader for that file.
// Bytes read from the file itself, before decompression, are copied to "progress".
func openArchive(source string, progress io.Writer) (f *os.File, r io.Reader, mime *mimetype.MIME, err error) {
	mime, err = mimetype.DetectFile(source)
	if err != nil {
		return nil, nil, mime, errors.WithStack(err)
	}
	f, err = os.Open(source)
	if err != nil {
		return nil, nil, mime, errors.WithStack(err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
		}
	}()
	r = io.TeeReader(f, progress)
	switch mime.String() {
	case "application/gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, mime, errors.WithStack(err)
		}
		r = zr

	case "application/x-bzip2":
		r = bzip2.NewReader(r)

	case "application/x-xz":
		xr, err := xz.NewReader(r, 0)
		if err != nil {
			return nil, nil, mime, errors.WithStack(err)
		}
		r = xr

	case "application/zstd":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, mime, errors.WithStack(err)
		}
		r = zr

	default:
		return f, r, mime, nil
	}

	// Now detect the underlying file type.
	buf := make([]byte, 4096)
	n, err := io.ReadFull(r, buf)
	if err != nil && (!errors.Is(err, io.ErrUnexpectedEOF) || n == 0) {
		return nil, nil, mime, errors.Wrap(err, "corrupt archive")
	}
	buf = buf[:n]
	mime = mimetype.Detect(buf)
	return f, io.MultiReader(bytes.NewReader(buf), r), mime, nil
}

func extractZip(b *ui.Task, f *os.File, info os.FileInfo, dest string, entries *entries) error {
	zr, err := zip.NewReader(bufra.NewBufReaderAt(f, int(info.Size())), info.Size())
	if err != nil {
		return errors.WithStack(err)
	}
	task := b.SubTask("unzip").Size(int64(len(zr.File)))
	defer task.Done()
	for _, zf := range zr.File {
		b.Tracef("  %s", zf.Name)
		task.Add(1)
		destFile, err := entries.add(dest, zf.Name, zf.Mode().IsDir())
		if err != nil {
			return err
		}
		if err := ensureDirExists(destFile); err != nil {
			return err
		}
		err = extractZipFile(zf, destFile)
		if err != nil {
			return errors.Wrap(err, destFile)
		}
	}
	return nil
}

func extractZipFile(zf *zip.File, destFile string) error {
	zfr, err := zf.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer zfr.Close()
	if zf.Mode().IsDir() {
		return errors.WithStack(os.MkdirAll(destFile, 0700))
	}
	if zf.Mode()&os.ModeSymlink != 0 {
		symlink, err := io.ReadAll(zfr)
		if err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(os.Symlink(string(symlink), destFile))
	}

	w, err := createFile(destFile, zf.Mode().Perm()|0600)
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = io.Copy(w, zfr) // nolint: gosec
	if err != nil {
		_ = w.Close()
		return errors.WithStack(err)
	}
	err = w.Close()
	if err != nil {
		return errors.WithStack(err)
	}
	_ = os.Chtimes(destFile, zf.Modified, zf.Modified) // Best effort.
	return nil
}

func extractTarball(b *ui.Task, r io.Reader, dest string, entries *entries) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return errors.WithStack(err)
		}
		// PAX global headers carry no file.
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}
		mode := hdr.FileInfo().Mode()
		destFile, err := entries.add(dest, hdr.Name, mode.IsDir())
		if err != nil {
			return err
		}
		b.Tracef("  %s -> %s", hdr.Name, destFile)
		if err := ensureDirExists(destFile); err != nil {
			return err
		}
		switch {
		case mode.IsDir():
			err = os.MkdirAll(destFile, 0700|mode.Perm())
			if err != nil {
				return errors.Wrapf(err, "%s: failed to create directory", destFile)
			}

		case mode&os.ModeSymlink != 0:
			err = os.Symlink(hdr.Linkname, destFile)
			if err != nil {
				return errors.Wrapf(err, "%s: failed to create symlink to %s", destFile, hdr.Linkname)
			}

		case hdr.Typeflag == tar.TypeLink:
			src, err := entries.path(dest, hdr.Linkname)
			if err != nil {
				return err
			}
			err = os.Link(src, destFile)
			if err != nil {
				return errors.Wrapf(err, "%s: failed to link to %s", destFile, hdr.Linkname)
			}

		default:
			w, err := createFile(destFile, mode.Perm()|0600)
			if err != nil {
				return errors.WithStack(err)
			}
			_, err = io.Copy(w, tr) // nolint: gosec
			_ = w.Close()
			if err != nil {
				return errors.WithStack(err)
			}
			_ = os.Chtimes(destFile, hdr.AccessTime, hdr.ModTime) // Best effort.
		}
	}
	return nil
}

// Debian packages are ar archives containing a compressed data.tar member.
func extractDebianPackage(b *ui.Task, r io.Reader, dest string, entries *entries) error {
	reader := ar.NewReader(r)
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return errors.New("no data.tar member in Debian package")
		} else if err != nil {
			return errors.WithStack(err)
		}
		if !strings.HasPrefix(header.Name, "data.tar") {
			continue
		}
		w, err := os.CreateTemp("", "bootstrap-*-"+path.Base(header.Name))
		if err != nil {
			return errors.WithStack(err)
		}
		defer os.Remove(w.Name()) // nolint: errcheck
		_, err = io.Copy(w, io.LimitReader(reader, header.Size))
		_ = w.Close()
		if err != nil {
			return errors.WithStack(err)
		}
		return extractFile(b, w.Name(), dest, entries)
	}
}

func extract7Zip(r io.ReaderAt, size int64, dest string, entries *entries) error {
	sz, err := go7z.NewReader(r, size)
	if err != nil {
		return errors.WithStack(err)
	}

	for {
		hdr, err := sz.Next()
		if errors.Is(err, io.EOF) {
			break // End of archive
		}
		if err != nil {
			return errors.WithStack(err)
		}

		// An empty stream that isn't an empty file is a directory.
		isDir := hdr.IsEmptyStream && !hdr.IsEmptyFile
		destFile, err := entries.add(dest, hdr.Name, isDir)
		if err != nil {
			return err
		}
		if isDir {
			if err := os.MkdirAll(destFile, 0700); err != nil {
				return errors.WithStack(err)
			}
			continue
		}
		if err := ensureDirExists(destFile); err != nil {
			return err
		}

		f, err := createFile(destFile, 0755)
		if err != nil {
			return errors.WithStack(err)
		}

		if _, err := io.Copy(f, sz); err != nil {
			_ = f.Close()
			return errors.WithStack(err)
		}
		if err = f.Close(); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func extractRpmPackage(r io.Reader, dest string, entries *entries) error {
	rpm, err := rpmutils.ReadRpm(r)
	if err != nil {
		return errors.WithStack(err)
	}
	pr, err := rpm.PayloadReader()
	if err != nil {
		return errors.WithStack(err)
	}
	for {
		header, err := pr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return errors.WithStack(err)
		}
		if header.Filesize64() <= 0 {
			continue
		}
		filename, err := entries.add(dest, header.Filename(), false)
		if err != nil {
			return err
		}
		if err := ensureDirExists(filename); err != nil {
			return err
		}
		w, err := createFile(filename, os.FileMode(header.Mode()).Perm()|0600)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = io.CopyN(w, pr, header.Filesize64())
		_ = w.Close()
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// createFile truncates or creates "path" for writing.
//
// An existing symlink at "path" is replaced rather than written through.
func createFile(path string, perm os.FileMode) (*os.File, error) {
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(path); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm) // nolint: gosec
	return f, errors.WithStack(err)
}

func ensureDirExists(file string) error {
	return errors.WithStack(os.MkdirAll(filepath.Dir(file), 0700))
}
