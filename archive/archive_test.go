package archive

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cashapp/bootstrap/bootstraptest"
	"github.com/cashapp/bootstrap/ui"
)

var sourceTree = map[string]string{
	"zlib-1.2.13/":                 "",
	"zlib-1.2.13/configure":        "#!/bin/sh\n",
	"zlib-1.2.13/Makefile.in":      "all:\n",
	"zlib-1.2.13/contrib/README":   "contrib\n",
	"zlib-1.2.13/contrib/minizip/": "",
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		archive []byte
	}{
		{"zlib.tar.gz", bootstraptest.TarGz(t, sourceTree)},
		{"zlib.zip", bootstraptest.Zip(t, sourceTree)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p, _ := ui.NewForTesting()
			dir := t.TempDir()
			source := filepath.Join(dir, test.name)
			require.NoError(t, os.WriteFile(source, test.archive, 0600))

			dest := filepath.Join(dir, "work")
			root, err := Extract(p.Task("extract"), source, dest)
			require.NoError(t, err)
			require.Equal(t, filepath.Join(dest, "zlib-1.2.13"), root)

			data, err := os.ReadFile(filepath.Join(root, "contrib", "README"))
			require.NoError(t, err)
			require.Equal(t, "contrib\n", string(data))
			info, err := os.Stat(filepath.Join(root, "contrib", "minizip"))
			require.NoError(t, err)
			require.True(t, info.IsDir())
		})
	}
}

func TestExtractPreservesExecutableBit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no executable bits on Windows")
	}
	p, _ := ui.NewForTesting()
	dir := t.TempDir()
	source := filepath.Join(dir, "zlib.tar.gz")
	require.NoError(t, os.WriteFile(source, bootstraptest.TarGz(t, sourceTree), 0600))
	root, err := Extract(p.Task("extract"), source, filepath.Join(dir, "work"))
	require.NoError(t, err)
	info, err := os.Stat(filepath.Join(root, "configure"))
	require.NoError(t, err)
	require.True(t, info.Mode()&0100 != 0, "configure is not executable")
}

func TestExtractWithoutCommonRoot(t *testing.T) {
	p, _ := ui.NewForTesting()
	dir := t.TempDir()
	source := filepath.Join(dir, "flat.tar.gz")
	require.NoError(t, os.WriteFile(source, bootstraptest.TarGz(t, map[string]string{
		"configure": "#!/bin/sh\n",
		"src/a.c":   "int a;\n",
	}), 0600))
	dest := filepath.Join(dir, "work")
	root, err := Extract(p.Task("extract"), source, dest)
	require.NoError(t, err)
	require.Equal(t, dest, root)
	_, err = os.Stat(filepath.Join(dest, "src", "a.c"))
	require.NoError(t, err)
}

func TestExtractDirectory(t *testing.T) {
	p, _ := ui.NewForTesting()
	dir := t.TempDir()
	source := filepath.Join(dir, "project")
	require.NoError(t, os.MkdirAll(filepath.Join(source, "src"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(source, "src", "main.c"), []byte("int main;\n"), 0600))

	root, err := Extract(p.Task("extract"), source, filepath.Join(dir, "work"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "work", "project"), root)
	_, err = os.Stat(filepath.Join(root, "src", "main.c"))
	require.NoError(t, err)
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	p, _ := ui.NewForTesting()
	dir := t.TempDir()
	source := filepath.Join(dir, "evil.tar.gz")
	require.NoError(t, os.WriteFile(source, bootstraptest.TarGz(t, map[string]string{
		"pkg/ok":                "ok",
		"pkg/../../escaped.txt": "gotcha",
	}), 0600))
	_, err := Extract(p.Task("extract"), source, filepath.Join(dir, "work"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "illegal file path")
	_, err = os.Stat(filepath.Join(dir, "escaped.txt"))
	require.True(t, os.IsNotExist(err))
}

func TestExtractUnknownFormat(t *testing.T) {
	p, _ := ui.NewForTesting()
	dir := t.TempDir()
	source := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(source, []byte("not an archive\n"), 0600))
	_, err := Extract(p.Task("extract"), source, filepath.Join(dir, "work"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "don't know how to extract archive of type text/plain")
}

func TestExtractMalformedArchiveClosesFile(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("counts open descriptors through /proc")
	}
	p, _ := ui.NewForTesting()
	dir := t.TempDir()
	archive := bootstraptest.TarGz(t, map[string]string{
		"big/":     "",
		"big/data": string(make([]byte, 64*1024)),
	})
	source := filepath.Join(dir, "truncated.tar.gz")
	require.NoError(t, os.WriteFile(source, archive[:len(archive)-16], 0600))

	before := openDescriptors(t)
	_, err := Extract(p.Task("extract"), source, filepath.Join(dir, "work"))
	require.Error(t, err)
	require.Equal(t, before, openDescriptors(t))
}

func TestExtractRejectsWritesThroughSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on Windows")
	}
	p, _ := ui.NewForTesting()
	dir := t.TempDir()
	outside := filepath.Join(dir, "outside")
	require.NoError(t, os.MkdirAll(outside, 0700))
	source := filepath.Join(dir, "evil.tar")
	require.NoError(t, os.WriteFile(source, tarball(t,
		&tar.Header{Name: "proj-1.0/", Typeflag: tar.TypeDir, Mode: 0755},
		&tar.Header{Name: "proj-1.0/link", Typeflag: tar.TypeSymlink, Linkname: outside},
		&tar.Header{Name: "proj-1.0/link/evil", Typeflag: tar.TypeReg, Mode: 0644, Size: 6},
	), 0600))

	_, err := Extract(p.Task("extract"), source, filepath.Join(dir, "work"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "illegal file path")
	_, err = os.Stat(filepath.Join(outside, "evil"))
	require.True(t, os.IsNotExist(err), "file written outside destination")
}

func TestExtractReplacesSymlinkWithFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on Windows")
	}
	p, _ := ui.NewForTesting()
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	source := filepath.Join(dir, "evil.tar")
	require.NoError(t, os.WriteFile(source, tarball(t,
		&tar.Header{Name: "proj-1.0/link", Typeflag: tar.TypeSymlink, Linkname: target},
		&tar.Header{Name: "proj-1.0/link", Typeflag: tar.TypeReg, Mode: 0644, Size: 6},
	), 0600))

	root, err := Extract(p.Task("extract"), source, filepath.Join(dir, "work"))
	require.NoError(t, err)
	_, err = os.Stat(target)
	require.True(t, os.IsNotExist(err), "file written through symlink")
	data, err := os.ReadFile(filepath.Join(root, "link"))
	require.NoError(t, err)
	require.Equal(t, "gotcha", string(data))
}

func TestExtractProgressCountsArchiveBytes(t *testing.T) {
	p, _ := ui.NewForTesting()
	dir := t.TempDir()
	source := filepath.Join(dir, "big.tar.gz")
	require.NoError(t, os.WriteFile(source, bootstraptest.TarGz(t, map[string]string{
		"big/":     "",
		"big/data": string(make([]byte, 256*1024)),
	}), 0600))
	info, err := os.Stat(source)
	require.NoError(t, err)

	task := p.Task("extract")
	err = extractFile(task, source, filepath.Join(dir, "work"), &entries{})
	require.NoError(t, err)
	require.Greater(t, task.Progress(), int64(0))
	require.LessOrEqual(t, task.Progress(), info.Size())
}

func TestCommonRoot(t *testing.T) {
	tests := []struct {
		names    []string
		expected string
	}{
		{[]string{"foo/", "foo/bar", "foo/baz/qux"}, "foo"},
		{[]string{"./foo/bar", "./foo/baz"}, "foo"},
		{[]string{"foo/a/x", "foo/a/y"}, "foo/a"},
		{[]string{"foo-1/a", "foo-2/b"}, ""},
		{[]string{"configure"}, ""},
		{[]string{"/usr/bin/bzip2", "/usr/share/doc/bzip2"}, "usr"},
		{nil, ""},
	}
	for _, test := range tests {
		require.Equal(t, test.expected, CommonRoot(test.names...), "%v", test.names)
	}
}

func openDescriptors(t *testing.T) int {
	t.Helper()
	fds, err := os.ReadDir("/proc/self/fd")
	require.NoError(t, err)
	return len(fds)
}

// tarball writes entries into an uncompressed tar, with "gotcha" as the content of regular files.
func tarball(t *testing.T, headers ...*tar.Header) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)
	for _, hdr := range headers {
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte("gotcha"))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}
