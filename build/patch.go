package build

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	"github.com/kballard/go-shellquote"

	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/ui"
)

var patchGlob = glob.MustCompile("*.patch")

// PatchFiles returns the patch files of a patch-set directory in the order they are applied.
//
// A missing directory returns no patches.
func PatchFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	out := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !patchGlob.Match(entry.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func (b *Builder) patch(ctx context.Context, task *ui.Task, root, contextDir string, patchSets []string) error {
	for _, name := range patchSets {
		dir := filepath.Join(contextDir, name)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			task.Debugf("No patch set %s in %s, skipping", name, contextDir)
			continue
		}
		files, err := PatchFiles(dir)
		if err != nil {
			return stageError(StagePatch, err)
		}
		for _, file := range files {
			task.Infof("Applying %s", filepath.Join(name, filepath.Base(file)))
			args := []string{"patch", "-p0", "-i", file}
			if err := b.Runner.ShellInDir(ctx, task, root, shellquote.Join(args...)); err != nil {
				return stageError(StagePatch, err, args...)
			}
		}
	}
	return nil
}
