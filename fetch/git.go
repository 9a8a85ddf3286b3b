package fetch

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/ui"
	"github.com/cashapp/bootstrap/util"
)

// GitOptions control how repositories are cloned.
type GitOptions struct {
	// KeepMetadata retains the .git directory of the clone.
	KeepMetadata bool
}

// GitClone makes a shallow clone of a repository into "dir", including submodules.
//
// "uri" may carry a "#<ref>" suffix naming the branch or tag to clone. The clone
// is named after the repository with its extension removed. The absolute path of
// the clone is returned.
func GitClone(ctx context.Context, b *ui.Task, runner util.CommandRunner, uri, dir string, options GitOptions) (string, error) {
	repo, ref, err := ParseGitURL(uri)
	if err != nil {
		return "", err
	}
	name := util.BaseName(repo)
	if name == "" || name == "." || name == ".." {
		return "", errors.Errorf("invalid git URL: can't determine a directory name for %s", repo)
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", errors.WithStack(err)
	}
	checkoutDir := filepath.Join(dir, name)

	task := b.SubTask("git")
	args := []string{"git", "clone", "--depth=1"}
	if ref != "" {
		args = append(args, "--branch="+ref)
	}
	args = append(args, "--", repo, name)
	if err := runner.RunInDir(ctx, task, dir, args...); err != nil {
		return "", errors.WithStack(err)
	}
	err = runner.RunInDir(ctx, task, checkoutDir, "git", "submodule", "update", "--init", "--recursive")
	if err != nil {
		return "", errors.WithStack(err)
	}
	if !options.KeepMetadata {
		task.Tracef("rm -rf %q", filepath.Join(checkoutDir, ".git"))
		if err := os.RemoveAll(filepath.Join(checkoutDir, ".git")); err != nil {
			return "", errors.WithStack(err)
		}
	}
	return checkoutDir, nil
}

// ParseGitURL into a repo and an optional #ref.
//
// Repositories starting with "-" are rejected so they can't be interpreted as git options.
func ParseGitURL(source string) (repo, ref string, err error) {
	parts := strings.SplitN(source, "#", 2)
	repo = parts[0]
	if strings.HasPrefix(repo, "-") {
		return "", "", errors.Errorf("invalid git URL: repository cannot start with '-': %s", repo)
	}
	if len(parts) > 1 {
		ref = parts[1]
		if strings.HasPrefix(ref, "-") {
			return "", "", errors.Errorf("invalid git URL: ref cannot start with '-': %s", ref)
		}
	}
	return repo, ref, nil
}

// IsGitURL returns true if "uri" refers to a git repository rather than an archive.
func IsGitURL(uri string) bool {
	repo := strings.SplitN(uri, "#", 2)[0]
	switch {
	case strings.HasSuffix(repo, ".git"), strings.HasPrefix(repo, "git@"),
		strings.HasPrefix(repo, "git://"), strings.HasPrefix(repo, "git+ssh://"), strings.HasPrefix(repo, "ssh://"):
		return true
	default:
		return strings.Contains(uri, "#")
	}
}
