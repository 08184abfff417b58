// Package gitops keeps a ledger directory under git so that exported
// journals and configuration carry a reviewable history.
package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Repo is a git working tree rooted at Dir.
type Repo struct {
	Dir string
}

// Init initializes a new git repository at dir.
func Init(dir string) (*Repo, error) {
	r := &Repo{Dir: dir}
	if _, err := r.git(nil, "init", "--quiet"); err != nil {
		return nil, err
	}
	return r, nil
}

// Open returns the repository at dir, or an error if dir is not one.
func Open(dir string) (*Repo, error) {
	if !IsRepo(dir) {
		return nil, fmt.Errorf("%s is not a git repository: run `cashbook init --git`", dir)
	}
	return &Repo{Dir: dir}, nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Commit stages paths (relative to Dir) and commits them as actor.
// It returns the short hash, or "" when nothing changed.
func (r *Repo) Commit(paths []string, message, actor string) (string, error) {
	args := append([]string{"add", "--"}, paths...)
	if _, err := r.git(nil, args...); err != nil {
		return "", err
	}

	// diff --cached --quiet exits 1 when something is staged.
	if _, err := r.git(nil, "diff", "--cached", "--quiet"); err == nil {
		return "", nil
	}

	env := identity(actor)
	if _, err := r.git(env, "commit", "--quiet", "-m", message); err != nil {
		return "", err
	}

	out, err := r.git(nil, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (r *Repo) git(env []string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), env...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return string(out), nil
}

// identity sets both author and committer so commits work without a
// global git config.
func identity(actor string) []string {
	if actor == "" {
		actor = "system"
	}
	email := actor + "@cashbook.local"
	return []string{
		"GIT_AUTHOR_NAME=" + actor,
		"GIT_AUTHOR_EMAIL=" + email,
		"GIT_COMMITTER_NAME=" + actor,
		"GIT_COMMITTER_EMAIL=" + email,
	}
}
