// Package gittest builds small real Git repositories for tests that
// exercise internal/git's subprocess wrapper directly, rather than a
// generated mock of it (see DESIGN.md's note on dropping
// go.uber.org/mock). internal/git has no interface boundary to mock:
// it is a concrete wrapper around the real git binary, so tests drive
// that binary against disposable temporary repositories instead.
package gittest

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"sync/atomic"
	"testing"

	"go.chain.dev/chain/internal/git"
)

// fileCounter guarantees each Commit call touches a distinct file, so
// that two branches that both call Commit never end up with
// identical trees by accident (which would otherwise look like a
// squash-merge to SquashDetector's tip-tree fast path).
var fileCounter atomic.Uint64

// New initializes a fresh repository rooted at a temporary directory,
// with a single initial commit on branch "main", and returns a handle
// to it.
func New(t *testing.T) *git.Repository {
	t.Helper()

	dir := t.TempDir()
	run(t, dir, "init", "--quiet", "--initial-branch=main")
	run(t, dir, "commit", "--allow-empty", "--quiet", "-m", "initial commit")

	repo, err := git.Open(context.Background(), dir, git.OpenOptions{})
	if err != nil {
		t.Fatalf("open test repo: %v", err)
	}
	return repo
}

// Commit checks out branch (creating it from the current HEAD if it
// does not already exist) and records a commit with the given
// message, touching a file unique to this call so the commit's tree
// always differs from its parent's.
func Commit(t *testing.T, repo *git.Repository, branch, message string) {
	t.Helper()

	dir := repo.RootDir()
	if repo.BranchExists(context.Background(), branch) {
		run(t, dir, "checkout", "--quiet", branch)
	} else {
		run(t, dir, "checkout", "--quiet", "-b", branch)
	}

	name := "commit-" + strconv.FormatUint(fileCounter.Add(1), 10) + ".txt"
	if err := os.WriteFile(dir+string(os.PathSeparator)+name, []byte(message+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	run(t, dir, "add", name)
	run(t, dir, "commit", "--quiet", "-m", message)
}

// WriteFile writes contents to name inside the repository's worktree
// and stages it, without committing. Used to build dirty-worktree
// fixtures.
func WriteFile(t *testing.T, repo *git.Repository, name, contents string) {
	t.Helper()

	dir := repo.RootDir()
	if err := os.WriteFile(dir+string(os.PathSeparator)+name, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	run(t, dir, "add", name)
}

// CommitFile checks out branch (creating it from the current HEAD if
// it does not already exist), writes contents to name, and commits
// it. Used to build conflicting histories for rebase/merge tests.
func CommitFile(t *testing.T, repo *git.Repository, branch, name, contents, message string) {
	t.Helper()

	dir := repo.RootDir()
	if repo.BranchExists(context.Background(), branch) {
		run(t, dir, "checkout", "--quiet", branch)
	} else {
		run(t, dir, "checkout", "--quiet", "-b", branch)
	}
	if err := os.WriteFile(dir+string(os.PathSeparator)+name, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	run(t, dir, "add", name)
	run(t, dir, "commit", "--quiet", "-m", message)
}

// Orphan creates branch with no history in common with the rest of
// the repository (git checkout --orphan), with a single commit on
// it. Used to exercise fork-point resolution against unrelated
// histories.
func Orphan(t *testing.T, repo *git.Repository, branch string) {
	t.Helper()

	dir := repo.RootDir()
	run(t, dir, "checkout", "--quiet", "--orphan", branch)
	run(t, dir, "commit", "--allow-empty", "--quiet", "-m", branch+" root commit")
}

func run(t *testing.T, dir string, args ...string) {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=chain-test", "GIT_AUTHOR_EMAIL=chain-test@example.com",
		"GIT_COMMITTER_NAME=chain-test", "GIT_COMMITTER_EMAIL=chain-test@example.com",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}
