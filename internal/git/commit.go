package git

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Signature holds authorship information for a commit.
type Signature struct {
	// Name of the signer.
	Name string

	// Email of the signer.
	Email string

	// Time at which the signature was made.
	// If this is zero, the current time is used.
	Time time.Time
}

// typ is one of "COMMIT" or "AUTHOR".
func (s *Signature) appendEnv(typ string, env []string) []string {
	if s == nil {
		return env
	}

	env = append(env, "GIT_"+typ+"_NAME="+s.Name)
	env = append(env, "GIT_"+typ+"_EMAIL="+s.Email)
	if !s.Time.IsZero() {
		env = append(env, "GIT_"+typ+"_DATE="+s.Time.Format(time.RFC3339))
	}
	return env
}

// CommitTreeRequest is a request to create a new commit object
// without touching the index or the working tree.
type CommitTreeRequest struct {
	// Tree is the hash of a tree object representing the state of the
	// repository at the time of the commit.
	Tree Hash // required

	// Message is the commit message.
	Message string // required

	// Parents are the hashes of the parent commits.
	// This will usually have one element. It may have more than one
	// element for a merge commit, and no elements for a root commit.
	Parents []Hash

	// Author and Committer sign the commit.
	// If Committer is nil, Author is used for both.
	Author, Committer *Signature
}

// CommitTree creates a new commit object with the given tree as its
// content, and returns the hash of the new commit.
//
// Unlike Commit, it does not read or modify the index or the working
// tree: it operates purely on the object database. This is the
// primitive used to fabricate squash commits when detecting whether a
// branch has already been squash-merged.
func (r *Repository) CommitTree(ctx context.Context, req CommitTreeRequest) (Hash, error) {
	if req.Message == "" {
		return ZeroHash, fmt.Errorf("commit-tree: empty commit message")
	}
	if req.Committer == nil {
		req.Committer = req.Author
	}

	args := make([]string, 0, 2+2*len(req.Parents))
	args = append(args, "commit-tree")
	for _, parent := range req.Parents {
		args = append(args, "-p", parent.String())
	}
	args = append(args, req.Tree.String())

	var env []string
	env = req.Author.appendEnv("AUTHOR", env)
	env = req.Committer.appendEnv("COMMITTER", env)

	out, err := r.gitCmd(ctx, args...).
		AppendEnv(env...).
		Stdin(strings.NewReader(req.Message)).
		OutputString(r.exec)
	if err != nil {
		return ZeroHash, fmt.Errorf("commit-tree: %w", err)
	}

	return Hash(out), nil
}

// CommitSubject reports the subject line of commitish's commit message.
func (r *Repository) CommitSubject(ctx context.Context, commitish string) (string, error) {
	out, err := r.gitCmd(ctx, "log", "-1", "--pretty=format:%s", commitish).
		OutputString(r.exec)
	if err != nil {
		return "", fmt.Errorf("git log: %w", err)
	}
	return out, nil
}

// CommitTime reports the commit time of commitish's tip.
func (r *Repository) CommitTime(ctx context.Context, commitish string) (time.Time, error) {
	out, err := r.gitCmd(ctx, "log", "-1", "--pretty=format:%cI", commitish).
		OutputString(r.exec)
	if err != nil {
		return time.Time{}, fmt.Errorf("git log: %w", err)
	}
	t, err := time.Parse(time.RFC3339, out)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse commit time %q: %w", out, err)
	}
	return t, nil
}
