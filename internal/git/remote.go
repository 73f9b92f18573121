package git

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// ListRemotes returns the names of remotes configured for the
// repository.
func (r *Repository) ListRemotes(ctx context.Context) ([]string, error) {
	out, err := r.gitCmd(ctx, "remote").Output(r.exec)
	if err != nil {
		return nil, fmt.Errorf("git remote: %w", err)
	}

	var remotes []string
	for _, line := range bytes.Split(out, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		remotes = append(remotes, string(line))
	}
	return remotes, nil
}

// RemoteURL reports the URL of a known Git remote.
func (r *Repository) RemoteURL(ctx context.Context, remote string) (string, error) {
	url, err := r.gitCmd(ctx, "remote", "get-url", remote).OutputString(r.exec)
	if err != nil {
		return "", fmt.Errorf("git remote get-url: %w", err)
	}
	return url, nil
}

// RemoteDefaultBranch reports the default branch of a remote.
// The remote must be known to the repository.
func (r *Repository) RemoteDefaultBranch(ctx context.Context, remote string) (string, error) {
	ref, err := r.gitCmd(
		ctx, "symbolic-ref", "--short", "refs/remotes/"+remote+"/HEAD").
		OutputString(r.exec)
	if err != nil {
		return "", fmt.Errorf("git symbolic-ref: %w", err)
	}

	ref = strings.TrimPrefix(ref, remote+"/")
	return ref, nil
}
