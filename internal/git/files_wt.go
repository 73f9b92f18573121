package git

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"iter"
)

// ListFilesOptions filters the output of ListFilesPaths.
type ListFilesOptions struct {
	// Unmerged states that only unmerged files should be shown.
	Unmerged bool
}

// ListFilesPaths lists files in the worktree or the index,
// filtered per opts.
func (w *Worktree) ListFilesPaths(ctx context.Context, opts *ListFilesOptions) iter.Seq2[string, error] {
	opts = cmp.Or(opts, &ListFilesOptions{})
	args := []string{"ls-files", "--format=%(path)"}
	if opts.Unmerged {
		args = append(args, "--unmerged")
	}

	return func(yield func(string, error) bool) {
		out, err := w.gitCmd(ctx, args...).Output(w.exec)
		if err != nil {
			yield("", fmt.Errorf("git ls-files: %w", err))
			return
		}

		shown := make(map[string]struct{})
		for _, line := range bytes.Split(out, []byte{'\n'}) {
			if len(line) == 0 {
				continue
			}
			path := string(line)
			if _, ok := shown[path]; ok {
				continue
			}
			shown[path] = struct{}{}

			if !yield(path, nil) {
				return
			}
		}
	}
}
