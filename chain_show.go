package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"go.chain.dev/chain/internal/silog"
	"go.chain.dev/chain/internal/text"
)

// chainShowCmd is the default command: it prints the active chain and
// its member branches, marking the one currently checked out.
type chainShowCmd struct{}

func (*chainShowCmd) Help() string {
	return text.Dedent(`
		Prints the chain containing the currently checked out branch,
		with its root and every member in chain order.
	`)
}

func (cmd *chainShowCmd) Run(ctx context.Context, log *silog.Logger) error {
	repo, err := openRepo(ctx, log)
	if err != nil {
		return err
	}
	store := openStore(repo, log)

	c, err := store.GetActive(ctx)
	if err != nil {
		return err
	}

	current, err := repo.Worktree().CurrentBranch(ctx)
	if err != nil {
		current = ""
	}

	fmt.Printf("%s (root: %s)\n", c.Name, c.Root)
	for _, m := range c.Members {
		marker := "  "
		if m == current {
			marker = "* "
		}

		age := ""
		if t, err := repo.CommitTime(ctx, m); err == nil {
			age = fmt.Sprintf(" (%s)", humanize.Time(t))
		}
		fmt.Printf("%s%s%s\n", marker, m, age)
	}
	return nil
}
