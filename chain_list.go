package main

import (
	"context"
	"fmt"

	"go.chain.dev/chain/internal/silog"
	"go.chain.dev/chain/internal/text"
)

type chainListCmd struct{}

func (*chainListCmd) Help() string {
	return text.Dedent(`
		Lists every chain known to the repository, with its root and
		member branches in chain order.
	`)
}

func (cmd *chainListCmd) Run(ctx context.Context, log *silog.Logger) error {
	repo, err := openRepo(ctx, log)
	if err != nil {
		return err
	}
	store := openStore(repo, log)

	chains, err := store.List(ctx)
	if err != nil {
		return err
	}

	if len(chains) == 0 {
		fmt.Println("no chains")
		return nil
	}

	for _, c := range chains {
		fmt.Printf("%s (root: %s)\n", c.Name, c.Root)
		for _, m := range c.Members {
			fmt.Printf("  %s\n", m)
		}
	}
	return nil
}
