package main

import (
	"context"

	"go.chain.dev/chain/internal/silog"
	"go.chain.dev/chain/internal/text"
)

type chainRenameCmd struct {
	NewName string `arg:"" name:"newName" help:"New name for the chain"`
}

func (*chainRenameCmd) Help() string {
	return text.Dedent(`
		Renames the active chain.
	`)
}

func (cmd *chainRenameCmd) Run(ctx context.Context, log *silog.Logger) error {
	repo, err := openRepo(ctx, log)
	if err != nil {
		return err
	}
	store := openStore(repo, log)

	c, err := store.GetActive(ctx)
	if err != nil {
		return err
	}

	if err := store.Rename(ctx, c.Name, cmd.NewName); err != nil {
		return err
	}

	log.Infof("renamed chain %s to %s", c.Name, cmd.NewName)
	return nil
}
