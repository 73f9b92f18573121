package main

import (
	"context"

	"go.chain.dev/chain/internal/ops"
	"go.chain.dev/chain/internal/silog"
	"go.chain.dev/chain/internal/text"
)

type chainBackupCmd struct {
	Chain string `help:"Operate on the named chain rather than the active one" predictor:"chains"`
}

func (*chainBackupCmd) Help() string {
	return text.Dedent(`
		Records a backup-<chain>/<branch> ref at the current tip of
		every member of a chain, so it can be recovered after a risky
		rebase or merge.
	`)
}

func (cmd *chainBackupCmd) Run(ctx context.Context, log *silog.Logger) error {
	repo, err := openRepo(ctx, log)
	if err != nil {
		return err
	}
	store := openStore(repo, log)

	chainName, err := store.ResolveChainName(ctx, cmd.Chain)
	if err != nil {
		return err
	}
	c, err := store.Get(ctx, chainName)
	if err != nil {
		return err
	}

	if err := ops.Backup(ctx, repo, c); err != nil {
		return err
	}

	log.Infof("backed up chain %s", c.Name)
	return nil
}
