package main

import (
	"context"

	"go.chain.dev/chain/internal/silog"
	"go.chain.dev/chain/internal/text"
)

type chainSetupCmd struct {
	Chain   string   `arg:"" help:"Name of the chain to create"`
	Root    string   `arg:"" help:"Branch the chain sits upon"`
	Members []string `arg:"" help:"Member branches, in chain order" predictor:"branches"`
}

func (*chainSetupCmd) Help() string {
	return text.Dedent(`
		Creates a new chain from scratch, with root as its base branch
		and each of the given members stacked on top of it in order.
	`)
}

func (cmd *chainSetupCmd) Run(ctx context.Context, log *silog.Logger) error {
	repo, err := openRepo(ctx, log)
	if err != nil {
		return err
	}
	store := openStore(repo, log)

	if err := store.Setup(ctx, cmd.Chain, cmd.Root, cmd.Members); err != nil {
		return err
	}

	log.Infof("created chain %s with %d member(s)", cmd.Chain, len(cmd.Members))
	return nil
}
