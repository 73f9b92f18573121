package main

import (
	"context"

	"go.chain.dev/chain/internal/chain"
	"go.chain.dev/chain/internal/silog"
	"go.chain.dev/chain/internal/text"
)

type chainInitCmd struct {
	Chain string `arg:"" help:"Name of the chain to join (created if it doesn't yet exist)"`
	Root  string `arg:"" help:"Branch the chain sits upon, if the chain is being created"`

	Before string `help:"Insert before this branch" xor:"anchor" predictor:"branches"`
	After  string `help:"Insert after this branch" xor:"anchor" predictor:"branches"`
	First  bool   `help:"Insert at the start of the chain" xor:"anchor"`
}

func (*chainInitCmd) Help() string {
	return text.Dedent(`
		Adds the currently checked out branch to a chain, creating the
		chain if it does not yet exist. By default the branch is
		appended to the end of the chain.
	`)
}

func (cmd *chainInitCmd) Run(ctx context.Context, log *silog.Logger) error {
	repo, err := openRepo(ctx, log)
	if err != nil {
		return err
	}
	store := openStore(repo, log)

	anchor := chain.InitAnchor{
		Before: cmd.Before,
		After:  cmd.After,
		First:  cmd.First,
		Last:   cmd.Before == "" && cmd.After == "" && !cmd.First,
	}

	if err := store.Init(ctx, cmd.Chain, cmd.Root, anchor); err != nil {
		return err
	}

	log.Infof("added current branch to chain %s", cmd.Chain)
	return nil
}
