package main

import (
	"context"

	"go.chain.dev/chain/internal/ops"
	"go.chain.dev/chain/internal/silog"
	"go.chain.dev/chain/internal/text"
)

type chainLastCmd struct{}

func (*chainLastCmd) Help() string {
	return text.Dedent(`
		Checks out the last branch in the active chain.
	`)
}

func (cmd *chainLastCmd) Run(ctx context.Context, log *silog.Logger) error {
	return moveTo(ctx, log, ops.Last)
}
