package main

import (
	"context"

	"go.chain.dev/chain/internal/ops"
	"go.chain.dev/chain/internal/silog"
	"go.chain.dev/chain/internal/text"
)

type chainFirstCmd struct{}

func (*chainFirstCmd) Help() string {
	return text.Dedent(`
		Checks out the first branch in the active chain.
	`)
}

func (cmd *chainFirstCmd) Run(ctx context.Context, log *silog.Logger) error {
	return moveTo(ctx, log, ops.First)
}
