package main

import (
	"context"

	"go.chain.dev/chain/internal/ops"
	"go.chain.dev/chain/internal/silog"
	"go.chain.dev/chain/internal/text"
)

type chainNextCmd struct{}

func (*chainNextCmd) Help() string {
	return text.Dedent(`
		Checks out the branch after the current one in its chain.
	`)
}

func (cmd *chainNextCmd) Run(ctx context.Context, log *silog.Logger) error {
	return moveTo(ctx, log, ops.Next)
}
