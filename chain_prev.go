package main

import (
	"context"

	"go.chain.dev/chain/internal/ops"
	"go.chain.dev/chain/internal/silog"
	"go.chain.dev/chain/internal/text"
)

type chainPrevCmd struct{}

func (*chainPrevCmd) Help() string {
	return text.Dedent(`
		Checks out the branch before the current one in its chain (the
		chain's root, if the current branch is first).
	`)
}

func (cmd *chainPrevCmd) Run(ctx context.Context, log *silog.Logger) error {
	return moveTo(ctx, log, ops.Prev)
}
