package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"go.chain.dev/chain/internal/chain"
	"go.chain.dev/chain/internal/git"
	"go.chain.dev/chain/internal/ops"
	"go.chain.dev/chain/internal/silog"
)

// mainCmd is the root of the CLI grammar (§6).
type mainCmd struct {
	Verbose bool               `short:"v" help:"Enable verbose output" env:"CHAIN_VERBOSE"`
	Dir     kong.ChangeDirFlag `short:"C" placeholder:"DIR" help:"Change to DIR before doing anything"`
	Version versionFlag        `help:"Print version information and quit"`

	Show chainShowCmd `cmd:"" name:"show" default:"1" hidden:"" help:"Print the active chain"`

	List   chainListCmd   `cmd:"" name:"list" help:"List all chains"`
	Setup  chainSetupCmd  `cmd:"" name:"setup" help:"Create a new chain"`
	Init   chainInitCmd   `cmd:"" name:"init" help:"Add the current branch to a chain"`
	Rename chainRenameCmd `cmd:"" name:"rename" help:"Rename the active chain"`
	Remove chainRemoveCmd `cmd:"" name:"remove" help:"Remove a branch from its chain"`
	Move   chainMoveCmd   `cmd:"" name:"move" help:"Reposition a branch within or across chains"`

	Rebase chainRebaseCmd `cmd:"" name:"rebase" help:"Cascade-rebase the active chain onto its root"`
	Merge  chainMergeCmd  `cmd:"" name:"merge" help:"Cascade-merge the active chain's parents into their children"`

	Backup chainBackupCmd `cmd:"" name:"backup" help:"Create backup branches for the active chain"`
	Push   chainPushCmd   `cmd:"" name:"push" help:"Push every member of the active chain"`
	Prune  chainPruneCmd  `cmd:"" name:"prune" help:"Report chain members already merged upstream"`

	First chainFirstCmd `cmd:"" name:"first" help:"Switch to the first branch in the active chain"`
	Last  chainLastCmd  `cmd:"" name:"last" help:"Switch to the last branch in the active chain"`
	Next  chainNextCmd  `cmd:"" name:"next" help:"Switch to the next branch in the active chain"`
	Prev  chainPrevCmd  `cmd:"" name:"prev" help:"Switch to the previous branch in the active chain"`

	Complete completeCmd `cmd:"" name:"complete" help:"Generate shell completion scripts"`
}

func (cmd *mainCmd) AfterApply(logger *silog.Logger) error {
	if cmd.Verbose {
		logger.SetLevel(silog.LevelDebug)
	}
	return nil
}

// openRepo opens the Git repository rooted at the current directory,
// the way every chain subcommand does before touching chain metadata.
func openRepo(ctx context.Context, log *silog.Logger) (*git.Repository, error) {
	repo, err := git.Open(ctx, ".", git.OpenOptions{Log: log})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return repo, nil
}

// openStore opens the chain metadata store for repo.
func openStore(repo *git.Repository, log *silog.Logger) *chain.Store {
	return chain.NewStore(repo, log)
}

// moveTo checks out the active chain's neighbor branch in direction dir,
// shared by the first/last/next/prev commands.
func moveTo(ctx context.Context, log *silog.Logger, dir ops.Neighbor) error {
	repo, err := openRepo(ctx, log)
	if err != nil {
		return err
	}
	store := openStore(repo, log)

	c, err := store.GetActive(ctx)
	if err != nil {
		return err
	}

	if err := ops.Move(ctx, repo.Worktree(), c, dir); err != nil {
		return err
	}

	branch, err := repo.Worktree().CurrentBranch(ctx)
	if err != nil {
		return nil
	}
	log.Infof("switched to %s", branch)
	return nil
}
